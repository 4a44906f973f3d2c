package fontastic

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tdewolff/fontastic/sfnt"
	"github.com/tdewolff/test"
	xsfnt "golang.org/x/image/font/sfnt"
)

func newFont(t *testing.T, name string, opts Options) *Font {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	f, err := New(name, opts)
	test.Error(t, err)
	return f
}

func square() *Contour {
	return NewContour(NewPoint(0, 0), NewPoint(0, 700), NewPoint(700, 700), NewPoint(700, 0))
}

func TestPointKind(t *testing.T) {
	p := NewPoint(10, 20)
	test.T(t, p.Kind(), Corner)
	test.That(t, !p.ControlPoint1.IsSet())

	p.SetControlPoint1(0, 0)
	test.T(t, p.Kind(), InHandle)
	test.That(t, p.ControlPoint1.IsSet(), "control point at the origin is present")

	p.ClearControlPoints()
	p.SetControlPoint2(5, 5)
	test.T(t, p.Kind(), OutHandle)

	p.SetControlPoint1(1, 2).SetControlPoint2(3, 4)
	test.T(t, p.Kind(), Smooth)
	test.T(t, p.ControlPoint1, Control(1, 2))
	test.T(t, p.ControlPoint2, Control(3, 4))

	q := NewCurvePoint(1, 2, 3, 4, 5, 6)
	test.T(t, q.Kind(), Smooth)
	cp, ok := q.ControlPoint2.Vec()
	test.That(t, ok)
	test.T(t, cp, Vec{5, 6})
	test.T(t, q.String(), "(1,2) in=(3,4) out=(5,6)")

	q.ClearControlPoints()
	test.T(t, q.Kind(), Corner)
	test.T(t, q.Vec(), Vec{1, 2})
}

func TestContour(t *testing.T) {
	c := NewContour()
	test.T(t, c.Len(), 0)
	c.AddPoint(NewPoint(1, 1))
	c.AddPoints(NewPoint(2, 2), NewPoint(3, 3))
	test.T(t, c.Len(), 3)
	test.T(t, c.Points()[2], NewPoint(3, 3))

	r := Rect(10, 20, 30, 40)
	want := []Point{NewPoint(10, 20), NewPoint(10, 60), NewPoint(40, 60), NewPoint(40, 20)}
	if diff := cmp.Diff(want, r.Points(), cmp.AllowUnexported(ControlPoint{})); diff != "" {
		t.Fatalf("rect mismatch (-want +got):\n%s", diff)
	}
}

func TestAddGlyph(t *testing.T) {
	f := newFont(t, "Test", Options{})
	a := f.AddGlyph('A')
	test.T(t, a.Char(), 'A')
	test.T(t, a.AdvanceWidth(), DefaultAdvanceWidth)

	f.SetAdvanceWidth(300)
	b := f.AddGlyph('B', square(), square())
	test.T(t, b.AdvanceWidth(), 300)
	test.T(t, a.AdvanceWidth(), DefaultAdvanceWidth)
	test.T(t, len(b.Contours()), 2)

	a2 := f.AddGlyph('A')
	g, ok := f.Glyph('A')
	test.That(t, ok)
	test.That(t, g == a, "first glyph must be found")
	test.That(t, g != a2)

	_, ok = f.Glyph('Z')
	test.That(t, !ok)

	test.T(t, f.NumGlyphs(), 3)
	glyphs := f.Glyphs()
	glyphs[0] = nil
	test.That(t, f.Glyphs()[0] == a, "Glyphs returns a copy")
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "Test", "stale.txt")
	test.Error(t, os.MkdirAll(filepath.Dir(stale), 0755))
	test.Error(t, os.WriteFile(stale, []byte("x"), 0644))

	f := newFont(t, "Test", Options{Dir: dir})
	test.T(t, f.Dir(), filepath.Join(dir, "Test"))
	test.T(t, f.TTFFilename(), filepath.Join(dir, "Test", "Test.ttf"))
	test.T(t, f.WOFFFilename(), filepath.Join(dir, "Test", "Test.woff"))
	test.T(t, f.TemplateFilename(), filepath.Join(dir, "Test", "template.html"))
	test.T(t, f.Typeface().FamilyName, "Test")
	test.T(t, f.Typeface().License, "CC BY-SA 3.0 http://creativecommons.org/licenses/by-sa/3.0/")

	_, err := os.Stat(stale)
	test.That(t, os.IsNotExist(err), "working directory must be cleared")
	_, err = os.Stat(f.Dir())
	test.Error(t, err)

	_, err = New("", Options{Dir: dir})
	test.That(t, err != nil)
	_, err = New("../Test", Options{Dir: dir})
	test.That(t, err != nil)
}

func TestBuild(t *testing.T) {
	f := newFont(t, "Test", Options{})
	f.AddGlyph('A', square())
	report, err := f.Build()
	test.Error(t, err)
	test.T(t, len(report.Warnings), 0)
	test.T(t, report.Files, []string{f.TTFFilename()})

	b, err := os.ReadFile(f.TTFFilename())
	test.Error(t, err)
	font, err := sfnt.ParseSFNT(b)
	test.Error(t, err)

	glyphID := font.GlyphIndex('A')
	test.That(t, glyphID != 0)
	test.T(t, font.GlyphAdvance(glyphID), uint16(512))
	contour, err := font.GlyphContour(glyphID)
	test.Error(t, err)
	test.T(t, contour.NumContours(), 1)
	test.T(t, contour.XCoordinates, []int16{0, 0, 700, 700})
	test.T(t, contour.YCoordinates, []int16{0, 700, 700, 0})
	test.T(t, contour.OnCurve, []bool{true, true, true, true})

	// glyph records are saved per glyph
	_, err = os.Stat(filepath.Join(f.Dir(), sfnt.GlyphDir, "uni0041.yaml"))
	test.Error(t, err)
}

func TestBuildOrder(t *testing.T) {
	f := newFont(t, "Test", Options{})
	f.AddGlyph('B', Rect(0, 0, 100, 100))
	f.AddGlyph('A', Rect(0, 0, 200, 200), Rect(50, 50, 100, 100))
	report, err := f.Build()
	test.Error(t, err)

	font := report.Font
	idB, idA := font.GlyphIndex('B'), font.GlyphIndex('A')
	test.That(t, idB != 0 && idB < idA, "glyphs must be built in the order they were added")

	contour, err := font.GlyphContour(idA)
	test.Error(t, err)
	test.T(t, contour.NumContours(), 2)
	xs, _, _ := contour.Points(1)
	test.T(t, xs, []int16{50, 50, 150, 150})
}

func TestEmitContour(t *testing.T) {
	p0 := NewPoint(0, 0)
	p0.SetControlPoint2(0, 400)
	p1 := NewPoint(500, 500)
	p1.SetControlPoint1(100, 500)
	p2 := NewCurvePoint(500, 0, 520, 200, 480, -50)
	p3 := NewPoint(250, -10)
	p3.SetControlPoint1(0, 0)

	got := emitContour(NewContour(p0, p1, p2, p3, NewPoint(0, 0)))
	want := &sfnt.Contour{
		Type: sfnt.Cubic,
		Points: []sfnt.ContourPoint{
			{X: 0, Y: 0, OnCurve: true, Out: &sfnt.ControlPoint{X: 0, Y: 400}},
			{X: 500, Y: 500, OnCurve: true, In: &sfnt.ControlPoint{X: 100, Y: 500}},
			{X: 500, Y: 0, OnCurve: true, In: &sfnt.ControlPoint{X: 520, Y: 200}, Out: &sfnt.ControlPoint{X: 480, Y: -50}},
			{X: 250, Y: -10, OnCurve: true, In: &sfnt.ControlPoint{X: 0, Y: 0}},
			{X: 0, Y: 0, OnCurve: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("contour mismatch (-want +got):\n%s", diff)
	}

	test.T(t, len(emitContour(NewContour()).Points), 0)
}

func TestBuildCurve(t *testing.T) {
	p0 := NewPoint(0, 0)
	p0.SetControlPoint2(0, 400)
	p1 := NewPoint(500, 500)
	p1.SetControlPoint1(100, 500)

	f := newFont(t, "Test", Options{})
	f.AddGlyph('a', NewContour(p0, p1, NewPoint(500, 0)))
	report, err := f.Build()
	test.Error(t, err)

	contour, err := report.Font.GlyphContour(report.Font.GlyphIndex('a'))
	test.Error(t, err)
	offCurve := 0
	for _, onCurve := range contour.OnCurve {
		if !onCurve {
			offCurve++
		}
	}
	test.That(t, 0 < offCurve, "curved segment must have off-curve points")
	test.T(t, contour.XMax, int16(500))
	test.That(t, 499 <= contour.YMax && contour.YMax <= 501, contour.YMax)
}

func TestBuildTwice(t *testing.T) {
	opts := DefaultOptions()
	opts.Dir = t.TempDir()
	opts.WOFF2 = true
	f := newFont(t, "Test", opts)
	f.AddGlyph('A', square())

	_, err := f.Build()
	test.Error(t, err)
	ttf1, err := os.ReadFile(f.TTFFilename())
	test.Error(t, err)
	woff1, err := os.ReadFile(f.WOFFFilename())
	test.Error(t, err)

	report, err := f.Build()
	test.Error(t, err)
	ttf2, err := os.ReadFile(f.TTFFilename())
	test.Error(t, err)
	woff2, err := os.ReadFile(f.WOFFFilename())
	test.Error(t, err)
	test.Bytes(t, ttf2, ttf1)
	test.Bytes(t, woff2, woff1)
	test.T(t, report.Files, []string{f.TTFFilename(), f.WOFFFilename(), f.WOFF2Filename(), f.TemplateFilename()})

	entries, err := os.ReadDir(f.Dir())
	test.Error(t, err)
	test.T(t, len(entries), 5) // ttf, woff, woff2, template.html, glyphs
}

func TestMetricRange(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := newFont(t, "Test", Options{Logger: logger})

	test.Error(t, f.SetAscender(700))
	err := f.SetAscender(2000)
	var rangeErr *sfnt.RangeError
	test.That(t, errors.As(err, &rangeErr))
	test.T(t, rangeErr.Metric, sfnt.Ascender)
	test.T(t, f.Metric(sfnt.Ascender), 700.0)
	test.That(t, strings.Contains(buf.String(), "level=WARN"), buf.String())
	test.That(t, strings.Contains(buf.String(), "metric=ascender"), buf.String())

	test.That(t, f.SetXHeight(800) != nil, "x-height above ascender")
	test.T(t, f.Metric(sfnt.XHeight), 424.0)
	test.That(t, f.SetDescender(-1) != nil)
	test.Error(t, f.SetBaseline(100))
	test.Error(t, f.SetMeanline(400))
	test.Error(t, f.SetTopSideBearing(100))
	test.Error(t, f.SetBottomSideBearing(10))

	f.SetDefaultMetrics()
	test.T(t, f.Metric(sfnt.Ascender), 683.0)
	test.T(t, f.Metric(sfnt.Baseline), 0.0)

	_, err = f.Build()
	test.Error(t, err)
}

func TestDebugLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFont(t, "Test", Options{Logger: logger})
	f.AddGlyph('A')
	test.T(t, buf.Len(), 0)

	f.SetDebug(true)
	f.AddGlyph('B')
	_, err := f.Build()
	test.Error(t, err)
	test.That(t, strings.Contains(buf.String(), "glyph added"), buf.String())
	test.That(t, strings.Contains(buf.String(), "built file"), buf.String())
}

func TestEngineBusy(t *testing.T) {
	engine := sfnt.NewEngine()
	f1 := newFont(t, "One", Options{Engine: engine})
	f2 := newFont(t, "Two", Options{Engine: engine})

	session, err := engine.Open(f1.Typeface(), "")
	test.Error(t, err)
	_, err = f2.Build()
	test.That(t, errors.Is(err, sfnt.ErrBusy))
	session.Close()

	_, err = f2.Build()
	test.Error(t, err)
	_, err = f1.Build()
	test.Error(t, err)
}

func TestPackage(t *testing.T) {
	f := newFont(t, "Test", Options{})
	f.AddGlyph('A', square())
	_, err := f.Build()
	test.Error(t, err)

	dir := t.TempDir()
	woffPath := filepath.Join(dir, "Test.woff")
	test.Error(t, PackageWOFF(f.TTFFilename(), woffPath))
	b, err := os.ReadFile(woffPath)
	test.Error(t, err)
	test.T(t, string(b[:4]), "wOFF")

	woff2Path := filepath.Join(dir, "Test.woff2")
	test.Error(t, PackageWOFF2(f.TTFFilename(), woff2Path))
	b, err = os.ReadFile(woff2Path)
	test.Error(t, err)
	test.T(t, string(b[:4]), "wOF2")

	err = PackageWOFF(filepath.Join(dir, "missing.ttf"), woffPath)
	test.That(t, errors.Is(err, ErrUnreadableInput), err)
	var packageErr *PackageError
	test.That(t, errors.As(err, &packageErr))
	test.T(t, packageErr.Path, filepath.Join(dir, "missing.ttf"))

	notFont := filepath.Join(dir, "notfont.ttf")
	test.Error(t, os.WriteFile(notFont, []byte("not a font"), 0644))
	err = PackageWOFF(notFont, woffPath)
	test.That(t, errors.Is(err, ErrUnparseableFont), err)

	err = PackageWOFF(f.TTFFilename(), filepath.Join(dir, "missing", "Test.woff"))
	test.That(t, errors.Is(err, ErrUnwritableOutput), err)
}

func TestPackageWarning(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Dir = t.TempDir()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	opts.Template = filepath.Join(opts.Dir, "missing.html")
	f := newFont(t, "Test", opts)
	f.AddGlyph('A', square())

	report, err := f.Build()
	test.Error(t, err)
	test.T(t, len(report.Warnings), 1)
	test.That(t, errors.Is(report.Warnings[0], ErrUnreadableInput))
	test.T(t, report.Files, []string{f.TTFFilename(), f.WOFFFilename()})
	test.That(t, strings.Contains(buf.String(), "level=WARN"), buf.String())
}

func TestTemplate(t *testing.T) {
	opts := DefaultOptions()
	opts.Dir = t.TempDir()
	f := newFont(t, "Test", opts)
	f.AddGlyph('A', square())
	_, err := f.Build()
	test.Error(t, err)

	b, err := os.ReadFile(f.TemplateFilename())
	test.Error(t, err)
	html := string(b)
	test.That(t, strings.Contains(html, `font-family: "Test";`), html)
	test.That(t, strings.Contains(html, `url("Test.woff")`), html)
	test.That(t, !strings.Contains(html, "$"), html)

	_, err = xsfnt.Parse(mustRead(t, f.TTFFilename()))
	test.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	values := map[string]string{"A": "1", "B": "two", "FONTNAME": "Test"}
	var tests = []struct {
		tmpl     string
		expected string
	}{
		{"", ""},
		{"no tokens here", "no tokens here"},
		{"cost: $5", "cost: $5"},
		{"$A$", "1"},
		{"$A$$B$", "1two"},
		{"x $A$ y $A$ z", "x 1 y 1 z"},
		{"$FONTNAME$.woff", "Test.woff"},
		{"$UNBOUND$ and $A$", "$UNBOUND$ and 1"},
		{"$A B$", "$A B$"},
		{"$$", "$$"},
		{"é$B$é", "étwoé"},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			test.String(t, Substitute(tt.tmpl, values), tt.expected)
		})
	}

	// idempotent without placeholders
	s := "<p>plain</p>"
	test.String(t, Substitute(Substitute(s, values), values), s)
}

func TestRenderTemplate(t *testing.T) {
	dst := filepath.Join(t.TempDir(), TemplateName)
	test.Error(t, RenderTemplate(dst, []byte("<title>$FONTNAME$</title>"), map[string]string{"FONTNAME": "Test"}))
	test.String(t, string(mustRead(t, dst)), "<title>Test</title>")

	err := RenderTemplate(filepath.Join(dst, "sub", TemplateName), nil, nil)
	test.That(t, errors.Is(err, ErrUnwritableOutput))
}

func TestCleanup(t *testing.T) {
	opts := DefaultOptions()
	opts.Dir = t.TempDir()
	f := newFont(t, "Test", opts)
	f.AddGlyph('A', square())
	_, err := f.Build()
	test.Error(t, err)
	test.Error(t, os.WriteFile(filepath.Join(f.Dir(), "scratch.txt"), []byte("x"), 0644))

	test.Error(t, f.Cleanup())
	entries, err := os.ReadDir(f.Dir())
	test.Error(t, err)
	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	test.T(t, names, []string{"Test.ttf", "Test.woff", "template.html"})
}

func TestCleanupRelativeDir(t *testing.T) {
	t.Chdir(t.TempDir())
	f, err := New("Test", DefaultOptions())
	test.Error(t, err)
	test.T(t, f.Dir(), filepath.Join("data", "Test"))
	f.AddGlyph('A', square())
	_, err = f.Build()
	test.Error(t, err)

	test.Error(t, f.Cleanup())
	for _, filename := range []string{f.TTFFilename(), f.WOFFFilename(), f.TemplateFilename()} {
		_, err := os.Stat(filename)
		test.Error(t, err, filename)
	}
	_, err = os.Stat(filepath.Join(f.Dir(), sfnt.GlyphDir))
	test.That(t, os.IsNotExist(err), "glyph records must be removed")
}

func TestBuildInvalidChar(t *testing.T) {
	for _, r := range []rune{-1, 0x110000} {
		f := newFont(t, "Test", Options{})
		f.AddGlyph('A', square())
		f.AddGlyph(r, square())
		_, err := f.Build()
		if err == nil {
			t.Fatalf("character %#x must be rejected", r)
		}
		test.That(t, strings.Contains(err.Error(), "outside of Unicode range"), err)
		_, err = os.Stat(f.TTFFilename())
		test.That(t, os.IsNotExist(err), "no font must be written")
	}

	f := newFont(t, "Test", Options{})
	f.AddGlyph(0xD800, square())
	_, err := f.Build()
	test.Error(t, err)
}

func TestTypefaceCopy(t *testing.T) {
	f := newFont(t, "Test", Options{})
	f.AddGlyph('A', square())
	f.Typeface().Name = "Other"
	f.Typeface().FamilyName = "Other"
	test.T(t, f.Typeface().Name, "Test")

	report, err := f.Build()
	test.Error(t, err)
	test.T(t, report.Font.FamilyName(), "Test")
	_, err = os.Stat(f.TTFFilename())
	test.Error(t, err)
}

func mustRead(t *testing.T, filename string) []byte {
	t.Helper()
	b, err := os.ReadFile(filename)
	test.Error(t, err)
	return b
}
