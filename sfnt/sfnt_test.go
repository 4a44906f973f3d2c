package sfnt

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/google/go-cmp/cmp"
	"github.com/tdewolff/test"
	xfont "golang.org/x/image/font"
	xsfnt "golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func glyphA() *Contour {
	c := &Contour{}
	c.AddContourPoint(ContourPoint{X: 0, Y: 0, OnCurve: true})
	c.AddContourPoint(ContourPoint{X: 256, Y: 683, OnCurve: true})
	c.AddContourPoint(ContourPoint{X: 512, Y: 0, OnCurve: true})
	c.AddContourPoint(ContourPoint{X: 256, Y: 200, OnCurve: true})
	return c
}

func buildFont(t *testing.T, typeface *Typeface, add func(*Session)) (*SFNT, []byte) {
	t.Helper()
	s, err := NewEngine().Open(typeface, "")
	test.Error(t, err)
	defer s.Close()
	add(s)
	font, b, err := s.BuildTrueType()
	test.Error(t, err)
	return font, b
}

func TestBuildGlyph(t *testing.T) {
	font, _ := buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph('A').AddContour(glyphA())
	})

	test.T(t, font.NumGlyphs(), uint16(5))
	test.T(t, font.GlyphIndex('A'), uint16(4))
	test.T(t, font.GlyphName(4), "uni0041")
	test.T(t, font.GlyphAdvance(4), uint16(512))
	test.T(t, font.FamilyName(), "Test")
	test.T(t, font.Head.UnitsPerEm, uint16(1024))
	test.T(t, font.Hhea.Ascender, int16(683+170))
	test.T(t, font.Hhea.Descender, int16(-171))

	contour, err := font.GlyphContour(4)
	test.Error(t, err)
	test.T(t, contour.NumContours(), 1)
	test.T(t, contour.XCoordinates, []int16{0, 256, 512, 256})
	test.T(t, contour.YCoordinates, []int16{0, 683, 0, 200})
	test.T(t, contour.OnCurve, []bool{true, true, true, true})
	test.T(t, contour.XMax, int16(512))
	test.T(t, contour.YMax, int16(683))
}

func TestDefaultGlyphs(t *testing.T) {
	font, _ := buildFont(t, NewTypeface("Test"), func(s *Session) {})
	test.T(t, font.NumGlyphs(), uint16(4))
	test.T(t, font.GlyphName(0), ".notdef")
	test.T(t, font.GlyphName(1), ".null")
	test.T(t, font.GlyphName(2), "nonmarkingreturn")
	test.T(t, font.GlyphName(3), "space")
	test.T(t, font.GlyphIndex(0x0000), uint16(1))
	test.T(t, font.GlyphIndex('\r'), uint16(2))
	test.T(t, font.GlyphIndex(' '), uint16(3))
	test.T(t, font.GlyphAdvance(3), uint16(512))

	notdef, err := font.GlyphContour(0)
	test.Error(t, err)
	test.T(t, notdef.NumContours(), 2)

	// a user space glyph replaces the default one
	font, _ = buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph(' ').SetAdvanceWidth(300)
	})
	test.T(t, font.NumGlyphs(), uint16(4))
	test.T(t, font.GlyphIndex(' '), uint16(3))
	test.T(t, font.GlyphName(3), "uni0020")
	test.T(t, font.GlyphAdvance(3), uint16(300))
}

func TestCubicHandles(t *testing.T) {
	c := &Contour{}
	c.AddContourPoint(ContourPoint{X: 0, Y: 0, OnCurve: true, Out: &ControlPoint{X: 0, Y: 400}})
	c.AddContourPoint(ContourPoint{X: 500, Y: 500, OnCurve: true, In: &ControlPoint{X: 100, Y: 500}})
	c.AddContourPoint(ContourPoint{X: 500, Y: 0, OnCurve: true})

	dir := t.TempDir()
	s, err := NewEngine().Open(NewTypeface("Test"), dir)
	test.Error(t, err)
	defer s.Close()
	g := s.AddGlyph('a')
	g.AddContour(c)
	test.Error(t, s.SaveGlyph(g))
	test.That(t, g.Saved())

	// the record keeps the exact handles
	read, err := ReadGlyphFile(filepath.Join(dir, GlyphDir, "uni0061.yaml"))
	test.Error(t, err)
	test.T(t, read.Char, 'a')
	test.T(t, read.AdvanceWidth, 512)
	if diff := cmp.Diff(g.Contours, read.Contours); diff != "" {
		t.Errorf("glyph record mismatch (-want +got):\n%s", diff)
	}

	font, _, err := s.BuildTrueType()
	test.Error(t, err)
	contour, err := font.GlyphContour(font.GlyphIndex('a'))
	test.Error(t, err)
	numOffCurve := 0
	for _, onCurve := range contour.OnCurve {
		if !onCurve {
			numOffCurve++
		}
	}
	test.That(t, 0 < numOffCurve, "curved segment must have off-curve points")
	test.T(t, contour.XCoordinates[0], int16(0))
	test.T(t, contour.YCoordinates[0], int16(0))
	test.That(t, contour.OnCurve[0])

	// the straight segments keep their anchors
	last := len(contour.XCoordinates) - 1
	test.T(t, contour.XCoordinates[last], int16(500))
	test.T(t, contour.YCoordinates[last], int16(0))
}

func TestCubicToQuads(t *testing.T) {
	cubic := func(p0, p1, p2, p3 vec, t float64) vec {
		a, b, c := p0.lerp(p1, t), p1.lerp(p2, t), p2.lerp(p3, t)
		return a.lerp(b, t).lerp(b.lerp(c, t), t)
	}
	quad := func(p0, p1, p2 vec, t float64) vec {
		return p0.lerp(p1, t).lerp(p1.lerp(p2, t), t)
	}

	p0, p1, p2, p3 := vec{0, 0}, vec{0, 800}, vec{900, 800}, vec{900, 0}
	var pieces [][3]vec
	start := p0
	cubicToQuads(p0, p1, p2, p3, func(ctrl, end vec, final bool) {
		pieces = append(pieces, [3]vec{start, ctrl, end})
		start = end
	})
	test.That(t, 1 < len(pieces))
	test.T(t, start, p3)

	n := float64(len(pieces))
	for k, piece := range pieces {
		for i := 0; i <= 10; i++ {
			s := float64(i) / 10.0
			d := cubic(p0, p1, p2, p3, (float64(k)+s)/n).sub(quad(piece[0], piece[1], piece[2], s)).length()
			test.That(t, d <= QuadTolerance+1e-9, "distance", d, "exceeds tolerance")
		}
	}

	// straight cubics need a single piece
	num := 0
	cubicToQuads(vec{0, 0}, vec{100, 0}, vec{200, 0}, vec{300, 0}, func(ctrl, end vec, final bool) {
		num++
	})
	test.T(t, num, 1)
}

func TestQuadraticContour(t *testing.T) {
	c := &Contour{Type: Quadratic}
	c.AddContourPoint(ContourPoint{X: 0, Y: 0, OnCurve: true})
	c.AddContourPoint(ContourPoint{X: 200, Y: 0, OnCurve: true, In: &ControlPoint{X: 100, Y: -100}})
	c.AddContourPoint(ContourPoint{X: 100, Y: 200, OnCurve: true})
	test.T(t, quadContour(c, 0), []quadPoint{{0, 0, true}, {100, -100, false}, {200, 0, true}, {100, 200, true}})
}

func TestEngineBusy(t *testing.T) {
	engine := NewEngine()
	s, err := engine.Open(NewTypeface("Test"), "")
	test.Error(t, err)

	_, err = engine.Open(NewTypeface("Other"), "")
	test.That(t, errors.Is(err, ErrBusy))

	s.Close()
	s.Close()
	test.That(t, errors.Is(s.SaveGlyph(&GlyphFile{}), ErrClosed))
	_, _, err = s.BuildTrueType()
	test.That(t, errors.Is(err, ErrClosed))

	s2, err := engine.Open(NewTypeface("Other"), "")
	test.Error(t, err)
	s2.Close()
}

func TestMetricRange(t *testing.T) {
	typeface := NewTypeface("Test")
	err := typeface.Set(XHeight, 2000)
	var rangeErr *RangeError
	test.That(t, errors.As(err, &rangeErr))
	test.T(t, rangeErr.Metric, XHeight)
	test.T(t, rangeErr.Max, 683.0)
	test.T(t, typeface.XHeight(), 424.0)

	test.That(t, typeface.Set(Baseline, -1025) != nil)
	test.That(t, typeface.Set(Ascender, math.NaN()) != nil)
	test.Error(t, typeface.Set(Baseline, -100))
	test.T(t, typeface.Get(Baseline), -100.0)

	test.Error(t, typeface.Set(XHeight, 0))
	test.Error(t, typeface.Set(Meanline, 400))
	test.T(t, typeface.XHeight(), 400.0)

	typeface = NewTypeface("Test")
	err = typeface.Set(Ascender, 300)
	test.That(t, errors.As(err, &rangeErr))
	test.T(t, rangeErr.Metric, Ascender)
	test.T(t, rangeErr.Min, 424.0)
	test.T(t, typeface.Ascender(), 683.0)
	test.Error(t, typeface.Set(XHeight, 200))
	test.Error(t, typeface.Set(Ascender, 300))
	test.T(t, typeface.Ascender(), 300.0)

	typeface.SetDefaultMetrics()
	test.T(t, typeface.Get(Baseline), 0.0)
	test.T(t, typeface.XHeight(), 424.0)
}

func TestBaseline(t *testing.T) {
	typeface := NewTypeface("Test")
	test.Error(t, typeface.Set(Baseline, 100))
	font, _ := buildFont(t, typeface, func(s *Session) {
		s.AddGlyph('A').AddContour(glyphA())
	})
	contour, err := font.GlyphContour(font.GlyphIndex('A'))
	test.Error(t, err)
	test.T(t, contour.YCoordinates, []int16{-100, 583, -100, 100})
}

func TestDeterministic(t *testing.T) {
	typeface := NewTypeface("Test")
	typeface.Modified = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	add := func(s *Session) {
		s.AddGlyph('A').AddContour(glyphA())
		s.AddGlyph('B').AddContour(rectContour(0, 0, 400, 600, false))
	}
	_, b1 := buildFont(t, typeface, add)
	font, b2 := buildFont(t, typeface, add)
	test.That(t, bytes.Equal(b1, b2), "font builds must be byte identical")
	test.T(t, font.Head.Modified, typeface.Modified)
	test.T(t, font.Head.Created, typeface.Modified)

	typeface.Modified = time.Time{}
	font, _ = buildFont(t, typeface, add)
	test.T(t, font.Head.Modified, epoch)
}

func TestDuplicateRune(t *testing.T) {
	font, _ := buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph('A').SetAdvanceWidth(100)
		s.AddGlyph('A').SetAdvanceWidth(200)
	})
	test.T(t, font.NumGlyphs(), uint16(6))
	test.T(t, font.GlyphIndex('A'), uint16(4))
	test.T(t, font.GlyphName(4), "uni0041")
	test.T(t, font.GlyphName(5), "uni0041.1")
	test.T(t, font.Post.Find("uni0041.1"), uint16(5))
}

func TestCmap(t *testing.T) {
	font, _ := buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph('c')
		s.AddGlyph('a')
		s.AddGlyph('b')
		s.AddGlyph('x')
		s.AddGlyph('y')
		s.AddGlyph(0x1F600)
	})
	test.T(t, font.GlyphIndex('a'), uint16(5))
	test.T(t, font.GlyphIndex('b'), uint16(6))
	test.T(t, font.GlyphIndex('c'), uint16(4))
	test.T(t, font.GlyphIndex('x'), uint16(7))
	test.T(t, font.GlyphIndex('y'), uint16(8))
	test.T(t, font.GlyphIndex(0x1F600), uint16(9))
	test.T(t, font.GlyphName(9), "u1F600")
	test.T(t, font.GlyphIndex('d'), uint16(0))
	test.T(t, font.GlyphIndex(0xFFFF), uint16(0))
	test.T(t, font.Cmap.Runes(), []rune{0x0000, '\r', ' ', 'a', 'b', 'c', 'x', 'y', 0x1F600})
}

func TestNames(t *testing.T) {
	typeface := NewTypeface("Test")
	typeface.FamilyName = "Tést Family"
	typeface.Author = "Jane Doe"
	typeface.CopyrightYear = "2024"
	typeface.Version = "1.5"
	font, _ := buildFont(t, typeface, func(s *Session) {})

	test.T(t, font.FamilyName(), "Tést Family")
	test.T(t, font.Name.String(NameCopyrightNotice), "Copyright (c) 2024 Jane Doe")
	test.T(t, font.Name.String(NameVersion), "Version 1.5")
	test.T(t, font.Name.String(NamePostScript), "TstFamily-Regular")
	test.T(t, font.Name.String(NameDesigner), "Jane Doe")
	test.T(t, font.Name.String(NameLicense), DefaultLicense)
	test.T(t, font.Head.FontRevision, uint32(0x00018000))

	// the Macintosh record is encoded in Mac Roman
	for _, record := range font.Name.Get(NameFontFamily) {
		test.T(t, record.String(), "Tést Family")
	}
}

func TestOS2(t *testing.T) {
	font, _ := buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph('H').AddContour(rectContour(0, 0, 400, 650, false))
		s.AddGlyph('é')
	})
	test.T(t, font.OS2.Version, uint16(4))
	test.T(t, font.OS2.SxHeight, int16(424))
	test.T(t, font.OS2.SCapHeight, int16(650))
	test.T(t, font.OS2.UsFirstCharIndex, uint16(0))
	test.T(t, font.OS2.UsLastCharIndex, uint16('é'))
	test.T(t, font.OS2.UlUnicodeRange[0], uint32(0x3)) // Basic Latin and Latin-1 Supplement
	test.T(t, font.OS2.FsSelection, uint16(0x00C0))
}

func TestLoca(t *testing.T) {
	offsets := []uint32{0, 10, 20}
	b, format := writeLoca(offsets)
	test.T(t, format, int16(0))
	test.T(t, b, []byte{0, 0, 0, 5, 0, 10})

	offsets = []uint32{0, 200000}
	b, format = writeLoca(offsets)
	test.T(t, format, int16(1))
	loca := &locaTable{Format: format, data: b}
	offset, ok := loca.Get(1)
	test.That(t, ok)
	test.T(t, offset, uint32(200000))
}

func TestParseErrors(t *testing.T) {
	_, b := buildFont(t, NewTypeface("Test"), func(s *Session) {})

	_, err := ParseSFNT(b[:8])
	test.That(t, errors.Is(err, ErrInvalidFontData))

	corrupt := append([]byte{}, b...)
	corrupt[len(corrupt)-1] ^= 0xFF
	_, err = ParseSFNT(corrupt)
	test.That(t, err != nil)
}

func TestFreetype(t *testing.T) {
	_, b := buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph('A').AddContour(glyphA())
	})

	f, err := truetype.Parse(b)
	test.Error(t, err)
	test.T(t, f.FUnitsPerEm(), int32(1024))
	test.T(t, f.Index('A'), truetype.Index(4))
	test.T(t, f.Name(truetype.NameIDFontFamily), "Test")
	test.T(t, f.HMetric(fixed.Int26_6(1024), 4).AdvanceWidth, fixed.Int26_6(512))
}

func TestXImageSFNT(t *testing.T) {
	_, b := buildFont(t, NewTypeface("Test"), func(s *Session) {
		s.AddGlyph('A').AddContour(glyphA())
	})

	f, err := xsfnt.Parse(b)
	test.Error(t, err)
	test.T(t, f.NumGlyphs(), 5)

	var buf xsfnt.Buffer
	glyphID, err := f.GlyphIndex(&buf, 'A')
	test.Error(t, err)
	test.T(t, glyphID, xsfnt.GlyphIndex(4))

	name, err := f.Name(&buf, xsfnt.NameIDFamily)
	test.Error(t, err)
	test.T(t, name, "Test")

	advance, err := f.GlyphAdvance(&buf, glyphID, fixed.I(1024), xfont.HintingNone)
	test.Error(t, err)
	test.T(t, advance, fixed.I(512))

	segments, err := f.LoadGlyph(&buf, glyphID, fixed.I(1024), nil)
	test.Error(t, err)
	test.That(t, 4 <= len(segments))
	test.T(t, segments[0].Op, xsfnt.SegmentOpMoveTo)
}
