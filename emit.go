package fontastic

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"unicode"

	"github.com/tdewolff/fontastic/sfnt"
)

// Report describes the result of Build.
type Report struct {
	Font     *sfnt.SFNT // the built font as parsed back
	Files    []string   // artifacts written, starting with the TrueType font
	Warnings []error    // packaging failures, each a *PackageError
}

// Build emits all glyphs to the engine, writes the TrueType font, and packages it as configured by Options. Packaging failures are logged and collected in Report.Warnings, they do not fail the build. Building again overwrites the previous artifacts.
func (f *Font) Build() (*Report, error) {
	font, err := f.emit()
	if err != nil {
		return nil, err
	}
	report := &Report{
		Font:  font,
		Files: []string{f.TTFFilename()},
	}
	f.debug("built file", "path", f.TTFFilename(), "glyphs", font.NumGlyphs())

	addWarning := func(err error) {
		f.warn(err)
		report.Warnings = append(report.Warnings, err)
	}
	if f.opts.WOFF {
		if err := PackageWOFF(f.TTFFilename(), f.WOFFFilename()); err != nil {
			addWarning(err)
		} else {
			report.Files = append(report.Files, f.WOFFFilename())
			f.debug("built file", "path", f.WOFFFilename())
		}
	}
	if f.opts.WOFF2 {
		if err := PackageWOFF2(f.TTFFilename(), f.WOFF2Filename()); err != nil {
			addWarning(err)
		} else {
			report.Files = append(report.Files, f.WOFF2Filename())
			f.debug("built file", "path", f.WOFF2Filename())
		}
	}
	if f.opts.WOFF {
		if err := f.renderTemplate(); err != nil {
			addWarning(err)
		} else {
			report.Files = append(report.Files, f.TemplateFilename())
			f.debug("built file", "path", f.TemplateFilename())
		}
	}
	return report, nil
}

// emit opens an engine session and feeds it all glyphs in the order they were added.
func (f *Font) emit() (*sfnt.SFNT, error) {
	for i, g := range f.glyphs {
		if g.char < 0 || unicode.MaxRune < g.char {
			return nil, fmt.Errorf("glyph %d: character %#x outside of Unicode range", i, g.char)
		}
	}

	session, err := f.engine.Open(f.typeface, f.dir)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	for _, g := range f.glyphs {
		glyphFile := session.AddGlyph(g.char)
		glyphFile.SetAdvanceWidth(g.advanceWidth)
		for _, c := range g.contours {
			glyphFile.AddContour(emitContour(c))
		}
		if err := session.SaveGlyph(glyphFile); err != nil {
			return nil, fmt.Errorf("glyph %q: %w", g.char, err)
		}
	}
	session.AddDefaultGlyphs()

	font, _, err := session.BuildTrueType()
	if err != nil {
		return nil, err
	}
	return font, nil
}

// emitContour converts a contour to a cubic engine contour. Anchors are on-curve, ControlPoint1 becomes the incoming and ControlPoint2 the outgoing off-curve handle.
func emitContour(c *Contour) *sfnt.Contour {
	contour := &sfnt.Contour{Type: sfnt.Cubic}
	for _, p := range c.points {
		point := sfnt.ContourPoint{X: p.X, Y: p.Y, OnCurve: true}
		if cp, ok := p.ControlPoint1.Vec(); ok {
			point.SetControlPoint1(&sfnt.ControlPoint{X: cp.X, Y: cp.Y, OnCurve: false})
		}
		if cp, ok := p.ControlPoint2.Vec(); ok {
			point.SetControlPoint2(&sfnt.ControlPoint{X: cp.X, Y: cp.Y, OnCurve: false})
		}
		contour.AddContourPoint(point)
	}
	return contour
}

func (f *Font) renderTemplate() error {
	tmpl := defaultTemplate
	if f.opts.Template != "" {
		var err error
		if tmpl, err = os.ReadFile(f.opts.Template); err != nil {
			return &PackageError{Kind: ErrUnreadableInput, Path: f.opts.Template, Err: err}
		}
	}
	values := map[string]string{
		"FONTNAME":      html.EscapeString(f.name),
		"FAMILYNAME":    html.EscapeString(f.typeface.FamilyName),
		"TTFFILENAME":   html.EscapeString(filepath.Base(f.TTFFilename())),
		"WOFFFILENAME":  html.EscapeString(filepath.Base(f.WOFFFilename())),
		"WOFF2FILENAME": html.EscapeString(filepath.Base(f.WOFF2Filename())),
	}
	return RenderTemplate(f.TemplateFilename(), tmpl, values)
}
