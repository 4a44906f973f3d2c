// Package fontastic builds TrueType fonts from glyph outlines and packages them as WOFF web fonts with an HTML preview.
//
// A Font holds glyphs made of contours of points. Points are on-curve anchors with optional cubic Bézier handles. Build emits all glyphs to an sfnt engine session, writes <name>.ttf, and packages it:
//
//	f, err := fontastic.New("Test", fontastic.DefaultOptions())
//	if err != nil {
//		panic(err)
//	}
//	f.AddGlyph('A', fontastic.NewContour(
//		fontastic.NewPoint(0, 0),
//		fontastic.NewPoint(0, 700),
//		fontastic.NewPoint(700, 700),
//		fontastic.NewPoint(700, 0),
//	))
//	report, err := f.Build()
package fontastic

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/tdewolff/fontastic/internal/fsutil"
	"github.com/tdewolff/fontastic/sfnt"
)

// DefaultAdvanceWidth is the advance width of new glyphs unless changed with SetAdvanceWidth.
const DefaultAdvanceWidth = 512

// TemplateName is the filename of the rendered HTML preview.
const TemplateName = "template.html"

// Font is a font project. It owns its glyphs and must not be modified while Build is running.
type Font struct {
	name     string
	dir      string
	opts     Options
	logger   *slog.Logger
	engine   *sfnt.Engine
	typeface *sfnt.Typeface

	advanceWidth int
	glyphs       []*Glyph
}

// New returns a font project with the given name, which is also used for the filenames of the font. The working directory <opts.Dir>/<name> is created, or cleared when it already exists.
func New(name string, opts Options) (*Font, error) {
	if name == "" {
		return nil, fmt.Errorf("font name must not be empty")
	} else if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("bad font name %q", name)
	}

	dir := filepath.Join(opts.Dir, name)
	if err := fsutil.ClearDir(dir); err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	f := &Font{
		name:         name,
		dir:          dir,
		opts:         opts,
		logger:       opts.Logger,
		engine:       opts.Engine,
		typeface:     sfnt.NewTypeface(name),
		advanceWidth: DefaultAdvanceWidth,
	}
	if f.logger == nil {
		f.logger = newNopLogger()
	}
	if f.engine == nil {
		f.engine = sfnt.NewEngine()
	}
	f.typeface.Modified = opts.Modified
	f.typeface.AdvanceWidth = f.advanceWidth
	return f, nil
}

// Name returns the font name.
func (f *Font) Name() string {
	return f.name
}

// Dir returns the working directory of the font.
func (f *Font) Dir() string {
	return f.dir
}

// TTFFilename returns the path of the TrueType font.
func (f *Font) TTFFilename() string {
	return filepath.Join(f.dir, f.name+".ttf")
}

// WOFFFilename returns the path of the WOFF font.
func (f *Font) WOFFFilename() string {
	return filepath.Join(f.dir, f.name+".woff")
}

// WOFF2Filename returns the path of the WOFF2 font.
func (f *Font) WOFF2Filename() string {
	return filepath.Join(f.dir, f.name+".woff2")
}

// TemplateFilename returns the path of the HTML preview.
func (f *Font) TemplateFilename() string {
	return filepath.Join(f.dir, TemplateName)
}

// SetDebug enables debug logging.
func (f *Font) SetDebug(debug bool) {
	f.opts.Debug = debug
}

// AddGlyph appends a glyph for r with the current default advance width and the given contours. Characters are not checked for duplicates: Glyph returns the first one and only the first one is mapped in the font.
func (f *Font) AddGlyph(r rune, contours ...*Contour) *Glyph {
	g := &Glyph{
		char:         r,
		advanceWidth: f.advanceWidth,
		contours:     append([]*Contour{}, contours...),
	}
	f.glyphs = append(f.glyphs, g)
	f.debug("glyph added", "char", string(r), "contours", len(contours))
	return g
}

// Glyph returns the first glyph added for r.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	for _, g := range f.glyphs {
		if g.char == r {
			return g, true
		}
	}
	return nil, false
}

// Glyphs returns the glyphs in the order they were added.
func (f *Font) Glyphs() []*Glyph {
	return append([]*Glyph{}, f.glyphs...)
}

// NumGlyphs returns the number of glyphs added, excluding the default glyphs.
func (f *Font) NumGlyphs() int {
	return len(f.glyphs)
}

// SetAdvanceWidth sets the advance width of glyphs added afterwards and of the default space glyph. Existing glyphs keep their advance width.
func (f *Font) SetAdvanceWidth(advanceWidth int) {
	f.advanceWidth = advanceWidth
	f.typeface.AdvanceWidth = advanceWidth
}

// AdvanceWidth returns the default advance width.
func (f *Font) AdvanceWidth() int {
	return f.advanceWidth
}

// SetFamilyName sets the family name, which defaults to the font name.
func (f *Font) SetFamilyName(familyName string) {
	f.typeface.FamilyName = familyName
}

// SetSubFamily sets the subfamily, such as Regular or Bold.
func (f *Font) SetSubFamily(subFamily string) {
	f.typeface.SubFamily = subFamily
}

// SetVersion sets the version string.
func (f *Font) SetVersion(version string) {
	f.typeface.Version = version
}

// SetAuthor sets the author, used for the designer and copyright notice.
func (f *Font) SetAuthor(author string) {
	f.typeface.Author = author
}

// SetCopyrightYear sets the year of the copyright notice.
func (f *Font) SetCopyrightYear(copyrightYear string) {
	f.typeface.CopyrightYear = copyrightYear
}

// SetLicense sets the license description.
func (f *Font) SetLicense(license string) {
	f.typeface.License = license
}

// Typeface returns a copy of the naming and metrics of the font as passed to the engine. Use the setters of Font to change them.
func (f *Font) Typeface() *sfnt.Typeface {
	typeface := *f.typeface
	return &typeface
}

// Cleanup removes the saved glyph records and other intermediate files from the working directory. The TrueType, WOFF, WOFF2, and HTML files are kept.
func (f *Font) Cleanup() error {
	keep := []string{f.name + ".ttf", f.name + ".woff", f.name + ".woff2", TemplateName}
	if err := fsutil.PurgeExcept(f.dir, keep); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	f.debug("cleaned up working directory", "dir", f.dir)
	return nil
}
