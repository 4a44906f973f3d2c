package sfnt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// GlyphDir is the subdirectory of a session's directory that holds saved glyph records.
const GlyphDir = "glyphs"

// Engine builds TrueType fonts. An engine serves one session at a time; open a session with Open and release it with Close before opening another.
type Engine struct {
	mu      sync.Mutex
	session *Session
}

// NewEngine returns an engine without an open session.
func NewEngine() *Engine {
	return &Engine{}
}

// Open starts a build session for the typeface. Glyph records are saved into dir and the TrueType file is written to dir as well. If dir is empty nothing is written to disk. It returns ErrBusy when another session is still open.
func (e *Engine) Open(typeface *Typeface, dir string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return nil, ErrBusy
	}
	if typeface == nil {
		return nil, fmt.Errorf("typeface not set")
	}
	e.session = &Session{
		engine:   e,
		typeface: typeface,
		dir:      dir,
	}
	return e.session, nil
}

// Session is the single owner of an engine during a build.
type Session struct {
	engine   *Engine
	typeface *Typeface
	dir      string

	glyphs   []*GlyphFile
	defaults []*GlyphFile
	closed   bool
}

// Close releases the engine. Calling Close more than once is a no-op.
func (s *Session) Close() {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if !s.closed && s.engine.session == s {
		s.engine.session = nil
	}
	s.closed = true
}

// Typeface returns the typeface being built.
func (s *Session) Typeface() *Typeface {
	return s.typeface
}

// TTFFilename returns the filename of the TrueType font the session writes.
func (s *Session) TTFFilename() string {
	if s.dir == "" {
		return ""
	}
	return filepath.Join(s.dir, s.typeface.Name+".ttf")
}

// AddGlyph appends a new glyph record for r. Records are built in the order they are added.
func (s *Session) AddGlyph(r rune) *GlyphFile {
	g := &GlyphFile{
		Name:         glyphName(r),
		Char:         r,
		AdvanceWidth: s.typeface.AdvanceWidth,
		mapped:       true,
	}
	s.glyphs = append(s.glyphs, g)
	return g
}

// Glyphs returns the user glyph records in build order, excluding the default glyphs.
func (s *Session) Glyphs() []*GlyphFile {
	return s.glyphs
}

// SaveGlyph persists the glyph record in the glyph directory. Without a directory it only marks the record as saved.
func (s *Session) SaveGlyph(g *GlyphFile) error {
	if s.closed {
		return ErrClosed
	}
	g.saved = true
	if s.dir == "" {
		return nil
	}
	dir := filepath.Join(s.dir, GlyphDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return g.WriteFile(filepath.Join(dir, g.Name+".yaml"))
}

// AddDefaultGlyphs adds the .notdef, .null, nonmarkingreturn, and space glyphs. They are placed before the user glyphs. The space glyph is left out when a user glyph already maps U+0020. Calling it more than once is a no-op.
func (s *Session) AddDefaultGlyphs() {
	if s.defaults != nil {
		return
	}

	t := s.typeface
	em := t.Em()
	notdef := &GlyphFile{Name: ".notdef", AdvanceWidth: t.AdvanceWidth}
	x0, x1 := em/16, float64(t.AdvanceWidth)-em/16
	y0, y1 := 0.0, t.Ascender()
	if x0 < x1 && y0 < y1 {
		d := em / 32
		notdef.AddContour(rectContour(x0, y0, x1, y1, false))
		if x0+d < x1-d && y0+d < y1-d {
			notdef.AddContour(rectContour(x0+d, y0+d, x1-d, y1-d, true))
		}
	}
	s.defaults = []*GlyphFile{
		notdef,
		{Name: ".null", Char: 0x0000, mapped: true},
		{Name: "nonmarkingreturn", Char: 0x000D, mapped: true},
	}
	hasSpace := false
	for _, g := range s.glyphs {
		if g.Char == ' ' {
			hasSpace = true
			break
		}
	}
	if !hasSpace {
		s.defaults = append(s.defaults, &GlyphFile{Name: "space", Char: ' ', AdvanceWidth: t.AdvanceWidth, mapped: true})
	}
}

// rectContour returns a closed rectangle, clockwise unless counter is set.
func rectContour(x0, y0, x1, y1 float64, counter bool) *Contour {
	pts := []ContourPoint{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
	if counter {
		pts[1], pts[3] = pts[3], pts[1]
	}
	for i := range pts {
		pts[i].OnCurve = true
	}
	return &Contour{Type: Cubic, Points: pts}
}

// BuildTrueType assembles all glyph records into a TrueType font and writes it to the session's directory. The returned font is parsed back from the written bytes.
func (s *Session) BuildTrueType() (*SFNT, []byte, error) {
	if s.closed {
		return nil, nil, ErrClosed
	}
	if s.defaults == nil {
		s.AddDefaultGlyphs()
	}

	glyphs := make([]*GlyphFile, 0, len(s.defaults)+len(s.glyphs))
	glyphs = append(glyphs, s.defaults...)
	glyphs = append(glyphs, s.glyphs...)
	if maxGlyphs < len(glyphs) {
		return nil, nil, fmt.Errorf("too many glyphs: %d", len(glyphs))
	}

	b, err := buildTrueType(s.typeface, glyphs)
	if err != nil {
		return nil, nil, err
	}
	sfnt, err := ParseSFNT(b)
	if err != nil {
		return nil, nil, fmt.Errorf("built font: %w", err)
	}

	if filename := s.TTFFilename(); filename != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return nil, nil, err
		} else if err := os.WriteFile(filename, b, 0644); err != nil {
			return nil, nil, err
		}
	}
	return sfnt, b, nil
}

const maxGlyphs = 0xFFFF
