package sfnt

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CurveType is the interpretation of a contour's control points.
type CurveType int

// see CurveType
const (
	Cubic CurveType = iota
	Quadratic
)

func (t CurveType) String() string {
	if t == Quadratic {
		return "quadratic"
	}
	return "cubic"
}

// MarshalYAML implements yaml.Marshaler.
func (t CurveType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *CurveType) UnmarshalYAML(n *yaml.Node) error {
	switch n.Value {
	case "cubic":
		*t = Cubic
	case "quadratic":
		*t = Quadratic
	default:
		return fmt.Errorf("bad curve type %q", n.Value)
	}
	return nil
}

// ControlPoint is an off-curve handle of a contour point.
type ControlPoint struct {
	X, Y    float64
	OnCurve bool `yaml:"onCurve,omitempty"`
}

// ContourPoint is an anchor of a contour with optional incoming and outgoing control points.
type ContourPoint struct {
	X, Y    float64
	OnCurve bool
	In      *ControlPoint `yaml:"in,omitempty"`
	Out     *ControlPoint `yaml:"out,omitempty"`
}

// SetControlPoint1 sets the incoming control point.
func (p *ContourPoint) SetControlPoint1(cp *ControlPoint) {
	p.In = cp
}

// SetControlPoint2 sets the outgoing control point.
func (p *ContourPoint) SetControlPoint2(cp *ControlPoint) {
	p.Out = cp
}

// Contour is a closed outline of contour points.
type Contour struct {
	Type   CurveType
	Points []ContourPoint
}

// AddContourPoint appends a point to the contour.
func (c *Contour) AddContourPoint(p ContourPoint) {
	c.Points = append(c.Points, p)
}

// GlyphFile is the engine's record of a glyph.
type GlyphFile struct {
	Name         string
	Char         rune
	AdvanceWidth int
	Contours     []*Contour

	mapped bool // has a cmap entry
	saved  bool
}

// SetAdvanceWidth sets the advance width in font units.
func (g *GlyphFile) SetAdvanceWidth(advanceWidth int) {
	g.AdvanceWidth = advanceWidth
}

// AddContour appends a contour to the glyph.
func (g *GlyphFile) AddContour(c *Contour) {
	g.Contours = append(g.Contours, c)
}

// Saved reports whether the record was passed to Session.SaveGlyph.
func (g *GlyphFile) Saved() bool {
	return g.saved
}

// NumPoints returns the number of anchor points over all contours.
func (g *GlyphFile) NumPoints() int {
	n := 0
	for _, c := range g.Contours {
		n += len(c.Points)
	}
	return n
}

type glyphFileYAML struct {
	Name         string     `yaml:"name"`
	Char         string     `yaml:"char"`
	AdvanceWidth int        `yaml:"advanceWidth"`
	Contours     []*Contour `yaml:"contours"`
}

// WriteFile writes the glyph record as YAML to filename.
func (g *GlyphFile) WriteFile(filename string) error {
	b, err := yaml.Marshal(glyphFileYAML{
		Name:         g.Name,
		Char:         string(g.Char),
		AdvanceWidth: g.AdvanceWidth,
		Contours:     g.Contours,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}

// ReadGlyphFile reads a glyph record written by WriteFile.
func ReadGlyphFile(filename string) (*GlyphFile, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var v glyphFileYAML
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	rs := []rune(v.Char)
	if len(rs) != 1 {
		return nil, fmt.Errorf("%s: bad char %q", filepath.Base(filename), v.Char)
	}
	return &GlyphFile{
		Name:         v.Name,
		Char:         rs[0],
		AdvanceWidth: v.AdvanceWidth,
		Contours:     v.Contours,
	}, nil
}

func glyphName(r rune) string {
	if r <= 0xFFFF {
		return fmt.Sprintf("uni%04X", r)
	}
	return fmt.Sprintf("u%05X", r)
}
