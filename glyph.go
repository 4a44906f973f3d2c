package fontastic

import "fmt"

// Glyph is a character with an advance width and its contours.
type Glyph struct {
	char         rune
	advanceWidth int
	contours     []*Contour
}

// Char returns the character the glyph is mapped to.
func (g *Glyph) Char() rune {
	return g.char
}

// AdvanceWidth returns the advance width in font units.
func (g *Glyph) AdvanceWidth() int {
	return g.advanceWidth
}

// SetAdvanceWidth sets the advance width in font units.
func (g *Glyph) SetAdvanceWidth(advanceWidth int) {
	g.advanceWidth = advanceWidth
}

// AddContour appends a contour.
func (g *Glyph) AddContour(c *Contour) {
	g.contours = append(g.contours, c)
}

// Contours returns the contours in the order they were added.
func (g *Glyph) Contours() []*Contour {
	return g.contours
}

func (g *Glyph) String() string {
	return fmt.Sprintf("Glyph(%q, %d contours, advance %d)", g.char, len(g.contours), g.advanceWidth)
}
