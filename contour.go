package fontastic

// Contour is a closed outline of points. The order of points defines the winding direction.
type Contour struct {
	points []Point
}

// NewContour returns a contour with the given points.
func NewContour(points ...Point) *Contour {
	return &Contour{points: append([]Point{}, points...)}
}

// Rect returns a contour of four straight edges with its lower-left corner at (x,y), drawn clockwise.
func Rect(x, y, w, h float64) *Contour {
	return NewContour(
		NewPoint(x, y),
		NewPoint(x, y+h),
		NewPoint(x+w, y+h),
		NewPoint(x+w, y),
	)
}

// AddPoint appends a point.
func (c *Contour) AddPoint(p Point) {
	c.points = append(c.points, p)
}

// AddPoints appends points in order.
func (c *Contour) AddPoints(points ...Point) {
	c.points = append(c.points, points...)
}

// Points returns the points of the contour. The returned slice must not be modified.
func (c *Contour) Points() []Point {
	return c.points
}

// Len returns the number of points.
func (c *Contour) Len() int {
	return len(c.points)
}
