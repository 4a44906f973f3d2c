package fontastic

import "fmt"

// Vec is a coordinate in font units.
type Vec struct {
	X, Y float64
}

// ControlPoint is an optional off-curve handle. The zero value is absent, which is distinct from a handle at the origin.
type ControlPoint struct {
	X, Y float64
	set  bool
}

// Control returns a present control point at (x,y).
func Control(x, y float64) ControlPoint {
	return ControlPoint{X: x, Y: y, set: true}
}

// IsSet returns true if the control point is present.
func (cp ControlPoint) IsSet() bool {
	return cp.set
}

// Vec returns the coordinate of the control point and whether it is present.
func (cp ControlPoint) Vec() (Vec, bool) {
	return Vec{cp.X, cp.Y}, cp.set
}

func (cp ControlPoint) String() string {
	if !cp.set {
		return "none"
	}
	return fmt.Sprintf("(%v,%v)", cp.X, cp.Y)
}

// PointKind distinguishes points by which control points they carry.
type PointKind int

// see PointKind
const (
	Corner    PointKind = iota // no control points
	InHandle                   // ControlPoint1 only
	OutHandle                  // ControlPoint2 only
	Smooth                     // both control points
)

func (k PointKind) String() string {
	switch k {
	case Corner:
		return "Corner"
	case InHandle:
		return "InHandle"
	case OutHandle:
		return "OutHandle"
	case Smooth:
		return "Smooth"
	}
	return fmt.Sprintf("PointKind(%d)", int(k))
}

// Point is an on-curve anchor with an optional incoming (ControlPoint1) and outgoing (ControlPoint2) handle. Handles are not validated geometrically.
type Point struct {
	X, Y          float64
	ControlPoint1 ControlPoint
	ControlPoint2 ControlPoint
}

// NewPoint returns an anchor without control points.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// NewCurvePoint returns an anchor with both control points set.
func NewCurvePoint(x, y, cp1x, cp1y, cp2x, cp2y float64) Point {
	return Point{
		X:             x,
		Y:             y,
		ControlPoint1: Control(cp1x, cp1y),
		ControlPoint2: Control(cp2x, cp2y),
	}
}

// SetControlPoint1 sets the incoming control point.
func (p *Point) SetControlPoint1(x, y float64) *Point {
	p.ControlPoint1 = Control(x, y)
	return p
}

// SetControlPoint2 sets the outgoing control point.
func (p *Point) SetControlPoint2(x, y float64) *Point {
	p.ControlPoint2 = Control(x, y)
	return p
}

// ClearControlPoints removes both control points.
func (p *Point) ClearControlPoints() {
	p.ControlPoint1 = ControlPoint{}
	p.ControlPoint2 = ControlPoint{}
}

// Vec returns the anchor coordinate.
func (p Point) Vec() Vec {
	return Vec{p.X, p.Y}
}

// Kind returns which of the control points are present.
func (p Point) Kind() PointKind {
	switch {
	case p.ControlPoint1.set && p.ControlPoint2.set:
		return Smooth
	case p.ControlPoint1.set:
		return InHandle
	case p.ControlPoint2.set:
		return OutHandle
	}
	return Corner
}

func (p Point) String() string {
	switch p.Kind() {
	case InHandle:
		return fmt.Sprintf("(%v,%v) in=%v", p.X, p.Y, p.ControlPoint1)
	case OutHandle:
		return fmt.Sprintf("(%v,%v) out=%v", p.X, p.Y, p.ControlPoint2)
	case Smooth:
		return fmt.Sprintf("(%v,%v) in=%v out=%v", p.X, p.Y, p.ControlPoint1, p.ControlPoint2)
	}
	return fmt.Sprintf("(%v,%v)", p.X, p.Y)
}
