package sfnt

import (
	"math"
)

// QuadTolerance is the maximum distance in font units between a cubic segment and its quadratic approximation.
var QuadTolerance = 0.5

// maxQuads is the maximum number of quadratic segments a single cubic segment is split into.
const maxQuads = 64

type vec struct {
	X, Y float64
}

func (a vec) add(b vec) vec { return vec{a.X + b.X, a.Y + b.Y} }
func (a vec) sub(b vec) vec { return vec{a.X - b.X, a.Y - b.Y} }
func (a vec) mul(f float64) vec { return vec{a.X * f, a.Y * f} }
func (a vec) length() float64 { return math.Hypot(a.X, a.Y) }
func (a vec) lerp(b vec, t float64) vec { return a.add(b.sub(a).mul(t)) }

// quadPoint is a point of a TrueType contour.
type quadPoint struct {
	X, Y    int16
	OnCurve bool
}

// quadContour converts a closed contour to TrueType quadratic points. A segment from point i to point i+1 uses the outgoing control point of i and the incoming control point of i+1. A segment without control points is a straight line; a missing control point coincides with its anchor. Quadratic contours are taken as is, where In holds the off-curve point preceding each anchor.
func quadContour(c *Contour, dy float64) []quadPoint {
	n := len(c.Points)
	if n == 0 {
		return nil
	}

	pts := make([]quadPoint, 0, n)
	add := func(p vec, onCurve bool) {
		q := quadPoint{toFUnit(p.X), toFUnit(p.Y - dy), onCurve}
		if 0 < len(pts) && pts[len(pts)-1] == q {
			return // drop repeated points
		}
		pts = append(pts, q)
	}

	if c.Type == Quadratic {
		for _, p := range c.Points {
			if p.In != nil {
				add(vec{p.In.X, p.In.Y}, false)
			}
			add(vec{p.X, p.Y}, true)
		}
		return closeQuadContour(pts)
	}

	add(vec{c.Points[0].X, c.Points[0].Y}, true)
	for i := 0; i < n; i++ {
		cur, next := c.Points[i], c.Points[(i+1)%n]
		p0, p3 := vec{cur.X, cur.Y}, vec{next.X, next.Y}
		last := i == n-1
		if cur.Out == nil && next.In == nil {
			if !last {
				add(p3, true)
			}
			continue
		}

		p1, p2 := p0, p3
		if cur.Out != nil {
			p1 = vec{cur.Out.X, cur.Out.Y}
		}
		if next.In != nil {
			p2 = vec{next.In.X, next.In.Y}
		}
		cubicToQuads(p0, p1, p2, p3, func(ctrl, end vec, final bool) {
			add(ctrl, false)
			if !final || !last {
				add(end, true)
			}
		})
	}
	return closeQuadContour(pts)
}

// closeQuadContour removes a closing point that coincides with the first point.
func closeQuadContour(pts []quadPoint) []quadPoint {
	if 1 < len(pts) && pts[len(pts)-1] == pts[0] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// cubicToQuads approximates the cubic Bézier p0,p1,p2,p3 by quadratic Béziers. The number of pieces follows from the error bound √3/36·|p3-3p2+3p1-p0| of a single quadratic, which shrinks with the cube of the number of pieces.
func cubicToQuads(p0, p1, p2, p3 vec, yield func(ctrl, end vec, final bool)) {
	d := p3.sub(p2.mul(3)).add(p1.mul(3)).sub(p0).length()
	n := 1
	if err := math.Sqrt(3.0) / 36.0 * d; QuadTolerance < err {
		n = int(math.Ceil(math.Cbrt(err / QuadTolerance)))
		if maxQuads < n {
			n = maxQuads
		}
	}

	for k := 0; k < n; k++ {
		t0, t1 := float64(k)/float64(n), float64(k+1)/float64(n)
		q0, q1, q2, q3 := cubicSegment(p0, p1, p2, p3, t0, t1)
		ctrl := q1.mul(3).sub(q0).add(q2.mul(3)).sub(q3).mul(0.25)
		yield(ctrl, q3, k == n-1)
	}
}

// cubicSegment returns the control points of the part of a cubic Bézier between t0 and t1.
func cubicSegment(p0, p1, p2, p3 vec, t0, t1 float64) (vec, vec, vec, vec) {
	if t0 != 0.0 {
		_, _, _, _, p0, p1, p2, p3 = splitCubic(p0, p1, p2, p3, t0)
		t1 = (t1 - t0) / (1.0 - t0)
	}
	if t1 != 1.0 {
		p0, p1, p2, p3, _, _, _, _ = splitCubic(p0, p1, p2, p3, t1)
	}
	return p0, p1, p2, p3
}

func splitCubic(p0, p1, p2, p3 vec, t float64) (vec, vec, vec, vec, vec, vec, vec, vec) {
	a := p0.lerp(p1, t)
	b := p1.lerp(p2, t)
	c := p2.lerp(p3, t)
	d := a.lerp(b, t)
	e := b.lerp(c, t)
	f := d.lerp(e, t)
	return p0, a, d, f, f, e, c, p3
}
