package survey

import (
	"fmt"
)

// Point is a 2D position in campaign coordinates (any consistent planar
// system; metres east/north of a local origin in practice).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Site is one candidate measurement location. Label carries the surveyor's
// identifier when one exists; selections are keyed by table index, so an
// empty label is fine.
type Site struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Point returns the site position.
func (s Site) Point() Point { return Point{X: s.X, Y: s.Y} }

// Points extracts site positions in table order.
func Points(sites []Site) []Point {
	pts := make([]Point, len(sites))
	for i, s := range sites {
		pts[i] = s.Point()
	}
	return pts
}

// Bounds is the axis-aligned bounding box of a point set.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// BoundsOf computes the bounding box of points. It fails on an empty set.
func BoundsOf(points []Point) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, fmt.Errorf("bounds of empty point set")
	}

	b := Bounds{
		MinX: points[0].X, MaxX: points[0].X,
		MinY: points[0].Y, MaxY: points[0].Y,
	}
	for _, p := range points[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b, nil
}

// Width returns the X extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the Y extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// CenterX returns the X midpoint.
func (b Bounds) CenterX() float64 { return (b.MinX + b.MaxX) / 2 }

// CenterY returns the Y midpoint.
func (b Bounds) CenterY() float64 { return (b.MinY + b.MaxY) / 2 }

// Degenerate reports whether either axis has zero extent, leaving no box
// to scale a layout into.
func (b Bounds) Degenerate() bool {
	return b.Width() == 0 || b.Height() == 0
}

// DistSq returns the squared Euclidean distance between two points.
// Comparisons stay in squared space to avoid per-pair square roots.
func DistSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
