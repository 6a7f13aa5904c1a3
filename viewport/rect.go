// Package viewport holds the normalized visible-rectangle model of a pannable,
// zoomable image together with the algorithm that keeps it legal.
package viewport

import (
	"fmt"
	"math"
)

// Rect is an axis aligned rectangle in normalized image-domain coordinates,
// where (0,0) is the top-left and (1,1) the bottom-right corner of the image.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Point is a location in the normalized image domain.
type Point struct {
	X, Y float64
}

// Full is the rectangle covering the whole image domain.
var Full = Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Offset returns the rectangle translated by dx, dy.
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Valid reports whether every bound is finite and the rectangle is not inverted.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.Left, r.Top, r.Right, r.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Left < r.Right && r.Top < r.Bottom
}

// FromTopLeft builds a rectangle of the given size anchored at (x, y).
func FromTopLeft(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%.4f, %.4f - %.4f, %.4f)", r.Left, r.Top, r.Right, r.Bottom)
}
