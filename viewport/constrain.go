package viewport

import (
	"math"

	"github.com/esimov/panscale/utils"
)

// DefaultMinSize is the smallest fraction of the image domain the viewport may
// cover on its tight axis.
const DefaultMinSize = 0.2

// epsilon is the tolerance used when deciding whether a rectangle already
// satisfies every constraint.
const epsilon = 1e-9

// Axis identifies one of the two image axes.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// TightAxis returns the axis whose full [0,1] extent binds first for the given
// relative aspect ratio: vertical when the image is relatively taller than
// wide (ratio > 1), horizontal otherwise.
func TightAxis(ratio float64) Axis {
	if ratio > 1 {
		return Vertical
	}
	return Horizontal
}

// Constrain returns r adjusted so that it lies inside the image domain, keeps
// at least minSize on the tight axis and matches the relative aspect ratio.
//
// The tight axis is handled first (position, then size, then the size floor)
// and the loose axis is derived from it. A rectangle that is already legal is
// returned untouched, so Constrain(Constrain(r)) == Constrain(r) bit for bit.
func Constrain(r Rect, ratio, minSize float64) Rect {
	if isLegal(r, ratio, minSize) {
		return r
	}
	if TightAxis(ratio) == Vertical {
		top, bottom := constrainSpan(r.Top, r.Bottom, minSize)
		half := math.Min((bottom-top)/ratio/2, 0.5)
		left, right := centerSpan((r.Left+r.Right)/2, half)
		return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
	}
	left, right := constrainSpan(r.Left, r.Right, minSize)
	half := math.Min((right-left)*ratio/2, 0.5)
	top, bottom := centerSpan((r.Top+r.Bottom)/2, half)
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// constrainSpan keeps [lo, hi] inside [0,1] on the tight axis. The position is
// clamped before the size, and the size before the floor.
func constrainSpan(lo, hi, minSize float64) (float64, float64) {
	if lo < 0 {
		hi -= lo
		lo = 0
	}
	if hi > 1 {
		size := hi - lo
		hi = 1
		lo = math.Max(0, hi-size)
	}
	if hi-lo < minSize {
		hi = (hi+lo)/2 + minSize/2
		lo = hi - minSize
		if hi > 1 {
			lo, hi = 1-minSize, 1
		}
		if lo < 0 {
			lo, hi = 0, minSize
		}
	}
	return lo, hi
}

// centerSpan places a span of half-size half around center, moving the center
// so the span never leaves [0,1].
func centerSpan(center, half float64) (float64, float64) {
	c := utils.Clamp(center, half, 1-half)
	lo, hi := c-half, c+half
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}
	return lo, hi
}

func isLegal(r Rect, ratio, minSize float64) bool {
	if !r.Valid() || r.Left < 0 || r.Top < 0 || r.Right > 1 || r.Bottom > 1 {
		return false
	}
	tight, loose := r.Width(), r.Height()
	expected := tight * ratio
	if TightAxis(ratio) == Vertical {
		tight, loose = loose, tight
		expected = tight / ratio
	}
	if tight < minSize-epsilon {
		return false
	}
	return math.Abs(loose-expected) <= epsilon
}

// validRatio reports whether ratio can be used as a relative aspect ratio
// with the given size floor. The loose span of the smallest legal viewport
// must stay resolvable, otherwise the rectangle collapses to a line.
func validRatio(ratio, minSize float64) bool {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return false
	}
	return minSize*ratio >= epsilon && minSize/ratio >= epsilon
}
