package panscale

import (
	"image"

	"gioui.org/f32"
	"github.com/esimov/panscale/utils"
	"github.com/esimov/panscale/viewport"
	mf32 "golang.org/x/image/math/f32"
)

const (
	projectionNear = 1
	projectionFar  = 10
)

// Projection is the orthographic projection showing a viewport. The matrix is
// stored row-major and maps model space, where the image spans [-1,1] on both
// axes with the top of the image at +1, onto normalized device coordinates.
type Projection struct {
	M mf32.Mat4
}

// NewProjection builds the projection for the viewport r.
func NewProjection(r viewport.Rect) Projection {
	l := utils.Lerp(-1.0, 1.0, r.Left)
	rt := utils.Lerp(-1.0, 1.0, r.Right)
	b := utils.Lerp(1.0, -1.0, r.Bottom)
	t := utils.Lerp(1.0, -1.0, r.Top)
	n, f := float64(projectionNear), float64(projectionFar)

	var p Projection
	p.M[0] = float32(2 / (rt - l))
	p.M[3] = float32(-(rt + l) / (rt - l))
	p.M[5] = float32(2 / (t - b))
	p.M[7] = float32(-(t + b) / (t - b))
	p.M[10] = float32(-2 / (f - n))
	p.M[11] = float32(-(f + n) / (f - n))
	p.M[15] = 1
	return p
}

// Apply maps the domain point (x, y) to normalized device coordinates.
func (p Projection) Apply(x, y float32) (float32, float32) {
	mx, my := 2*x-1, 1-2*y
	return p.M[0]*mx + p.M[3], p.M[5]*my + p.M[7]
}

// Affine returns the transform mapping domain coordinates onto the pixels of
// a surface of the given size.
func (p Projection) Affine(size image.Point) f32.Affine2D {
	w, h := float32(size.X), float32(size.Y)
	sx := w * p.M[0]
	ox := w / 2 * (p.M[3] + 1 - p.M[0])
	sy := h * p.M[5]
	oy := h / 2 * (1 - p.M[5] - p.M[7])
	return f32.NewAffine2D(sx, 0, ox, 0, sy, oy)
}
