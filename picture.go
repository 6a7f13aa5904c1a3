package panscale

import (
	"fmt"
	"image"
	"sync/atomic"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"github.com/esimov/panscale/viewport"
)

// Picture is the drawable form of a Source, sized for a surface. A Picture is
// immutable once built: Draw may run on the UI goroutine while the render
// goroutine releases it.
type Picture interface {
	// Draw paints the picture through proj onto a surface of the given size.
	Draw(ops *op.Ops, proj Projection, size image.Point)
	// Release frees the textures. Draw is a no-op afterwards.
	Release()
}

// PictureBuilder creates the picture of src for a surface surfaceHeight
// pixels high.
type PictureBuilder func(src *Source, surfaceHeight int) (Picture, error)

// PictureInfo describes a freshly built picture.
type PictureInfo struct {
	ImageWidth  int
	ImageHeight int
	SampleSize  int
}

type tile struct {
	imgOp  paint.ImageOp
	size   image.Point
	domain viewport.Rect
}

// tiledPicture splits the image into textures no larger than the tile size.
type tiledPicture struct {
	tiles      []tile
	sampleSize int
	released   atomic.Bool
}

// TiledPictureBuilder returns a builder cutting pictures into tiles of at
// most tileSize texture pixels per side. The image is downsampled by the
// largest power of two still covering the surface height.
func TiledPictureBuilder(tileSize int) PictureBuilder {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return func(src *Source, surfaceHeight int) (Picture, error) {
		return newTiledPicture(src, surfaceHeight, tileSize)
	}
}

func newTiledPicture(src *Source, surfaceHeight, tileSize int) (*tiledPicture, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no image source", ErrUnsupportedImage)
	}
	iw, ih := src.Width(), src.Height()
	if iw <= 0 || ih <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	sample := calculateSampleSize(ih, surfaceHeight)
	step := tileSize * sample

	p := &tiledPicture{sampleSize: sample}
	for y := 0; y < ih; y += step {
		for x := 0; x < iw; x += step {
			r := image.Rect(x, y, x+step, y+step).Intersect(image.Rect(0, 0, iw, ih))
			img, err := src.Region(r, sample)
			if err != nil {
				return nil, fmt.Errorf("could not build tile %v: %w", r, err)
			}
			p.tiles = append(p.tiles, tile{
				imgOp: paint.NewImageOp(img),
				size:  img.Bounds().Size(),
				domain: viewport.Rect{
					Left:   float64(r.Min.X) / float64(iw),
					Top:    float64(r.Min.Y) / float64(ih),
					Right:  float64(r.Max.X) / float64(iw),
					Bottom: float64(r.Max.Y) / float64(ih),
				},
			})
		}
	}
	return p, nil
}

func (p *tiledPicture) Draw(ops *op.Ops, proj Projection, size image.Point) {
	if p.released.Load() {
		return
	}
	base := proj.Affine(size)
	sx, _, ox, _, sy, oy := base.Elems()
	for _, t := range p.tiles {
		x0 := sx*float32(t.domain.Left) + ox
		y0 := sy*float32(t.domain.Top) + oy
		x1 := sx*float32(t.domain.Right) + ox
		y1 := sy*float32(t.domain.Bottom) + oy
		if x1 <= 0 || y1 <= 0 || x0 >= float32(size.X) || y0 >= float32(size.Y) {
			continue
		}
		tr := f32.NewAffine2D(
			(x1-x0)/float32(t.size.X), 0, x0,
			0, (y1-y0)/float32(t.size.Y), y0,
		)
		st := op.Affine(tr).Push(ops)
		cl := clip.Rect{Max: t.size}.Push(ops)
		t.imgOp.Add(ops)
		paint.PaintOp{}.Add(ops)
		cl.Pop()
		st.Pop()
	}
}

func (p *tiledPicture) Release() {
	p.released.Store(true)
}
