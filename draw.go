package panscale

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"github.com/esimov/panscale/utils"
)

// minimapSize is the longest edge of the debug minimap, in dp.
const minimapSize = 120

// drawMinimap draws the image domain scaled down in the top right corner,
// with the visible viewport outlined and its center marked.
func (g *Gui) drawMinimap(gtx C) {
	img := g.view.ImageSize()
	if img.X <= 0 || img.Y <= 0 {
		return
	}
	edge := float32(gtx.Dp(unit.Dp(minimapSize)))
	margin := float32(gtx.Dp(unit.Dp(8)))
	scale := edge / float32(utils.Max(img.X, img.Y))
	w, h := float32(img.X)*scale, float32(img.Y)*scale
	origin := f32.Pt(float32(gtx.Constraints.Max.X)-w-margin, margin)

	frame := clip.Rect{
		Min: origin.Round(),
		Max: origin.Add(f32.Pt(w, h)).Round(),
	}
	paint.FillShape(gtx.Ops, color.NRGBA{A: 0x66}, frame.Op())

	r := g.view.Viewport()
	tl := g.point(origin, w, h, r.Left, r.Top)
	br := g.point(origin, w, h, r.Right, r.Bottom)
	g.drawRect(gtx, tl, br, 1.5)

	c := r.Center()
	g.drawCircle(gtx, g.point(origin, w, h, c.X, c.Y), 3)
}

// drawRect strokes the rectangle spanned by the two corners.
func (g *Gui) drawRect(gtx C, tl, br f32.Point, thickness float32) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(tl)
	path.LineTo(f32.Pt(br.X, tl.Y))
	path.LineTo(br)
	path.LineTo(f32.Pt(tl.X, br.Y))
	path.Close()

	defer clip.Stroke{Path: path.End(), Width: thickness}.Op().Push(gtx.Ops).Pop()
	paint.ColorOp{Color: g.cfg.color.overlay}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}

// drawCircle draws a filled circle centered at c.
func (g *Gui) drawCircle(gtx C, c f32.Point, radius float32) {
	var path clip.Path
	orig := c.Sub(f32.Pt(radius, 0))
	path.Begin(gtx.Ops)
	path.MoveTo(orig)
	path.ArcTo(c, c, 2*math.Pi)
	path.Close()

	defer clip.Outline{Path: path.End()}.Op().Push(gtx.Ops).Pop()
	paint.ColorOp{Color: g.cfg.color.overlay}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}

// point maps a domain coordinate onto the minimap.
func (g *Gui) point(origin f32.Point, w, h float32, x, y float64) f32.Point {
	return f32.Point{
		X: origin.X + float32(x)*w,
		Y: origin.Y + float32(y)*h,
	}
}

// toNRGBA converts any color to non-premultiplied RGBA.
func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// getRatio returns the factor fitting a w x h window on the screen.
func getRatio(w, h float64) float64 {
	var r float64 = 1
	if w > maxScreenX || h > maxScreenY {
		wr := maxScreenX / w // width ratio
		hr := maxScreenY / h // height ratio

		r = utils.Min(wr, hr)
	}
	return r
}
