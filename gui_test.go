package panscale

import (
	"image"
	"image/color"
	"testing"
	"time"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/panscale/viewport"
)

func TestGui_ShouldFitWindowOnScreen(t *testing.T) {
	w, h := fitWindow(800, 600)
	assert.Equal(t, 800.0, w)
	assert.Equal(t, 600.0, h)

	w, h = fitWindow(4000, 3000)
	assert.InDelta(t, 1024, w, 1e-9)
	assert.InDelta(t, maxScreenY, h, 1e-9)

	w, h = fitWindow(0, 100)
	assert.Equal(t, maxScreenX/2.0, w)
	assert.Equal(t, maxScreenY/2.0, h)
}

func TestGui_ShouldConvertColors(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, toNRGBA(color.RGBA{R: 0xff, A: 0xff}))
	assert.Equal(t, color.NRGBA{}, toNRGBA(color.Transparent))
}

func TestGui_ShouldDrawMinimapOnceImageIsKnown(t *testing.T) {
	v := NewView("main", DefaultOptions(), nil)
	defer closeView(t, v)
	g := &Gui{view: v}
	g.cfg.color.overlay = defaultOverlayColor

	gtx := layout.Context{
		Ops:         new(op.Ops),
		Now:         time.Now(),
		Metric:      unit.Metric{PxPerDp: 1, PxPerSp: 1},
		Constraints: layout.Exact(image.Pt(400, 300)),
	}
	assert.NotPanics(t, func() { g.drawMinimap(gtx) })

	v.pictureBuilt(PictureInfo{ImageWidth: 200, ImageHeight: 100})
	require.NoError(t, v.SetViewport(viewport.Rect{Left: 0.25, Top: 0.25, Right: 0.75, Bottom: 0.75}, true))
	assert.NotPanics(t, func() { g.drawMinimap(gtx) })
}
