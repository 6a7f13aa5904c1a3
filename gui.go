package panscale

import (
	"image"
	"image/color"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/esimov/panscale/utils"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const (
	maxScreenX = 1366
	maxScreenY = 768
)

var (
	defaultBkgColor     = color.NRGBA{R: 0x10, G: 0x10, B: 0x12, A: 0xff}
	defaultOverlayColor = color.NRGBA{R: 0x2b, G: 0xc4, B: 0xc8, A: 0xff}
)

// Gui hosts a View in its own window.
type Gui struct {
	cfg struct {
		window struct {
			w     float64
			h     float64
			title string
		}
		color struct {
			background color.NRGBA
			overlay    color.NRGBA
		}
	}
	hint struct {
		visible bool
		text    string
	}
	// Debug draws the viewport inside a minimap of the image.
	Debug bool
	// Spinner, if set, has its cursor restored when the window is closed.
	Spinner *utils.Spinner

	win   *app.Window
	view  *View
	theme *material.Theme
	ops   op.Ops
}

// NewGUI opens a window of about w x h dp showing a new View identified by id.
// Windows larger than the screen keep their aspect ratio.
func NewGUI(id, title string, w, h int, opts Options) *Gui {
	g := &Gui{}
	g.initWindow(title, w, h)
	g.win = app.NewWindow(app.Title(g.cfg.window.title), app.Size(
		unit.Dp(float32(g.cfg.window.w)),
		unit.Dp(float32(g.cfg.window.h)),
	))
	g.view = NewView(id, opts, g.win.Invalidate)
	g.theme = material.NewTheme(gofont.Collection())
	return g
}

// initWindow sets the window defaults.
func (g *Gui) initWindow(title string, w, h int) {
	g.cfg.window.w, g.cfg.window.h = fitWindow(float64(w), float64(h))
	g.cfg.window.title = title
	g.cfg.color.background = defaultBkgColor
	g.cfg.color.overlay = defaultOverlayColor
}

// View returns the view shown in the window.
func (g *Gui) View() *View { return g.view }

// SetOverlayColor sets the color of the hint and debug overlays.
func (g *Gui) SetOverlayColor(c color.Color) {
	g.cfg.color.overlay = toNRGBA(c)
}

// SetHint sets the text shown at the bottom of the window when the hint is visible.
func (g *Gui) SetHint(text string) {
	g.hint.text = text
}

// ToggleHint shows or hides the hint. It must be called from the window goroutine,
// e.g. from the view's single tap callback.
func (g *Gui) ToggleHint() {
	g.hint.visible = !g.hint.visible
	g.win.Invalidate()
}

// Run processes the window events until the window is closed.
func (g *Gui) Run() error {
	for {
		e := <-g.win.Events()
		switch e := e.(type) {
		case system.FrameEvent:
			g.draw(e)
		case key.Event:
			if e.State != key.Press {
				continue
			}
			switch e.Name {
			case key.NameEscape:
				g.win.Perform(system.ActionClose)
			case "F":
				g.ToggleHint()
			case "+", "=":
				g.view.ZoomTo(2)
			case "0":
				g.view.ZoomTo(1)
			}
		case system.StageEvent:
			if e.Stage < system.StageRunning {
				g.view.SurfaceLost()
			}
		case system.DestroyEvent:
			if g.Spinner != nil {
				g.Spinner.RestoreCursor()
			}
			return e.Err
		}
	}
}

// draw lays out the view and the overlays for a frame.
func (g *Gui) draw(e system.FrameEvent) {
	gtx := layout.NewContext(&g.ops, e)
	paint.Fill(gtx.Ops, g.cfg.color.background)

	layout.Stack{}.Layout(gtx,
		layout.Expanded(g.view.Layout),
		layout.Stacked(func(gtx C) D {
			if g.Debug {
				g.drawMinimap(gtx)
			}
			return D{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx C) D {
			if !g.hint.visible || g.hint.text == "" {
				return D{}
			}
			return g.drawHint(gtx)
		}),
	)
	e.Frame(gtx.Ops)
}

// drawHint shows the hint text on a translucent band at the bottom of the window.
func (g *Gui) drawHint(gtx C) D {
	size := gtx.Constraints.Max
	band := gtx.Dp(unit.Dp(36))
	defer op.Offset(image.Pt(0, size.Y-band)).Push(gtx.Ops).Pop()

	bg := color.NRGBA{A: 0xaa}
	paint.FillShape(gtx.Ops, bg, clip.Rect{Max: image.Pt(size.X, band)}.Op())

	gtx.Constraints = layout.Exact(image.Pt(size.X, band))
	return layout.Center.Layout(gtx, func(gtx C) D {
		lbl := material.Body1(g.theme, g.hint.text)
		lbl.Color = g.cfg.color.overlay
		return lbl.Layout(gtx)
	})
}

// fitWindow keeps w x h inside the maximum screen size preserving its aspect ratio.
func fitWindow(w, h float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxScreenX / 2, maxScreenY / 2
	}
	r := getRatio(w, h)
	return w * r, h * r
}
