package gesture

import (
	"time"

	"github.com/esimov/panscale/motion"
	"github.com/esimov/panscale/viewport"
)

type motionKind uint8

const (
	motionNone motionKind = iota
	motionFling
	motionZoom
)

// Interpreter maps pointer events onto a viewport.Model. It is not safe for
// concurrent use: events, ticks and polls must come from the goroutine owning
// the model.
type Interpreter struct {
	cfg   Config
	model *viewport.Model

	width, height float64
	enabled       bool
	onSingleTap   func()

	down  downTracker
	taps  tapDetector
	scale scaleDetector

	// Gesture session state, reset on every first press.
	start      viewport.Rect
	dragZoomed bool

	active   motionKind
	scroller *motion.Scroller
	zoomer   *motion.Zoomer
	focal    viewport.Point
	// Viewport at the start of the running zoom.
	zoomFrom viewport.Rect
}

// NewInterpreter returns an interpreter driving model. Interaction starts
// disabled.
func NewInterpreter(model *viewport.Model, cfg Config) *Interpreter {
	cfg = cfg.withDefaults()
	it := &Interpreter{
		cfg:      cfg,
		model:    model,
		scroller: motion.NewScroller(cfg.FlingFriction),
		zoomer:   motion.NewZoomer(cfg.ZoomDuration),
	}
	it.taps.cfg = &it.cfg
	it.scale.cfg = &it.cfg
	return it
}

// SetConfig replaces the configuration, e.g. when the pixel density changes.
// A running motion is stopped.
func (it *Interpreter) SetConfig(cfg Config) {
	it.Cancel()
	it.cfg = cfg.withDefaults()
	it.scroller = motion.NewScroller(it.cfg.FlingFriction)
	it.zoomer = motion.NewZoomer(it.cfg.ZoomDuration)
}

// Config returns the configuration in use.
func (it *Interpreter) Config() Config { return it.cfg }

// Resize sets the size in pixels of the surface the events refer to.
func (it *Interpreter) Resize(w, h float64) {
	it.width, it.height = w, h
}

// Size returns the surface size set by Resize.
func (it *Interpreter) Size() (w, h float64) { return it.width, it.height }

// SetEnabled gates every gesture mutating the viewport. Single taps are
// reported regardless.
func (it *Interpreter) SetEnabled(enabled bool) {
	it.enabled = enabled
	if !enabled {
		it.Cancel()
	}
}

// Enabled reports whether gestures may change the viewport.
func (it *Interpreter) Enabled() bool { return it.enabled }

// OnSingleTap registers the callback invoked when a tap is confirmed not to
// be the first half of a double tap.
func (it *Interpreter) OnSingleTap(fn func()) { it.onSingleTap = fn }

// PointerDown reports whether a pointer is currently pressed.
func (it *Interpreter) PointerDown() bool { return it.down.isDown() }

// Handle feeds a pointer event through every recognizer and applies the
// resulting intents. now is the current animation time.
func (it *Interpreter) Handle(now time.Duration, ev Event) {
	prev, intents, ok := it.down.update(ev)
	if !ok {
		return
	}
	// Pans go first so a pinch moving its focus keeps the domain point that
	// was under the previous focus under the new one.
	intents = append(intents, it.taps.handle(ev, &it.down, prev)...)
	intents = append(intents, it.scale.handle(ev, &it.down, prev)...)
	for _, in := range intents {
		it.apply(now, in)
	}
}

// Poll delivers the single tap confirmed at now, if any.
func (it *Interpreter) Poll(now time.Duration) {
	for _, in := range it.taps.poll(now) {
		it.apply(now, in)
	}
}

// Deadline returns the time at which Poll should next be called, if a tap is
// waiting for confirmation.
func (it *Interpreter) Deadline() (time.Duration, bool) {
	return it.taps.deadline()
}

// GestureStart returns the viewport captured when the current gesture began.
func (it *Interpreter) GestureStart() viewport.Rect { return it.start }

// Animating reports whether a fling or a zoom is running.
func (it *Interpreter) Animating() bool { return it.active != motionNone }

// Cancel stops any running motion.
func (it *Interpreter) Cancel() {
	it.scroller.ForceFinished()
	it.zoomer.ForceFinished()
	it.active = motionNone
}

// Animate advances the running motion to now and reports whether another
// tick is needed.
func (it *Interpreter) Animate(now time.Duration) bool {
	t := clock(now)
	switch it.active {
	case motionFling:
		if it.scroller.Compute(t) {
			r := it.model.Rect()
			sx, sy := it.scrollSurface(r)
			// The scroller keeps positions inside the overscroll margin; the
			// model clamps them back to the domain.
			_ = it.model.SetTopLeft(it.scroller.CurrX()/sx, it.scroller.CurrY()/sy, true)
		}
		if it.scroller.Finished() {
			it.active = motionNone
		}
	case motionZoom:
		if it.zoomer.Compute(t) {
			it.zoomStep(it.zoomer.Current())
		}
		if it.zoomer.Finished() {
			it.active = motionNone
		}
	}
	return it.active != motionNone
}

// ZoomTo animates the zoom level towards level, keeping the domain point
// under the surface pixel (x, y) in place.
func (it *Interpreter) ZoomTo(now time.Duration, x, y, level float64) {
	if !it.enabled || !it.hasSize() || !(level > 0) {
		return
	}
	it.startZoom(now, Point{X: x, Y: y}, level)
}

func (it *Interpreter) apply(now time.Duration, in intent) {
	switch in.kind {
	case intentDown:
		if !it.enabled {
			return
		}
		it.start = it.model.Rect()
		it.dragZoomed = false
		it.Cancel()
	case intentUp:
	case intentScaleBegin:
		if !it.enabled {
			return
		}
		it.dragZoomed = true
		it.Cancel()
	case intentScale:
		if !it.enabled || !it.hasSize() || !(in.factor > 0) {
			return
		}
		it.dragZoomed = true
		it.Cancel()
		it.scaleAt(in.focus, in.factor)
	case intentScaleEnd:
	case intentScroll:
		if !it.enabled || !it.hasSize() {
			return
		}
		it.Cancel()
		r := it.model.Rect()
		dx := in.delta.X * r.Width() / it.width
		dy := in.delta.Y * r.Height() / it.height
		_ = it.model.SetTopLeft(r.Left+dx, r.Top+dy, true)
	case intentFling:
		if !it.enabled || !it.hasSize() {
			return
		}
		it.fling(now, -in.vel.X, -in.vel.Y)
	case intentDoubleTap:
		if !it.enabled || it.dragZoomed || !it.hasSize() {
			return
		}
		target := 1.0
		if it.model.Zoom() < it.cfg.ZoomToggleThreshold {
			target = it.cfg.DoubleTapZoom
		}
		it.startZoom(now, in.focus, target)
	case intentSingleTap:
		if it.onSingleTap != nil {
			it.onSingleTap()
		}
	}
}

// scaleAt resizes the viewport by 1/factor keeping the domain point under the
// focus pixel in place.
func (it *Interpreter) scaleAt(focus Point, factor float64) {
	r := it.model.Rect()
	w, h := r.Width()/factor, r.Height()/factor
	p := it.model.HitTest(focus.X, focus.Y, it.width, it.height)
	left := p.X - w*focus.X/it.width
	top := p.Y - h*focus.Y/it.height
	_ = it.model.Set(viewport.FromTopLeft(left, top, w, h), true)
}

func (it *Interpreter) fling(now time.Duration, vx, vy float64) {
	it.Cancel()
	r := it.model.Rect()
	sx, sy := it.scrollSurface(r)
	it.scroller.Fling(clock(now),
		sx*r.Left, sy*r.Top,
		vx, vy,
		0, sx-it.width,
		0, sy-it.height,
		it.width/2, it.height/2,
	)
	if !it.scroller.Finished() {
		it.active = motionFling
	}
}

func (it *Interpreter) startZoom(now time.Duration, focus Point, level float64) {
	it.Cancel()
	it.focal = it.model.HitTest(focus.X, focus.Y, it.width, it.height)
	it.zoomFrom = it.model.Rect()
	it.zoomer.Start(clock(now), it.model.Zoom(), level)
	it.active = motionZoom
}

// zoomStep sizes the viewport for zoom level on the tight axis and keeps the
// focal point at the same relative position on screen.
func (it *Interpreter) zoomStep(level float64) {
	ratio := it.model.RelativeAspectRatio()
	var w, h float64
	if it.model.TightAxis() == viewport.Vertical {
		h = 1 / level
		w = h / ratio
	} else {
		w = 1 / level
		h = w * ratio
	}
	fx := (it.focal.X - it.zoomFrom.Left) / it.zoomFrom.Width()
	fy := (it.focal.Y - it.zoomFrom.Top) / it.zoomFrom.Height()
	r := viewport.Rect{
		Left:   it.focal.X - w*fx,
		Top:    it.focal.Y - h*fy,
		Right:  it.focal.X + w*(1-fx),
		Bottom: it.focal.Y + h*(1-fy),
	}
	_ = it.model.Set(r, true)
}

// scrollSurface returns the size in pixels of the whole image at the current
// zoom level.
func (it *Interpreter) scrollSurface(r viewport.Rect) (float64, float64) {
	return it.width / r.Width(), it.height / r.Height()
}

func (it *Interpreter) hasSize() bool {
	return it.width > 0 && it.height > 0
}

// clock maps a monotonic timestamp onto the time.Time the motion models use.
func clock(d time.Duration) time.Time {
	return time.Unix(0, 0).Add(d)
}
