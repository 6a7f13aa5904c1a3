package panscale

import (
	"context"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"github.com/esimov/panscale/gesture"
	"github.com/esimov/panscale/viewport"
)

// scrollRange bounds the scroll distance gio reports per event.
const scrollRange = 1 << 16

// LoaderFunc resolves an image locator into a decoded source.
type LoaderFunc func(ctx context.Context, locator string) (*Source, error)

// View is a gio widget showing an image that can be panned and zoomed.
//
// Unless noted otherwise, methods must be called from the goroutine running
// Layout. Post, SetLoader, SetImageSource, Viewport and Close are safe for
// concurrent use.
type View struct {
	id         string
	opts       Options
	invalidate func()
	loader     atomic.Pointer[LoaderFunc]

	model  *viewport.Model
	interp *gesture.Interpreter
	sync   *Synchronizer

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []func()
	closed bool

	generation atomic.Uint64
	applied    uint64

	epoch   time.Time
	now     time.Duration
	clock   eventClock
	pxPerDp float32
	size    image.Point
	created bool

	userEnabled  bool
	pictureReady bool
	switching    bool

	locked      bool
	lockedRatio float64
	frameAspect float64
	imageSize   image.Point

	viewportFns []func(id string, r viewport.Rect, fromUser bool)
	imageFns    []func(w, h int)
	surfaceFns  []func(w, h int)
}

// NewView creates a view identified by id. invalidate is called from any
// goroutine when the view needs a new frame; it is usually the window's
// Invalidate method.
func NewView(id string, opts Options, invalidate func()) *View {
	if invalidate == nil {
		invalidate = func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		id:          id,
		opts:        opts,
		invalidate:  invalidate,
		model:       viewport.New(opts.MinViewportSize),
		ctx:         ctx,
		cancel:      cancel,
		userEnabled: true,
	}
	v.SetLoader(nil)
	v.interp = gesture.NewInterpreter(v.model, opts.gestureConfig(1))
	v.sync = NewSynchronizer(TiledPictureBuilder(opts.tileSize()), func(fn func()) { v.Post(fn) }, v.pictureBuilt)
	v.model.OnChange(func(r viewport.Rect, fromUser bool) {
		for _, fn := range v.viewportFns {
			fn(v.id, r, fromUser)
		}
		v.invalidate()
	})
	return v
}

// ID returns the identifier the view was created with.
func (v *View) ID() string { return v.id }

// SetLoader replaces the function resolving the locators passed to
// SetImageSource. It is safe for concurrent use; loads already started keep
// their loader.
func (v *View) SetLoader(fn LoaderFunc) {
	if fn == nil {
		fn = LoadImageSource
	}
	v.loader.Store(&fn)
}

// Post schedules fn to run on the Layout goroutine before the next frame. It
// reports false if the view is closed.
func (v *View) Post(fn func()) bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	v.queue = append(v.queue, fn)
	v.mu.Unlock()
	v.invalidate()
	return true
}

func (v *View) drain() {
	v.mu.Lock()
	queue := v.queue
	v.queue = nil
	v.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}

// SetImageSource loads the image at locator in the background and displays
// it once decoded. The current image stays on screen meanwhile, and is kept
// if the load fails. Results of older requests completing after a newer one
// are dropped.
func (v *View) SetImageSource(locator string) {
	gen := v.generation.Add(1)
	loader := *v.loader.Load()
	go func() {
		src, err := loader(v.ctx, locator)
		ok := v.Post(func() { v.finishLoad(gen, locator, src, err) })
		if !ok && src != nil {
			src.Release()
		}
	}()
}

// SetSource displays an already decoded image.
func (v *View) SetSource(src *Source) {
	gen := v.generation.Add(1)
	v.finishLoad(gen, "", src, nil)
}

func (v *View) finishLoad(gen uint64, locator string, src *Source, err error) {
	switch {
	case err != nil:
		Logger().Warn("could not load image", "view", v.id, "locator", locator, "error", err)
		return
	case src == nil:
		Logger().Warn("image loader returned no image", "view", v.id, "locator", locator)
		return
	case gen < v.applied:
		Logger().Warn("dropping stale image", "view", v.id, "locator", locator, "generation", gen)
		src.Release()
		return
	}
	v.applied = gen
	v.sync.SetSource(src)
}

func (v *View) pictureBuilt(info PictureInfo) {
	v.imageSize = image.Pt(info.ImageWidth, info.ImageHeight)
	// The surface may have been lost after the notification was queued. The
	// picture is rebuilt and announced again once a new surface exists.
	v.pictureReady = v.created && v.sync.Ready()
	v.updateRatio()
	v.updateEnabled()
	for _, fn := range v.imageFns {
		fn(info.ImageWidth, info.ImageHeight)
	}
}

// Layout handles the pending input and draws the view filling the maximum
// constraints.
func (v *View) Layout(gtx layout.Context) layout.Dimensions {
	v.drain()

	if v.epoch.IsZero() {
		v.epoch = gtx.Now
	}
	now := gtx.Now.Sub(v.epoch)
	v.now = now

	if px := gtx.Metric.PxPerDp; px != v.pxPerDp && px > 0 {
		v.pxPerDp = px
		v.interp.SetConfig(v.opts.gestureConfig(float64(px)))
	}
	if !v.created {
		v.created = true
		v.sync.SurfaceCreated()
	}
	size := gtx.Constraints.Max
	if size != v.size {
		v.resize(size)
	}

	for _, e := range gtx.Events(v) {
		pe, ok := e.(pointer.Event)
		if !ok {
			continue
		}
		if ev, ok := v.convert(pe, now); ok {
			v.interp.Handle(ev.Time, ev)
		}
	}
	v.interp.Poll(now)
	if v.interp.Animate(now) {
		op.InvalidateOp{}.Add(gtx.Ops)
	}
	if at, ok := v.interp.Deadline(); ok {
		op.InvalidateOp{At: v.epoch.Add(at)}.Add(gtx.Ops)
	}

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	pointer.InputOp{
		Tag:          v,
		Grab:         v.interp.PointerDown(),
		Types:        pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll | pointer.Cancel,
		ScrollBounds: image.Rect(-scrollRange, -scrollRange, scrollRange, scrollRange),
	}.Add(gtx.Ops)

	v.sync.Draw(gtx.Ops, v.model.Snapshot(), size)
	return layout.Dimensions{Size: size}
}

func (v *View) convert(pe pointer.Event, now time.Duration) (gesture.Event, bool) {
	ev := gesture.Event{
		PointerID: int(pe.PointerID),
		Position:  gesture.Point{X: float64(pe.Position.X), Y: float64(pe.Position.Y)},
		Time:      v.clock.at(pe.Time, now),
	}
	switch pe.Type {
	case pointer.Press:
		ev.Kind = gesture.Press
	case pointer.Drag:
		ev.Kind = gesture.Move
	case pointer.Release:
		ev.Kind = gesture.Release
	case pointer.Cancel:
		ev.Kind = gesture.Cancel
	case pointer.Scroll:
		ev.Kind = gesture.Scroll
		ev.Scroll = gesture.Point{X: float64(pe.Scroll.X), Y: float64(pe.Scroll.Y)}
		ev.Zoom = pe.Modifiers.Contain(key.ModCtrl) || pe.Modifiers.Contain(key.ModShortcut)
	default:
		return ev, false
	}
	return ev, true
}

func (v *View) resize(size image.Point) {
	v.size = size
	v.interp.Resize(float64(size.X), float64(size.Y))
	v.sync.SurfaceChanged(size.X, size.Y)
	v.updateRatio()
	for _, fn := range v.surfaceFns {
		fn(size.X, size.Y)
	}
}

// updateRatio derives the relative aspect ratio from the image and the frame
// it is shown in, unless it was locked.
func (v *View) updateRatio() {
	ratio := v.lockedRatio
	if !v.locked {
		if v.imageSize.X <= 0 || v.imageSize.Y <= 0 {
			return
		}
		frame := v.frameAspect
		if frame <= 0 {
			if v.size.X <= 0 || v.size.Y <= 0 {
				return
			}
			frame = float64(v.size.X) / float64(v.size.Y)
		}
		ratio = float64(v.imageSize.X) / float64(v.imageSize.Y) / frame
	}
	if err := v.model.SetRelativeAspectRatio(ratio); err != nil {
		Logger().Warn("ignoring aspect ratio", "view", v.id, "ratio", ratio, "error", err)
	}
}

func (v *View) updateEnabled() {
	v.interp.SetEnabled(v.userEnabled && v.pictureReady && !v.switching)
}

// SetRelativeAspectRatio sets the ratio between the image and the frame
// aspect ratios. It is recomputed when the image or the surface changes,
// unless locked with LockAspectRatio.
func (v *View) SetRelativeAspectRatio(ratio float64) error {
	return v.model.SetRelativeAspectRatio(ratio)
}

// LockAspectRatio pins the relative aspect ratio. A ratio that is not
// positive and finite unlocks it.
func (v *View) LockAspectRatio(ratio float64) {
	v.locked = ratio > 0 && !math.IsInf(ratio, 0)
	v.lockedRatio = ratio
	v.updateRatio()
}

// SetFrameAspect sets the width/height ratio of the frame the image is cropped
// to. Zero uses the surface aspect.
func (v *View) SetFrameAspect(aspect float64) {
	v.frameAspect = aspect
	v.updateRatio()
}

// EnableInteraction allows or forbids gestures changing the viewport.
func (v *View) EnableInteraction(enabled bool) {
	v.userEnabled = enabled
	v.updateEnabled()
}

// InteractionEnabled reports whether gestures currently change the viewport.
func (v *View) InteractionEnabled() bool { return v.interp.Enabled() }

// SetSwitching disables interaction while the displayed view is switched.
func (v *View) SetSwitching(switching bool) {
	v.switching = switching
	v.updateEnabled()
}

// SetViewport replaces the visible rectangle.
func (v *View) SetViewport(r viewport.Rect, fromUser bool) error {
	v.interp.Cancel()
	return v.model.Set(r, fromUser)
}

// Viewport returns the visible rectangle. It may be called from any goroutine.
func (v *View) Viewport() viewport.Rect { return v.model.Snapshot() }

// ImageSize returns the size of the displayed image, zero before the first
// picture is built.
func (v *View) ImageSize() image.Point { return v.imageSize }

// ZoomTo animates the zoom level to level around the center of the view.
func (v *View) ZoomTo(level float64) {
	v.interp.ZoomTo(v.now, float64(v.size.X)/2, float64(v.size.Y)/2, level)
	v.invalidate()
}

// OnSingleTap registers fn to be called on confirmed single taps.
func (v *View) OnSingleTap(fn func()) { v.interp.OnSingleTap(fn) }

// OnViewportChanged registers fn to be called after every viewport change.
func (v *View) OnViewportChanged(fn func(id string, r viewport.Rect, fromUser bool)) {
	v.viewportFns = append(v.viewportFns, fn)
}

// OnImageSizeChanged registers fn to be called when a new picture is shown.
func (v *View) OnImageSizeChanged(fn func(w, h int)) {
	v.imageFns = append(v.imageFns, fn)
}

// OnSurfaceSizeChanged registers fn to be called when the view is resized.
func (v *View) OnSurfaceSizeChanged(fn func(w, h int)) {
	v.surfaceFns = append(v.surfaceFns, fn)
}

// SurfaceLost releases the picture after the window lost its surface. It is
// rebuilt on the next Layout.
func (v *View) SurfaceLost() {
	v.created = false
	v.size = image.Point{}
	v.pictureReady = false
	v.updateEnabled()
	v.sync.SurfaceDestroyed()
}

// Close stops pending loads, releases every resource and waits for the
// render goroutine until ctx is done.
func (v *View) Close(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.closed = true
	v.queue = nil
	v.mu.Unlock()

	v.cancel()
	return v.sync.Close(ctx)
}

// eventClock maps pointer event timestamps, which have an undefined base,
// onto the frame clock.
type eventClock struct {
	set    bool
	offset time.Duration
}

func (c *eventClock) at(t, now time.Duration) time.Duration {
	if !c.set || t+c.offset > now {
		c.offset = now - t
		c.set = true
	}
	return t + c.offset
}
