package panscale

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/esimov/panscale/bus"
	"github.com/esimov/panscale/viewport"
)

// AdapterOptions configures how a view is bound to a bus.
type AdapterOptions struct {
	// FollowFrame derives the view's aspect ratio from the image and surface
	// sizes published by another view, so both crop the image alike. A
	// following view does not publish its own sizes.
	FollowFrame bool
}

// SyncAdapter mirrors a View through a bus.Bus.
type SyncAdapter struct {
	view *View
	bus  *bus.Bus
	opts AdapterOptions

	detached atomic.Bool
	cancels  []func()

	mu      sync.Mutex
	surface image.Point
	image   image.Point
}

// Attach binds v to b. It must be called from the goroutine running v.Layout.
func Attach(v *View, b *bus.Bus, opts AdapterOptions) *SyncAdapter {
	a := &SyncAdapter{view: v, bus: b, opts: opts}

	v.OnViewportChanged(func(id string, r viewport.Rect, fromUser bool) {
		if a.detached.Load() {
			return
		}
		b.Publish(id, bus.ViewportChanged{ID: id, Rect: r, FromUser: fromUser})
	})
	if !opts.FollowFrame {
		v.OnSurfaceSizeChanged(func(w, h int) {
			if !a.detached.Load() {
				b.Publish(v.ID(), bus.SurfaceSizeChanged{W: w, H: h})
			}
		})
		v.OnImageSizeChanged(func(w, h int) {
			if !a.detached.Load() {
				b.Publish(v.ID(), bus.ImageSizeChanged{W: w, H: h})
			}
		})
	}

	a.cancels = append(a.cancels,
		b.Subscribe(v.ID(), bus.Viewport, a.viewportChanged),
		b.Subscribe(v.ID(), bus.Switching, a.switchingChanged),
	)
	if opts.FollowFrame {
		a.cancels = append(a.cancels,
			b.Subscribe(v.ID(), bus.SurfaceSize, a.frameChanged),
			b.Subscribe(v.ID(), bus.ImageSize, a.frameChanged),
		)
	}
	return a
}

func (a *SyncAdapter) viewportChanged(env bus.Envelope) {
	ev := env.Event.(bus.ViewportChanged)
	if !ev.FromUser {
		return
	}
	a.view.Post(func() {
		if a.detached.Load() {
			return
		}
		if err := a.view.SetViewport(ev.Rect, false); err != nil {
			Logger().Warn("ignoring mirrored viewport", "view", a.view.ID(), "from", env.Origin, "error", err)
		}
	})
}

func (a *SyncAdapter) switchingChanged(env bus.Envelope) {
	ev := env.Event.(bus.SwitchingStateChanged)
	a.view.Post(func() {
		if !a.detached.Load() {
			a.view.SetSwitching(ev.Switching)
		}
	})
}

func (a *SyncAdapter) frameChanged(env bus.Envelope) {
	a.mu.Lock()
	switch ev := env.Event.(type) {
	case bus.SurfaceSizeChanged:
		a.surface = image.Pt(ev.W, ev.H)
	case bus.ImageSizeChanged:
		a.image = image.Pt(ev.W, ev.H)
	}
	surface, img := a.surface, a.image
	a.mu.Unlock()

	if surface.X <= 0 || surface.Y <= 0 || img.X <= 0 || img.Y <= 0 {
		return
	}
	ratio := (float64(img.X) / float64(img.Y)) / (float64(surface.X) / float64(surface.Y))
	a.view.Post(func() {
		if !a.detached.Load() {
			a.view.LockAspectRatio(ratio)
		}
	})
}

// Detach stops mirroring. It is safe to call more than once.
func (a *SyncAdapter) Detach() {
	if a.detached.Swap(true) {
		return
	}
	for _, cancel := range a.cancels {
		cancel()
	}
}
