package panscale

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"gioui.org/op"
	"github.com/esimov/panscale/viewport"
)

// ErrClosed is returned by operations on a closed Synchronizer or View.
var ErrClosed = errors.New("panscale: closed")

type pictureRef struct {
	p Picture
}

// Synchronizer owns the picture lifecycle. Pictures are created and released
// on a dedicated render goroutine; the UI goroutine draws the latest one
// through an atomic pointer.
type Synchronizer struct {
	build   PictureBuilder
	post    func(func())
	onReady func(PictureInfo)

	work chan func()
	done chan struct{}

	mu     sync.Mutex
	closed bool

	picture atomic.Pointer[pictureRef]

	// Owned by the render goroutine.
	surfaceReady bool
	width        int
	height       int
	source       *Source
	pending      *Source
}

// NewSynchronizer starts the render goroutine. post marshals callbacks onto
// the UI goroutine; onReady is delivered through it every time a picture has
// been built.
func NewSynchronizer(build PictureBuilder, post func(func()), onReady func(PictureInfo)) *Synchronizer {
	if build == nil {
		build = TiledPictureBuilder(DefaultTileSize)
	}
	if post == nil {
		post = func(fn func()) { fn() }
	}
	s := &Synchronizer{
		build:   build,
		post:    post,
		onReady: onReady,
		work:    make(chan func(), 16),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Synchronizer) loop() {
	defer close(s.done)
	for fn := range s.work {
		fn()
	}
}

// enqueue schedules fn on the render goroutine. It reports false once the
// synchronizer is closed.
func (s *Synchronizer) enqueue(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.work <- fn
	return true
}

// SetSource hands a new image over. The previous source stays on screen until
// the picture of src is built. When the synchronizer is closed src is released.
func (s *Synchronizer) SetSource(src *Source) {
	if src == nil {
		return
	}
	ok := s.enqueue(func() {
		if s.pending != nil && s.pending != src {
			s.pending.Release()
		}
		s.pending = src
		s.rebuild()
	})
	if !ok {
		src.Release()
	}
}

// SurfaceCreated marks the drawing surface as usable and replays any deferred
// handoff.
func (s *Synchronizer) SurfaceCreated() {
	s.enqueue(func() {
		s.surfaceReady = true
		s.rebuild()
	})
}

// SurfaceChanged records the new surface size and rebuilds the picture for it.
func (s *Synchronizer) SurfaceChanged(width, height int) {
	s.enqueue(func() {
		if width == s.width && height == s.height {
			return
		}
		s.width, s.height = width, height
		s.rebuild()
	})
}

// SurfaceDestroyed releases the picture. The source is kept so the picture
// can be rebuilt when a new surface is created.
func (s *Synchronizer) SurfaceDestroyed() {
	s.enqueue(func() {
		s.surfaceReady = false
		s.releasePicture()
		Logger().Debug("surface destroyed")
	})
}

func (s *Synchronizer) rebuild() {
	src := s.pending
	if src == nil {
		src = s.source
	}
	if src == nil {
		return
	}
	if !s.surfaceReady || s.width <= 0 || s.height <= 0 {
		Logger().Debug("picture deferred until the surface is ready",
			"ready", s.surfaceReady, "width", s.width, "height", s.height)
		return
	}

	p, err := s.build(src, s.height)
	if err != nil {
		Logger().Warn("could not build picture", "error", err)
		if src == s.pending {
			s.pending.Release()
			s.pending = nil
		}
		return
	}
	if old := s.picture.Swap(&pictureRef{p: p}); old != nil {
		old.p.Release()
	}
	if src != s.source {
		if s.source != nil {
			s.source.Release()
		}
		s.source = src
	}
	s.pending = nil

	info := PictureInfo{ImageWidth: src.Width(), ImageHeight: src.Height()}
	if tp, ok := p.(*tiledPicture); ok {
		info.SampleSize = tp.sampleSize
	}
	Logger().Debug("picture built",
		"width", info.ImageWidth, "height", info.ImageHeight, "surface", s.height, "sample", info.SampleSize)
	if s.onReady != nil {
		s.post(func() { s.onReady(info) })
	}
}

func (s *Synchronizer) releasePicture() {
	if old := s.picture.Swap(nil); old != nil {
		old.p.Release()
	}
}

// Draw paints the current picture showing the viewport r onto a surface of
// the given size. It reports whether a picture was drawn.
func (s *Synchronizer) Draw(ops *op.Ops, r viewport.Rect, size image.Point) bool {
	ref := s.picture.Load()
	if ref == nil {
		return false
	}
	ref.p.Draw(ops, NewProjection(r), size)
	return true
}

// Ready reports whether a picture is available.
func (s *Synchronizer) Ready() bool {
	return s.picture.Load() != nil
}

// Close releases the picture and the sources on the render goroutine and
// waits for it to exit or for ctx to be done.
func (s *Synchronizer) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.work <- func() {
		s.releasePicture()
		if s.pending != nil {
			s.pending.Release()
			s.pending = nil
		}
		if s.source != nil {
			s.source.Release()
			s.source = nil
		}
	}
	close(s.work)
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
