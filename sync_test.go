package panscale

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gioui.org/op"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/panscale/viewport"
)

type fakePicture struct {
	src      *Source
	height   int
	draws    atomic.Int32
	released atomic.Bool
}

func (p *fakePicture) Draw(*op.Ops, Projection, image.Point) { p.draws.Add(1) }
func (p *fakePicture) Release()                              { p.released.Store(true) }

type fakeBuilder struct {
	mu       sync.Mutex
	built    []*fakePicture
	failures map[*Source]bool
}

func (b *fakeBuilder) build(src *Source, height int) (Picture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures[src] {
		return nil, errors.New("no texture memory")
	}
	p := &fakePicture{src: src, height: height}
	b.built = append(b.built, p)
	return p, nil
}

func (b *fakeBuilder) pictures() []*fakePicture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakePicture(nil), b.built...)
}

// flush waits until every previously queued work item has run.
func flush(t *testing.T, s *Synchronizer) {
	t.Helper()
	done := make(chan struct{})
	require.True(t, s.enqueue(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("render goroutine stalled")
	}
}

func released(src *Source) bool {
	_, err := src.Region(image.Rect(0, 0, 1, 1), 1)
	return errors.Is(err, ErrReleased)
}

func newTestSync(b *fakeBuilder) (*Synchronizer, *[]PictureInfo, *sync.Mutex) {
	var (
		mu    sync.Mutex
		infos []PictureInfo
	)
	s := NewSynchronizer(b.build, nil, func(info PictureInfo) {
		mu.Lock()
		infos = append(infos, info)
		mu.Unlock()
	})
	return s, &infos, &mu
}

func TestSynchronizer_ShouldDeferUntilSurfaceIsReady(t *testing.T) {
	b := &fakeBuilder{}
	s, infos, mu := newTestSync(b)
	defer s.Close(context.Background())

	src := NewSource(makeImage(40, 20))
	s.SetSource(src)
	flush(t, s)
	assert.Empty(t, b.pictures())
	assert.False(t, s.Ready())

	s.SurfaceCreated()
	flush(t, s)
	assert.Empty(t, b.pictures(), "a surface without a size cannot host a picture")

	s.SurfaceChanged(400, 300)
	flush(t, s)
	pics := b.pictures()
	require.Len(t, pics, 1)
	assert.Equal(t, 300, pics[0].height)
	assert.True(t, s.Ready())

	mu.Lock()
	assert.Equal(t, []PictureInfo{{ImageWidth: 40, ImageHeight: 20}}, *infos)
	mu.Unlock()

	ops := new(op.Ops)
	assert.True(t, s.Draw(ops, viewport.Full, image.Pt(400, 300)))
	assert.Equal(t, int32(1), pics[0].draws.Load())
}

func TestSynchronizer_ShouldRebuildOnSurfaceChange(t *testing.T) {
	b := &fakeBuilder{}
	s, _, _ := newTestSync(b)
	defer s.Close(context.Background())

	s.SurfaceCreated()
	s.SurfaceChanged(400, 300)
	s.SetSource(NewSource(makeImage(40, 20)))
	s.SurfaceChanged(400, 300)
	s.SurfaceChanged(800, 600)
	flush(t, s)

	pics := b.pictures()
	require.Len(t, pics, 2)
	assert.True(t, pics[0].released.Load())
	assert.False(t, pics[1].released.Load())
	assert.Equal(t, 600, pics[1].height)
	assert.False(t, released(pics[1].src), "the source survives picture rebuilds")
}

func TestSynchronizer_ShouldKeepPreviousPictureOnFailure(t *testing.T) {
	good := NewSource(makeImage(40, 20))
	bad := NewSource(makeImage(10, 10))
	b := &fakeBuilder{failures: map[*Source]bool{bad: true}}
	s, infos, mu := newTestSync(b)
	defer s.Close(context.Background())

	s.SurfaceCreated()
	s.SurfaceChanged(200, 100)
	s.SetSource(good)
	s.SetSource(bad)
	flush(t, s)

	pics := b.pictures()
	require.Len(t, pics, 1)
	assert.False(t, pics[0].released.Load())
	assert.False(t, released(good))
	assert.True(t, released(bad))
	assert.True(t, s.Ready())

	mu.Lock()
	assert.Len(t, *infos, 1)
	mu.Unlock()
}

func TestSynchronizer_ShouldReleaseOldResourcesAfterHandoff(t *testing.T) {
	first := NewSource(makeImage(40, 20))
	second := NewSource(makeImage(20, 40))
	b := &fakeBuilder{}
	s, infos, mu := newTestSync(b)
	defer s.Close(context.Background())

	s.SurfaceCreated()
	s.SurfaceChanged(200, 100)
	s.SetSource(first)
	flush(t, s)
	assert.False(t, released(first))

	s.SetSource(second)
	flush(t, s)

	pics := b.pictures()
	require.Len(t, pics, 2)
	assert.True(t, pics[0].released.Load())
	assert.True(t, released(first))
	assert.False(t, released(second))

	mu.Lock()
	require.Len(t, *infos, 2)
	assert.Equal(t, 20, (*infos)[1].ImageWidth)
	mu.Unlock()
}

func TestSynchronizer_ShouldReleaseEverythingOnClose(t *testing.T) {
	src := NewSource(makeImage(40, 20))
	b := &fakeBuilder{}
	s, _, _ := newTestSync(b)

	s.SurfaceCreated()
	s.SurfaceChanged(200, 100)
	s.SetSource(src)

	require.NoError(t, s.Close(context.Background()))
	pics := b.pictures()
	require.Len(t, pics, 1)
	assert.True(t, pics[0].released.Load())
	assert.True(t, released(src))
	assert.False(t, s.Ready())

	assert.ErrorIs(t, s.Close(context.Background()), ErrClosed)

	late := NewSource(makeImage(4, 4))
	s.SetSource(late)
	assert.True(t, released(late))
}

func TestSynchronizer_ShouldDropPictureWithSurface(t *testing.T) {
	b := &fakeBuilder{}
	s, _, _ := newTestSync(b)
	defer s.Close(context.Background())

	s.SurfaceCreated()
	s.SurfaceChanged(200, 100)
	s.SetSource(NewSource(makeImage(40, 20)))
	s.SurfaceDestroyed()
	flush(t, s)
	assert.False(t, s.Ready())
	assert.False(t, s.Draw(new(op.Ops), viewport.Full, image.Pt(200, 100)))

	s.SurfaceCreated()
	flush(t, s)
	assert.True(t, s.Ready())
	assert.Len(t, b.pictures(), 2)
}
