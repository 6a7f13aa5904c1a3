package panscale

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/panscale/bus"
	"github.com/esimov/panscale/viewport"
)

func TestAdapter_ShouldMirrorUserViewportChanges(t *testing.T) {
	b := bus.New()
	main := NewView("main", DefaultOptions(), nil)
	mirror := NewView("mirror", DefaultOptions(), nil)
	defer closeView(t, main)
	defer closeView(t, mirror)
	Attach(main, b, AdapterOptions{})
	Attach(mirror, b, AdapterOptions{})

	r := viewport.Rect{Left: 0.2, Top: 0.3, Right: 0.6, Bottom: 0.7}
	require.NoError(t, main.SetViewport(r, true))
	assert.Equal(t, viewport.Full, mirror.Viewport(), "changes are applied on the view's own goroutine")

	mirror.drain()
	assert.Equal(t, r, mirror.Viewport())

	last, ok := b.Last(bus.Viewport)
	require.True(t, ok)
	assert.Equal(t, "mirror", last.Origin)
	assert.False(t, last.Event.(bus.ViewportChanged).FromUser, "mirrored changes must not echo back")

	main.drain()
	assert.Equal(t, r, main.Viewport())

	// Programmatic changes stay local.
	require.NoError(t, main.SetViewport(viewport.Full, false))
	mirror.drain()
	assert.Equal(t, r, mirror.Viewport())
}

func TestAdapter_ShouldDisableInteractionWhileSwitching(t *testing.T) {
	b := bus.New()
	v := NewView("main", DefaultOptions(), nil)
	defer closeView(t, v)
	Attach(v, b, AdapterOptions{})
	showImage(t, v, image.Pt(50, 50), 10, 10)
	require.True(t, v.InteractionEnabled())

	b.Publish("host", bus.SwitchingStateChanged{CurrentID: "main", Switching: true})
	v.drain()
	assert.False(t, v.InteractionEnabled())

	b.Publish("host", bus.SwitchingStateChanged{CurrentID: "main"})
	v.drain()
	assert.True(t, v.InteractionEnabled())
}

func TestAdapter_ShouldFollowSiblingFrame(t *testing.T) {
	b := bus.New()
	b.Publish("main", bus.SurfaceSizeChanged{W: 800, H: 400})

	v := NewView("preview", DefaultOptions(), nil)
	defer closeView(t, v)
	a := Attach(v, b, AdapterOptions{FollowFrame: true})

	b.Publish("main", bus.ImageSizeChanged{W: 400, H: 400})
	v.drain()
	assert.InDelta(t, 0.5, v.model.RelativeAspectRatio(), 1e-12)

	// The follower's own sizes are never published.
	v.resize(image.Pt(100, 100))
	v.pictureBuilt(PictureInfo{ImageWidth: 1, ImageHeight: 3})
	last, ok := b.Last(bus.ImageSize)
	require.True(t, ok)
	assert.Equal(t, "main", last.Origin)
	assert.InDelta(t, 0.5, v.model.RelativeAspectRatio(), 1e-12)

	a.Detach()
	a.Detach()
	b.Publish("main", bus.SurfaceSizeChanged{W: 400, H: 400})
	v.drain()
	assert.InDelta(t, 0.5, v.model.RelativeAspectRatio(), 1e-12)
}

func TestAdapter_ShouldPublishSizes(t *testing.T) {
	b := bus.New()
	v := NewView("main", DefaultOptions(), nil)
	defer closeView(t, v)
	Attach(v, b, AdapterOptions{})

	frame(v, image.Pt(640, 480))
	last, ok := b.Last(bus.SurfaceSize)
	require.True(t, ok)
	assert.Equal(t, bus.SurfaceSizeChanged{W: 640, H: 480}, last.Event)

	v.pictureBuilt(PictureInfo{ImageWidth: 30, ImageHeight: 20})
	last, ok = b.Last(bus.ImageSize)
	require.True(t, ok)
	assert.Equal(t, bus.ImageSizeChanged{W: 30, H: 20}, last.Event)
}
