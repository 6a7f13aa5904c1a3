package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/panscale/viewport"
)

func TestBus_ShouldReplayStickyValue(t *testing.T) {
	b := New()
	b.Publish("a", SurfaceSizeChanged{W: 640, H: 480})
	b.Publish("a", SurfaceSizeChanged{W: 800, H: 600})

	var got []Envelope
	b.Subscribe("b", SurfaceSize, func(env Envelope) { got = append(got, env) })

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Origin)
	assert.Equal(t, SurfaceSizeChanged{W: 800, H: 600}, got[0].Event)
}

func TestBus_ShouldSkipSelfOriginatedEvents(t *testing.T) {
	b := New()
	rect := viewport.Rect{Left: 0.1, Top: 0.1, Right: 0.6, Bottom: 0.6}
	b.Publish("a", ViewportChanged{ID: "a", Rect: rect, FromUser: true})

	var fromA, fromB []Envelope
	b.Subscribe("a", Viewport, func(env Envelope) { fromA = append(fromA, env) })
	b.Subscribe("b", Viewport, func(env Envelope) { fromB = append(fromB, env) })
	assert.Empty(t, fromA, "sticky replay must skip the originator")
	require.Len(t, fromB, 1)

	b.Publish("b", ViewportChanged{ID: "b", Rect: viewport.Full})
	require.Len(t, fromA, 1)
	assert.Len(t, fromB, 1)

	last, ok := b.Last(Viewport)
	require.True(t, ok)
	assert.Equal(t, "b", last.Origin)
	assert.Equal(t, viewport.Full, last.Event.(ViewportChanged).Rect)
}

func TestBus_ShouldKeepKindsApart(t *testing.T) {
	b := New()
	var switching []SwitchingStateChanged
	cancel := b.Subscribe("v", Switching, func(env Envelope) {
		switching = append(switching, env.Event.(SwitchingStateChanged))
	})

	b.Publish("host", ImageSizeChanged{W: 10, H: 20})
	b.Publish("host", SwitchingStateChanged{CurrentID: "v", Switching: true})
	assert.Equal(t, []SwitchingStateChanged{{CurrentID: "v", Switching: true}}, switching)

	cancel()
	cancel()
	b.Publish("host", SwitchingStateChanged{CurrentID: "v"})
	assert.Len(t, switching, 1)

	b.Clear(ImageSize)
	_, ok := b.Last(ImageSize)
	assert.False(t, ok)
	assert.Equal(t, "image-size", ImageSize.String())
}

func TestBus_ShouldAllowPublishingFromHandlers(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	wg.Add(1)
	b.Subscribe("echo", ImageSize, func(env Envelope) {
		sz := env.Event.(ImageSizeChanged)
		b.Publish("echo", SurfaceSizeChanged{W: sz.W, H: sz.H})
		wg.Done()
	})
	b.Publish("src", ImageSizeChanged{W: 3, H: 4})
	wg.Wait()

	last, ok := b.Last(SurfaceSize)
	require.True(t, ok)
	assert.Equal(t, SurfaceSizeChanged{W: 3, H: 4}, last.Event)
}
