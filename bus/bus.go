// Package bus is a small sticky publish/subscribe hub used to keep several
// image views in sync. The last value of every event kind is kept and replayed
// to late subscribers, and every update carries the id of its originator so
// a view never reacts to its own broadcasts.
package bus

import (
	"fmt"
	"sync"

	"github.com/esimov/panscale/viewport"
)

// Kind identifies a family of events. The bus keeps one sticky value per kind.
type Kind uint8

const (
	SurfaceSize Kind = iota
	ImageSize
	Viewport
	Switching
)

func (k Kind) String() string {
	switch k {
	case SurfaceSize:
		return "surface-size"
	case ImageSize:
		return "image-size"
	case Viewport:
		return "viewport"
	case Switching:
		return "switching"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Event is a value published on the bus.
type Event interface {
	Kind() Kind
}

// SurfaceSizeChanged reports the pixel size of a view's drawing surface.
type SurfaceSizeChanged struct {
	W, H int
}

// ImageSizeChanged reports the pixel size of the image a view displays.
type ImageSizeChanged struct {
	W, H int
}

// ViewportChanged reports the visible rectangle of a view.
type ViewportChanged struct {
	ID       string
	Rect     viewport.Rect
	FromUser bool
}

// SwitchingStateChanged reports that the displayed view is being switched.
type SwitchingStateChanged struct {
	CurrentID string
	Switching bool
}

func (SurfaceSizeChanged) Kind() Kind    { return SurfaceSize }
func (ImageSizeChanged) Kind() Kind      { return ImageSize }
func (ViewportChanged) Kind() Kind       { return Viewport }
func (SwitchingStateChanged) Kind() Kind { return Switching }

// Envelope is an event tagged with the id of the party that published it.
type Envelope struct {
	Origin string
	Event  Event
}

// Handler receives envelopes. It runs on the publishing goroutine and must
// not block.
type Handler func(Envelope)

type subscription struct {
	id string
	fn Handler
}

// Bus is safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	last map[Kind]Envelope
	subs map[Kind][]*subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{
		last: make(map[Kind]Envelope),
		subs: make(map[Kind][]*subscription),
	}
}

// Publish stores ev as the last value of its kind and hands it to every
// subscriber of that kind except origin itself.
func (b *Bus) Publish(origin string, ev Event) {
	if ev == nil {
		return
	}
	env := Envelope{Origin: origin, Event: ev}

	b.mu.Lock()
	b.last[ev.Kind()] = env
	subs := append([]*subscription(nil), b.subs[ev.Kind()]...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.id != origin {
			s.fn(env)
		}
	}
}

// Subscribe registers fn for events of kind on behalf of id. The last value
// of kind, if any and not published by id, is delivered immediately. The
// returned function removes the subscription.
func (b *Bus) Subscribe(id string, kind Kind, fn Handler) (cancel func()) {
	s := &subscription{id: id, fn: fn}

	b.mu.Lock()
	b.subs[kind] = append(b.subs[kind], s)
	env, ok := b.last[kind]
	b.mu.Unlock()

	if ok && env.Origin != id {
		fn(env)
	}
	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(kind, s) })
	}
}

func (b *Bus) unsubscribe(kind Kind, s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, sub := range subs {
		if sub == s {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Last returns the last envelope published for kind.
func (b *Bus) Last(kind Kind) (Envelope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	env, ok := b.last[kind]
	return env, ok
}

// Clear forgets the sticky value of kind.
func (b *Bus) Clear(kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.last, kind)
}
