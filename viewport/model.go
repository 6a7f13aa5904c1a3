package viewport

import (
	"errors"
	"math"
	"sync/atomic"
)

// ErrInvalidGeometry is returned when a rectangle or an aspect ratio cannot be
// applied. The model keeps its previous state.
var ErrInvalidGeometry = errors.New("viewport: invalid geometry")

// ChangeFunc is invoked after every successful mutation. fromUser reports
// whether the change originated from user interaction, so observers that
// mirror the viewport elsewhere can avoid echoing their own updates.
type ChangeFunc func(r Rect, fromUser bool)

// Model owns the current viewport. Mutations must happen on a single
// goroutine; Snapshot may be called from any goroutine.
type Model struct {
	rect      Rect
	ratio     float64
	minSize   float64
	snapshot  atomic.Pointer[Rect]
	listeners []ChangeFunc
}

// New creates a model showing the whole domain with a relative aspect ratio of 1.
// A minSize outside (0,1] falls back to DefaultMinSize.
func New(minSize float64) *Model {
	if !(minSize > 0 && minSize <= 1) {
		minSize = DefaultMinSize
	}
	m := &Model{
		rect:    Full,
		ratio:   1,
		minSize: minSize,
	}
	m.publish()
	return m
}

// Rect returns the current viewport. It must only be called from the
// goroutine mutating the model.
func (m *Model) Rect() Rect { return m.rect }

// Snapshot returns the last published viewport. The rectangle is replaced as
// a whole, so a concurrent reader never observes a partially updated value.
func (m *Model) Snapshot() Rect { return *m.snapshot.Load() }

// RelativeAspectRatio returns the image aspect ratio divided by the surface aspect ratio.
func (m *Model) RelativeAspectRatio() float64 { return m.ratio }

// MinSize returns the minimum extent of the tight axis.
func (m *Model) MinSize() float64 { return m.minSize }

// TightAxis returns the axis currently bound by the [0,1] domain.
func (m *Model) TightAxis() Axis { return TightAxis(m.ratio) }

// Zoom returns the zoom level measured on the tight axis: 1 when the whole
// axis is visible, 2 when half of it is.
func (m *Model) Zoom() float64 {
	if m.TightAxis() == Vertical {
		return 1 / m.rect.Height()
	}
	return 1 / m.rect.Width()
}

// OnChange registers fn to be called after each viewport change.
func (m *Model) OnChange(fn ChangeFunc) {
	m.listeners = append(m.listeners, fn)
}

// Set replaces the viewport with r and constrains it. Malformed rectangles are
// rejected and leave the model untouched.
func (m *Model) Set(r Rect, fromUser bool) error {
	if !r.Valid() {
		return ErrInvalidGeometry
	}
	c := Constrain(r, m.ratio, m.minSize)
	if !c.Valid() {
		return ErrInvalidGeometry
	}
	m.apply(c, fromUser)
	return nil
}

// SetTopLeft moves the viewport without changing its size.
func (m *Model) SetTopLeft(x, y float64, fromUser bool) error {
	return m.Set(FromTopLeft(x, y, m.rect.Width(), m.rect.Height()), fromUser)
}

// SetRelativeAspectRatio updates the aspect constraint and re-clamps the
// current viewport in place.
func (m *Model) SetRelativeAspectRatio(ratio float64) error {
	if !validRatio(ratio, m.minSize) {
		return ErrInvalidGeometry
	}
	r := Constrain(m.rect, ratio, m.minSize)
	if !r.Valid() {
		return ErrInvalidGeometry
	}
	m.ratio = ratio
	m.apply(r, false)
	return nil
}

// Restore sets the viewport verbatim, without constraining it. It is meant
// for state saved from a previous model and only accepts rectangles inside
// the image domain whose larger span honours the size floor. The tight span
// of a legal viewport is always its larger one, so the check holds for any
// ratio. The aspect is not checked: the ratio of the saved state is usually
// unknown until the image is loaded, and the next SetRelativeAspectRatio
// re-clamps the rectangle.
func (m *Model) Restore(r Rect) error {
	if !r.Valid() || r.Left < 0 || r.Top < 0 || r.Right > 1 || r.Bottom > 1 {
		return ErrInvalidGeometry
	}
	if math.Max(r.Width(), r.Height()) < m.minSize-epsilon {
		return ErrInvalidGeometry
	}
	m.apply(r, false)
	return nil
}

// HitTest maps a pixel position on a surface of size w x h to the domain point
// currently displayed there.
func (m *Model) HitTest(x, y, w, h float64) Point {
	return Point{
		X: m.rect.Left + m.rect.Width()*x/w,
		Y: m.rect.Top + m.rect.Height()*y/h,
	}
}

func (m *Model) apply(r Rect, fromUser bool) {
	changed := r != m.rect
	m.rect = r
	m.publish()
	if !changed && !fromUser {
		return
	}
	for _, fn := range m.listeners {
		fn(r, fromUser)
	}
}

func (m *Model) publish() {
	r := m.rect
	m.snapshot.Store(&r)
}
