// Package gesture turns raw pointer input into viewport changes. Independent
// recognizers observe the same event stream and emit intents which the
// Interpreter applies to a viewport.Model in a single place.
package gesture

import (
	"fmt"
	"math"
	"time"
)

// Kind is the type of a pointer event.
type Kind uint8

const (
	// Press is sent when a pointer goes down.
	Press Kind = iota
	// Move is sent when a pressed pointer moves.
	Move
	// Release is sent when a pointer goes up.
	Release
	// Cancel aborts every pointer of the current gesture.
	Cancel
	// Scroll is sent by mouse wheels and touchpads.
	Scroll
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "Press"
	case Move:
		return "Move"
	case Release:
		return "Release"
	case Cancel:
		return "Cancel"
	case Scroll:
		return "Scroll"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

func (p Point) sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Event is a pointer event in surface pixels.
type Event struct {
	Kind      Kind
	PointerID int
	Position  Point
	// Time is a monotonic timestamp. Only differences between timestamps
	// are meaningful.
	Time time.Duration
	// Scroll holds the wheel distance in pixels for Scroll events.
	Scroll Point
	// Zoom marks a Scroll event that should zoom instead of pan, typically
	// because a modifier key is held.
	Zoom bool
}
