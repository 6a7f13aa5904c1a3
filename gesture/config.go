package gesture

import (
	"time"

	"github.com/esimov/panscale/motion"
)

// Config holds the tunables of the gesture interpreter. Distances are in
// pixels, velocities in pixels per second.
type Config struct {
	// DoubleTapZoom is the zoom level a double tap zooms in to.
	DoubleTapZoom float64
	// ZoomToggleThreshold is the zoom level from which a double tap zooms
	// back out to 1 instead of zooming in.
	ZoomToggleThreshold float64
	// ZoomDuration is the length of the double tap zoom animation.
	ZoomDuration time.Duration
	// DoubleTapTimeout is the longest delay between the first release and the
	// second press of a double tap. A tap is confirmed as single after it.
	DoubleTapTimeout time.Duration
	// TouchSlop is the distance a pointer may travel before a tap becomes a scroll.
	TouchSlop float64
	// DoubleTapSlop is the largest distance between the two presses of a double tap.
	DoubleTapSlop float64
	// MinFlingVelocity is the release velocity below which no fling starts.
	MinFlingVelocity float64
	// MaxFlingVelocity caps the release velocity.
	MaxFlingVelocity float64
	// FlingFriction is the (negative) drag coefficient of the fling decay.
	FlingFriction float64
	// QuickScaleDistance is the vertical drag, in pixels, that doubles the
	// zoom during a double-tap-and-drag gesture.
	QuickScaleDistance float64
	// WheelZoomRate converts wheel pixels to a logarithmic zoom step.
	WheelZoomRate float64
}

// DefaultConfig returns the default gesture tunables.
func DefaultConfig() Config {
	return Config{
		DoubleTapZoom:       2,
		ZoomToggleThreshold: 1.5,
		ZoomDuration:        motion.DefaultZoomDuration,
		DoubleTapTimeout:    300 * time.Millisecond,
		TouchSlop:           8,
		DoubleTapSlop:       100,
		MinFlingVelocity:    50,
		MaxFlingVelocity:    8000,
		FlingFriction:       motion.DefaultFriction,
		QuickScaleDistance:  200,
		WheelZoomRate:       0.005,
	}
}

// withDefaults replaces unset or invalid fields with their default values.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DoubleTapZoom <= 0 {
		c.DoubleTapZoom = d.DoubleTapZoom
	}
	if c.ZoomToggleThreshold <= 0 {
		c.ZoomToggleThreshold = d.ZoomToggleThreshold
	}
	if c.ZoomDuration <= 0 {
		c.ZoomDuration = d.ZoomDuration
	}
	if c.DoubleTapTimeout <= 0 {
		c.DoubleTapTimeout = d.DoubleTapTimeout
	}
	if c.TouchSlop <= 0 {
		c.TouchSlop = d.TouchSlop
	}
	if c.DoubleTapSlop <= 0 {
		c.DoubleTapSlop = d.DoubleTapSlop
	}
	if c.MinFlingVelocity <= 0 {
		c.MinFlingVelocity = d.MinFlingVelocity
	}
	if c.MaxFlingVelocity < c.MinFlingVelocity {
		c.MaxFlingVelocity = d.MaxFlingVelocity
	}
	if c.FlingFriction >= 0 {
		c.FlingFriction = d.FlingFriction
	}
	if c.QuickScaleDistance <= 0 {
		c.QuickScaleDistance = d.QuickScaleDistance
	}
	if c.WheelZoomRate <= 0 {
		c.WheelZoomRate = d.WheelZoomRate
	}
	return c
}
