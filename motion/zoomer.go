package motion

import "time"

// DefaultZoomDuration is the length of a programmatic zoom animation.
const DefaultZoomDuration = 200 * time.Millisecond

// Zoomer interpolates a zoom level between two values with an ease-out curve.
type Zoomer struct {
	duration time.Duration
	t0       time.Time
	start    float64
	end      float64
	current  float64
	finished bool
}

// NewZoomer returns a finished zoomer animating over d.
func NewZoomer(d time.Duration) *Zoomer {
	if d <= 0 {
		d = DefaultZoomDuration
	}
	return &Zoomer{duration: d, start: 1, end: 1, current: 1, finished: true}
}

// Start begins a zoom from the level from towards to.
func (z *Zoomer) Start(now time.Time, from, to float64) {
	z.t0 = now
	z.start = from
	z.end = to
	z.current = from
	z.finished = false
}

// Compute advances the animation to now and reports whether the caller should
// apply Current. The final step returns true with Current equal to the end
// level; every later call returns false.
func (z *Zoomer) Compute(now time.Time) bool {
	if z.finished {
		return false
	}
	elapsed := now.Sub(z.t0)
	if elapsed >= z.duration {
		z.current = z.end
		z.finished = true
		return true
	}
	t := float64(elapsed) / float64(z.duration)
	if t < 0 {
		t = 0
	}
	z.current = z.start + (z.end-z.start)*easeOut(t)
	return true
}

// easeOut decelerates towards the end of the interval.
func easeOut(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// Current returns the zoom level at the last Compute call.
func (z *Zoomer) Current() float64 { return z.current }

// End returns the target zoom level.
func (z *Zoomer) End() float64 { return z.end }

// Finished reports whether the animation is over.
func (z *Zoomer) Finished() bool { return z.finished }

// ForceFinished stops the animation at its current level.
func (z *Zoomer) ForceFinished() { z.finished = true }
