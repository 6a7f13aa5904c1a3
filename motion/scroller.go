// Package motion implements the pull-based motion models driving the viewport
// between user gestures: a fling with drag decay, an eased zoom and the
// velocity estimation feeding the fling.
package motion

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// DefaultFriction is the drag coefficient k of the fling decay x''(t) = k x'(t).
const DefaultFriction = -4.2

const (
	// Velocity in pixels per second below which a fling stops.
	thresholdVelocity = 1
	// Rate at which the settle spring is stepped.
	springFPS = 60
	// Angular frequency and damping of the settle spring. A damping ratio of
	// 1 makes it critically damped, so the axis returns to its bound without
	// oscillating around it.
	springFrequency = 8.0
	springDamping   = 1.0
	// Distance in pixels under which a settling axis snaps to its bound.
	settleThreshold = 0.5
)

// Scroller computes the position of a two axis fling over time.
//
// Positions are expressed in pixels of the scroll surface. Each axis decays
// exponentially from its initial velocity and stops within [min, max]. When
// the decay carries an axis past a bound it may overscroll by at most the
// given distance before a spring brings it back.
type Scroller struct {
	friction float64
	spring   harmonica.Spring
	axes     [2]flingAxis
	finished bool
}

type flingAxis struct {
	start    float64
	pos      float64
	v0       float64
	vel      float64
	min, max float64
	over     float64
	t0       time.Time
	last     time.Time
	settling bool
	target   float64
	done     bool
}

// NewScroller returns a finished scroller using the given drag coefficient.
// Non-negative values fall back to DefaultFriction.
func NewScroller(friction float64) *Scroller {
	if !(friction < 0) {
		friction = DefaultFriction
	}
	return &Scroller{
		friction: friction,
		spring:   harmonica.NewSpring(harmonica.FPS(springFPS), springFrequency, springDamping),
		finished: true,
	}
}

// Fling starts a fling from (startX, startY) with the given velocity in
// pixels per second. The final position is bounded to [minX, maxX] x [minY,
// maxY]; overX and overY bound the transient overscroll.
func (s *Scroller) Fling(now time.Time, startX, startY, velX, velY, minX, maxX, minY, maxY, overX, overY float64) {
	s.axes[0] = s.newAxis(now, startX, velX, minX, maxX, overX)
	s.axes[1] = s.newAxis(now, startY, velY, minY, maxY, overY)
	s.finished = s.axes[0].done && s.axes[1].done
}

func (s *Scroller) newAxis(now time.Time, start, vel, min, max, over float64) flingAxis {
	if max < min {
		max = min
	}
	a := flingAxis{
		start: start,
		pos:   start,
		v0:    vel,
		vel:   vel,
		min:   min,
		max:   max,
		over:  math.Max(0, over),
		t0:    now,
		last:  now,
	}
	switch {
	case start < min || start > max:
		a.beginSettle(now)
	case math.Abs(vel) < thresholdVelocity:
		a.done = true
	}
	return a
}

// Compute advances the fling to now. It reports whether the fling is still
// running, in which case the caller should read the new position and
// schedule another tick.
func (s *Scroller) Compute(now time.Time) bool {
	if s.finished {
		return false
	}
	for i := range s.axes {
		s.step(&s.axes[i], now)
	}
	if s.axes[0].done && s.axes[1].done {
		s.finished = true
	}
	return true
}

func (s *Scroller) step(a *flingAxis, now time.Time) {
	if a.done {
		return
	}
	if a.settling {
		s.settle(a, now)
		return
	}
	t := now.Sub(a.t0).Seconds()
	if t < 0 {
		return
	}
	k := s.friction
	ekt := math.Exp(k * t)
	a.pos = a.start + a.v0*(ekt-1)/k
	a.vel = a.v0 * ekt
	a.last = now

	if a.pos < a.min || a.pos > a.max {
		a.pos = math.Max(a.min-a.over, math.Min(a.max+a.over, a.pos))
		a.beginSettle(now)
		return
	}
	if math.Abs(a.vel) < thresholdVelocity {
		a.vel = 0
		a.done = true
	}
}

func (a *flingAxis) beginSettle(now time.Time) {
	a.settling = true
	a.last = now
	a.target = a.min
	if a.pos > a.max {
		a.target = a.max
	}
}

// settle steps the spring once per elapsed frame of the spring clock.
func (s *Scroller) settle(a *flingAxis, now time.Time) {
	frame := time.Second / springFPS
	for !a.done && now.Sub(a.last) >= frame {
		a.last = a.last.Add(frame)
		a.pos, a.vel = s.spring.Update(a.pos, a.vel, a.target)
		a.pos = math.Max(a.min-a.over, math.Min(a.max+a.over, a.pos))
		if math.Abs(a.pos-a.target) < settleThreshold && math.Abs(a.vel) < springFPS*settleThreshold {
			a.pos, a.vel = a.target, 0
			a.done = true
		}
	}
}

// CurrX returns the current horizontal position in pixels.
func (s *Scroller) CurrX() float64 { return s.axes[0].pos }

// CurrY returns the current vertical position in pixels.
func (s *Scroller) CurrY() float64 { return s.axes[1].pos }

// Finished reports whether the fling has come to rest.
func (s *Scroller) Finished() bool { return s.finished }

// ForceFinished stops the fling at its current position.
func (s *Scroller) ForceFinished() {
	s.finished = true
	for i := range s.axes {
		s.axes[i].done = true
		s.axes[i].vel = 0
	}
}
