package motion

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 16 * time.Millisecond

func runScroller(s *Scroller, start time.Time, limit int) (time.Time, int) {
	now := start
	ticks := 0
	for ticks < limit && s.Compute(now) {
		now = now.Add(frame)
		ticks++
	}
	return now, ticks
}

func TestScroller_ShouldDecayWithinBounds(t *testing.T) {
	s := NewScroller(0)
	start := time.Unix(0, 0)
	s.Fling(start, 100, 100, 400, -200, 0, 1000, 0, 1000, 50, 50)
	require.False(t, s.Finished())

	s.Compute(start.Add(100 * time.Millisecond))
	// x(t) = x0 + v0 (e^(kt) - 1) / k
	want := 100 + 400*(math.Exp(DefaultFriction*0.1)-1)/DefaultFriction
	assert.InDelta(t, want, s.CurrX(), 1e-9)
	assert.Less(t, s.CurrY(), 100.0)

	_, ticks := runScroller(s, start, 1000)
	assert.Less(t, ticks, 1000, "fling must come to rest")
	assert.True(t, s.Finished())
	// Asymptotic travel is -v0/k.
	assert.InDelta(t, 100+400/-DefaultFriction, s.CurrX(), 1)
	assert.InDelta(t, 100-200/-DefaultFriction, s.CurrY(), 1)
}

func TestScroller_ShouldSettleBackAfterOverscroll(t *testing.T) {
	s := NewScroller(DefaultFriction)
	start := time.Unix(0, 0)
	s.Fling(start, 90, 0, 5000, 0, 0, 100, 0, 0, 20, 0)

	maxSeen := 0.0
	now := start
	for i := 0; i < 2000 && s.Compute(now); i++ {
		maxSeen = math.Max(maxSeen, s.CurrX())
		now = now.Add(frame)
	}
	assert.True(t, s.Finished())
	assert.LessOrEqual(t, maxSeen, 120.0, "overscroll is bounded")
	assert.Greater(t, maxSeen, 100.0)
	assert.Equal(t, 100.0, s.CurrX())
	assert.Equal(t, 0.0, s.CurrY())
}

func TestScroller_ShouldIgnoreSlowFlings(t *testing.T) {
	s := NewScroller(DefaultFriction)
	s.Fling(time.Now(), 10, 10, 0.5, -0.5, 0, 100, 0, 100, 10, 10)
	assert.True(t, s.Finished())
	assert.False(t, s.Compute(time.Now()))
}

func TestScroller_ForceFinished(t *testing.T) {
	s := NewScroller(DefaultFriction)
	start := time.Unix(0, 0)
	s.Fling(start, 0, 0, 1000, 1000, 0, 1000, 0, 1000, 0, 0)
	require.True(t, s.Compute(start.Add(frame)))
	x := s.CurrX()

	s.ForceFinished()
	assert.False(t, s.Compute(start.Add(10*frame)))
	assert.Equal(t, x, s.CurrX())
}

func TestZoomer_ShouldEaseOut(t *testing.T) {
	z := NewZoomer(200 * time.Millisecond)
	assert.True(t, z.Finished())

	start := time.Unix(0, 0)
	z.Start(start, 1, 2)
	require.True(t, z.Compute(start.Add(100*time.Millisecond)))
	assert.InDelta(t, 1.75, z.Current(), 1e-9)

	require.True(t, z.Compute(start.Add(250*time.Millisecond)))
	assert.Equal(t, 2.0, z.Current())
	assert.True(t, z.Finished())
	assert.False(t, z.Compute(start.Add(300*time.Millisecond)))
}

func TestZoomer_ShouldStopWhenForced(t *testing.T) {
	z := NewZoomer(0)
	start := time.Unix(0, 0)
	z.Start(start, 2, 1)
	z.Compute(start.Add(50 * time.Millisecond))
	z.ForceFinished()
	assert.False(t, z.Compute(start.Add(60*time.Millisecond)))
	assert.Greater(t, z.Current(), 1.0)
	assert.Equal(t, 1.0, z.End())
}

func TestVelocityTracker_ShouldEstimateConstantVelocity(t *testing.T) {
	var v VelocityTracker
	for i := 0; i < 10; i++ {
		ts := time.Duration(i) * 8 * time.Millisecond
		v.Add(ts, 1000*ts.Seconds(), -500*ts.Seconds())
	}
	vx, vy := v.Velocity()
	assert.InDelta(t, 1000, vx, 1e-6)
	assert.InDelta(t, -500, vy, 1e-6)
}

func TestVelocityTracker_ShouldIgnoreStaleSamples(t *testing.T) {
	var v VelocityTracker
	v.Add(0, 0, 0)
	// A pause longer than the sample gap breaks the gesture.
	v.Add(500*time.Millisecond, 10, 10)
	vx, vy := v.Velocity()
	assert.Zero(t, vx)
	assert.Zero(t, vy)

	v.Add(510*time.Millisecond, 20, 10)
	vx, vy = v.Velocity()
	assert.InDelta(t, 1000, vx, 1e-6)
	assert.InDelta(t, 0, vy, 1e-6)

	v.Reset()
	vx, _ = v.Velocity()
	assert.Zero(t, vx)
}
