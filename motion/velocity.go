package motion

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	degree       = 2
	historySize  = 20
	maxAge       = 100 * time.Millisecond
	maxSampleGap = 40 * time.Millisecond
)

type sample struct {
	t    time.Duration
	x, y float64
}

// VelocityTracker estimates the velocity of a pointer from timestamped
// positions with a least squares fit of a second order polynomial over the
// most recent samples.
type VelocityTracker struct {
	samples [historySize]sample
	n       int
	idx     int
}

// Add records the pointer position (x, y) at time t. Samples must be added in
// chronological order.
func (v *VelocityTracker) Add(t time.Duration, x, y float64) {
	v.samples[v.idx] = sample{t: t, x: x, y: y}
	v.idx = (v.idx + 1) % historySize
	if v.n < historySize {
		v.n++
	}
}

// Reset discards every sample.
func (v *VelocityTracker) Reset() {
	v.n = 0
	v.idx = 0
}

// get returns the i-th most recent sample, 0 being the newest.
func (v *VelocityTracker) get(i int) sample {
	return v.samples[(v.idx-1-i+2*historySize)%historySize]
}

// Velocity returns the estimated velocity in units per second along each axis.
// It returns zero when too few recent samples are available or the fit fails.
func (v *VelocityTracker) Velocity() (vx, vy float64) {
	if v.n < 2 {
		return 0, 0
	}
	newest := v.get(0)
	var (
		times  []float64
		xs, ys []float64
		prev   = newest.t
	)
	for i := 0; i < v.n; i++ {
		s := v.get(i)
		age := newest.t - s.t
		if age >= maxAge || prev-s.t >= maxSampleGap {
			break
		}
		prev = s.t
		times = append(times, -age.Seconds())
		xs = append(xs, s.x-newest.x)
		ys = append(ys, s.y-newest.y)
	}
	if len(times) < 2 {
		return 0, 0
	}
	vx, okx := fitSlope(times, xs)
	vy, oky := fitSlope(times, ys)
	if !okx || !oky {
		return 0, 0
	}
	return vx, vy
}

// fitSlope fits values against times with a polynomial of at most the
// tracker degree and returns its first order coefficient, the velocity at the
// newest sample.
func fitSlope(times, values []float64) (float64, bool) {
	cols := degree + 1
	if len(times) < cols {
		cols = len(times)
	}
	a := mat.NewDense(len(times), cols, nil)
	for i, t := range times {
		p := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, p)
			p *= t
		}
	}
	b := mat.NewVecDense(len(values), values)

	var qr mat.QR
	qr.Factorize(a)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, b); err != nil {
		return 0, false
	}
	return coef.AtVec(1), true
}
