package gesture

import (
	"math"
	"time"

	"github.com/esimov/panscale/motion"
	"github.com/esimov/panscale/utils"
)

type intentKind uint8

const (
	intentDown intentKind = iota
	intentUp
	intentScaleBegin
	intentScale
	intentScaleEnd
	intentScroll
	intentFling
	intentDoubleTap
	intentSingleTap
)

// intent is what a recognizer asks the interpreter to do. Only the fields
// relevant to the kind are set.
type intent struct {
	kind   intentKind
	focus  Point
	factor float64
	delta  Point
	vel    Point
}

type pointer struct {
	id  int
	pos Point
}

// downTracker keeps the set of pressed pointers.
type downTracker struct {
	pointers []pointer
}

// update applies ev to the pointer set. It returns the number of pointers
// pressed before the event, the intents it produced and whether the event is
// consistent with the set; other recognizers must skip inconsistent events.
func (d *downTracker) update(ev Event) (int, []intent, bool) {
	prev := len(d.pointers)
	switch ev.Kind {
	case Press:
		if d.index(ev.PointerID) >= 0 {
			return prev, nil, false
		}
		d.pointers = append(d.pointers, pointer{id: ev.PointerID, pos: ev.Position})
		if prev == 0 {
			return prev, []intent{{kind: intentDown, focus: ev.Position}}, true
		}
	case Move:
		i := d.index(ev.PointerID)
		if i < 0 {
			return prev, nil, false
		}
		d.pointers[i].pos = ev.Position
	case Release:
		i := d.index(ev.PointerID)
		if i < 0 {
			return prev, nil, false
		}
		d.pointers[i].pos = ev.Position
		d.pointers = append(d.pointers[:i], d.pointers[i+1:]...)
		if len(d.pointers) == 0 {
			return prev, []intent{{kind: intentUp, focus: ev.Position}}, true
		}
	case Cancel:
		if prev == 0 {
			return prev, nil, false
		}
		d.pointers = d.pointers[:0]
		return prev, []intent{{kind: intentUp, focus: ev.Position}}, true
	}
	return prev, nil, true
}

func (d *downTracker) index(id int) int {
	for i, p := range d.pointers {
		if p.id == id {
			return i
		}
	}
	return -1
}

func (d *downTracker) count() int { return len(d.pointers) }

func (d *downTracker) isDown() bool { return len(d.pointers) > 0 }

// focus returns the centroid of the pressed pointers.
func (d *downTracker) focus() Point {
	var c Point
	if len(d.pointers) == 0 {
		return c
	}
	for _, p := range d.pointers {
		c.X += p.pos.X
		c.Y += p.pos.Y
	}
	n := float64(len(d.pointers))
	return Point{X: c.X / n, Y: c.Y / n}
}

// span returns the mean distance of the pressed pointers to their centroid.
func (d *downTracker) span() float64 {
	if len(d.pointers) < 2 {
		return 0
	}
	c := d.focus()
	var sum float64
	for _, p := range d.pointers {
		sum += p.pos.dist(c)
	}
	return sum / float64(len(d.pointers))
}

// tapHistory remembers the last completed tap so the next press can be
// recognized as the second half of a double tap.
type tapHistory struct {
	valid   bool
	upTime  time.Duration
	downPos Point
}

func (h *tapHistory) record(upTime time.Duration, downPos Point) {
	h.valid = true
	h.upTime = upTime
	h.downPos = downPos
}

func (h *tapHistory) matches(cfg *Config, t time.Duration, pos Point) bool {
	if !h.valid {
		return false
	}
	dt := t - h.upTime
	return dt >= 0 && dt <= cfg.DoubleTapTimeout && pos.dist(h.downPos) <= cfg.DoubleTapSlop
}

func (h *tapHistory) clear() { h.valid = false }

// scaleDetector recognizes the gestures changing the zoom: two finger pinch,
// double-tap-and-drag and modified wheel scroll.
type scaleDetector struct {
	cfg      *Config
	history  tapHistory
	pinching bool
	prevSpan float64

	// single pointer bookkeeping, used to recognize taps
	downPos  Point
	tappable bool

	quickArmed  bool
	quickActive bool
	anchor      Point
	prevY       float64
}

func (s *scaleDetector) handle(ev Event, d *downTracker, prev int) []intent {
	var out []intent
	switch ev.Kind {
	case Press:
		if prev == 0 && d.count() == 1 {
			s.downPos = ev.Position
			s.tappable = true
			s.quickArmed = s.history.matches(s.cfg, ev.Time, ev.Position)
			s.quickActive = false
			s.anchor = ev.Position
			s.prevY = ev.Position.Y
			return nil
		}
		if d.count() < 2 {
			return nil
		}
		s.tappable = false
		if s.quickActive {
			out = append(out, intent{kind: intentScaleEnd, focus: s.anchor})
		}
		s.quickArmed, s.quickActive = false, false
		s.prevSpan = d.span()
		if !s.pinching {
			s.pinching = true
			out = append(out, intent{kind: intentScaleBegin, focus: d.focus()})
		}
	case Move:
		if d.count() == 1 && ev.Position.dist(s.downPos) > s.cfg.TouchSlop {
			s.tappable = false
		}
		switch {
		case s.pinching && d.count() >= 2:
			span := d.span()
			if s.prevSpan > 0 && span > 0 {
				out = append(out, intent{kind: intentScale, focus: d.focus(), factor: span / s.prevSpan})
			}
			s.prevSpan = span
		case s.quickArmed && d.count() == 1:
			y := ev.Position.Y
			if !s.quickActive {
				if utils.Abs(y-s.anchor.Y) <= s.cfg.TouchSlop {
					return nil
				}
				s.quickActive = true
				s.prevY = y
				return []intent{{kind: intentScaleBegin, focus: s.anchor}}
			}
			factor := math.Pow(2, (y-s.prevY)/s.cfg.QuickScaleDistance)
			s.prevY = y
			out = append(out, intent{kind: intentScale, focus: s.anchor, factor: factor})
		}
	case Release:
		if s.pinching {
			if d.count() < 2 {
				s.pinching = false
				out = append(out, intent{kind: intentScaleEnd, focus: d.focus()})
			} else {
				s.prevSpan = d.span()
			}
		}
		if d.count() > 0 {
			return out
		}
		if s.quickActive {
			out = append(out, intent{kind: intentScaleEnd, focus: s.anchor})
		}
		switch {
		case s.quickArmed:
			// The second tap of a double tap never starts another one.
			s.history.clear()
		case s.tappable:
			s.history.record(ev.Time, s.downPos)
		default:
			s.history.clear()
		}
		s.quickArmed, s.quickActive, s.tappable = false, false, false
	case Cancel:
		if s.pinching || s.quickActive {
			out = append(out, intent{kind: intentScaleEnd, focus: s.anchor})
		}
		s.pinching, s.quickArmed, s.quickActive, s.tappable = false, false, false, false
		s.history.clear()
	case Scroll:
		if !ev.Zoom || ev.Scroll.Y == 0 {
			return nil
		}
		factor := math.Exp(-ev.Scroll.Y * s.cfg.WheelZoomRate)
		out = append(out,
			intent{kind: intentScaleBegin, focus: ev.Position},
			intent{kind: intentScale, focus: ev.Position, factor: factor},
			intent{kind: intentScaleEnd, focus: ev.Position},
		)
	}
	return out
}

// tapDetector recognizes taps, double taps, scrolls and flings.
type tapDetector struct {
	cfg     *Config
	history tapHistory
	tracker motion.VelocityTracker

	downPos   Point
	downFocus Point
	lastFocus Point

	inTapRegion   bool
	scrolling     bool
	multi         bool
	doubleTapping bool

	pending   bool
	pendingAt time.Duration
}

func (t *tapDetector) handle(ev Event, d *downTracker, prev int) []intent {
	var out []intent
	switch ev.Kind {
	case Press:
		if prev == 0 && d.count() == 1 {
			t.doubleTapping = t.history.matches(t.cfg, ev.Time, ev.Position)
			if t.pending {
				t.pending = false
				if !t.doubleTapping {
					out = append(out, intent{kind: intentSingleTap, focus: t.downPos})
				}
			}
			t.downPos = ev.Position
			t.downFocus, t.lastFocus = ev.Position, ev.Position
			t.inTapRegion = true
			t.scrolling = false
			t.multi = false
			t.tracker.Reset()
			t.tracker.Add(ev.Time, ev.Position.X, ev.Position.Y)
			return out
		}
		if d.count() < 2 {
			return nil
		}
		t.multi = true
		t.doubleTapping = false
		t.resetFocus(ev.Time, d)
	case Move:
		if !d.isDown() {
			return nil
		}
		focus := d.focus()
		t.tracker.Add(ev.Time, focus.X, focus.Y)
		if t.doubleTapping {
			if focus.dist(t.downFocus) > t.cfg.TouchSlop {
				t.inTapRegion = false
			}
			return nil
		}
		delta := t.lastFocus.sub(focus)
		if t.inTapRegion {
			if focus.dist(t.downFocus) <= t.cfg.TouchSlop {
				return nil
			}
			t.inTapRegion = false
			t.scrolling = true
			t.lastFocus = focus
			return []intent{{kind: intentScroll, delta: delta}}
		}
		if utils.Abs(delta.X) >= 1 || utils.Abs(delta.Y) >= 1 {
			t.lastFocus = focus
			out = append(out, intent{kind: intentScroll, delta: delta})
		}
	case Release:
		if d.count() > 0 {
			t.resetFocus(ev.Time, d)
			return nil
		}
		switch {
		case t.doubleTapping:
			out = append(out, intent{kind: intentDoubleTap, focus: ev.Position})
			t.history.clear()
		case t.inTapRegion && !t.multi:
			t.history.record(ev.Time, t.downPos)
			t.pending = true
			t.pendingAt = ev.Time + t.cfg.DoubleTapTimeout
		default:
			t.history.clear()
			vx, vy := t.tracker.Velocity()
			if utils.Abs(vx) > t.cfg.MinFlingVelocity || utils.Abs(vy) > t.cfg.MinFlingVelocity {
				limit := t.cfg.MaxFlingVelocity
				out = append(out, intent{kind: intentFling, vel: Point{
					X: math.Max(-limit, math.Min(limit, vx)),
					Y: math.Max(-limit, math.Min(limit, vy)),
				}})
			}
		}
		t.doubleTapping, t.scrolling, t.inTapRegion = false, false, false
		t.tracker.Reset()
	case Cancel:
		t.doubleTapping, t.scrolling, t.inTapRegion = false, false, false
		t.pending = false
		t.history.clear()
		t.tracker.Reset()
	case Scroll:
		if ev.Zoom {
			return nil
		}
		if ev.Scroll.X != 0 || ev.Scroll.Y != 0 {
			out = append(out, intent{kind: intentScroll, delta: ev.Scroll})
		}
	}
	return out
}

// resetFocus restarts focus tracking after the pointer set changed, so the
// centroid jump is not mistaken for movement.
func (t *tapDetector) resetFocus(now time.Duration, d *downTracker) {
	f := d.focus()
	t.downFocus, t.lastFocus = f, f
	t.tracker.Reset()
	t.tracker.Add(now, f.X, f.Y)
}

// poll returns the single tap confirmed at now, if any.
func (t *tapDetector) poll(now time.Duration) []intent {
	if !t.pending || now < t.pendingAt {
		return nil
	}
	t.pending = false
	return []intent{{kind: intentSingleTap, focus: t.downPos}}
}

func (t *tapDetector) deadline() (time.Duration, bool) {
	return t.pendingAt, t.pending
}
