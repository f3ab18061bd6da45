// Package button turns raw GPIO level samples into debounced edges.
// It is pure logic: no hardware access, no wall clock. Time is always
// passed in by the caller, so tests drive it with a simulated clock.
package button

import "time"

// Edge is the outcome of a single sample.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return "none"
	}
}

// Debouncer tracks one GPIO line. A level change is accepted only after
// it has held stable for the full debounce window; bounces shorter than
// the window produce no edge and no state change.
type Debouncer struct {
	window time.Duration

	settled   int
	baselined bool

	// debounce window in progress
	pending      bool
	candidate    int
	pendingSince time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Level returns the current stable level. Meaningful only after the
// first sample.
func (d *Debouncer) Level() int {
	return d.settled
}

// Sample feeds one raw reading taken at now and reports the edge it
// produced, if any. The first sample establishes the baseline level
// without emitting an edge.
func (d *Debouncer) Sample(level int, now time.Time) Edge {
	if !d.baselined {
		d.settled = level
		d.baselined = true
		return EdgeNone
	}

	if !d.pending {
		if level == d.settled {
			return EdgeNone
		}
		d.pending = true
		d.candidate = level
		d.pendingSince = now
		return d.trySettle(level, now)
	}

	// A flip back to the settled level aborts the window outright.
	if level == d.settled {
		d.pending = false
		return EdgeNone
	}

	if level != d.candidate {
		// New candidate, restart the window.
		d.candidate = level
		d.pendingSince = now
		return EdgeNone
	}

	return d.trySettle(level, now)
}

func (d *Debouncer) trySettle(level int, now time.Time) Edge {
	if now.Sub(d.pendingSince) < d.window {
		return EdgeNone
	}

	d.pending = false
	prev := d.settled
	d.settled = level

	if level > prev {
		return EdgeRising
	}
	return EdgeFalling
}
