package button

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// sample is one simulated poll: raw level at an offset from t0.
type sample struct {
	at    time.Duration
	level int
	want  Edge
}

func runSamples(t *testing.T, d *Debouncer, samples []sample) {
	t.Helper()
	for i, s := range samples {
		got := d.Sample(s.level, t0.Add(s.at))
		if got != s.want {
			t.Errorf("sample %d (t+%v, level %d): edge = %v, want %v", i, s.at, s.level, got, s.want)
		}
	}
}

func TestDebouncer_StablePressEmitsOneEdge(t *testing.T) {
	d := NewDebouncer(300 * time.Millisecond)
	runSamples(t, d, []sample{
		{0, 1, EdgeNone}, // baseline, button idle (pull-up high)
		{100 * time.Millisecond, 1, EdgeNone},
		{200 * time.Millisecond, 0, EdgeNone}, // press begins
		{300 * time.Millisecond, 0, EdgeNone},
		{400 * time.Millisecond, 0, EdgeNone},
		{500 * time.Millisecond, 0, EdgeFalling}, // 300ms held
		{600 * time.Millisecond, 0, EdgeNone},    // still pressed, no repeat
	})
	if d.Level() != 0 {
		t.Errorf("Level() = %d, want 0", d.Level())
	}
}

func TestDebouncer_BounceShorterThanWindowIsDiscarded(t *testing.T) {
	d := NewDebouncer(300 * time.Millisecond)
	runSamples(t, d, []sample{
		{0, 1, EdgeNone},
		{100 * time.Millisecond, 0, EdgeNone}, // bounce low
		{200 * time.Millisecond, 1, EdgeNone}, // back before window expires
		{300 * time.Millisecond, 0, EdgeNone}, // bounce again
		{400 * time.Millisecond, 1, EdgeNone}, // and back
		{700 * time.Millisecond, 1, EdgeNone},
	})
	if d.Level() != 1 {
		t.Errorf("Level() = %d, want settled level unchanged", d.Level())
	}
}

func TestDebouncer_ReleaseAfterPress(t *testing.T) {
	d := NewDebouncer(300 * time.Millisecond)
	runSamples(t, d, []sample{
		{0, 1, EdgeNone},
		{100 * time.Millisecond, 0, EdgeNone},
		{400 * time.Millisecond, 0, EdgeFalling},
		{500 * time.Millisecond, 1, EdgeNone}, // release begins
		{800 * time.Millisecond, 1, EdgeRising},
	})
}

func TestDebouncer_WindowBoundaryIsInclusive(t *testing.T) {
	d := NewDebouncer(300 * time.Millisecond)
	d.Sample(1, t0)
	d.Sample(0, t0.Add(100*time.Millisecond))
	// Exactly window after the candidate appeared: edge must fire.
	if got := d.Sample(0, t0.Add(400*time.Millisecond)); got != EdgeFalling {
		t.Errorf("edge at exact window boundary = %v, want EdgeFalling", got)
	}
}

func TestDebouncer_AbortedWindowRestartsCleanly(t *testing.T) {
	d := NewDebouncer(300 * time.Millisecond)
	runSamples(t, d, []sample{
		{0, 1, EdgeNone},
		{100 * time.Millisecond, 0, EdgeNone},
		{200 * time.Millisecond, 1, EdgeNone}, // abort
		{300 * time.Millisecond, 0, EdgeNone}, // new window starts here
		{500 * time.Millisecond, 0, EdgeNone}, // only 200ms in
		{600 * time.Millisecond, 0, EdgeFalling},
	})
}

func TestDebouncer_ZeroWindowSettlesImmediately(t *testing.T) {
	d := NewDebouncer(0)
	d.Sample(1, t0)
	if got := d.Sample(0, t0.Add(time.Millisecond)); got != EdgeFalling {
		t.Errorf("edge with zero window = %v, want EdgeFalling", got)
	}
}
