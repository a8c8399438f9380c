// Package timer implements the delay and sound timers of the CHIP-8.
//
// Both timers count down at 60Hz, independent of how many instructions
// execute in between. The host reports elapsed wall-clock time and the
// timers decrement once for every full period accumulated.
package timer

import "time"

// Period is the interval between two decrements.
const Period = time.Second / 60

// Mode determines what happens to the accumulator once a period has elapsed.
type Mode int

// Known accumulator modes.
const (
	// ResetAccumulator drops any time beyond the period. At most one
	// decrement happens per Tick.
	ResetAccumulator Mode = iota

	// CarryRemainder subtracts the period and keeps the remainder, which
	// avoids long-run drift and may decrement several times per Tick.
	CarryRemainder
)

// Timers holds the two 8-bit countdown timers.
type Timers struct {
	Delay uint8 // Delay timer, readable by programs.
	Sound uint8 // Sound timer; a tone plays while it is nonzero.
	Mode  Mode  // Accumulator behaviour.
	acc   time.Duration
}

// Tick adds the given elapsed time to the accumulator and decrements both
// timers for every period that has passed. Returns the number of decrements.
func (t *Timers) Tick(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}

	t.acc += elapsed

	var n int
	for t.acc >= Period {
		if t.Mode == CarryRemainder {
			t.acc -= Period
		} else {
			t.acc = 0
		}

		t.decrement()
		n++
	}

	return n
}

// Reset clears both timers and the accumulator.
func (t *Timers) Reset() {
	t.Delay = 0
	t.Sound = 0
	t.acc = 0
}

// Beeping returns true while the sound timer is running.
func (t *Timers) Beeping() bool {
	return t.Sound > 0
}

func (t *Timers) decrement() {
	if t.Delay > 0 {
		t.Delay--
	}
	if t.Sound > 0 {
		t.Sound--
	}
}
