package domain

import "github.com/jonboulle/clockwork"

// clock stamps ProcessedAt on corrected readings. Tests and fixture generators
// freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the processing time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
