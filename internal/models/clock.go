package models

import "github.com/jonboulle/clockwork"

// clock stamps encoded bulletins and received bulletins. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the current time source
func Clock() clockwork.Clock {
	return clock
}
