package engine

import "time"

// Clock is the engine's single source of current time, so lifecycle and
// strategy behavior can be pinned to fixed instants in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }
