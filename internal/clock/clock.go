// Package clock abstracts monotonic time and timer scheduling so the Room
// state machine can be driven deterministically in tests, following the
// teacher's time.AfterFunc-based cleanup-timer pattern.
package clock

import "time"

// Timer is the minimal surface the Room needs from a scheduled callback:
// it can be stopped (cancelling a not-yet-fired callback).
type Timer interface {
	Stop() bool
}

// Clock is a monotonic time source plus timer scheduling, injected into
// every component that needs deadlines (Room, HintScheduler, ConnectionManager,
// RoomRegistry's idle sweeper) so tests can drive time explicitly.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) *time.Ticker
}

// Real is the production Clock, backed by the wall clock.
type Real struct{}

func NewReal() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (Real) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
