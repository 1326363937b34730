package session

import "time"

// Clock is the time source of a session. The real one wraps package time;
// tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d and returns a stop function.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of *time.Ticker a session uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

func (RealClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
