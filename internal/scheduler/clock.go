package scheduler

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the monotonic system clock.
func SystemClock() Clock { return realClock{} }
