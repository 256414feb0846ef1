// File: internal/logging/limited.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limited throttles a noisy log site. Events refused by the limiter are
// counted and reported with the next allowed one.
type Limited struct {
	lim        *rate.Limiter
	suppressed atomic.Int64
}

// NewLimited allows one event per interval with the given burst.
func NewLimited(interval time.Duration, burst int) *Limited {
	if burst <= 0 {
		burst = 1
	}
	return &Limited{lim: rate.NewLimiter(rate.Every(interval), burst)}
}

// Allow reports whether the caller may log now and, if so, how many events
// were suppressed since the last allowed one.
func (l *Limited) Allow() (bool, int64) {
	if !l.lim.Allow() {
		l.suppressed.Add(1)
		return false, 0
	}
	return true, l.suppressed.Swap(0)
}
