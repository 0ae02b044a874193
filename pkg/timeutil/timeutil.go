// Package timeutil provides the small time helpers Student Hub needs:
// context-aware sleeping for simulated latency and monotonic millisecond ids.
// No external dependencies - uses only standard library.
package timeutil

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done, whichever comes first.
// A non-positive d returns nil immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MillisSequence hands out strictly increasing millisecond timestamps.
// Two calls inside the same millisecond get last+1.
type MillisSequence struct {
	mu    sync.Mutex
	clock Clock
	last  int64
}

// NewMillisSequence creates a sequence reading from clock (SystemClock if nil).
func NewMillisSequence(clock Clock) *MillisSequence {
	if clock == nil {
		clock = SystemClock
	}
	return &MillisSequence{clock: clock}
}

// Next returns an id greater than both floor and every id returned before.
func (s *MillisSequence) Next(floor int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.clock().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	s.last = id
	return id
}
