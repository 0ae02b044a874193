// Package circuitbreaker stops calling a collaborator that keeps failing.
// Student Hub puts one in front of the generative-text client so a dead
// upstream turns into an immediate placeholder instead of a slow timeout.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

// State is the breaker position.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the open period has passed.
	StateOpen
	// StateHalfOpen lets a few probe calls through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen rejects a call while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests rejects a call while every probe slot is taken.
	ErrTooManyRequests = errors.New("circuit breaker: probe already in flight")
)

// IsRejected reports whether err came from the breaker itself rather than
// from the protected call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

// Settings configures a breaker. Zero fields take the defaults in brackets.
type Settings struct {
	// Threshold consecutive failures open the circuit [5].
	Threshold int

	// OpenFor is how long the circuit stays open before probing [30s].
	OpenFor time.Duration

	// Probes is both the number of concurrent calls allowed while half-open
	// and the number of successes needed to close again [1].
	Probes int

	// IsFailure decides which errors count. Nil counts every error.
	IsFailure func(error) bool

	// OnStateChange is called with the breaker lock held; keep it short.
	OnStateChange func(name string, from, to State)

	Clock timeutil.Clock
}

func (s Settings) withDefaults() Settings {
	if s.Threshold <= 0 {
		s.Threshold = 5
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.Probes <= 0 {
		s.Probes = 1
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return err != nil }
	}
	if s.Clock == nil {
		s.Clock = timeutil.SystemClock
	}
	return s
}

// Counts are lifetime totals, kept across state changes until Reset.
type Counts struct {
	Requests  int
	Successes int
	Failures  int
	Rejected  int
}

// CircuitBreaker guards one collaborator. It is safe for concurrent use.
type CircuitBreaker struct {
	name     string
	settings Settings

	mu          sync.Mutex
	state       State
	openedAt    time.Time
	consecutive int // failures while closed, successes while half-open
	inFlight    int // probes while half-open
	counts      Counts
}

// New creates a closed breaker.
func New(name string, settings Settings) *CircuitBreaker {
	return &CircuitBreaker{name: name, settings: settings.withDefaults()}
}

// TextGeneratorBreaker guards the generative-text API: one good probe closes
// it again, and a caller giving up does not count against the upstream.
func TextGeneratorBreaker(threshold int, openFor time.Duration, onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New("gemini", Settings{
		Threshold:     threshold,
		OpenFor:       openFor,
		Probes:        1,
		OnStateChange: onStateChange,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
	})
}

// Execute runs fn unless the breaker rejects the call.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn(ctx)
	cb.record(probe, err)
	return err
}

// ExecuteWithData runs fn through cb and passes its value back.
func ExecuteWithData[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// admit decides whether a call may run and whether it is a probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.settings.Clock().Sub(cb.openedAt) >= cb.settings.OpenFor {
		cb.transition(StateHalfOpen)
	}

	switch cb.state {
	case StateOpen:
		cb.counts.Rejected++
		return false, ErrCircuitOpen
	case StateHalfOpen:
		if cb.inFlight >= cb.settings.Probes {
			cb.counts.Rejected++
			return false, ErrTooManyRequests
		}
		cb.inFlight++
		return true, nil
	default:
		return false, nil
	}
}

func (cb *CircuitBreaker) record(probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.counts.Requests++
	if probe && cb.inFlight > 0 {
		cb.inFlight--
	}

	if cb.settings.IsFailure(err) {
		cb.counts.Failures++
		switch cb.state {
		case StateClosed:
			cb.consecutive++
			if cb.consecutive >= cb.settings.Threshold {
				cb.trip()
			}
		case StateHalfOpen:
			cb.trip()
		}
		return
	}

	cb.counts.Successes++
	switch cb.state {
	case StateClosed:
		cb.consecutive = 0
	case StateHalfOpen:
		cb.consecutive++
		if cb.consecutive >= cb.settings.Probes {
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.settings.Clock()
	cb.transition(StateOpen)
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.consecutive = 0
	cb.inFlight = 0
	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.name, from, to)
	}
}

// State returns the current position. An open breaker whose period has
// passed still reads as open until the next call probes it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the lifetime totals.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the breaker and clears the totals.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.consecutive = 0
	cb.inFlight = 0
	cb.counts = Counts{}
}

// Name identifies the breaker in logs.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
