// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"sync"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/pkg/logger"
	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED WRITE ENVIRONMENT
// Every write handler built from one Env shares its lock, so each
// read-modify-write cycle over a collection runs alone.
// ══════════════════════════════════════════════════════════════════════════════

// Env holds what write handlers share.
type Env struct {
	// Latency is slept before each operation. Zero disables it.
	Latency time.Duration

	// Publisher receives domain events after a successful write.
	Publisher shared.EventPublisher

	// Clock drives link ids and default photo seeds.
	Clock timeutil.Clock

	Log *logger.Logger

	mu  *sync.Mutex
	seq *timeutil.MillisSequence
}

// NewEnv creates an Env. Nil collaborators fall back to no-ops.
func NewEnv(latency time.Duration, publisher shared.EventPublisher, clock timeutil.Clock, log *logger.Logger) Env {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return Env{
		Latency:   latency,
		Publisher: publisher,
		Clock:     clock,
		Log:       log,
		mu:        &sync.Mutex{},
		seq:       timeutil.NewMillisSequence(clock),
	}
}

// begin sleeps the simulated latency and takes the write lock.
func (e Env) begin(ctx context.Context) (func(), error) {
	if err := timeutil.Sleep(ctx, e.Latency); err != nil {
		return nil, err
	}
	if e.mu == nil {
		return func() {}, nil
	}
	e.mu.Lock()
	return e.mu.Unlock, nil
}

// publish hands events to the publisher. Failures are logged, never returned:
// the write already happened.
func (e Env) publish(events ...shared.Event) {
	if e.Publisher == nil {
		return
	}
	log := e.Log
	if log == nil {
		log = logger.Nop()
	}
	for _, event := range events {
		if err := e.Publisher.Publish(event); err != nil {
			log.Warn("event publish failed",
				logger.EventType(string(event.EventType())),
				logger.Err(err),
			)
		}
	}
}
