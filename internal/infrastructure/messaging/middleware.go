package messaging

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// Middleware wraps an event handler.
type Middleware func(shared.EventHandler) shared.EventHandler

// Chain applies middlewares so the first one is outermost.
func Chain(handler shared.EventHandler, middlewares ...Middleware) shared.EventHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// Recover turns a handler panic into an error.
func Recover(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("event handler panic recovered",
						logger.EventType(string(event.EventType())),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// Timing logs handlers slower than threshold.
func Timing(log *logger.Logger, threshold time.Duration) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			if elapsed := time.Since(start); elapsed > threshold {
				log.Warn("slow event handler",
					logger.EventType(string(event.EventType())),
					logger.Duration("duration", elapsed),
				)
			}
			return err
		}
	}
}

// AuditHandler writes one log line per event with its payload.
func AuditHandler(log *logger.Logger) shared.EventHandler {
	log = log.With(logger.Component("audit"))
	return func(event shared.Event) error {
		log.Info("event",
			logger.EventType(string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
			logger.Time("occurred_at", event.OccurredAt()),
			logger.Any("payload", event.Payload()),
		)
		return nil
	}
}
