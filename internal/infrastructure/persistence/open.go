package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/memory"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/mongo"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/postgres"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/redis"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/sqlite"
	"github.com/ubaya-hub/student-hub/pkg/logger"
	"github.com/ubaya-hub/student-hub/pkg/retry"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Drivers lists every driver Open accepts.
func Drivers() []string {
	return []string{DriverMemory, DriverSQLite, DriverRedis, DriverPostgres, DriverMongo}
}

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("persistence: unknown storage driver")

// Options selects and configures a backend.
type Options struct {
	Driver    string
	Namespace string

	SQLitePath string

	Redis redis.Config

	PostgresURL string

	Mongo mongo.Config
}

// Open connects to the configured backend. Network backends are dialled
// with backoff and wrapped so single round trips are retried too.
func Open(ctx context.Context, opts Options, log *logger.Logger) (KV, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("persistence"), logger.Driver(opts.Driver))

	dial, network, err := dialer(opts)
	if err != nil {
		return nil, err
	}

	connect := retry.BackendConnect(func(attempt int, err error, delay time.Duration) {
		log.Warn("storage backend not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Err(err),
			logger.Duration("delay", delay),
		)
	})

	var kv KV
	err = connect.Do(ctx, func(ctx context.Context) error {
		var dialErr error
		kv, dialErr = dial(ctx)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", opts.Driver, err)
	}

	log.Info("storage backend ready")
	if network {
		return &retryingKV{KV: kv, retrier: retry.StorageRoundTrip()}, nil
	}
	return kv, nil
}

func dialer(opts Options) (func(context.Context) (KV, error), bool, error) {
	switch opts.Driver {
	case DriverMemory:
		return func(context.Context) (KV, error) { return memory.New(), nil }, false, nil

	case DriverSQLite, "":
		path := opts.SQLitePath
		if path == "" {
			path = sqlite.MemoryPath
		}
		return func(ctx context.Context) (KV, error) { return sqlite.Open(ctx, path) }, false, nil

	case DriverRedis:
		cfg := opts.Redis
		if opts.Namespace != "" {
			cfg.Namespace = opts.Namespace
		}
		return func(ctx context.Context) (KV, error) { return redis.New(ctx, cfg) }, true, nil

	case DriverPostgres:
		if opts.PostgresURL == "" {
			return nil, false, errors.New("persistence: postgres driver needs a database URL")
		}
		return func(ctx context.Context) (KV, error) {
			return postgres.Open(ctx, opts.PostgresURL, opts.Namespace)
		}, true, nil

	case DriverMongo:
		cfg := opts.Mongo
		if opts.Namespace != "" {
			cfg.Namespace = opts.Namespace
		}
		if cfg.URI == "" {
			return nil, false, errors.New("persistence: mongo driver needs a URI")
		}
		return func(ctx context.Context) (KV, error) { return mongo.Open(ctx, cfg) }, true, nil

	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// retrying wrapper
// ─────────────────────────────────────────────────────────────────────────────

// retryingKV retries single round trips on transient errors. Set and Delete
// are whole-value overwrites, so repeating them is safe.
type retryingKV struct {
	KV
	retrier retry.Policy
}

// Unwrap returns the wrapped backend.
func (r *retryingKV) Unwrap() KV {
	return r.KV
}

func (r *retryingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		value, found, err = r.KV.Get(ctx, key)
		return transient(ctx, err)
	})
	return value, found, err
}

func (r *retryingKV) Set(ctx context.Context, key string, value []byte) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		return transient(ctx, r.KV.Set(ctx, key, value))
	})
}

func (r *retryingKV) Delete(ctx context.Context, keys ...string) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		return transient(ctx, r.KV.Delete(ctx, keys...))
	})
}

// transient marks err retryable unless the caller gave up.
func transient(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return retry.Retryable(err)
}
