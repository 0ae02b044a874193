package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ubaya-hub/student-hub/config"
	"github.com/ubaya-hub/student-hub/internal/application"
	"github.com/ubaya-hub/student-hub/internal/application/eventhandler"
	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/external/gemini"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/external/mail"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/messaging"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/mongo"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/redis"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// slowEventHandler is the duration above which event handling is logged.
const slowEventHandler = 100 * time.Millisecond

// eventBus is what runtime needs from either bus implementation.
type eventBus interface {
	shared.EventBus
	Close() error
}

// runtime holds the long-lived pieces built for one command.
type runtime struct {
	kv        persistence.KV
	bus       eventBus
	generator *gemini.Client
	hub       *application.Hub
}

// ══════════════════════════════════════════════════════════════════════════════
// BOOTSTRAP
// ══════════════════════════════════════════════════════════════════════════════

// bootstrap builds the runtime in dependency order. On failure everything
// already opened is closed again.
func (a *app) bootstrap(ctx context.Context) (*runtime, error) {
	cfg := a.cfg
	rt := &runtime{}

	fail := func(err error) (*runtime, error) {
		if cerr := rt.Close(); cerr != nil {
			a.log.Warn("cleanup after failed startup", logger.Err(cerr))
		}
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────
	// 1. Хранилище
	// ─────────────────────────────────────────────────────────────────────
	kv, err := persistence.Open(ctx, storageOptions(cfg), a.log)
	if err != nil {
		return nil, err
	}
	rt.kv = kv

	// ─────────────────────────────────────────────────────────────────────
	// 2. Шина событий
	// ─────────────────────────────────────────────────────────────────────
	bus, err := a.openEventBus(kv)
	if err != nil {
		return fail(err)
	}
	rt.bus = bus

	audit := messaging.Chain(
		messaging.AuditHandler(a.log),
		messaging.Recover(a.log),
		messaging.Timing(a.log, slowEventHandler),
	)
	if err := bus.SubscribeAll(audit); err != nil {
		return fail(fmt.Errorf("subscribe audit log: %w", err))
	}

	store := persistence.NewCollectionStore(kv, a.log)
	timed := func(h shared.EventHandler) shared.EventHandler {
		return messaging.Chain(h, messaging.Timing(a.log, slowEventHandler))
	}
	if err := eventhandler.Register(bus, store, a.log, timed); err != nil {
		return fail(fmt.Errorf("subscribe event handlers: %w", err))
	}

	// ─────────────────────────────────────────────────────────────────────
	// 3. Генератор текста
	// ─────────────────────────────────────────────────────────────────────
	var generator shared.TextGenerator
	switch {
	case !cfg.AssistantAvailable():
		a.log.Warn("GEMINI_API_KEY is not set; career insight falls back to a placeholder and refine is unavailable")
	default:
		client, err := gemini.New(ctx, geminiConfig(cfg), a.log)
		if err != nil {
			disabled := cfg.Features.DisableGeneratorFeatures()
			a.log.Warn("text generator unavailable, assistant features disabled",
				logger.Err(err),
				logger.Any("features", disabled),
			)
			break
		}
		rt.generator = client
		generator = client
	}

	// ─────────────────────────────────────────────────────────────────────
	// 4. Application layer
	// ─────────────────────────────────────────────────────────────────────
	rt.hub = application.New(store, application.Options{
		Latency:   cfg.App.Latency,
		Publisher: bus,
		Generator: generator,
		Mail:      mail.Composer{},
		Features: application.Features{
			CareerInsight: cfg.Features.IsEnabled(config.FeatureCareerInsight),
			TextRefine:    cfg.Features.IsEnabled(config.FeatureTextRefine),
			PhotoUpload:   cfg.Features.IsEnabled(config.FeaturePhotoUpload),
		},
		PhotoMaxBytes: cfg.Gemini.PhotoMaxBytes,
		Log:           a.log,
	})

	if err := rt.hub.Warmup(ctx); err != nil {
		return fail(fmt.Errorf("warm up store: %w", err))
	}
	return rt, nil
}

// openEventBus mirrors events over Redis pub/sub when the store is Redis,
// so every process sharing the server sees every change. Otherwise events
// stay in process.
func (a *app) openEventBus(kv persistence.KV) (eventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = a.log

	rk, ok := redisKV(kv)
	if !ok {
		return messaging.NewInMemoryEventBus(local), nil
	}

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         messaging.NewGoRedisClient(rk.Client()),
		ChannelName:    a.cfg.Storage.Redis.EventChannel,
		LocalBusConfig: local,
		Logger:         a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("redis event bus: %w", err)
	}
	a.log.Info("mirroring events over redis", logger.String("channel", a.cfg.Storage.Redis.EventChannel))
	return bus, nil
}

// redisKV finds the Redis backend behind the retrying wrapper Open adds.
func redisKV(kv persistence.KV) (*redis.KV, bool) {
	if w, ok := kv.(interface{ Unwrap() persistence.KV }); ok {
		kv = w.Unwrap()
	}
	rk, ok := kv.(*redis.KV)
	return rk, ok
}

// Close releases the runtime in reverse order. The bus goes first so queued
// handlers finish before the store disappears.
func (rt *runtime) Close() error {
	var errs []error
	if rt.bus != nil {
		if err := rt.bus.Close(); err != nil && !errors.Is(err, messaging.ErrEventBusClosed) {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if rt.kv != nil {
		if err := rt.kv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// config mapping
// ─────────────────────────────────────────────────────────────────────────────

func storageOptions(cfg *config.Config) persistence.Options {
	s := cfg.Storage
	return persistence.Options{
		Driver:     s.Driver,
		Namespace:  s.Namespace,
		SQLitePath: s.SQLitePath,
		Redis: redis.Config{
			Host:         s.Redis.Host,
			Port:         s.Redis.Port,
			Password:     s.Redis.Password,
			DB:           s.Redis.DB,
			Namespace:    s.Namespace,
			PoolSize:     s.Redis.PoolSize,
			MaxRetries:   redis.DefaultConfig().MaxRetries,
			DialTimeout:  s.Redis.DialTimeout,
			ReadTimeout:  s.Redis.ReadTimeout,
			WriteTimeout: s.Redis.WriteTimeout,
		},
		PostgresURL: s.PostgresURL,
		Mongo: mongo.Config{
			URI:            s.Mongo.URI,
			Database:       s.Mongo.Database,
			Collection:     s.Mongo.Collection,
			Namespace:      s.Namespace,
			ConnectTimeout: s.Mongo.ConnectTimeout,
		},
	}
}

func geminiConfig(cfg *config.Config) gemini.Config {
	return gemini.Config{
		APIKey:           cfg.Gemini.APIKey,
		Model:            cfg.Gemini.Model,
		Timeout:          cfg.Gemini.RequestTimeout,
		BreakerThreshold: cfg.Gemini.BreakerThreshold,
		BreakerOpenFor:   cfg.Gemini.BreakerOpenFor,
	}
}
