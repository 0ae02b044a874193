package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ubaya-hub/student-hub/config"
	httpserver "github.com/ubaya-hub/student-hub/internal/interface/http"
	"github.com/ubaya-hub/student-hub/internal/interface/http/handlers"
	"github.com/ubaya-hub/student-hub/pkg/circuitbreaker"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		Long: `Serve the directory, friends, settings and assistant endpoints under
/api/v1, plus /health, /ready and /live. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if host != "" {
				a.cfg.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.HTTP.Port = port
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Address to bind (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout.
func (a *app) serve(ctx context.Context) error {
	rt, err := a.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(rt)

	server := httpserver.NewServer(serverConfig(a.cfg), httpserver.Dependencies{
		Hub:           rt.hub,
		Logger:        a.log,
		HealthChecker: healthChecker(a.cfg, rt),
	})

	a.log.Info("student hub starting",
		logger.String("address", server.Address()),
		logger.Driver(a.cfg.Storage.Driver),
		logger.Bool("assistant", rt.generator != nil),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
		defer cancel()

		a.log.Info("shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("student hub stopped")
	return nil
}

func serverConfig(cfg *config.Config) httpserver.Config {
	sc := httpserver.DefaultConfig()
	sc.Host = cfg.HTTP.Host
	sc.Port = cfg.HTTP.Port
	sc.ReadTimeout = cfg.HTTP.ReadTimeout
	sc.WriteTimeout = cfg.HTTP.WriteTimeout
	sc.IdleTimeout = cfg.HTTP.IdleTimeout
	sc.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	sc.EnableCORS = cfg.HTTP.EnableCORS
	sc.AllowedOrigins = cfg.HTTP.AllowedOrigins
	sc.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	return sc
}

// healthChecker reports the store and, when configured, the text generator.
// An open breaker means the generator has been failing; the API still
// answers, so it degrades readiness without hiding the cause.
func healthChecker(cfg *config.Config, rt *runtime) handlers.HealthChecker {
	hc := handlers.NewCompositeHealthChecker(cfg.App.Version)
	hc.AddCheck("storage", handlers.NewStorageCheck(rt.kv))

	if rt.generator != nil {
		breaker := rt.generator.Breaker()
		hc.AddCheck("generator", handlers.NewCheckFunc(func() error {
			if breaker.State() == circuitbreaker.StateOpen {
				return fmt.Errorf("circuit %q is open", breaker.Name())
			}
			return nil
		}))
	}
	return hc
}
