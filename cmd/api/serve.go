package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"example.com/notes-api/internal/api"
	"example.com/notes-api/internal/config"
	"example.com/notes-api/internal/events"
	"example.com/notes-api/internal/logging"
	"example.com/notes-api/internal/notes"
	"example.com/notes-api/internal/ratelimit"
	"example.com/notes-api/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, configPath, logger)
}

type app struct {
	handler http.Handler
	store   *notes.MemoryStore
	hub     *events.Hub
	limiter *ratelimit.Limiter
}

func (a *app) close() {
	a.limiter.Stop()
	a.hub.Close()
}

func build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	var vopts []notes.ValidatorOption
	if cfg.SanitizeHTML {
		vopts = append(vopts, notes.WithHTMLStripping())
	}
	v := notes.NewValidator(vopts...)

	var seed []notes.Note
	if cfg.SeedDemo {
		seed = append(seed, notes.DemoNotes()...)
	}
	if cfg.SeedFile != "" {
		more, err := notes.LoadSeedFile(cfg.SeedFile, v)
		if err != nil {
			return nil, err
		}
		seed = append(seed, more...)
	}

	store := notes.NewMemoryStore()
	if err := store.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	hub := events.NewHub(events.DefaultBuffer, logger)
	limiter := ratelimit.New(ratelimit.Config{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow})
	svc := service.New(store, v, service.WithPublisher(hub), service.WithLogger(logger))

	origins := cfg.CORSOrigins
	feed := events.NewHandler(hub, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || api.OriginAllowed(origins, origin)
	}, logger)

	h := api.NewHandlers(svc, api.Options{
		Environment:  cfg.Environment,
		Version:      cfg.Version,
		CORSOrigins:  cfg.CORSOrigins,
		TrustProxy:   cfg.TrustProxy,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Limiter:      limiter,
		Events:       feed,
		Logger:       logger,
	})

	return &app{handler: h.Routes(), store: store, hub: hub, limiter: limiter}, nil
}

// serve runs until ctx is done, then drains in-flight requests for at most
// cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, watchPath string, logger zerolog.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if watchPath != "" {
		go func() {
			err := config.Watch(ctx, watchPath, config.DefaultDebounce, func(next config.Config) {
				if err := logging.SetLevel(next.LogLevel); err != nil {
					logger.Warn().Err(err).Msg("config reload")
					return
				}
				logger.Info().Str("log_level", logging.Level()).Msg("config reloaded")
			}, func(err error) {
				logger.Warn().Err(err).Str("path", watchPath).Msg("config reload failed")
			})
			if err != nil {
				logger.Error().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Str("environment", cfg.Environment).
			Int("notes", a.store.Len()).
			Msg("notes api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Feed connections are hijacked, so Shutdown does not wait for them.
	a.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
