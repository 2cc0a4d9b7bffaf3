package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"stackit/internal/platform/config"
	"stackit/internal/platform/httpserver"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server     *httpserver.Server
	components *components
	// background runs relays and the notification consumer in the API
	// process when events never leave it.
	background *WorkerApp
	logger     *slog.Logger
}

type WorkerApp struct {
	components   *components
	pollInterval time.Duration
	consume      bool
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildAPI(context.Background(), cfg)
}

func buildAPI(ctx context.Context, cfg config.Config) (*APIApp, error) {
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", "api")
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &APIApp{
		server:     httpserver.New(c.auth, c.questions, c.ledger, c.notifications, c.metrics, logger, normalizeAddr(cfg.HTTPPort)),
		components: c,
		logger:     logger,
	}
	if c.postgres != nil {
		app.server.AddHealthCheck("postgres", c.postgres.Ping)
	}
	if c.nats != nil {
		app.server.AddHealthCheck("nats", c.nats.Ping)
	}
	if cfg.EventBus == config.EventBusInProcess {
		app.background = newWorker(cfg, c, logger)
	}
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildWorker(context.Background(), cfg)
}

func buildWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	if cfg.EventBus == config.EventBusInProcess || cfg.StorageDriver == config.StorageMemory {
		return nil, errors.New("worker process requires STORAGE_DRIVER=postgres and EVENT_BUS=nats; the in-process setup runs workers inside the api")
	}
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", "worker")
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newWorker(cfg, c, logger), nil
}

func newWorker(cfg config.Config, c *components, logger *slog.Logger) *WorkerApp {
	pollInterval := cfg.WorkerPollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &WorkerApp{
		components:   c,
		pollInterval: pollInterval,
		consume:      cfg.EnableNotificationConsumer,
		logger:       logger,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts the server down.
func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"background_workers", a.background != nil,
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if a.background != nil {
		group.Go(func() error {
			return a.background.Run(groupCtx)
		})
	}
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.components != nil {
		return a.components.close()
	}
	return nil
}

// Run starts the notification consumer and polls both outbox relays until
// ctx is cancelled. Relay failures are logged and retried on the next tick.
func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consume {
		if err := w.components.notifications.Consumer.Start(ctx); err != nil {
			return err
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"notification_consumer", w.consume,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.poll(groupCtx, "community-qa/vote-ledger", w.components.ledgerRelay.RunOnce)
	})
	group.Go(func() error {
		return w.poll(groupCtx, "community-qa/question-service", w.components.questionRelay.RunOnce)
	})
	return group.Wait()
}

func (w *WorkerApp) poll(ctx context.Context, module string, runOnce func(context.Context) error) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		err := runOnce(ctx)
		w.components.metrics.ObserveRelayCycle(module, err)
		if err != nil && ctx.Err() == nil {
			w.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"relay", module,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.components != nil {
		return w.components.close()
	}
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
