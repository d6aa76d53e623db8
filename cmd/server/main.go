package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rpg/internal/brick"
	"rpg/internal/config"
	"rpg/internal/ctxlog"
	"rpg/internal/handler"
	"rpg/internal/hub"
	"rpg/internal/loader"
	"rpg/internal/metric"
	"rpg/internal/registry"
	"rpg/internal/render"
	"rpg/internal/repository"
	"rpg/internal/repository/sqlite"
	"rpg/internal/service"
	"rpg/internal/watcher"
)

// Version is set at build time
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rpg: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	journalPath := flag.String("journal", "", "SQLite journal path (overrides config)")
	flag.Parse()

	cfg, path, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)

	if path != "" {
		logger.Info("config loaded", "path", path)
	} else {
		logger.Info("no config file found, using defaults")
	}
	logger.Debug(cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	var metrics *metric.Metrics
	if cfg.Features.Metrics.Enabled {
		metrics = metric.New()
	}

	regOpts := registry.Options{
		Logger:  logger,
		Devices: brick.NewDevices(cfg.Nic.Ports, cfg.Nic.VdevPrefixes),
		Driver: registry.DriverConfig{
			YieldEvery:   cfg.Driver.YieldEvery,
			PollInterval: cfg.Driver.PollInterval.Duration(),
		},
	}
	if metrics != nil {
		regOpts.Observer = metrics
	}
	reg := registry.New(regOpts)

	var journal repository.Journal
	if cfg.Features.Journal.Enabled {
		repo, err := sqlite.New(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer repo.Close()
		journal = repo
		logger.Info("journal opened", "path", cfg.Journal.Path)
	}

	eventBus := service.NewEventBus()
	svcOpts := service.Options{
		Registry: reg,
		Events:   eventBus,
		Journal:  journal,
		SVG: render.SVG{
			Binary:   cfg.Features.DotBinary(),
			Disabled: !cfg.Features.SVG.Enabled,
		},
		Logger: logger,
	}
	if metrics != nil {
		svcOpts.Recorder = metrics
	}
	graphSvc := service.NewGraphService(svcOpts)

	mux := http.NewServeMux()
	handler.NewGraphHandler(graphSvc, Version).Register(mux)

	if cfg.Features.Events.Enabled {
		var hubOpts []hub.Option
		if metrics != nil {
			hubOpts = append(hubOpts, hub.WithClientCountHook(metrics.RecordStreamClients))
		}
		sseHub := hub.New(logger, hubOpts...)
		go sseHub.Run(ctx)

		// Connect event bus to SSE hub
		eventChan := make(chan service.Event, 100)
		eventBus.Subscribe(eventChan)
		go func() {
			defer eventBus.Unsubscribe(eventChan)
			for {
				select {
				case event := <-eventChan:
					sseHub.Broadcast(event)
				case <-ctx.Done():
					return
				}
			}
		}()
		mux.Handle("GET /events", sseHub)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	if len(cfg.Seed.Paths) > 0 {
		if err := seed(ctx, logger, graphSvc, cfg.Seed); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover(logger),
			handler.CORS(cfg.Server.CORSOrigins),
			handler.Logger(logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "version", Version)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
	if err := reg.Close(shutdownCtx); err != nil {
		logger.Warn("graph shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// seed applies the configured seed files and, when asked, keeps watching
// them for changes
func seed(ctx context.Context, logger *slog.Logger, svc *service.GraphService, cfg config.SeedConfig) error {
	l := loader.NewLoader()

	seeds, err := l.Load(ctx, cfg.Paths...)
	if err != nil {
		return fmt.Errorf("load seeds: %w", err)
	}
	if err := loader.Apply(ctx, svc, seeds); err != nil {
		return fmt.Errorf("apply seeds: %w", err)
	}

	if !cfg.Watch {
		return nil
	}
	w := watcher.New(cfg.Paths, func(path string) {
		if err := l.Reload(ctx, svc, path); err != nil {
			logger.Warn("seed reload failed", "path", path, "error", err)
		}
	}).
		WithDebounce(cfg.Debounce.Duration()).
		WithFilter(loader.IsSeedFile).
		WithLogger(logger)

	go func() {
		if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("seed watcher stopped", "error", err)
		}
	}()
	return nil
}
