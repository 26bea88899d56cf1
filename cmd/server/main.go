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

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"handlemock/internal/config"
	"handlemock/internal/handler"
	"handlemock/internal/hub"
	"handlemock/internal/journal"
	"handlemock/internal/metric"
	"handlemock/internal/service"
	"handlemock/internal/store"
	"handlemock/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "handlemock: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Command line flags
	host := flag.String("host", "127.0.0.1", "HTTP listen host")
	port := flag.Int("port", 5000, "HTTP listen port")
	pidFile := flag.String("pid_file", "", "create pid file")
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	seedPath := flag.String("seed", "", "YAML seed file loaded at start")
	journalPath := flag.String("journal", "", "SQLite operation journal path")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	initConfig := flag.Bool("init_config", false, "write a default config file (to --config or the user config dir) and exit")
	flag.Parse()

	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	var (
		cfg     *config.Config
		cfgFile string
		err     error
	)
	if *configPath != "" {
		cfg, cfgFile, err = config.LoadFromPath(*configPath)
	} else {
		cfg, cfgFile, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Flags given explicitly override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "pid_file":
			cfg.Server.PIDFile = *pidFile
		case "seed":
			cfg.Seed.Path = *seedPath
		case "journal":
			cfg.Journal.Path = *journalPath
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: time.DateTime,
	}))
	slog.SetDefault(logger)

	if cfgFile != "" {
		logger.Info("loaded config", "path", cfgFile)
	}
	logger.Info("starting handle mock", "config", cfg.Summary())

	if cfg.Server.PIDFile != "" {
		if err := writePIDFile(cfg.Server.PIDFile); err != nil {
			return err
		}
		defer removePIDFile(cfg.Server.PIDFile, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := metric.New()
	eventBus := service.NewEventBus()

	opts := service.Options{
		Metrics:        metrics,
		LastHandleFile: cfg.LastHandleFile,
		Logger:         logger,
	}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		opts.Journal = j
		logger.Info("journal opened", "path", cfg.Journal.Path)
	}

	svc := service.NewHandleService(store.New(), eventBus, opts)
	for _, prefix := range cfg.Prefixes {
		svc.RegisterPrefix(ctx, prefix)
	}

	if cfg.Seed.Path != "" {
		if _, err := svc.LoadSeedFile(ctx, cfg.Seed.Path, false); err != nil {
			return fmt.Errorf("failed to load seed: %w", err)
		}
	}

	// Connect event bus to SSE hub
	sseHub := hub.New(logger)
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)

	// Setup routes
	mux := http.NewServeMux()
	handleHandler := handler.NewHandleHandler(svc, logger)
	handleHandler.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)
	handleHandler.Register(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", metrics.Handler())

	// Apply middleware
	middlewares := []handler.Middleware{
		handler.Recover(logger),
		handler.CORS,
		handler.Logger(logger, metrics),
	}
	if cfg.RateLimit.Enabled() {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
		middlewares = append(middlewares, handler.RateLimit(limiter, logger))
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Chain(mux, middlewares...),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sseHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Forward(gctx, sseHub, eventChan)
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if cfg.Seed.Watch {
		w := watcher.New(cfg.Seed.Path, func() {
			if _, err := svc.LoadSeedFile(gctx, cfg.Seed.Path, true); err != nil {
				logger.Warn("failed to reload seed", "path", cfg.Seed.Path, "err", err)
			}
		}, logger).WithDebounce(cfg.Seed.Debounce.Duration())

		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("seed watcher: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
