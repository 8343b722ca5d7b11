package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/lotwatch/config"
	"github.com/alejandrodnm/lotwatch/internal/adapters/notify"
	"github.com/alejandrodnm/lotwatch/internal/adapters/storage"
	"github.com/alejandrodnm/lotwatch/internal/analytics"
	"github.com/alejandrodnm/lotwatch/internal/domain"
	"github.com/alejandrodnm/lotwatch/internal/observability"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "refresh every view once and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full status tables (default: compact 1-line)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	setupLogger(cfg.Log)

	slog.Info("lotwatch starting",
		"config", *configPath,
		"tick", cfg.TickInterval(),
		"slow_cadence", cfg.Engine.SlowCadence,
		"dsn", cfg.Storage.DSN,
		"once", *once,
	)

	store, err := storage.NewSQLiteInventory(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		metrics = observability.NewMetrics("lotwatch")
		go serveMetrics(cfg.Metrics.Addr)
	}

	engineCfg := analytics.Config{
		TickInterval:        cfg.TickInterval(),
		SlowCadence:         cfg.Engine.SlowCadence,
		HistoryWindowDays:   cfg.Engine.HistoryWindowDays,
		RecentWindowDays:    cfg.Engine.RecentWindowDays,
		VelocityWindowHours: cfg.Engine.VelocityWindowHours,
		Weights:             cfg.Engine.Weights,
		Workers:             cfg.Engine.Workers,
		CompsPerSecond:      cfg.Engine.CompsPerSecond,
		TopSegments:         cfg.Engine.TopSegments,
	}

	engine := analytics.NewEngine(engineCfg, store, metrics)
	notifier := notify.NewConsole(*table, cfg.Engine.TopSegments)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		results, err := engine.RunOnce(ctx)
		if err != nil {
			slog.Error("refresh failed", "err", err)
			os.Exit(1)
		}
		for _, res := range results {
			if res.View == domain.ViewLive {
				if err := notifier.NotifyHotSegments(ctx, res.Scores); err != nil {
					slog.Warn("notifier error", "err", err)
				}
			}
		}
		counts, err := store.ViewCounts(ctx)
		if err != nil {
			slog.Warn("view counts unavailable", "err", err)
		}
		slog.Info("single refresh complete",
			"views", len(results),
			"live", counts[domain.ViewLive],
			"next_2h", counts[domain.ViewNext2h],
			"next_24h", counts[domain.ViewNext24h],
		)
		return
	}

	sched := analytics.NewScheduler(engineCfg, engine, notifier, metrics)
	if err := sched.Run(ctx); err != nil {
		slog.Error("scheduler exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("lotwatch stopped cleanly")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
