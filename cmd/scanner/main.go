package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/adapters/artifacts"
	"github.com/jmorales/wxslate/internal/adapters/kalshi"
	"github.com/jmorales/wxslate/internal/adapters/notify"
	"github.com/jmorales/wxslate/internal/adapters/storage"
	"github.com/jmorales/wxslate/internal/adapters/weather"
	"github.com/jmorales/wxslate/internal/scanner"
	"github.com/jmorales/wxslate/internal/spike"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one slate immediately, ignoring the run-hour schedule")
	spikeMode := flag.Bool("spike", false, "run the spike monitor loop instead of the slate pipeline")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full slate table (default: compact 1-line)")
	workers := flag.Int("workers", 4, "concurrent candidate analysis workers")
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
	setupLogger(cfg.Log)

	slog.Info("wxslate starting",
		"config", *configPath,
		"bankroll_usd", cfg.Bankroll.TotalUSD,
		"once", *once,
		"spike", *spikeMode,
	)

	client := kalshi.NewClient(cfg.API.KalshiBase)
	market := kalshi.NewProvider(cfg, client)
	notifier := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *spikeMode {
		monitor := spike.NewMonitor(cfg, market, notifier)
		if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("spike monitor exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("spike monitor stopped cleanly")
		return
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	wx := weather.NewProvider(cfg.API.WeatherBase)
	writer := artifacts.NewWriter(cfg.Output.Dir)

	s := scanner.New(cfg, market, wx, store, writer, notifier, *workers)

	if *once {
		if _, err := s.Scan(ctx, time.Now()); err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := runScheduled(ctx, s); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("wxslate stopped cleanly")
}

// runScheduled despierta cada minuto y ejecuta un slate en las horas
// programadas. Un run por hora: tras ejecutar, duerme hasta cambiar de hora.
func runScheduled(ctx context.Context, s *scanner.Scanner) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastRunHour time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now()
			if !s.ShouldRun(now) {
				continue
			}
			hour := now.Truncate(time.Hour)
			if hour.Equal(lastRunHour) {
				continue
			}

			if _, err := s.Scan(ctx, now); err != nil {
				slog.Error("scheduled scan failed", "err", err)
				continue // siguiente hora programada
			}
			lastRunHour = hour
		}
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
