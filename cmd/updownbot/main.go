package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/updownbot/config"
	"github.com/alejandrodnm/updownbot/internal/adapters/notify"
	"github.com/alejandrodnm/updownbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/updownbot/internal/adapters/storage"
	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/engine"
	"github.com/alejandrodnm/updownbot/internal/tracker"
	"github.com/alejandrodnm/updownbot/internal/web"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	serve := flag.Bool("serve", false, "start the dashboard API (engine idle until POST /api/start)")
	report := flag.Bool("report", false, "print the stored journal and exit")
	once := flag.Bool("once", false, "run one engine tick and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
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

	slog.Info("updownbot starting",
		"config", *configPath,
		"undervalued_threshold", cfg.Strategy.UndervaluedThreshold,
		"momentum_threshold", cfg.Strategy.MomentumThreshold,
		"order_size", cfg.Strategy.OrderSizeShares,
		"entry_countdown", cfg.EntryCountdown(),
		"serve", *serve,
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.ApplySchema(ctx); err != nil {
		slog.Error("failed to apply storage schema", "err", err)
		os.Exit(1)
	}

	notifier := notify.NewConsole()

	if *report {
		runReport(ctx, store, notifier)
		return
	}

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
	trk := tracker.New(tracker.DefaultConfig(), client)

	engCfg := engine.DefaultConfig()
	engCfg.UndervaluedThreshold = cfg.Strategy.UndervaluedThreshold
	engCfg.MomentumThreshold = cfg.Strategy.MomentumThreshold
	engCfg.OrderSize = cfg.Strategy.OrderSizeShares
	engCfg.EntryCountdown = cfg.EntryCountdown()
	engCfg.ExitCountdown = cfg.ExitCountdown()
	engCfg.SimFillProbability = cfg.Strategy.SimFillProbability

	eng := engine.New(engCfg, trk, client, store, notifier)

	if *once {
		eng.RunOnce(ctx)
		printSummary(eng, notifier)
		return
	}

	if *serve {
		webCfg := web.DefaultConfig()
		webCfg.Addr = cfg.Web.Addr

		srv := web.New(webCfg, eng, trk, client)
		if err := srv.Run(ctx); err != nil {
			slog.Error("web server exited with error", "err", err)
			os.Exit(1)
		}
		eng.Stop()
		slog.Info("updownbot stopped cleanly")
		return
	}

	eng.Start(ctx)
	<-ctx.Done()
	eng.Stop()

	printSummary(eng, notifier)
	slog.Info("updownbot stopped cleanly")
}

// runReport imprime el journal persistido sin arrancar el engine.
func runReport(ctx context.Context, store *storage.SQLiteStorage, notifier *notify.Console) {
	orders, err := store.GetOrders(ctx)
	if err != nil {
		slog.Error("failed to load orders", "err", err)
		os.Exit(1)
	}
	trades, err := store.GetTrades(ctx, "")
	if err != nil {
		slog.Error("failed to load trades", "err", err)
		os.Exit(1)
	}

	notifier.PrintOrders(orders)
	notifier.PrintTrades(trades)
	notifier.PrintMetrics([]domain.StrategyMetrics{
		domain.ComputeMetrics(domain.StrategyUndervalued, trades),
		domain.ComputeMetrics(domain.StrategyMomentum, trades),
	})
}

// printSummary imprime el resumen de cierre con los trades y métricas en memoria.
func printSummary(eng *engine.Engine, notifier *notify.Console) {
	notifier.PrintTrades(eng.Trades(""))
	notifier.PrintMetrics([]domain.StrategyMetrics{
		eng.Metrics(domain.StrategyUndervalued),
		eng.Metrics(domain.StrategyMomentum),
	})
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
