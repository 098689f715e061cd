package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xwenjian/opinion-mmscript/config"
	"github.com/0xwenjian/opinion-mmscript/internal/adapters/notify"
	"github.com/0xwenjian/opinion-mmscript/internal/adapters/opinion"
	"github.com/0xwenjian/opinion-mmscript/internal/adapters/storage"
	"github.com/0xwenjian/opinion-mmscript/internal/application/maker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
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

	slog.Info("solomaker starting",
		"config", *configPath,
		"markets", len(cfg.Markets),
		"interval", cfg.PollInterval(),
	)

	client := opinion.NewClient(cfg.API.BaseURL, cfg.API.APIKey)

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	var notifier *notify.Multi
	if cfg.Telegram.Enabled {
		tg := notify.NewTelegram(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			cfg.API.WalletAlias,
			cfg.API.WalletAddr,
		)
		notifier = notify.NewMulti(notify.NewConsole(), tg)
	} else {
		notifier = notify.NewMulti(notify.NewConsole())
	}

	mgr := maker.NewManager(client, client, client, journal, notifier)
	mgr.SetSettlePause(cfg.SettlePause())

	monCfg := maker.Config{
		Interval:     cfg.PollInterval(),
		StartupPause: cfg.StartupPause(),
	}
	for _, m := range cfg.Markets {
		rm := cfg.ResolvedMarket(m)
		monCfg.Markets = append(monCfg.Markets, maker.MarketConfig{
			MarketID:      rm.MarketID,
			MinProtection: rm.MinProtection,
			OrderAmount:   rm.OrderAmount,
			MaxRank:       rm.MaxRank,
		})
	}

	mon := maker.NewMonitor(monCfg, mgr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Preflight: una llamada barata detecta el bloqueo geográfico del
	// venue antes de arrancar el loop.
	if _, err := client.Balance(ctx); err != nil {
		if opinion.IsGeoRestricted(err) {
			slog.Error("venue is geo-restricted from this network, configure a proxy or VPN", "err", err)
			os.Exit(1)
		}
		slog.Warn("venue preflight failed, starting anyway", "err", err)
	}

	if err := mon.Run(ctx); err != nil {
		slog.Error("monitor exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("solomaker stopped cleanly")
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
