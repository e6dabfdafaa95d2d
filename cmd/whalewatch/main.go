package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/whalewatch/engine/internal/api"
	"github.com/whalewatch/engine/internal/config"
	"github.com/whalewatch/engine/internal/detector"
	"github.com/whalewatch/engine/internal/logger"
	"github.com/whalewatch/engine/internal/metrics"
	"github.com/whalewatch/engine/internal/polymarket"
	"github.com/whalewatch/engine/internal/storage"
	"github.com/whalewatch/engine/internal/telegram"
	"github.com/whalewatch/engine/internal/watcher"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Optional .env for local development; env vars override config values.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	feed := polymarket.NewClient(
		cfg.Polymarket.DataAPIURL,
		cfg.Polymarket.Limit,
		cfg.Polymarket.Timeout,
	)

	var notifier watcher.Notifier
	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = client
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.ListenAddr)
		logger.Info("Metrics endpoint listening on %s", cfg.Metrics.ListenAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.API.Enabled {
		apiServer := api.NewServer(store, cfg.API.ListenAddr)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("Alerts API failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down alerts API: %v", err)
			}
		}()
	}

	w := watcher.New(feed, store, notifier, watcher.Config{
		PollInterval:     cfg.Polymarket.PollInterval,
		PriceWindowSize:  cfg.Detector.PriceWindowSize,
		RecentTradesSize: cfg.Detector.RecentTradesSize,
		SummaryInterval:  cfg.Detector.SummaryInterval,
		Thresholds: detector.Thresholds{
			MinNotionalUSD:     cfg.Detector.MinNotionalUSD,
			NewWalletMaxTrades: cfg.Detector.NewWalletMaxTrades,
			MaxWalletTrades:    cfg.Detector.MaxWalletTrades,
			MinPriceDeviation:  cfg.Detector.MinPriceDeviation,
			MinAlertScore:      cfg.Detector.MinAlertScore,
		},
	})

	logger.Info("Starting whale watcher (interval: %v, batch: %d, min notional: $%.0f)",
		cfg.Polymarket.PollInterval, cfg.Polymarket.Limit, cfg.Detector.MinNotionalUSD)

	w.Run(ctx)
}
