package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iabalyuk/gorzdravbot/bot"
	"github.com/iabalyuk/gorzdravbot/buttons"
	"github.com/iabalyuk/gorzdravbot/config"
	"github.com/iabalyuk/gorzdravbot/gorzdrav"
	"github.com/iabalyuk/gorzdravbot/logging"
	"github.com/iabalyuk/gorzdravbot/metrics"
	"github.com/iabalyuk/gorzdravbot/session"
	"github.com/iabalyuk/gorzdravbot/storage"
	"github.com/iabalyuk/gorzdravbot/worker"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.Default().Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	logger := logging.New(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("bot terminated", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := gorzdrav.NewClient(gorzdrav.ClientConfig{
		BaseURL: cfg.APIURL,
		Delay:   cfg.APIDelay,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger,
		Debug:   cfg.Debug,
	})
	districts := gorzdrav.NewDistrictCatalog(client, cfg.DistrictsCachePath, 0, logger)

	store, err := storage.NewSQLiteStorage(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions := session.NewStore(cfg.SessionTTL)
	pages := buttons.NewService(cfg.ButtonsCapacity, cfg.ButtonsTTL)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	api.Debug = cfg.Debug
	logger.Info("authorized on telegram", "account", api.Self.UserName)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, reg, logger)
		metricsServer.Start()
	}

	telegramBot := bot.New(bot.Config{
		API:       api,
		Client:    client,
		Districts: districts,
		Storage:   store,
		Sessions:  sessions,
		Buttons:   pages,
		Metrics:   m,
		Logger:    logger,
	})

	checker := worker.NewChecker(worker.CheckerConfig{
		Source:    client,
		Store:     store,
		Notifier:  telegramBot,
		Metrics:   m,
		Logger:    logger,
		Interval:  cfg.CheckInterval,
		SendDelay: cfg.SendDelay,
	})
	checker.Start()
	logger.Info("checker started", "interval", cfg.CheckInterval, "db", cfg.DBPath)

	sweeper, err := worker.NewSweeper(sweepInterval, map[string]worker.Sweepable{
		"sessions": sessions,
		"buttons":  pages,
	}, logger, nil)
	if err != nil {
		checker.Stop()
		return err
	}
	sweeper.Start()

	botErr := telegramBot.Start(ctx)

	logger.Info("initiating graceful shutdown")
	checker.Stop()
	if err := sweeper.Stop(); err != nil {
		logger.Warn("failed to stop sweeper", "error", err)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("failed to stop metrics server", "error", err)
		}
	}
	logger.Info("shutdown complete")
	return botErr
}
