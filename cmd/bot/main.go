package main

import (
	"context"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"lead-manager-telegram-bot/internal/adapter/health"
	telegramAdapter "lead-manager-telegram-bot/internal/adapter/telegram"
	"lead-manager-telegram-bot/internal/config"
	"lead-manager-telegram-bot/internal/infra/bitrix"
	sqliteRepo "lead-manager-telegram-bot/internal/infra/sqlite"
	"lead-manager-telegram-bot/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("bot init failed", "error", err)
		os.Exit(1)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	crm := bitrix.NewClient(cfg.BitrixWebhook)

	alertRepo, err := sqliteRepo.NewAlertRepo(cfg.AlertsSQLiteDSN)
	if err != nil {
		logger.Error("alerts sqlite init failed", "error", err)
		os.Exit(1)
	}
	statRepo, err := sqliteRepo.NewCycleStatRepo(cfg.AlertsSQLiteDSN)
	if err != nil {
		logger.Error("stats sqlite init failed", "error", err)
		os.Exit(1)
	}

	tracker := usecase.NewAlertTracker(alertRepo, usecase.DedupWindow)
	resolver := usecase.NewActionResolver(tracker, crm, cfg.PostponeWindow, logger)
	sender := telegramAdapter.NewSender(bot)
	watcher := usecase.NewLeadWatcher(crm, tracker, sender, statRepo, cfg.ManagerChatID, cfg.ExpiryThreshold, cfg.PostponeWindow, logger)
	stats := usecase.NewActionStats(alertRepo, statRepo)

	healthSrv := health.NewServer(stats, logger)
	go func() {
		if err := healthSrv.ListenAndServe(cfg.HealthAddr); err != nil {
			logger.Error("health server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx, cfg.PollInterval)
	logger.Info("watcher started", "interval", cfg.PollInterval, "threshold", cfg.ExpiryThreshold)

	handler := telegramAdapter.NewHandler(bot, watcher, resolver, stats, cfg.ManagerChatID, logger)
	handler.Run()
}
