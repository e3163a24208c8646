package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/app"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/config"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; exit immediately.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("app init failed", zap.Error(err))
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatal("app run failed", zap.Error(err))
	}
}
