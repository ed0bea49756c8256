package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twinchat/twinchat/app"
	"twinchat/twinchat/config"
	"twinchat/twinchat/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	a, err := app.New(initCtx, cfg, logging.Default())
	cancel()
	if err != nil {
		logging.ErrorLogger.Error("startup error", zap.Error(err))
		os.Exit(1)
	}
	if err := a.Serve(ctx); err != nil {
		os.Exit(1)
	}
}
