package main

import (
	"os"

	"admin-notifier/internal/cli"
	"admin-notifier/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Init(os.Getenv("ENV") == "development"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cli.Execute(); err != nil {
		logger.L().Error("cart command failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
