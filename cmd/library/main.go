package main

import (
	stdLog "log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/library-assistant/library/app"
	"github.com/Astemirdum/library-assistant/library/config"
)

// @title Library assistant API
// @version 1.0
// @description Books, borrow records and a chat assistant for borrowing and library questions.
// @BasePath /
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Fatal("load envs from .env ", zap.Error(err))
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(5*time.Minute),
	)

	app.Run(cfg)
}
