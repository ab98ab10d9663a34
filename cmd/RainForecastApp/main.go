package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/app"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/config"
	"github.com/Nazarious-ucu/rain-forecast-app/pkg/logger"
)

// @title Rain Forecast App
// @version 1.0
// @description Weather lookup with day by day rain probabilities
// @host localhost:5000
// @BasePath /
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogsPath, "rain-forecast-app")

	application := app.New(*cfg, l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		l.Error().Err(err).Msg("application stopped with error")
		log.Panic(err)
	}
}
