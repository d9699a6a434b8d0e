package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campaignintel/internal"
	"campaignintel/internal/api"
	"campaignintel/internal/config"
	"campaignintel/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		logger.Error("Failed to create application container: %v", err)
		os.Exit(1)
	}
	defer appContainer.Close()

	server := api.NewServer(appContainer.Strategies, appContainer.Narratives, logger).WithUsage(appContainer.Usage)
	if err := server.Start(ctx, ":"+appConfig.Server.APIPort); err != nil {
		logger.Error("API server failed: %v", err)
		os.Exit(1)
	}
}
