package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campaignintel/internal"
	"campaignintel/internal/config"
	"campaignintel/internal/container"
	"campaignintel/ui"

	"github.com/gin-gonic/gin"
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

	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		logger.Error("Failed to create application container: %v", err)
		os.Exit(1)
	}
	defer appContainer.Close()

	server, err := ui.NewServer(appContainer.Strategies, appContainer.Narratives, logger)
	if err != nil {
		logger.Error("Failed to initialize server: %v", err)
		os.Exit(1)
	}

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}
