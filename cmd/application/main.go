package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"supplymarket_api/config"
	"supplymarket_api/internal/app"
	"supplymarket_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/app.yaml"), "path to the YAML config")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
	defer application.Close()

	server := app.NewServer(cfg.Server.Addr, application.Router, cfg.Server.ShutdownTimeout, logger.NewLogger(nil, "server"))
	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return
	}
	log.Info("Server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
