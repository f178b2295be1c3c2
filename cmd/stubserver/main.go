package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportsbook/internal/config"
	"sportsbook/internal/logger"
	"sportsbook/internal/metrics"
	"sportsbook/internal/stubserver"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	metrics.Register(nil)

	server, err := stubserver.NewServer(cfg.Stub)
	if err != nil {
		logger.Fatal("Failed to create stub server", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Stub.Port,
		Handler:           server.GetRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		logger.Get().Info("Starting stub backend", "port", cfg.Stub.Port, "seeded", cfg.Stub.Seed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ждем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Get().Error("Server forced to shutdown", "error", err)
	}

	logger.Get().Info("Server stopped")
}
