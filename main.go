package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarshop/internal/config"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := NewApp(startCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if err := app.StartConsumers(); err != nil {
		log.Printf("Failed to start RabbitMQ consumer: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s (store: %s)", cfg.AppPort, cfg.StoreDriver)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
