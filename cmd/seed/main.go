// Command seed loads the embedded product catalog into a running API.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"solarshop/internal/catalog"
	"solarshop/internal/client"
	"solarshop/internal/config"
	"solarshop/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api := client.New(client.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.ClientTimeout,
		Retries: cfg.ClientRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.AuthEnabled() {
		if _, err := api.Login(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	}

	inputs, err := catalog.Inputs()
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}

	created, failed := 0, 0
	for start := 0; start < len(inputs); start += models.MaxBulkProducts {
		end := start + models.MaxBulkProducts
		if end > len(inputs) {
			end = len(inputs)
		}
		result, err := api.BulkCreateProducts(ctx, inputs[start:end])
		if err != nil {
			log.Fatalf("Bulk create failed: %v", err)
		}
		for _, e := range result.Errors {
			log.Printf("Product %d not created: %s %v", start+e.Index, e.Error, e.Details)
		}
		created += result.Summary.SuccessCount
		failed += result.Summary.ErrorCount
	}

	log.Printf("Seed finished against %s: %d created, %d failed", cfg.APIBaseURL, created, failed)
	if created == 0 && failed > 0 {
		os.Exit(1)
	}
}
