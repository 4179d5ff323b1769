// twin-postmark is a twin that simulates the Postmark transactional email API.
// Accepted sends are recorded instead of delivered and can be inspected
// through the fake and admin endpoints.
//
// SDK compatibility target: github.com/mrz1836/postmark, postmark.js
// Integration method: Override base URL
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/admin"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/api"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

const twinName = "twin-postmark"

func main() {
	cfg, err := twincore.LoadConfig(twinName, os.Args[1:])
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 12118
	}

	twin := twincore.New(cfg)
	memStore := store.New()

	// API handlers
	apiHandler := api.NewHandler(memStore, twin.Middleware(), twin.Logger, cfg.ServerToken)
	apiHandler.Routes(twin.Router)

	// Admin control plane
	adminHandler := admin.NewHandler(memStore, twin.Middleware(), memStore.Clock)
	adminHandler.SetConfigProvider(twin)
	adminHandler.Routes(twin.Router)

	// Load seed data if provided
	if cfg.SeedFile != "" {
		if err := admin.LoadSeedFile(memStore, cfg.SeedFile); err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
		twin.Logger.Info("loaded seed data", "file", cfg.SeedFile)
	}

	twin.Logger.Info("twin-postmark ready",
		"port", cfg.Port,
		"server_token_locked", cfg.ServerToken != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := twin.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
