// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/obsidianempire/aoc-map/logging"
	"github.com/obsidianempire/aoc-map/router"
	routes_auth "github.com/obsidianempire/aoc-map/routes/auth"
	routes_pins "github.com/obsidianempire/aoc-map/routes/pins"
	"github.com/obsidianempire/aoc-map/sessions"
	"github.com/obsidianempire/aoc-map/storage"
)

func main() {
	// Load .env file first
	if err := godotenv.Load(); err != nil {
		logging.Warn().Msg("no .env file found, falling back to system environment variables")
	}

	cfg, err := storage.LoadConfiguration()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.UsesDefaultSecret() {
		logging.Warn().Msg("JWT_SECRET is not set, using the development secret")
	}
	if !cfg.DiscordConfigured() {
		logging.Warn().Msg("DISCORD_CLIENT_ID is not set, login is disabled")
	}

	db, backend, err := storage.OpenDatabase(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	if err := storage.InitSchema(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize schema")
	}
	logging.Info().Str("database", backend).Msg("database ready")

	tokens := sessions.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	handler := router.CreateRouter(router.Dependencies{
		Config:  cfg,
		Backend: backend,
		Pins:    routes_pins.NewService(storage.NewPinRepository(db), cfg.AdminUsernames),
		Tokens:  tokens,
		Auth:    routes_auth.NewController(cfg, tokens),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logging.Info().Msg("server stopped")
}
