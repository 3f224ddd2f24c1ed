package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/bot"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/config"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/database"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/discord"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/feed"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/jsonfile"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/logging"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/redis"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/server"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/streak"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/sweeper"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDocumentStore(cfg *config.Config) domain.DocumentStore {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.StorageBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		return redis.NewDocumentStore(client)

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		return database.NewDocumentStore(pool)

	default:
		return jsonfile.NewStore(cfg.DataFile)
	}
}

func runGracefulShutdown(srv *server.Server, sw *sweeper.Sweeper, hub *feed.Hub, docStore domain.DocumentStore) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		sw.Stop()
		hub.Stop()

		if err := docStore.Close(); err != nil {
			slog.Error("Failed to close document store", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	docStore := setupDocumentStore(cfg)

	store := streak.NewStore(docStore)
	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Load(loadCtx); err != nil {
		cancel()
		slog.Error("Failed to load streak data", "error", err)
		os.Exit(1)
	}
	cancel()

	hub := feed.NewHub(clock)

	gateway := discord.NewClient(cfg.DiscordAPIBaseURL, cfg.DiscordToken)
	botSvc := bot.NewService(store, gateway, hub, cfg.CommandPrefix)

	sw := sweeper.NewSweeper(store, gateway, clock, cfg.SweepInterval, cfg.InactivityDays)
	if err := sw.Start(context.Background()); err != nil {
		slog.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(cfg, store, botSvc, hub, docStore)

	done := runGracefulShutdown(srv, sw, hub, docStore)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
