package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sakuracore.ai/sakura-core/internal/api"
	"sakuracore.ai/sakura-core/internal/config"
	"sakuracore.ai/sakura-core/internal/core"
	"sakuracore.ai/sakura-core/internal/i18n"
	"sakuracore.ai/sakura-core/internal/store"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	// The language table is embedded; a hole in it is a programming error,
	// caught here rather than as a silent fallback at runtime.
	if err := i18n.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("language table validation failed")
	}

	kv, err := store.NewSQLiteKV(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer kv.Close()

	sessions := core.NewSessionService(kv, logger)
	llm := core.NewLLMService(cfg.GeminiAPIKey, logger)
	chat := core.NewChatService(sessions, llm, logger)

	apiHandler := api.NewAPIHandler(sessions, chat, cfg.JWTSecret, logger)
	router := api.NewRouter(apiHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.HTTPPort).
			Str("env", cfg.Env).
			Msg("starting sakura-core server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting gracefully")
}
