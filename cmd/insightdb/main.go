package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/insightdb/insightdb/internal/config"
	"github.com/insightdb/insightdb/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("env", cfg.Environment).Msg("starting server")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
