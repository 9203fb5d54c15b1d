package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/heartrisk/heartrisk/internal/artifact"
	"github.com/heartrisk/heartrisk/internal/config"
	"github.com/heartrisk/heartrisk/internal/logger"
	"github.com/heartrisk/heartrisk/internal/observability"
	"github.com/heartrisk/heartrisk/internal/server"
	"github.com/heartrisk/heartrisk/internal/storage"
)

func main() {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		boot.Fatal().Err(err).Msg("could not read .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		boot.Fatal().Err(err).Msg("could not load config")
	}
	log := logger.New(cfg.Observability)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	objects, err := storage.NewO3Client(cfg.O3())
	if err != nil {
		log.Fatal().Err(err).Msg("object storage client")
	}

	// Serving with a partial artifact set is never allowed.
	bundle, err := artifact.Load(ctx, cfg.Artifacts, artifact.Sources{Objects: objects}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("artifacts failed to load, refusing to start")
	}

	apm, err := observability.NewApplication(cfg.Observability, log)
	if err != nil {
		log.Fatal().Err(err).Msg("apm")
	}

	srv, err := server.New(cfg, bundle, log, apm)
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}
	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
