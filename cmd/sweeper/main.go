// The sweeper reconciles attempts orphaned in GENERATING: rows whose process
// died between record creation and outcome persistence. It marks anything
// older than the generation timeout (plus slack) as FAILED so quota is
// returned to the user.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/infra"
)

const cutoffSlack = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	attempts := repo.NewAttemptRepositoryPG(infra.NewSQLRunner(dbpool, logger))

	logger.Info().
		Dur("interval", cfg.SweepInterval).
		Msg("sweeper started")

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	sweep(ctx, &logger, cfg, attempts)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, &logger, cfg, attempts)
		}
	}
}

func sweep(ctx context.Context, logger *infra.Logger, cfg *infra.Config, attempts *repo.AttemptRepositoryPG) {
	cutoff := time.Now().Add(-(cfg.GenerationTimeout + cutoffSlack))
	n, err := attempts.FailStale(ctx, cutoff, "abandoned before completion")
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if n > 0 {
		logger.Info().Int64("reconciled", n).Msg("stale attempts failed")
	}
}
