// The migrate binary applies the embedded schema files in lexical order.
// Every statement uses "if not exists" so reruns are safe.
package main

import (
	"context"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			logger.Fatal().Err(err).Str("file", name).Msg("failed to read migration")
		}
		if _, err := dbpool.Exec(ctx, string(sql)); err != nil {
			logger.Fatal().Err(err).Str("file", name).Msg("migration failed")
		}
		logger.Info().Str("file", name).Msg("migration applied")
	}
	logger.Info().Int("count", len(names)).Msg("migrations complete")
}
