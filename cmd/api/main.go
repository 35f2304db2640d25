package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/generation"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/providers/portrait"
	"server/internal/quota"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	attempts := repo.NewAttemptRepositoryPG(sqlRunner)
	profiles := repo.NewProfileRepositoryPG(sqlRunner)
	usage := repo.NewUsageRecorder(sqlRunner)

	store, staticDir, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object store")
	}

	generator, err := portrait.NewGeminiGenerator(portrait.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		HTTPClient: &http.Client{
			Timeout: cfg.GenerationTimeout + 5*time.Second,
		},
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize portrait generator")
	}

	ledger := quota.NewLedger(attempts, cfg.QuotaCeiling)
	pipeline := generation.NewOrchestrator(generation.Options{
		Repo:              attempts,
		Store:             store,
		Generator:         generator,
		Ledger:            ledger,
		Usage:             usage,
		Logger:            &logger,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		GenerationTimeout: cfg.GenerationTimeout,
	})

	app := &handlers.App{
		Config:   cfg,
		Logger:   &logger,
		Attempts: attempts,
		Profiles: profiles,
		Pipeline: pipeline,
		Quota:    ledger,
		Usage:    usage,
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   countryLookup,
		StaticDir:       staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildStore selects the object store backend. The filesystem store also
// reports its root so the router can serve it under /static.
func buildStore(ctx context.Context, cfg *infra.Config) (storage.ObjectStore, string, error) {
	switch cfg.StorageBackend {
	case "minio":
		store, err := storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, "", err
		}
		return store, cfg.StoragePath, nil
	}
}
