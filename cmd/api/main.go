package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/leavend/campaign-studio/internal/adapter/repo"
	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/http/handlers"
	httpapi "github.com/leavend/campaign-studio/internal/http/httpapi"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/infra/credentials"
	"github.com/leavend/campaign-studio/internal/infra/geoip"
	"github.com/leavend/campaign-studio/internal/infra/google"
	"github.com/leavend/campaign-studio/internal/jobs"
	"github.com/leavend/campaign-studio/internal/middleware"
	"github.com/leavend/campaign-studio/internal/providers/genai"
	"github.com/leavend/campaign-studio/internal/storage"
	"github.com/leavend/campaign-studio/internal/studio"
)

const staticPrefix = "/static"

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sql := infra.NewSQLRunner(dbpool, logger)

	tokens, closeTokens, err := tokenSource(ctx, cfg, sql, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load google credentials")
	}
	defer closeTokens()

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	client, err := genai.NewClient(genai.Options{
		BaseURL:         cfg.VertexBaseURL,
		Project:         cfg.GoogleProject,
		Region:          cfg.GoogleRegion,
		ImageModel:      cfg.VertexImageModel,
		VideoModel:      cfg.VertexVideoModel,
		Tokens:          tokens,
		HTTPClient:      &http.Client{Timeout: 60 * time.Second},
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		Store:           files,
		PublicBaseURL:   cfg.StorageBaseURL,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build vertex client")
	}

	generateAudio := cfg.GenerateAudio
	manager, err := jobs.NewManager(jobs.Options{
		Generator:         client,
		MaxRetries:        cfg.JobMaxRetries,
		RetryDelay:        cfg.JobRetryDelay,
		Concurrency:       cfg.JobConcurrency,
		MinInterval:       cfg.JobMinInterval,
		DefaultImageCount: cfg.DefaultImageCount,
		DefaultParameters: domain.JobParameters{
			DurationSeconds: cfg.DefaultVideoLength,
			AspectRatio:     cfg.DefaultAspectRatio,
			Resolution:      cfg.DefaultResolution,
			GenerateAudio:   &generateAudio,
		},
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build job manager")
	}

	svc, err := studio.NewService(studio.Options{
		Campaigns:     repo.NewCampaignRepository(sql),
		Jobs:          repo.NewJobRepository(sql),
		Assets:        repo.NewAssetRepository(sql),
		Captions:      repo.NewCaptionRepository(sql),
		Exports:       repo.NewExportRepository(sql),
		Manager:       manager,
		Files:         files,
		PublicBaseURL: cfg.StorageBaseURL,
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build studio service")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	app := handlers.NewApp(svc, logger)
	app.Ping = dbpool.Ping

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   lookup,
		StaticDir:       files.BasePath(),
		StaticPrefix:    staticPrefix,
	})
	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET is empty; campaign routes are unauthenticated")
	}

	server := infra.NewHTTPServer(cfg, router, logger)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := svc.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("generation batches still running at shutdown")
	}
	logger.Info().Msg("server stopped")
}

// tokenSource loads the service account from GOOGLE_SERVICE_ACCOUNT_FILE or,
// failing that, from the integration_tokens table, and picks the cache
// configured by TOKEN_CACHE.
func tokenSource(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, logger *infra.Logger) (genai.TokenSource, func(), error) {
	var (
		account *google.ServiceAccount
		err     error
	)
	if cfg.ServiceAccountFile != "" {
		account, err = google.LoadServiceAccountFile(cfg.ServiceAccountFile)
	} else {
		var raw []byte
		raw, err = credentials.NewStore(sql).ServiceAccountJSON(ctx)
		if err == nil {
			account, err = google.ParseServiceAccountJSON(raw)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	minter := google.NewMinter(google.MinterOptions{
		TokenURL: cfg.TokenURL,
		Scope:    cfg.TokenScope,
		Logger:   logger,
	})
	noop := func() {}

	switch cfg.TokenCache {
	case "memory":
		return &google.CachingSource{Minter: minter, Account: account, Cache: google.NewMemoryTokenCache()}, noop, nil
	case "redis":
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("redis token cache: %w", err)
		}
		closeFn := func() { _ = rdb.Close() }
		return &google.CachingSource{Minter: minter, Account: account, Cache: google.NewRedisTokenCache(rdb)}, closeFn, nil
	default:
		return &google.MintingSource{Minter: minter, Account: account}, noop, nil
	}
}
