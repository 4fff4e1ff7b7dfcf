package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/scamshield/scamshield/cmd/mainconfig"
	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/internal/api/router"
	appconfig "github.com/scamshield/scamshield/internal/config"
	"github.com/scamshield/scamshield/internal/http/handlers"
	httpmiddleware "github.com/scamshield/scamshield/internal/http/middleware"
	"github.com/scamshield/scamshield/internal/media"
	"github.com/scamshield/scamshield/internal/observability/metrics"
	"github.com/scamshield/scamshield/internal/ratelimit"
	"github.com/scamshield/scamshield/internal/reputation"
	"github.com/scamshield/scamshield/internal/storage"
	"github.com/scamshield/scamshield/internal/store"
	"github.com/scamshield/scamshield/internal/worker"
	"github.com/scamshield/scamshield/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scamshield API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Redis backs rate limits and both caches.
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", "error", err)
	}

	// Postgres is optional; without it reports and stats are not persisted.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
	}
	reportStore := store.NewStore(nil, logger)
	if pool != nil {
		reportStore = store.NewStore(pool, logger)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	presigner := s3.NewPresignClient(s3Client)
	mediaStore := storage.NewMediaStore(s3Client, presigner, cfg.MediaBucket, cfg.UploadURLLifetime, logger)

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	jobStore := media.NewJobStore(dynamoClient, cfg.MediaJobsTable, logger)

	bedrockClient := bedrockruntime.NewFromConfig(awsCfg)
	classifier := analysis.NewBedrockClassifier(bedrockClient, cfg.BedrockModelID, logger)

	checker := reputation.NewChecker(
		[]reputation.Provider{
			reputation.NewSafeBrowsingProvider(cfg.SafeBrowsingEndpoint, cfg.SafeBrowsingAPIKey, nil),
			reputation.NewURLHausProvider(cfg.URLHausEndpoint, nil),
		},
		rdb,
		cfg.ReputationTimeout,
		logger,
	)

	m := metrics.NewAnalysisMetrics(nil)
	runner := worker.NewRunner(cfg.WorkerCount, 256, logger, m.ObserveTaskDropped)

	engine := analysis.NewEngine(analysis.EngineConfig{
		Classifier: classifier,
		URLs:       checker,
		Cache:      analysis.NewCache(rdb, cfg.PromptVersion, cfg.AnalysisCacheTTL, logger),
		Tasks:      runner,
		Stats:      reportStore,
		Reports:    reportStore,
		Logger:     logger,
	})

	transcriber := media.NewWhisperTranscriber(openai.NewClient(cfg.OpenAIAPIKey), cfg.TranscriptionModel, logger)
	mediaService := media.NewService(jobStore, mediaStore, transcriber, engine, runner, logger)

	limiter := ratelimit.New(ratelimit.Config{
		Redis:       rdb,
		Salt:        cfg.RateLimitSalt,
		BurstLimit:  cfg.AnonBurstLimit,
		DailyLimit:  cfg.AnonDailyLimit,
		APIKeyLimit: cfg.APIKeyDailyLimit,
		FailClosed:  cfg.IsProduction(),
		Logger:      logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		AnalyzeHandler:     handlers.NewAnalyzeHandler(engine, m, logger),
		MediaHandler:       handlers.NewMediaHandler(mediaService, m, logger),
		StatsHandler:       handlers.NewStatsHandler(reportStore, logger),
		HealthHandler:      handlers.NewHealthHandler(logger),
		MetricsHandler:     promhttp.Handler(),
		RateLimit:          httpmiddleware.RateLimit(limiter, m, logger),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Drain background persistence before releasing connections.
	runner.Close()
	if pool != nil {
		pool.Close()
	}
	_ = rdb.Close()

	logger.Info("server stopped")
}
