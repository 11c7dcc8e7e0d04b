// Package main runs the video ingestion HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shortreel/backend/config"
	"github.com/shortreel/backend/internal/auth"
	"github.com/shortreel/backend/internal/download"
	"github.com/shortreel/backend/internal/metadata"
	"github.com/shortreel/backend/internal/middleware"
	"github.com/shortreel/backend/internal/pipeline"
	"github.com/shortreel/backend/internal/processinglogs"
	"github.com/shortreel/backend/internal/projects"
	"github.com/shortreel/backend/internal/screenshot"
	"github.com/shortreel/backend/internal/transcribe"
	"github.com/shortreel/backend/internal/videos"
	"github.com/shortreel/backend/internal/web"
	"github.com/shortreel/backend/pkg/database"
	"github.com/shortreel/backend/pkg/metrics"
	"github.com/shortreel/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		MediaBucket:     cfg.AWS.MediaBucket,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}
	if err := s3Client.EnsureMediaBucket(ctx); err != nil {
		logger.Fatal("media bucket", zap.Error(err))
	}

	workDir := cfg.Pipeline.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	// Cookie authorization is optional; downloads proceed anonymously
	// when the blob is absent or unwritable.
	cookieFile, err := download.WriteCookieFile(workDir, cfg.YouTube.Cookies)
	if err != nil {
		logger.Warn("cookie file setup failed", zap.Error(err))
		cookieFile = ""
	}

	var metaProvider pipeline.MetadataProvider
	switch cfg.YouTube.MetadataProvider {
	case config.MetadataProviderYtdlp:
		metaProvider = metadata.NewYtdlpProvider(cookieFile, logger)
	default:
		metaProvider = metadata.NewAPIProvider(cfg.YouTube.APIKey, logger)
	}

	downloader, err := download.NewDownloader(filepath.Join(workDir, "downloads"), cookieFile, logger)
	if err != nil {
		logger.Fatal("downloader", zap.Error(err))
	}
	shots, err := screenshot.NewService(filepath.Join(workDir, "frames"), s3Client, logger)
	if err != nil {
		logger.Fatal("screenshot service", zap.Error(err))
	}
	transcriber := transcribe.NewService(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	exporter := pipeline.NewExporter(filepath.Join(workDir, "outputs"))

	projectRepo := projects.NewRepository(pool)
	videoRepo := videos.NewRepository(pool)
	logRepo := processinglogs.NewRepository(pool)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	pipe := pipeline.New(
		metaProvider,
		downloader,
		s3Client,
		shots,
		transcriber,
		projectRepo,
		videoRepo,
		logRepo,
		exporter,
		m,
		logger,
	)

	states := auth.NewStateService(cfg.Google.ClientSecret, cfg.Google.StateTTLMin)
	webHandler, err := web.NewHandler(pipe, states, cfg, logger)
	if err != nil {
		logger.Fatal("web handler", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/", webHandler.Index)
	router.POST("/process", middleware.RateLimit(cfg.Pipeline.RateLimitPerMinute), webHandler.Process)
	router.GET("/auth/login", webHandler.Login)
	router.GET("/auth/callback", webHandler.AuthCallback)
	router.GET("/auth/debug", webHandler.AuthDebug)
	router.GET("/debug", webHandler.Debug)
	router.GET("/health", webHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
