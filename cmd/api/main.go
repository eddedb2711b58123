package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/auth"
	"github.com/skyvault/skyvault/internal/config"
	"github.com/skyvault/skyvault/internal/file"
	"github.com/skyvault/skyvault/internal/logger"
	"github.com/skyvault/skyvault/internal/provider"
	"github.com/skyvault/skyvault/internal/quota"
	"github.com/skyvault/skyvault/internal/server"
	"github.com/skyvault/skyvault/internal/storage"
)

func main() {
	_ = godotenv.Load()

	zlog, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.Migrate(cfg.Postgres); err != nil {
		zlog.Fatal("run migrations", zap.Error(err))
	}

	registry, err := buildProviders(ctx, cfg.Storage, zlog)
	if err != nil {
		zlog.Fatal("build storage providers", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	quotaRepo := quota.NewRepository(dbPool)
	quotaService := quota.NewService(quotaRepo, cfg.Quota.MonthlyLimitBytes, zlog)

	fileRepo := file.NewRepository(dbPool)
	fileService := file.NewService(fileRepo, quotaService, registry, cfg.Storage.AttemptTimeout, zlog)

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		DB:          dbPool,
		Providers:   registry,
		AuthService: authService,
		FileService: fileService,
		Logger:      zlog,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("SkyVault API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}

// buildProviders constructs the failover chain in the configured order.
// Unconfigured providers still join the chain; they report unavailable and
// the failover loop skips past them.
func buildProviders(ctx context.Context, cfg config.StorageConfig, zlog *zap.Logger) (*provider.Registry, error) {
	providers := make([]provider.Provider, 0, len(cfg.ProviderOrder))
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "s3":
			providers = append(providers, provider.NewS3Provider(ctx, cfg.S3, zlog))
		case "azure":
			providers = append(providers, provider.NewAzureProvider(cfg.Azure, zlog))
		case "minio":
			providers = append(providers, provider.NewMinIOProvider(cfg.MinIO, zlog))
		default:
			return nil, fmt.Errorf("unknown storage provider %q in order", name)
		}
	}
	return provider.NewRegistry(providers...)
}
