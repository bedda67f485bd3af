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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tradepost-labs/tradepost-backend/api/routes"
	"github.com/tradepost-labs/tradepost-backend/internal/auth"
	"github.com/tradepost-labs/tradepost-backend/internal/categories"
	"github.com/tradepost-labs/tradepost-backend/internal/products"
	"github.com/tradepost-labs/tradepost-backend/internal/reconcile"
	"github.com/tradepost-labs/tradepost-backend/internal/storerequests"
	"github.com/tradepost-labs/tradepost-backend/internal/stores"
	"github.com/tradepost-labs/tradepost-backend/internal/users"
	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db"
	"github.com/tradepost-labs/tradepost-backend/pkg/idgen"
	"github.com/tradepost-labs/tradepost-backend/pkg/logger"
	"github.com/tradepost-labs/tradepost-backend/pkg/metrics"
	"github.com/tradepost-labs/tradepost-backend/pkg/migrate"
	"github.com/tradepost-labs/tradepost-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ids, err := idgen.New(cfg.IDGen.NodeID)
	if err != nil {
		logg.Error(context.Background(), "failed to create id generator", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	storeRepo := stores.NewRepository(gormDB)
	requestRepo := storerequests.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	categoryRepo := categories.NewRepository(gormDB)
	backrefQueue := reconcile.NewRepository(gormDB)

	requestMetrics := metrics.NewStoreRequestMetrics(prometheus.DefaultRegisterer)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:         userRepo,
		IDGenerator:      ids,
		JWTConfig:        cfg.JWT,
		PasswordConfig:   cfg.Password,
		ValidationConfig: cfg.Validation,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	requestService, err := storerequests.NewService(
		requestRepo, storeRepo, userRepo, backrefQueue, ids, cfg.Validation, requestMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create store request service", err)
		os.Exit(1)
	}

	storeService, err := stores.NewService(storeRepo, userRepo, ids, cfg.Validation, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, cfg.Validation)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo, storeRepo, ids, cfg.Validation)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	categoryService, err := categories.NewService(categoryRepo, ids)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg,
		routes.Dependencies{DB: dbClient, Redis: redisClient},
		routes.Services{
			Auth:          authService,
			StoreRequests: requestService,
			Stores:        storeService,
			Users:         userService,
			Products:      productService,
			Categories:    categoryService,
		})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
