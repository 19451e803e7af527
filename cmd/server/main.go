// @title coinbasis API
// @version 1.0
// @description Average-cost valuation of crypto portfolios and daily close prices.
// @BasePath /api
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/tropicaldog17/coinbasis/docs"
	"github.com/tropicaldog17/coinbasis/internal/config"
	"github.com/tropicaldog17/coinbasis/internal/db"
	"github.com/tropicaldog17/coinbasis/internal/handlers"
	"github.com/tropicaldog17/coinbasis/internal/jobs"
	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/repositories"
	"github.com/tropicaldog17/coinbasis/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, health, closeStorage, err := openStorage(cfg, zl)
	if err != nil {
		zl.Fatal("failed to open price storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer closeStorage()

	limiter, err := services.NewRateLimiter(cfg.RequestsPerMinute)
	if err != nil {
		zl.Fatal("invalid rate limit", zap.Error(err))
	}
	var api services.PriceHistoryAPI = services.NewYahooPriceAPI(cfg.PriceAPIBaseURL, limiter, zl)
	if cfg.APIMaxRetries > 0 {
		api = services.NewRetryingPriceAPI(api, cfg.APIMaxRetries, zl)
	}

	priceService := services.NewPriceHistoryService(cfg.DefaultCurrency, api, storage, zl)
	portfolioService := services.NewPortfolioService(priceService, services.NewTransactionProcessor(priceService, zl), zl)

	scheduler := jobs.NewScheduler(zl)
	if cfg.RefreshSchedule != "" {
		job := jobs.NewPriceRefreshJob(priceService, cfg.RefreshSymbols, zl)
		if err := scheduler.AddJob(cfg.RefreshSchedule, job); err != nil {
			zl.Fatal("failed to schedule price refresh", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := mux.NewRouter()
	router.Use(requestLogger(zl))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := map[string]string{"status": "healthy", "service": "coinbasis", "storage": cfg.StorageDriver}
		if err := health(); err != nil {
			status["status"] = "degraded"
			status["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	handlers.NewPortfolioHandler(portfolioService, zl).RegisterRoutes(router)
	handlers.NewPriceHandler(priceService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           corsMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	go func() {
		zl.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("default_currency", cfg.DefaultCurrency))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStorage returns the configured price history storage, a health probe
// and a close function.
func openStorage(cfg *config.Config, zl *zap.Logger) (repositories.PriceHistoryStorage, func() error, func(), error) {
	if cfg.StorageDriver == config.StorageFile {
		store, err := repositories.NewFilePriceHistoryStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		zl.Info("using file price storage", zap.String("dir", cfg.DataDir))
		return store, func() error { return nil }, func() {}, nil
	}

	database, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return nil, nil, nil, err
	}
	zl.Info("database connection established", zap.String("driver", cfg.DB.Driver))
	closeFn := func() {
		if err := database.Close(); err != nil {
			zl.Warn("failed to close database", zap.Error(err))
		}
	}
	return repositories.NewPriceHistoryRepository(database), database.Health, closeFn, nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(zl *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			zl.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("took", time.Since(start)))
		})
	}
}
