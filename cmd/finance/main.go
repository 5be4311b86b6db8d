package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatservice "github.com/boddenberg/family-finance-go/internal/chat/service"
	"github.com/boddenberg/family-finance-go/internal/config"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/emailparser"
	"github.com/boddenberg/family-finance-go/internal/handler"
	"github.com/boddenberg/family-finance-go/internal/infra/cache"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/infra/scheduler"
	"github.com/boddenberg/family-finance-go/internal/infra/sqlite"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("database_path", cfg.DatabasePath),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Bool("tracing_enabled", cfg.TracingEnabled),
		zap.Bool("scheduler_enabled", cfg.EnableScheduler),
	)
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set, e-mail webhook will reject every call")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.TracerEndpoint(), "family-finance")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	categoryCache := cache.New[[]domain.Category](cfg.CacheTTL)
	defer categoryCache.Close()

	// --- Resilience ---
	guard := resilience.NewGuard(resilience.NewCircuitBreaker("sqlite"), resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	writes := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Storage ---
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := sqlite.Open(openCtx, cfg.DatabasePath)
	cancelOpen()
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.DatabasePath))
	}
	store := sqlite.New(db, guard, writes, metrics, logger)
	defer store.Close()

	// --- Services ---
	pointsSvc := service.NewGamificationService(store, metrics, logger)
	financeSvc := service.NewFinanceService(store, categoryCache, pointsSvc, nil, metrics, logger)
	authSvc := service.NewAuthService(store, pointsSvc, cfg.JWTSecret, cfg.SessionTTL, logger)
	familySvc := service.NewFamilyService(store, logger)
	webhookSvc := service.NewWebhookService(financeSvc, store, emailparser.New(), cfg.WebhookSecret, logger)
	chatSvc := chatservice.NewChatService(store, store, metrics, logger)

	// --- Scheduler ---
	var jobs *scheduler.Scheduler
	if cfg.EnableScheduler {
		jobs = scheduler.New(time.Minute, metrics, logger)
		err := jobs.Add("budget_rollover", cfg.BudgetRolloverSchedule, func(ctx context.Context) error {
			result, err := financeSvc.RolloverIntoCurrentMonth(ctx)
			if err != nil {
				return err
			}
			logger.Info("budgets rolled over", zap.String("to", result.To), zap.Int("families", result.Families), zap.Int("copied", result.Copied))
			return nil
		})
		if err != nil {
			logger.Fatal("failed to schedule budget rollover", zap.Error(err))
		}
		jobs.Start()
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Finance:      financeSvc,
		Auth:         authSvc,
		Family:       familySvc,
		Gamification: pointsSvc,
		Webhook:      webhookSvc,
		Chat:         chatSvc,
	}, handler.CookieConfig{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if jobs != nil {
		jobs.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
