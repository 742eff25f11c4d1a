package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/app"
	chathandler "github.com/hernanbl/gandolfo-recordatorios/internal/chat/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/widget"
	"github.com/hernanbl/gandolfo-recordatorios/internal/config"
	"github.com/hernanbl/gandolfo-recordatorios/internal/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

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
		zap.String("reservas_api_url", cfg.ReservasAPIURL),
		zap.Bool("use_redis", cfg.UseRedis),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Duration("availability_check_ttl", cfg.AvailabilityCheckTTL),
		zap.String("default_restaurant_id", cfg.DefaultRestaurantID),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "gandolfo-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Chat stack ---
	stack, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build chat stack", zap.Error(err))
	}
	defer stack.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := stack.Ping(pingCtx); err != nil {
		logger.Warn("dependency check failed at startup", zap.Error(err))
	}
	cancelPing()

	// --- Widget token ---
	var tokens *widget.Tokens
	if cfg.WidgetTokenSecret != "" {
		tokens, err = widget.NewTokens(cfg.WidgetTokenSecret)
		if err != nil {
			logger.Fatal("invalid widget token secret", zap.Error(err))
		}
		logger.Info("widget token validation enabled")
	} else {
		logger.Warn("WIDGET_TOKEN_SECRET not set, widget tokens are ignored")
	}

	// --- Session cookie ---
	cookies := chathandler.NewSessionCookies(
		config.DecodeKey(cfg.CookieHashKey),
		config.DecodeKey(cfg.CookieBlockKey),
		cfg.SessionTTL,
		cfg.CookieSecure,
	)

	// --- Rate limiting ---
	limiter := handler.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst, cfg.SessionTTL)
	defer limiter.Close()

	// --- Router ---
	router := handler.NewRouter(handler.RouterDeps{
		Chat:    stack.Chat,
		Cookies: cookies,
		Tokens:  tokens,
		Limiter: limiter,
		Checks:  stack.Checks,
		Metrics: stack.Metrics,
		Logger:  logger,
	})

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

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
