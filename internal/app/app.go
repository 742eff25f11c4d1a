// Package app wires the chat service and its infrastructure from Config.
// Both the HTTP server and the chatctl REPL build their stack here.
package app

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/port"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"
	"github.com/hernanbl/gandolfo-recordatorios/internal/config"
	"github.com/hernanbl/gandolfo-recordatorios/internal/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/client"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/resilience"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/restaurants"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/session"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a session store that also keeps confirmation e-mail markers.
type Store interface {
	port.SessionStore
	port.MarkerStore
}

// Stack is the assembled chat service plus what the caller needs to
// serve, probe and shut it down.
type Stack struct {
	Chat      *service.ChatService
	Store     Store
	Directory *restaurants.Directory
	Metrics   *observability.Metrics
	Checks    []handler.HealthCheck

	closers []func()
}

// Close releases background resources (cache janitors, Redis connections).
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// New builds the stack described by cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	st := &Stack{Metrics: observability.NewMetrics()}

	// --- Session store ---
	if cfg.UseRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := session.NewRedisStore(rdb, cfg.SessionTTL)
		st.Store = store
		st.Checks = append(st.Checks, handler.HealthCheck{Name: "redis", Check: store.Ping})
		st.closers = append(st.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("redis close failed", zap.Error(err))
			}
		})
		logger.Info("using Redis session store", zap.String("redis_addr", cfg.RedisAddr))
	} else {
		store := session.NewMemoryStore(cfg.SessionTTL)
		st.Store = store
		st.closers = append(st.closers, store.Close)
		logger.Info("using in-memory session store", zap.Duration("session_ttl", cfg.SessionTTL))
	}

	// --- Restaurants ---
	directory, err := restaurants.Load(cfg.RestaurantsFile, cfg.WatchRestaurants, logger)
	switch {
	case err == nil:
		logger.Info("restaurants loaded",
			zap.String("file", cfg.RestaurantsFile),
			zap.Strings("ids", directory.IDs()),
		)
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("restaurants file not found, serving minimal profiles", zap.String("file", cfg.RestaurantsFile))
		directory = restaurants.NewDirectory()
	default:
		st.Close()
		return nil, err
	}
	st.Directory = directory

	// --- Reservation API client ---
	policy := resilience.NewRetryPolicy(resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	})
	caller := client.NewCaller(
		&http.Client{Timeout: cfg.HTTPTimeout},
		policy,
		resilience.NewBulkhead(cfg.MaxConcurrency),
		logger,
	)
	api := client.NewReservasClient(caller, cfg.ReservasAPIURL, resilience.NewCircuitBreaker("reservas"))

	// --- Chat ---
	confirmer := service.NewEmailConfirmer(api, st.Store, st.Metrics, logger)
	strategies := []service.ChatStrategy{
		service.NewReservationStrategy(api, confirmer, cfg.AvailabilityCheckTTL, st.Metrics, logger),
		service.NewAvailabilityStrategy(api, st.Metrics, logger),
		service.NewFAQStrategy(logger),
	}
	st.Chat = service.NewChatService(st.Store, directory, strategies, service.Options{
		DefaultRestaurantID:  cfg.DefaultRestaurantID,
		AvailabilityCheckTTL: cfg.AvailabilityCheckTTL,
		Location:             loc,
	}, st.Metrics, logger)

	return st, nil
}

// Ping runs every health check once; used at startup.
func (s *Stack) Ping(ctx context.Context) error {
	var errs []error
	for _, c := range s.Checks {
		if err := c.Check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
