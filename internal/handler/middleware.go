package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	chathandler "github.com/hernanbl/gandolfo-recordatorios/internal/chat/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/widget"
	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/cache"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WidgetTokenHeader carries the embed token of the page hosting the widget.
const WidgetTokenHeader = "X-Widget-Token"

// WidgetTokenMiddleware validates the widget token and injects the
// restaurant id it was issued for into the request context.
// Requests without a token pass through; a nil tokens disables the check.
func WidgetTokenMiddleware(tokens *widget.Tokens, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := widgetToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.Warn("widget: invalid token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := chatdomain.WithRestaurantID(r.Context(), claims.RestaurantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func widgetToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(WidgetTokenHeader)); v != "" {
		return v
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// ============================================================
// Rate limiting
// ============================================================

// RateLimiter keeps one token bucket per chat session. Idle buckets expire
// with the underlying cache TTL.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.InMemory[*rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute messages per key, with bursts of up to
// burst messages. perMinute <= 0 returns nil (no limiting).
func NewRateLimiter(perMinute, burst int, idleTTL time.Duration) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: cache.New[*rate.Limiter](idleTTL),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
}

// Allow reports whether key may send one more message now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// Set refreshes the idle TTL.
	l.limiters.Set(key, limiter)
	l.mu.Unlock()

	return limiter.Allow()
}

// Close stops the background cleanup of idle buckets.
func (l *RateLimiter) Close() {
	if l != nil {
		l.limiters.Close()
	}
}

// RateLimitMiddleware answers 429 when the session exceeds its budget.
// The key is the session id from the URL, then the session cookie, then
// the client address.
func RateLimitMiddleware(limiter *RateLimiter, cookies *chathandler.SessionCookies, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r, cookies)
			if !limiter.Allow(key) {
				metrics.IncrRequest("rate_limited")
				err := &domain.ErrRateLimited{Key: key}
				logger.Warn("chat rate limit exceeded", zap.String("key", key))
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request, cookies *chathandler.SessionCookies) string {
	if sid := chi.URLParam(r, "sessionId"); sid != "" {
		return "session:" + sid
	}
	if cookies != nil {
		if sid, ok := cookies.SessionID(r); ok {
			return "session:" + sid
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

// RequestMetricsMiddleware counts responses by status class.
func RequestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.IncrRequest(strconv.Itoa(status/100) + "xx")
		})
	}
}
