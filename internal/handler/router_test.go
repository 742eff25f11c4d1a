package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	chathandler "github.com/hernanbl/gandolfo-recordatorios/internal/chat/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/widget"
	"github.com/hernanbl/gandolfo-recordatorios/internal/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/restaurants"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/session"

	"go.uber.org/zap"
)

const (
	restaurantA = "6a117059-4c19-4b2d-9c1e-6d2b4f3e2a10"
	restaurantB = "0f6f1a8e-7d2c-4b71-9a55-3e8c2d1b4a77"
	sessionA    = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
)

type stubAPI struct{}

func (stubAPI) CheckAvailability(context.Context, *chatdomain.AvailabilityRequest) (*chatdomain.AvailabilityResponse, error) {
	return &chatdomain.AvailabilityResponse{Available: true}, nil
}

func (stubAPI) CreateReservation(context.Context, *chatdomain.ReservationRequest) (*chatdomain.ReservationResponse, error) {
	return &chatdomain.ReservationResponse{Success: true, ID: "res-1"}, nil
}

func (stubAPI) SendConfirmation(context.Context, *chatdomain.ConfirmationRequest) (*chatdomain.ConfirmationResponse, error) {
	return &chatdomain.ConfirmationResponse{Success: true}, nil
}

type routerFixture struct {
	router http.Handler
	tokens *widget.Tokens
}

func newRouterFixture(t *testing.T, limiter *handler.RateLimiter, checks ...handler.HealthCheck) *routerFixture {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(store.Close)

	directory := restaurants.NewDirectory(
		chatdomain.RestaurantProfile{ID: restaurantA, Name: "Gandolfo Restó"},
		chatdomain.RestaurantProfile{ID: restaurantB, Name: "La Parrilla de Tito"},
	)
	api := stubAPI{}
	confirmer := service.NewEmailConfirmer(api, store, metrics, logger)
	chatSvc := service.NewChatService(store, directory, []service.ChatStrategy{
		service.NewReservationStrategy(api, confirmer, 15*time.Minute, metrics, logger),
		service.NewAvailabilityStrategy(api, metrics, logger),
		service.NewFAQStrategy(logger),
	}, service.Options{DefaultRestaurantID: restaurantA}, metrics, logger)

	tokens, err := widget.NewTokens("router-test-secret")
	if err != nil {
		t.Fatal(err)
	}

	return &routerFixture{
		router: handler.NewRouter(handler.RouterDeps{
			Chat:    chatSvc,
			Cookies: chathandler.NewSessionCookies([]byte(strings.Repeat("k", 32)), nil, time.Hour, false),
			Tokens:  tokens,
			Limiter: limiter,
			Checks:  checks,
			Metrics: metrics,
			Logger:  logger,
		}),
		tokens: tokens,
	}
}

func (f *routerFixture) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) chatdomain.ChatResponse {
	t.Helper()
	var resp chatdomain.ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/healthz", "", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/readyz", "", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz_DependencyDown(t *testing.T) {
	f := newRouterFixture(t, nil, handler.HealthCheck{
		Name:  "redis",
		Check: func(context.Context) error { return errors.New("connection refused") },
	})

	if rec := f.do(http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
		t.Errorf("expected degraded status, got %s", rec.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.do(http.MethodPost, "/v1/chat/"+sessionA, `{"query":"hola"}`, nil)

	rec := f.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bfa_chat_messages_total") {
		t.Error("expected chat message counter in /metrics output")
	}

	rec = f.do(http.MethodGet, "/v1/metrics/chat", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot["totalMessages"] != float64(1) {
		t.Errorf("expected totalMessages=1, got %v", snapshot["totalMessages"])
	}
}

func TestChat_CookieSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodPost, "/v1/chat", `{"query":"Quiero hacer una reserva"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != chathandler.SessionCookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	first := decodeChat(t, rec)
	if first.Step != chatdomain.StepName || !first.InProgress {
		t.Fatalf("expected name step, got %+v", first)
	}

	header := http.Header{"Cookie": {cookies[0].Name + "=" + cookies[0].Value}}
	rec = f.do(http.MethodPost, "/v1/chat", `{"query":"Ana"}`, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing session should not get a new cookie")
	}
	second := decodeChat(t, rec)
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %s → %s", first.SessionID, second.SessionID)
	}
	if second.Step != chatdomain.StepDate {
		t.Errorf("expected date step, got %s", second.Step)
	}
}

func TestChat_TamperedCookieStartsNewSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	header := http.Header{"Cookie": {chathandler.SessionCookieName + "=not-a-signed-value"}}
	rec := f.do(http.MethodPost, "/v1/chat", `{"query":"hola"}`, header)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("expected a fresh session cookie")
	}
}

func TestChat_BadRequests(t *testing.T) {
	f := newRouterFixture(t, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"invalid json", "/v1/chat/" + sessionA, `{"query":`},
		{"empty query", "/v1/chat/" + sessionA, `{"query":"   "}`},
		{"session id not uuid", "/v1/chat/abc", `{"query":"hola"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tt.path, tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestChat_ResetSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	f.do(http.MethodPost, "/v1/chat/"+sessionA, `{"query":"Quiero hacer una reserva"}`, nil)

	rec := f.do(http.MethodDelete, "/v1/chat/"+sessionA, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = f.do(http.MethodPost, "/v1/chat/"+sessionA, `{"query":"Ana"}`, nil)
	if resp := decodeChat(t, rec); resp.InProgress {
		t.Errorf("reset session should not be in progress: %+v", resp)
	}
}

func TestWidgetToken(t *testing.T) {
	f := newRouterFixture(t, nil)

	token, err := f.tokens.Issue(restaurantB, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("token selects restaurant", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/chat/welcome?restaurant_id="+restaurantA, "",
			http.Header{handler.WidgetTokenHeader: {token}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "La Parrilla de Tito") {
			t.Errorf("expected token restaurant, got %s", rec.Body.String())
		}
	})

	t.Run("bearer header", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/chat/welcome", "",
			http.Header{"Authorization": {"Bearer " + token}})
		if !strings.Contains(rec.Body.String(), "La Parrilla de Tito") {
			t.Errorf("expected token restaurant, got %s", rec.Body.String())
		}
	})

	t.Run("no token uses query", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/chat/welcome?restaurant_id="+restaurantB, "", nil)
		if !strings.Contains(rec.Body.String(), "La Parrilla de Tito") {
			t.Errorf("expected query restaurant, got %s", rec.Body.String())
		}
	})

	t.Run("no token no query uses default", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/chat/welcome", "", nil)
		if !strings.Contains(rec.Body.String(), "Gandolfo Restó") {
			t.Errorf("expected default restaurant, got %s", rec.Body.String())
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/chat/"+sessionA, `{"query":"hola"}`,
			http.Header{handler.WidgetTokenHeader: {"garbage"}})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	limiter := handler.NewRateLimiter(1, 2, time.Minute)
	t.Cleanup(limiter.Close)
	f := newRouterFixture(t, limiter)

	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodPost, "/v1/chat/"+sessionA, `{"query":"hola"}`, nil); rec.Code != http.StatusOK {
			t.Fatalf("message %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := f.do(http.MethodPost, "/v1/chat/"+sessionA, `{"query":"hola"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}

	other := "9c4b2e61-3f0a-4d8e-8b7c-5a6d1e2f3a4b"
	if rec := f.do(http.MethodPost, "/v1/chat/"+other, `{"query":"hola"}`, nil); rec.Code != http.StatusOK {
		t.Errorf("other session should not be limited, got %d", rec.Code)
	}
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	if l := handler.NewRateLimiter(0, 5, time.Minute); l != nil {
		t.Error("expected nil limiter for perMinute=0")
	}
}
