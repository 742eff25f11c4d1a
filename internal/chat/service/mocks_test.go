package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"
	errdomain "github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/session"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockReservationsAPI struct {
	mu sync.Mutex

	availability    *domain.AvailabilityResponse
	availabilityErr error
	reservation     *domain.ReservationResponse
	reservationErr  error
	confirmation    *domain.ConfirmationResponse
	confirmationErr error

	availabilityCalls []domain.AvailabilityRequest
	reservationCalls  []domain.ReservationRequest
	confirmationCalls []domain.ConfirmationRequest
}

func newMockAPI() *mockReservationsAPI {
	return &mockReservationsAPI{
		availability: &domain.AvailabilityResponse{Available: true},
		reservation:  &domain.ReservationResponse{Success: true, ID: "res-1"},
		confirmation: &domain.ConfirmationResponse{Success: true},
	}
}

func (m *mockReservationsAPI) CheckAvailability(_ context.Context, req *domain.AvailabilityRequest) (*domain.AvailabilityResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.availabilityCalls = append(m.availabilityCalls, *req)
	if m.availabilityErr != nil {
		return nil, m.availabilityErr
	}
	return m.availability, nil
}

func (m *mockReservationsAPI) CreateReservation(_ context.Context, req *domain.ReservationRequest) (*domain.ReservationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservationCalls = append(m.reservationCalls, *req)
	if m.reservationErr != nil {
		return nil, m.reservationErr
	}
	return m.reservation, nil
}

func (m *mockReservationsAPI) SendConfirmation(_ context.Context, req *domain.ConfirmationRequest) (*domain.ConfirmationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmationCalls = append(m.confirmationCalls, *req)
	if m.confirmationErr != nil {
		return nil, m.confirmationErr
	}
	return m.confirmation, nil
}

func (m *mockReservationsAPI) calls() (availability, reservations, confirmations int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.availabilityCalls), len(m.reservationCalls), len(m.confirmationCalls)
}

type mockDirectory struct {
	profiles map[string]*domain.RestaurantProfile
}

func (m *mockDirectory) Get(_ context.Context, id string) (*domain.RestaurantProfile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, &errdomain.ErrNotFound{Resource: "restaurant", ID: id}
}

// --- Fixture ---

const testRestaurantID = "6a117059-4c19-4b2d-9c1e-6d2b4f3e2a10"

// refNow is Tuesday 10 June 2025, 12:30 local.
var refNow = time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)

type fixture struct {
	t       *testing.T
	api     *mockReservationsAPI
	store   *session.MemoryStore
	metrics *observability.Metrics
	svc     *service.ChatService
	now     time.Time
}

func newFixture(t *testing.T, configure ...func(*service.Options)) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		api:     newMockAPI(),
		store:   session.NewMemoryStore(time.Hour),
		metrics: observability.NewMetrics(),
		now:     refNow,
	}
	t.Cleanup(f.store.Close)
	logger := zap.NewNop()
	ttl := 15 * time.Minute

	confirmer := service.NewEmailConfirmer(f.api, f.store, f.metrics, logger)
	strategies := []service.ChatStrategy{
		service.NewReservationStrategy(f.api, confirmer, ttl, f.metrics, logger),
		service.NewAvailabilityStrategy(f.api, f.metrics, logger),
		service.NewFAQStrategy(logger),
	}
	directory := &mockDirectory{profiles: map[string]*domain.RestaurantProfile{
		testRestaurantID: {ID: testRestaurantID, Name: "Gandolfo Restó", Phone: "11 5555-0000"},
	}}

	opts := service.Options{
		DefaultRestaurantID:  testRestaurantID,
		AvailabilityCheckTTL: ttl,
		Now:                  func() time.Time { return f.now },
	}
	for _, fn := range configure {
		fn(&opts)
	}
	f.svc = service.NewChatService(f.store, directory, strategies, opts, f.metrics, logger)
	return f
}

func (f *fixture) send(sessionID, query string) *domain.ChatResponse {
	f.t.Helper()
	resp, err := f.svc.ProcessMessage(context.Background(), sessionID, &domain.ChatRequest{Query: query})
	if err != nil {
		f.t.Fatalf("ProcessMessage(%q): %v", query, err)
	}
	return resp
}

func (f *fixture) sendRequest(sessionID string, req *domain.ChatRequest) *domain.ChatResponse {
	f.t.Helper()
	resp, err := f.svc.ProcessMessage(context.Background(), sessionID, req)
	if err != nil {
		f.t.Fatalf("ProcessMessage(%+v): %v", req, err)
	}
	return resp
}

// driveToComments runs a reservation up to the comments step.
func (f *fixture) driveToComments(sessionID string) {
	f.t.Helper()
	for _, msg := range []string{"Quiero hacer una reserva", "Ana Gómez", "mañana", "20:00", "4", "11 5555 1234", "ana@example.com"} {
		f.send(sessionID, msg)
	}
	if st := f.state(sessionID); st == nil || st.Step != domain.StepComments {
		f.t.Fatalf("expected comments step, got %+v", st)
	}
}

func (f *fixture) state(sessionID string) *domain.ConversationState {
	st, found, err := f.store.Load(context.Background(), sessionID)
	if err != nil || !found {
		return nil
	}
	return st
}
