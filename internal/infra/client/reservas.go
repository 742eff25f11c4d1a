package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

const reservasService = "reservas"

// Paths of the reservation API.
const (
	pathAvailability = "/api/reservas/validar_disponibilidad"
	pathReservations = "/api/reservas"
	pathConfirmation = "/api/reservas/enviar-confirmacion"
)

// ReservasClient calls the external reservation API through the Caller,
// behind a circuit breaker.
type ReservasClient struct {
	caller  *Caller
	baseURL string
	cb      *gobreaker.CircuitBreaker
}

// NewReservasClient creates a new ReservasClient.
func NewReservasClient(caller *Caller, baseURL string, cb *gobreaker.CircuitBreaker) *ReservasClient {
	return &ReservasClient{
		caller:  caller,
		baseURL: strings.TrimRight(baseURL, "/"),
		cb:      cb,
	}
}

// CheckAvailability asks whether a table exists for the given date, time
// and party size. A 4xx answer that carries a server message is a decline,
// not a failure: it comes back as Available=false with that message.
func (c *ReservasClient) CheckAvailability(ctx context.Context, req *chatdomain.AvailabilityRequest) (*chatdomain.AvailabilityResponse, error) {
	ctx, span := tracer.Start(ctx, "ReservasClient.CheckAvailability")
	defer span.End()
	span.SetAttributes(
		attribute.String("restaurant.id", req.RestaurantID),
		attribute.String("reservation.date", req.Date),
		attribute.Int("reservation.party_size", req.PartySize),
	)

	var out chatdomain.AvailabilityResponse
	if err := c.post(ctx, pathAvailability, req, &out); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Detail != "" &&
			httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 &&
			httpErr.StatusCode != http.StatusMethodNotAllowed {
			return &chatdomain.AvailabilityResponse{Available: false, Message: httpErr.Detail}, nil
		}
		return nil, err
	}
	return &out, nil
}

// CreateReservation books the reservation.
func (c *ReservasClient) CreateReservation(ctx context.Context, req *chatdomain.ReservationRequest) (*chatdomain.ReservationResponse, error) {
	ctx, span := tracer.Start(ctx, "ReservasClient.CreateReservation")
	defer span.End()
	span.SetAttributes(
		attribute.String("restaurant.id", req.RestaurantID),
		attribute.String("reservation.date", req.Date),
	)

	var out chatdomain.ReservationResponse
	if err := c.post(ctx, pathReservations, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendConfirmation asks the API to e-mail the reservation confirmation.
func (c *ReservasClient) SendConfirmation(ctx context.Context, req *chatdomain.ConfirmationRequest) (*chatdomain.ConfirmationResponse, error) {
	ctx, span := tracer.Start(ctx, "ReservasClient.SendConfirmation")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", req.ReservationID))

	var out chatdomain.ConfirmationResponse
	if err := c.post(ctx, pathConfirmation, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ReservasClient) post(ctx context.Context, path string, body, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.caller.Call(ctx, http.MethodPost, c.baseURL+path, body, out)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: reservasService}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: reservasService + path}
	}
	return &domain.ErrExternalService{Service: reservasService, Err: err}
}
