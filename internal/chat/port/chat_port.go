// Package port: chat_port.go define as interfaces (ports) que o chat usa
// para falar com o mundo externo: a API de reservas, o armazenamento de
// sessão e o diretório de restaurantes.
//
// Seguindo a arquitetura hexagonal, o ChatService depende dessas interfaces
// e NÃO dos clients concretos. Isso facilita testes e troca de implementação
// (memória ↔ Redis, HTTP real ↔ httptest).
package port

import (
	"context"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
)

// ReservationsAPI é a API externa de reservas (POST /api/reservas/...).
// O client concreto (client.ReservasClient) aplica retry, circuit breaker
// e normalização de erros.
type ReservationsAPI interface {
	CheckAvailability(ctx context.Context, req *chatdomain.AvailabilityRequest) (*chatdomain.AvailabilityResponse, error)
	CreateReservation(ctx context.Context, req *chatdomain.ReservationRequest) (*chatdomain.ReservationResponse, error)
	SendConfirmation(ctx context.Context, req *chatdomain.ConfirmationRequest) (*chatdomain.ConfirmationResponse, error)
}

// SessionStore guarda o ConversationState de cada sessão entre mensagens.
//
// Load devolve found=false (sem erro) quando a sessão não existe ou expirou.
// Implementações devem devolver cópias: quem chama pode mutar o estado
// livremente até chamar Save.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*chatdomain.ConversationState, bool, error)
	Save(ctx context.Context, state *chatdomain.ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}

// MarkerStore guarda o marcador de e-mail de confirmação, por sessão e
// por id de reserva. Marcador ausente = EmailUnsent.
type MarkerStore interface {
	GetMarker(ctx context.Context, sessionID, reservationID string) (chatdomain.EmailMarker, error)
	SetMarker(ctx context.Context, sessionID, reservationID string, marker chatdomain.EmailMarker) error
}

// RestaurantDirectory resolve a configuração de um restaurante pelo id.
// Devolve *domain.ErrNotFound quando o id não existe.
type RestaurantDirectory interface {
	Get(ctx context.Context, restaurantID string) (*chatdomain.RestaurantProfile, error)
}
