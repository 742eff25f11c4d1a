package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/port"
	errdomain "github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// probeTime é a hora usada na pré-consulta: o visitante ainda não disse
// a hora, então perguntamos pelo horário de maior movimento.
const probeTime = "20:00"

const (
	msgAvailabilityNoDate = "Para verificar la disponibilidad necesito saber la fecha. ¿Para qué día te gustaría la mesa? " +
		"Puedes decir \"hoy\", \"mañana\", o una fecha específica como \"25/12\" o \"15 de mayo\"."
	msgAvailabilityError = "Lo siento, hubo un error al verificar la disponibilidad. ¿Te gustaría hacer una reserva directamente?"
	msgNoAvailabilityDay = "No hay disponibilidad para esa fecha y horario."
	msgUnknownRestaurant = "Lo siento, no pude identificar el restaurante para verificar la disponibilidad."
)

// ============================================================
// AvailabilityStrategy: "¿tienen mesa para 4 mañana?"
// ============================================================

// AvailabilityStrategy responde perguntas de disponibilidade fora de uma
// reserva. Uma consulta positiva fica guardada no estado para que um
// "sí" logo em seguida já comece a reserva com data e pessoas.
// Ela nunca muda Step nem Draft.
type AvailabilityStrategy struct {
	api     port.ReservationsAPI
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAvailabilityStrategy cria a AvailabilityStrategy.
func NewAvailabilityStrategy(api port.ReservationsAPI, metrics *observability.Metrics, logger *zap.Logger) *AvailabilityStrategy {
	return &AvailabilityStrategy{api: api, metrics: metrics, logger: logger}
}

func (s *AvailabilityStrategy) CanHandle(intent string) bool {
	return intent == domain.IntentAvailability
}

func (s *AvailabilityStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	return &domain.ChatResponse{Answer: s.Check(ctx, chatCtx)}, nil
}

// Check extrai data e pessoas da pergunta e consulta a API às 20:00.
func (s *AvailabilityStrategy) Check(ctx context.Context, chatCtx *domain.ChatContext) string {
	ctx, span := chatTracer.Start(ctx, "AvailabilityStrategy.Check")
	defer span.End()

	state := chatCtx.State
	date, ok := parser.ExtractDate(chatCtx.Query, chatCtx.Now)
	if !ok {
		s.metrics.IncrAvailabilityCheck("no_date")
		return msgAvailabilityNoDate
	}
	partySize, _ := parser.ExtractPartySize(chatCtx.Query)
	span.SetAttributes(
		attribute.String("reservation.date", date),
		attribute.Int("reservation.party_size", partySize),
	)

	// id inválido é erro permanente: nem chega na API
	if !parser.IsRestaurantID(state.RestaurantID) {
		s.logger.Warn("availability precheck without a valid restaurant id",
			zap.String("session_id", state.SessionID),
			zap.String("restaurant_id", state.RestaurantID),
		)
		s.metrics.IncrAvailabilityCheck("invalid_restaurant")
		return msgUnknownRestaurant
	}

	resp, err := s.api.CheckAvailability(ctx, &domain.AvailabilityRequest{
		RestaurantID: state.RestaurantID,
		Date:         date,
		Time:         probeTime,
		PartySize:    partySize,
	})
	if err != nil {
		s.logger.Error("availability precheck failed",
			zap.String("session_id", state.SessionID),
			zap.String("restaurant_id", state.RestaurantID),
			zap.Error(err),
		)
		s.metrics.IncrAvailabilityCheck("error")
		var extErr *errdomain.ErrExternalService
		if errors.As(err, &extErr) {
			s.metrics.IncrExternalError(extErr.Service)
		}
		return msgAvailabilityError
	}

	display := parser.DisplayDate(date)
	if !resp.Available {
		s.metrics.IncrAvailabilityCheck("unavailable")
		msg := resp.Message
		if msg == "" {
			msg = msgNoAvailabilityDay
		}
		return fmt.Sprintf("Lo siento, %s\n\n¿Te gustaría intentar con otra fecha? "+
			"También puedes hacer una reserva para ver más opciones de horarios disponibles.", msg)
	}

	s.metrics.IncrAvailabilityCheck("available")
	state.RecordAvailabilityCheck(domain.AvailabilityCheck{
		Date:        date,
		PartySize:   partySize,
		DisplayDate: display,
		CheckedAt:   chatCtx.Now,
	})
	return fmt.Sprintf("¡Sí! Tenemos disponibilidad para %s el %s.\n\n"+
		"¿Te gustaría hacer una reserva? Responde \"sí\" para comenzar.", peopleLabel(partySize), display)
}
