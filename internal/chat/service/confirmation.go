package service

import (
	"context"
	"errors"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/port"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrConfirmationRejected é devolvido quando a API responde success=false.
var ErrConfirmationRejected = errors.New("confirmation email rejected by reservation API")

// ============================================================
// EmailConfirmer: envio idempotente do e-mail de confirmação
// ============================================================
//
// Marcador por reserva, guardado no MarkerStore da sessão:
//
//	unsent  → nunca enviado (ou falhou): pode tentar
//	sending → marcado antes da chamada; volta pra unsent em qualquer falha
//	sent    → já enviado: responde sucesso sem chamar a API
//
// Chamadas simultâneas para a mesma reserva nesta instância são
// coalescidas com singleflight. Duplicatas entre sessões ou dispositivos
// diferentes não são evitadas aqui.
type EmailConfirmer struct {
	api     port.ReservationsAPI
	markers port.MarkerStore
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewEmailConfirmer cria o EmailConfirmer.
func NewEmailConfirmer(api port.ReservationsAPI, markers port.MarkerStore, metrics *observability.Metrics, logger *zap.Logger) *EmailConfirmer {
	return &EmailConfirmer{
		api:     api,
		markers: markers,
		metrics: metrics,
		logger:  logger,
	}
}

// Confirm envia o e-mail de confirmação da reserva, no máximo uma vez com
// sucesso por sessão. nil significa que o e-mail foi (ou já tinha sido) enviado.
func (c *EmailConfirmer) Confirm(ctx context.Context, sessionID string, req *domain.ConfirmationRequest) error {
	ctx, span := chatTracer.Start(ctx, "EmailConfirmer.Confirm")
	defer span.End()

	if req.ReservationID == "" || req.Email == "" || req.RestaurantID == "" {
		return errors.New("confirmation email: missing reservation id, email or restaurant id")
	}

	_, err, _ := c.group.Do(sessionID+"/"+req.ReservationID, func() (any, error) {
		return nil, c.confirm(ctx, sessionID, req)
	})
	return err
}

func (c *EmailConfirmer) confirm(ctx context.Context, sessionID string, req *domain.ConfirmationRequest) error {
	marker, err := c.markers.GetMarker(ctx, sessionID, req.ReservationID)
	if err != nil {
		return err
	}
	if marker == domain.EmailSent {
		c.logger.Info("confirmation email already sent",
			zap.String("session_id", sessionID),
			zap.String("reservation_id", req.ReservationID),
		)
		c.metrics.IncrConfirmationEmail("skipped")
		return nil
	}

	if err := c.markers.SetMarker(ctx, sessionID, req.ReservationID, domain.EmailSending); err != nil {
		return err
	}

	resp, err := c.api.SendConfirmation(ctx, req)
	if err == nil && !resp.Success {
		err = ErrConfirmationRejected
	}
	if err != nil {
		if clearErr := c.markers.SetMarker(ctx, sessionID, req.ReservationID, domain.EmailUnsent); clearErr != nil {
			c.logger.Error("failed to clear email marker",
				zap.String("session_id", sessionID),
				zap.String("reservation_id", req.ReservationID),
				zap.Error(clearErr),
			)
		}
		c.metrics.IncrConfirmationEmail("failed")
		c.logger.Warn("confirmation email failed",
			zap.String("session_id", sessionID),
			zap.String("reservation_id", req.ReservationID),
			zap.Error(err),
		)
		return err
	}

	c.metrics.IncrConfirmationEmail("sent")
	if err := c.markers.SetMarker(ctx, sessionID, req.ReservationID, domain.EmailSent); err != nil {
		// o e-mail saiu; só a idempotência fica comprometida
		c.logger.Error("failed to mark email as sent",
			zap.String("session_id", sessionID),
			zap.String("reservation_id", req.ReservationID),
			zap.Error(err),
		)
	}
	return nil
}
