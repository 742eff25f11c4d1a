// Package service: chat_strategy_reservation.go implementa a máquina
// de etapas da reserva.
//
// ============================================================
// JORNADA DE RESERVA: uma pergunta por mensagem
// ============================================================
//
//	name → date → time → partySize → phone → email → comments → confirmation
//
// Cada mensagem do visitante preenche UM campo do Draft e avança para a
// próxima etapa. Duas etapas podem ser puladas quando uma pré-consulta de
// disponibilidade já trouxe o dado:
//
//	name → time       (data já preenchida)
//	time → phone      (pessoas já preenchidas)
//
// Na etapa comments a disponibilidade é verificada com os dados finais.
// Sem mesa: volta para date mantendo o Draft. Mesa disponível: resumo e
// pedido de confirmação. Confirmado: cria a reserva, envia o e-mail e
// reseta o estado, com sucesso ou não.
//
// A etapa correction só existe para estados salvos externamente: nenhuma
// transição desta máquina leva até ela.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/port"
	errdomain "github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Respostas fixas
// ============================================================

const (
	msgStartReservation = "¡Claro! Para comenzar con tu reserva, ¿podrías decirme tu nombre y apellido?"
	msgAskName          = "Para comenzar, ¿podrías decirme tu nombre y apellido?"
	msgAskTime          = "¿A qué hora te gustaría la reserva? (Ej: 13:00, 20:00, 21:30)"
	msgAskPartySize     = "Perfecto. ¿Para cuántas personas sería la reserva?"
	msgAskPhone         = "¿Podrías proporcionarme un número de teléfono de contacto? El día anterior te enviaremos un recordatorio de tu reserva."
	msgAskEmail         = "Gracias. Por favor, proporciona tu dirección de correo electrónico para enviarte la confirmación."
	msgInvalidEmail     = "Por favor, ingresa una dirección de correo electrónico válida."
	msgDeclined         = "Entiendo. Reserva cancelada. ¿Hay algo más en lo que pueda ayudarte?"
	msgCorrectionCancel = "Reserva cancelada. Si necesitas ayuda con otra cosa, no dudes en preguntar."
	msgNoAvailability   = "No hay disponibilidad para esa fecha y hora."
)

// ============================================================
// ReservationStrategy
// ============================================================

// ReservationStrategy conduz a reserva etapa por etapa. É a única
// strategy que escreve Draft e Step.
type ReservationStrategy struct {
	api       port.ReservationsAPI
	confirmer *EmailConfirmer

	// checkTTL limita a idade da pré-consulta usada para pré-preencher
	// data e pessoas no início da reserva.
	checkTTL time.Duration

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReservationStrategy cria a ReservationStrategy.
func NewReservationStrategy(
	api port.ReservationsAPI,
	confirmer *EmailConfirmer,
	checkTTL time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReservationStrategy {
	return &ReservationStrategy{
		api:       api,
		confirmer: confirmer,
		checkTTL:  checkTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// CanHandle aceita o início de uma reserva e as mensagens de uma reserva
// em andamento.
func (s *ReservationStrategy) CanHandle(intent string) bool {
	return intent == domain.IntentReservationStart || intent == domain.IntentReservationStep
}

// Handle inicia a reserva ou avança uma etapa.
func (s *ReservationStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ReservationStrategy.Handle")
	defer span.End()
	span.SetAttributes(attribute.String("chat.step", string(chatCtx.State.Step)))

	var answer string
	if chatCtx.DetectedIntent == domain.IntentReservationStart {
		answer = s.Start(chatCtx)
	} else {
		answer = s.Advance(ctx, chatCtx)
	}
	return &domain.ChatResponse{Answer: answer}, nil
}

// Start abre uma reserva nova. Uma pré-consulta ainda válida pré-preenche
// data e pessoas e é consumida.
func (s *ReservationStrategy) Start(chatCtx *domain.ChatContext) string {
	state := chatCtx.State
	state.Begin()
	s.metrics.IncrReservation(observability.OutcomeStarted)
	s.metrics.IncrStep(stepLabel(state.Step))

	check := state.ConsumeAvailabilityCheck(chatCtx.Now, s.checkTTL)
	if check == nil {
		return msgStartReservation
	}

	state.Draft.Date = check.Date
	state.Draft.PartySize = check.PartySize
	s.logger.Debug("reservation prefilled from availability check",
		zap.String("session_id", state.SessionID),
		zap.String("date", check.Date),
		zap.Int("party_size", check.PartySize),
	)
	return fmt.Sprintf("¡Perfecto! Veo que quieres hacer una reserva para %s el %s.\n\n%s",
		peopleLabel(check.PartySize), parser.DisplayDate(check.Date), msgAskName)
}

// Advance trata a resposta do visitante para a etapa atual.
func (s *ReservationStrategy) Advance(ctx context.Context, chatCtx *domain.ChatContext) string {
	state := chatCtx.State
	text := strings.TrimSpace(chatCtx.Query)
	from := state.Step

	var answer string
	switch state.Step {
	case domain.StepName:
		answer = s.onName(state, text)
	case domain.StepDate:
		answer = s.onDate(state, text, chatCtx.Now)
	case domain.StepTime:
		answer = s.onTime(state, text)
	case domain.StepPartySize:
		answer = s.onPartySize(state, text)
	case domain.StepPhone:
		answer = s.onPhone(state, text)
	case domain.StepEmail:
		answer = s.onEmail(state, text)
	case domain.StepComments:
		answer = s.onComments(ctx, state, text)
	case domain.StepConfirmation:
		answer = s.onConfirmation(ctx, state, text)
	case domain.StepCorrection:
		answer = s.onCorrection(state, text)
	default:
		s.logger.Error("unknown reservation step, resetting",
			zap.String("session_id", state.SessionID),
			zap.String("step", string(state.Step)),
		)
		answer = addressed("Lo siento", state.FirstName) +
			", hubo un problema con el proceso de reserva. Por favor, intenta nuevamente."
		state.Reset()
		s.metrics.IncrReservation(observability.OutcomeReset)
	}

	if state.Step != from {
		s.metrics.IncrStep(stepLabel(state.Step))
		s.logger.Debug("reservation step transition",
			zap.String("session_id", state.SessionID),
			zap.String("from", string(from)),
			zap.String("to", string(state.Step)),
		)
	}
	return answer
}

// ============================================================
// Etapas
// ============================================================

func (s *ReservationStrategy) onName(state *domain.ConversationState, text string) string {
	if text == "" {
		return msgAskName
	}
	state.Draft.Name = text
	state.FirstName = parser.FirstName(text)

	if !state.Draft.HasDate() {
		state.Step = domain.StepDate
		return fmt.Sprintf("Gracias, %s. ¿Para qué fecha te gustaría la reserva? (Ej: \"15/05/2025\", \"hoy\", \"mañana\")",
			state.FirstName)
	}

	state.Step = domain.StepTime
	return fmt.Sprintf("Gracias, %s. Veo que es para %s el %s.\n\n%s",
		state.FirstName, peopleLabel(state.Draft.PartySize), parser.DisplayDate(state.Draft.Date), msgAskTime)
}

func (s *ReservationStrategy) onDate(state *domain.ConversationState, text string, now time.Time) string {
	date, ok := parser.ParseDate(text, now)
	if !ok {
		return addressed("Lo siento", state.FirstName) +
			", no entendí la fecha. Por favor, usa un formato como \"DD/MM/YYYY\" (ej: 15/05/2025), o escribe \"hoy\" o \"mañana\"."
	}
	state.Draft.Date = date
	state.Step = domain.StepTime
	return fmt.Sprintf("%s. ¿A qué hora sería la reserva para el %s? (Ej: 13:00, 21:30)",
		addressed("Entendido", state.FirstName), parser.DisplayDate(date))
}

func (s *ReservationStrategy) onTime(state *domain.ConversationState, text string) string {
	if text == "" {
		return msgAskTime
	}
	state.Draft.Time = text

	if state.Draft.HasPartySize() {
		state.Step = domain.StepPhone
		return addressed("Perfecto", state.FirstName) + ". " + msgAskPhone
	}
	state.Step = domain.StepPartySize
	return msgAskPartySize
}

func (s *ReservationStrategy) onPartySize(state *domain.ConversationState, text string) string {
	if text == "" {
		return msgAskPartySize
	}
	if n, ok := parser.ParsePartySize(text); ok {
		state.Draft.PartySize = n
		state.Draft.PartySizeText = ""
	} else {
		state.Draft.PartySize = 0
		state.Draft.PartySizeText = text
	}
	state.Step = domain.StepPhone
	return addressed("Muy bien", state.FirstName) + ". " + msgAskPhone
}

func (s *ReservationStrategy) onPhone(state *domain.ConversationState, text string) string {
	if text == "" {
		return msgAskPhone
	}
	state.Draft.Phone = text
	state.Step = domain.StepEmail
	return msgAskEmail
}

func (s *ReservationStrategy) onEmail(state *domain.ConversationState, text string) string {
	if !parser.IsValidEmail(text) {
		return msgInvalidEmail
	}
	state.Draft.Email = text
	state.Step = domain.StepComments
	return addressed("Perfecto", state.FirstName) +
		". ¿Algún comentario o pedido especial para tu reserva? (Opcional, puedes decir \"ninguno\")"
}

// onComments guarda o comentário e verifica a disponibilidade final.
func (s *ReservationStrategy) onComments(ctx context.Context, state *domain.ConversationState, text string) string {
	if text == "" || parser.IsNoComment(text) {
		state.Draft.Comments = ""
	} else {
		state.Draft.Comments = text
	}

	if !parser.IsRestaurantID(state.RestaurantID) {
		s.logger.Warn("availability check without a valid restaurant id",
			zap.String("session_id", state.SessionID),
			zap.String("restaurant_id", state.RestaurantID),
		)
		state.Reset()
		s.metrics.IncrReservation(observability.OutcomeReset)
		return addressed("Lo siento", state.FirstName) +
			", no pude identificar el restaurante para verificar la disponibilidad."
	}

	first := state.FirstName
	resp, err := s.api.CheckAvailability(ctx, &domain.AvailabilityRequest{
		RestaurantID: state.RestaurantID,
		Date:         state.Draft.Date,
		Time:         state.Draft.Time,
		PartySize:    state.Draft.PartySize,
	})
	if err != nil {
		s.logger.Error("final availability check failed",
			zap.String("session_id", state.SessionID),
			zap.String("restaurant_id", state.RestaurantID),
			zap.Error(err),
		)
		s.metrics.IncrAvailabilityCheck("error")
		s.recordExternalError(err)
		s.metrics.IncrReservation(observability.OutcomeReset)
		state.Reset()
		return addressed("Lo siento", first) +
			", ocurrió un error al verificar la disponibilidad. Por favor, intenta más tarde."
	}

	if !resp.Available {
		s.metrics.IncrAvailabilityCheck("unavailable")
		state.Step = domain.StepDate
		msg := resp.Message
		if msg == "" {
			msg = msgNoAvailability
		}
		return fmt.Sprintf("%s, %s ¿Quieres intentar con otra fecha u hora?", addressed("Lo siento", first), msg)
	}

	s.metrics.IncrAvailabilityCheck("available")
	state.Step = domain.StepConfirmation
	return summary(state.Draft)
}

func (s *ReservationStrategy) onConfirmation(ctx context.Context, state *domain.ConversationState, text string) string {
	if !parser.IsConfirmation(text) {
		state.Reset()
		s.metrics.IncrReservation(observability.OutcomeDeclined)
		return msgDeclined
	}

	answer := s.submit(ctx, state)
	state.Reset()
	return answer
}

func (s *ReservationStrategy) onCorrection(state *domain.ConversationState, text string) string {
	if strings.Trim(parser.Fold(text), " .!¡") == "cancelar reserva" {
		state.Reset()
		s.metrics.IncrReservation(observability.OutcomeCancelled)
		return msgCorrectionCancel
	}
	return addressed("Lo siento", state.FirstName) +
		", no entendí qué quieres corregir. Por favor, especifica qué dato quieres modificar " +
		"(nombre, fecha, hora, personas, teléfono, email) o di \"cancelar reserva\"."
}

// ============================================================
// Envio: cria a reserva e manda o e-mail
// ============================================================

// submit cria a reserva e, com um id devolvido, envia o e-mail de
// confirmação. Nunca devolve erro: toda falha vira texto. O chamador
// reseta o estado depois.
func (s *ReservationStrategy) submit(ctx context.Context, state *domain.ConversationState) string {
	ctx, span := chatTracer.Start(ctx, "ReservationStrategy.submit")
	defer span.End()

	first := state.FirstName
	failure := addressed("Lo siento", first) +
		", hubo un problema al guardar tu reserva. Por favor, contacta al restaurante directamente."

	req, err := buildReservationRequest(state)
	if err != nil {
		s.logger.Warn("reservation not submitted",
			zap.String("session_id", state.SessionID),
			zap.Error(err),
		)
		s.metrics.IncrReservation(observability.OutcomeFailed)
		return failure
	}

	resp, err := s.api.CreateReservation(ctx, req)
	if err == nil && !resp.Success {
		err = fmt.Errorf("reservation rejected: %s", resp.Error)
	}
	if err != nil {
		s.logger.Error("create reservation failed",
			zap.String("session_id", state.SessionID),
			zap.String("restaurant_id", req.RestaurantID),
			zap.Error(err),
		)
		span.RecordError(err)
		s.recordExternalError(err)
		s.metrics.IncrReservation(observability.OutcomeFailed)
		return failure
	}

	s.metrics.IncrReservation(observability.OutcomeBooked)
	s.logger.Info("reservation booked",
		zap.String("session_id", state.SessionID),
		zap.String("restaurant_id", req.RestaurantID),
		zap.String("reservation_id", resp.ID),
	)

	if resp.ID == "" {
		return fmt.Sprintf("¡Reserva confirmada %s! ¿Hay algo más en lo que pueda ayudarte?", first)
	}

	err = s.confirmer.Confirm(ctx, state.SessionID, &domain.ConfirmationRequest{
		ReservationID: resp.ID,
		Email:         req.Email,
		RestaurantID:  req.RestaurantID,
	})
	if err != nil {
		return fmt.Sprintf("¡Reserva confirmada %s! Sin embargo, hubo un problema al enviar el email de confirmación. "+
			"No te preocupes, tu reserva está guardada. Por favor, contacta al restaurante si necesitas los detalles.", first)
	}
	return fmt.Sprintf("¡Perfecto %s! Tu reserva ha sido confirmada y hemos enviado un email de confirmación a %s. "+
		"¿Hay algo más en lo que pueda ayudarte?", first, req.Email)
}

func (s *ReservationStrategy) recordExternalError(err error) {
	var extErr *errdomain.ErrExternalService
	if errors.As(err, &extErr) {
		s.metrics.IncrExternalError(extErr.Service)
	}
}

// buildReservationRequest valida o restaurante e a data e monta o body de
// POST /api/reservas. Um erro aqui significa que nenhuma chamada deve sair.
func buildReservationRequest(state *domain.ConversationState) (*domain.ReservationRequest, error) {
	if state.RestaurantID == "" {
		return nil, &errdomain.ErrValidation{Field: "restaurante_id", Message: "missing"}
	}
	if !parser.IsRestaurantID(state.RestaurantID) {
		return nil, &errdomain.ErrValidation{Field: "restaurante_id", Message: "invalid format"}
	}
	date, ok := parser.NormalizeDate(state.Draft.Date)
	if !ok {
		return nil, &errdomain.ErrValidation{Field: "fecha", Message: "not a valid date"}
	}

	d := state.Draft
	return &domain.ReservationRequest{
		RestaurantID: state.RestaurantID,
		Name:         d.Name,
		Date:         date,
		Time:         d.Time,
		PartySize:    d.PartySize,
		Phone:        parser.NormalizePhone(d.Phone),
		Email:        d.Email,
		Comments:     d.Comments,
		Status:       domain.ReservationStatusConfirmed,
		Origin:       domain.ReservationOriginChatbot,
	}, nil
}

// ============================================================
// Helpers de texto
// ============================================================

func summary(d domain.Draft) string {
	var b strings.Builder
	b.WriteString("Excelente. Por favor, revisa los datos de tu reserva:\n")
	fmt.Fprintf(&b, "Nombre: %s\n", d.Name)
	fmt.Fprintf(&b, "Fecha: %s\n", parser.DisplayDate(d.Date))
	fmt.Fprintf(&b, "Hora: %s\n", d.Time)
	fmt.Fprintf(&b, "Personas: %s\n", d.PartySizeLabel())
	fmt.Fprintf(&b, "Teléfono: %s\n", d.Phone)
	fmt.Fprintf(&b, "Email: %s\n", d.Email)
	if d.Comments != "" {
		fmt.Fprintf(&b, "Comentarios: %s\n", d.Comments)
	}
	fmt.Fprintf(&b, "\n¿Ves todo correcto %s? (Sí/No)", d.Name)
	return b.String()
}

// addressed junta a abertura com o nome, quando existe: "Lo siento, Ana".
func addressed(lead, firstName string) string {
	if firstName == "" {
		return lead
	}
	return lead + ", " + firstName
}

func peopleLabel(n int) string {
	if n == 1 {
		return "1 persona"
	}
	return fmt.Sprintf("%d personas", n)
}

func stepLabel(step domain.Step) string {
	if step == domain.StepNone {
		return "none"
	}
	return string(step)
}
