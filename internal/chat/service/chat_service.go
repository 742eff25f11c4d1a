// Package service: chat_service.go implementa o ChatService.
//
// ============================================================
// ARQUITETURA: Strategy Pattern para Routing de Contexto
// ============================================================
//
// O ChatService é o orquestrador central das rotas POST /v1/chat.
// Ele recebe a mensagem crua do visitante, carrega o estado da sessão,
// detecta a intenção (intent) e delega o processamento para a Strategy
// correta. No final salva o estado de volta.
//
// Fluxo completo:
//  1. Handler recebe POST /v1/chat com body {"query": "...", "action": "..."}
//  2. ChatService.ProcessMessage() é chamado com o id da sessão
//  3. Carrega o ConversationState (SessionStore) e o RestaurantProfile
//  4. Detecta a intenção, nesta ordem:
//     a. reserva em andamento + texto  → "reservation_step"
//     b. ação "iniciar_reserva"         → "reservation_start"
//     c. qualquer outra ação rápida     → "general"
//     d. WantsReservation               → "reservation_start"
//     e. IsAvailabilityQuery            → "availability"
//     f. resto                          → "general"
//  5. Busca a Strategy que aceita o intent e delega
//  6. Salva o estado e devolve a resposta
//
// Strategies disponíveis:
//   - ReservationStrategy: máquina de etapas da reserva
//   - AvailabilityStrategy: pré-consulta de disponibilidade
//   - FAQStrategy: perguntas gerais respondidas com o perfil do restaurante
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/port"
	errdomain "github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// chatTracer é o tracer OpenTelemetry para o módulo de chat.
var chatTracer = otel.Tracer("chat/service")

// ============================================================
// ChatStrategy: interface que cada contexto implementa
// ============================================================

// ChatStrategy define o contrato de uma estratégia de processamento.
//
// CanHandle: diz se essa strategy sabe lidar com a intenção detectada
// Handle:    processa a mensagem e retorna o texto da resposta
type ChatStrategy interface {
	// CanHandle retorna true se essa strategy trata a intenção dada.
	CanHandle(intent string) bool

	// Handle processa a mensagem dentro do contexto dessa strategy.
	// Pode mutar chatCtx.State; o ChatService salva o estado depois.
	Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error)
}

// ============================================================
// ChatService: orquestrador com strategy routing
// ============================================================

// Options agrupa os parâmetros do ChatService que vêm da config.
type Options struct {
	// DefaultRestaurantID é usado quando nem o token, nem o request,
	// nem a sessão trazem um restaurante.
	DefaultRestaurantID string

	// AvailabilityCheckTTL limita por quanto tempo uma pré-consulta
	// de disponibilidade pode pré-preencher uma reserva.
	AvailabilityCheckTTL time.Duration

	// Now é o relógio. nil = time.Now.
	Now func() time.Time

	// Location é o fuso do restaurante: "hoy", "mañana" e datas passadas
	// são calculados nele. nil = fuso do relógio.
	Location *time.Location
}

// ChatService é o serviço principal da rota de chat.
type ChatService struct {
	sessions   port.SessionStore
	directory  port.RestaurantDirectory
	strategies []ChatStrategy

	// locks serializa mensagens da mesma sessão: o estado é lido,
	// mutado e salvo por uma mensagem de cada vez.
	locks *sessionLocks

	opts    Options
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService cria o ChatService com as dependências injetadas.
//
// A ordem de strategies importa: a primeira que aceita a intenção ganha.
func NewChatService(
	sessions port.SessionStore,
	directory port.RestaurantDirectory,
	strategies []ChatStrategy,
	opts Options,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if loc, clock := opts.Location, opts.Now; loc != nil {
		opts.Now = func() time.Time { return clock().In(loc) }
	}
	return &ChatService{
		sessions:   sessions,
		directory:  directory,
		strategies: strategies,
		locks:      newSessionLocks(),
		opts:       opts,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessMessage é o ponto de entrada principal do chat.
//
// Erros de conversa (data inválida, API fora do ar, etc.) viram texto na
// resposta. Só voltam como error: request inválido, falha do SessionStore
// ou falha inesperada de uma strategy.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat.process_message", time.Since(start))
	}()

	if sessionID == "" {
		return nil, &errdomain.ErrValidation{Field: "session_id", Message: "required"}
	}
	query := strings.TrimSpace(req.Query)
	if query == "" && req.Action == "" {
		return nil, &errdomain.ErrValidation{Field: "query", Message: "query or action is required"}
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.loadState(ctx, sessionID, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	intent := s.detectIntent(state, query, req.Action, now)
	span.SetAttributes(
		attribute.String("chat.session_id", sessionID),
		attribute.String("chat.intent", intent),
		attribute.String("chat.step", string(state.Step)),
	)

	s.logger.Info("chat message received",
		zap.String("session_id", sessionID),
		zap.String("restaurant_id", state.RestaurantID),
		zap.String("intent", intent),
		zap.String("step", string(state.Step)),
		zap.Int("query_length", len(query)),
	)
	s.metrics.IncrMessage(intent)

	chatCtx := &domain.ChatContext{
		SessionID:      sessionID,
		Query:          query,
		Action:         req.Action,
		DetectedIntent: intent,
		State:          state,
		Restaurant:     s.resolveRestaurant(ctx, state.RestaurantID),
		Now:            now,
	}

	resp, err := s.dispatch(ctx, chatCtx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	state.UpdatedAt = now
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	resp.SessionID = sessionID
	resp.Step = state.Step
	resp.InProgress = state.InProgress()
	return resp, nil
}

// Welcome devolve a saudação inicial do widget para o restaurante.
func (s *ChatService) Welcome(ctx context.Context, restaurantID string) *domain.WelcomeResponse {
	if restaurantID == "" {
		restaurantID = s.opts.DefaultRestaurantID
	}
	profile := s.resolveRestaurant(ctx, restaurantID)
	return &domain.WelcomeResponse{
		Message:        welcomeMessage(profile),
		RestaurantName: profile.DisplayName(),
	}
}

// Reset descarta o estado da sessão (reserva em andamento, pré-consulta
// e marcadores de e-mail).
func (s *ChatService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &errdomain.ErrValidation{Field: "session_id", Message: "required"}
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.logger.Info("chat session reset", zap.String("session_id", sessionID))
	return nil
}

func (s *ChatService) dispatch(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	for _, strategy := range s.strategies {
		if strategy.CanHandle(chatCtx.DetectedIntent) {
			return strategy.Handle(ctx, chatCtx)
		}
	}
	return nil, fmt.Errorf("no strategy registered for intent %q", chatCtx.DetectedIntent)
}

// loadState carrega o estado da sessão ou cria um novo.
// O restaurante do request (token ou body) tem prioridade sobre o da sessão.
func (s *ChatService) loadState(ctx context.Context, sessionID, restaurantID string) (*domain.ConversationState, error) {
	state, found, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if found {
		s.metrics.IncrCacheHit("session")
	} else {
		s.metrics.IncrCacheMiss("session")
		state = domain.NewConversationState(sessionID, "")
	}

	switch {
	case restaurantID != "":
		state.RestaurantID = restaurantID
	case state.RestaurantID == "":
		state.RestaurantID = s.opts.DefaultRestaurantID
	}
	return state, nil
}

// resolveRestaurant busca o perfil no diretório. Um id desconhecido não
// impede a conversa: o perfil mínimo só carrega o id.
func (s *ChatService) resolveRestaurant(ctx context.Context, restaurantID string) *domain.RestaurantProfile {
	if s.directory != nil && restaurantID != "" {
		profile, err := s.directory.Get(ctx, restaurantID)
		if err == nil {
			return profile
		}
		s.logger.Debug("restaurant profile not found, using minimal profile",
			zap.String("restaurant_id", restaurantID),
			zap.Error(err),
		)
	}
	return &domain.RestaurantProfile{ID: restaurantID}
}

// detectIntent decide a rota da mensagem. Uma reserva em andamento
// captura todo texto; uma ação rápida sozinha não avança etapas.
// Uma etapa desconhecida sempre vai para a reserva, que reseta o estado.
func (s *ChatService) detectIntent(state *domain.ConversationState, query, action string, now time.Time) string {
	switch {
	case !state.Step.Valid():
		return domain.IntentReservationStep
	case state.InProgress() && query != "":
		return domain.IntentReservationStep
	case action == domain.ActionStartReservation:
		return domain.IntentReservationStart
	case action != "":
		return domain.IntentGeneral
	case parser.WantsReservation(query, state.HasPendingAvailabilityCheck(now, s.opts.AvailabilityCheckTTL)):
		return domain.IntentReservationStart
	case parser.IsAvailabilityQuery(query):
		return domain.IntentAvailability
	default:
		return domain.IntentGeneral
	}
}

func welcomeMessage(profile *domain.RestaurantProfile) string {
	if profile.WelcomeMessage != "" {
		return profile.WelcomeMessage
	}
	return fmt.Sprintf("¡Hola! Soy el asistente virtual de %s. ¿En qué puedo ayudarte hoy? "+
		"Puedes preguntarme sobre nuestro menú, horarios, o hacer una reserva.", profile.DisplayName())
}
