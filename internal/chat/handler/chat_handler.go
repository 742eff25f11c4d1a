// Package handler: chat_handler.go implementa as rotas do widget de reservas.
//
// ============================================================
// ROTAS DO CHAT
// ============================================================
//
// POST   /v1/chat              →  widget no navegador
//   - O id da sessão vem do cookie assinado "chat_session"
//   - Sem cookie (ou cookie inválido) → nova sessão com uuid e Set-Cookie
//
// POST   /v1/chat/{sessionId}  →  clientes sem cookie (CLI, integrações)
//   - O id da sessão vem da URL e precisa ser um uuid
//
// GET    /v1/chat/welcome      →  saudação inicial do widget
// DELETE /v1/chat/{sessionId}  →  descarta o estado da sessão
//
// Body das rotas POST:
//
//	{"query": "quiero reservar", "action": "iniciar_reserva", "restaurant_id": "..."}
//
// Resposta:
//
//	{"answer": "...", "session_id": "...", "step": "name", "in_progress": true}
//
// O restaurante do widget token (quando existe) tem prioridade sobre o
// restaurant_id do body.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"
	maindomain "github.com/hernanbl/gandolfo-recordatorios/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/handler.
var tracer = otel.Tracer("chat/handler")

// maxBodyBytes limita o body das mensagens do widget.
const maxBodyBytes = 16 << 10

// ============================================================
// ChatHandler: POST /v1/chat (sessão por cookie)
// ============================================================

// ChatHandler retorna o http.HandlerFunc da rota POST /v1/chat.
func ChatHandler(chatSvc *service.ChatService, cookies *SessionCookies, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		sessionID, ok := cookies.SessionID(r)
		if !ok {
			sessionID = uuid.NewString()
			if err := cookies.Issue(w, sessionID); err != nil {
				logger.Error("failed to issue session cookie", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			logger.Debug("new chat session", zap.String("session_id", sessionID))
		}
		span.SetAttributes(attribute.String("chat.session_id", sessionID))

		req, err := decodeChatRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := chatSvc.ProcessMessage(ctx, sessionID, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// ChatSessionHandler: POST /v1/chat/{sessionId}
// ============================================================

// ChatSessionHandler retorna o handler da rota com sessão explícita na URL.
func ChatSessionHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/{sessionId}")
		defer span.End()

		sessionID, err := sessionIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("chat.session_id", sessionID))

		req, err := decodeChatRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := chatSvc.ProcessMessage(ctx, sessionID, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// WelcomeHandler retorna o handler de GET /v1/chat/welcome.
func WelcomeHandler(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/welcome")
		defer span.End()

		restaurantID := domain.RestaurantIDFromContext(ctx)
		if restaurantID == "" {
			restaurantID = r.URL.Query().Get("restaurant_id")
		}
		writeJSON(w, http.StatusOK, chatSvc.Welcome(ctx, restaurantID))
	}
}

// ResetHandler retorna o handler de DELETE /v1/chat/{sessionId}.
// Se o cookie do navegador aponta para a mesma sessão, ele também é apagado.
func ResetHandler(chatSvc *service.ChatService, cookies *SessionCookies, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/chat/{sessionId}")
		defer span.End()

		sessionID, err := sessionIDParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := chatSvc.Reset(ctx, sessionID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if current, ok := cookies.SessionID(r); ok && current == sessionID {
			cookies.Clear(w)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Helpers: funções utilitárias do chat handler
// ============================================================

func decodeChatRequest(r *http.Request) (*domain.ChatRequest, error) {
	var req domain.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, &maindomain.ErrValidation{Field: "body", Message: `invalid request body: expected {"query": "your message"}`}
	}
	if id := domain.RestaurantIDFromContext(r.Context()); id != "" {
		req.RestaurantID = id
	}
	return &req, nil
}

func sessionIDParam(r *http.Request) (string, error) {
	sessionID := chi.URLParam(r, "sessionId")
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", &maindomain.ErrValidation{Field: "sessionId", Message: "must be a UUID"}
	}
	return sessionID, nil
}

// writeJSON serializa data como JSON e escreve na response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError escreve uma resposta de erro padronizada.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError mapeia erros de domínio para HTTP status codes.
// Erros de conversa nunca chegam aqui: viram texto na resposta.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *maindomain.ErrValidation
	var unauthorized *maindomain.ErrUnauthorized
	var rateLimited *maindomain.ErrRateLimited
	var circuitOpen *maindomain.ErrCircuitOpen
	var timeout *maindomain.ErrTimeout
	var external *maindomain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &rateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(external.Err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+external.Service)
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
