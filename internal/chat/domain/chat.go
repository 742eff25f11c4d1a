// Package domain: chat.go define os tipos usados pelas rotas POST /v1/chat
// e POST /v1/chat/{sessionId}, a porta de entrada do widget de reservas.
//
// O fluxo completo:
//  1. O widget manda a mensagem crua do visitante → BFA recebe
//  2. BFA carrega o ConversationState da sessão (SessionStore)
//  3. Se há reserva em andamento, a mensagem vai direto pra máquina de etapas
//  4. Senão, os classificadores decidem: iniciar reserva, consulta de
//     disponibilidade ou pergunta geral (FAQ)
//  5. BFA salva o estado e devolve somente o texto da resposta
package domain

import "time"

// ============================================================
// Chat: Request/Response entre o widget e o BFA
// ============================================================

// ChatRequest é o body que o widget envia no POST /v1/chat.
type ChatRequest struct {
	// Query é a mensagem do visitante, exatamente como foi digitada.
	Query string `json:"query"`

	// Action vem dos botões de ação rápida do widget (ex: "iniciar_reserva",
	// "ver_menu"). Opcional.
	Action string `json:"action,omitempty"`

	// RestaurantID é o restaurante configurado na página que embute o widget.
	// Quando existe um widget token válido, o token tem prioridade.
	RestaurantID string `json:"restaurant_id,omitempty"`
}

// ChatResponse é o que o BFA devolve pro widget.
type ChatResponse struct {
	Answer     string `json:"answer"`
	SessionID  string `json:"session_id,omitempty"`
	Step       Step   `json:"step,omitempty"`
	InProgress bool   `json:"in_progress"`
}

// WelcomeResponse é a saudação inicial do widget (GET /v1/chat/welcome).
type WelcomeResponse struct {
	Message        string `json:"message"`
	RestaurantName string `json:"restaurant_name"`
}

// Ações rápidas aceitas em ChatRequest.Action.
const (
	ActionStartReservation = "iniciar_reserva"
	ActionShowMenu         = "ver_menu"
	ActionShowHours        = "ver_horarios"
	ActionShowLocation     = "ver_ubicacion"
	ActionShowSpecialMenu  = "ver_menu_especial"
)

// Intenções detectadas pelo roteador do ChatService.
const (
	IntentReservationStep  = "reservation_step"
	IntentReservationStart = "reservation_start"
	IntentAvailability     = "availability"
	IntentGeneral          = "general"
)

// ============================================================
// Strategy Context: define qual strategy processa a mensagem
// ============================================================

// ChatContext encapsula tudo que uma Strategy precisa para processar
// uma mensagem. É montado pelo ChatService antes de delegar.
type ChatContext struct {
	SessionID string

	// Query é a mensagem original do visitante
	Query string

	// Action é a ação rápida (pode ser vazia)
	Action string

	// DetectedIntent é a intenção decidida pelo roteador
	DetectedIntent string

	// State é o estado da conversa. A strategy de reserva é a única que
	// escreve Draft e Step.
	State *ConversationState

	// Restaurant é a configuração da sessão (nome, endereço, horários, menu)
	Restaurant *RestaurantProfile

	// Now é o instante de referência para parse de datas e validade da
	// última consulta de disponibilidade.
	Now time.Time
}
