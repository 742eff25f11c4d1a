package domain

import (
	"strconv"
	"time"
)

// ============================================================
// Step: etapas da conversa de reserva
// ============================================================

// Step identifica a etapa da reserva que aguarda um campo.
// StepNone ("") significa que não há reserva em andamento.
type Step string

const (
	StepNone         Step = ""
	StepName         Step = "name"
	StepDate         Step = "date"
	StepTime         Step = "time"
	StepPartySize    Step = "party_size"
	StepPhone        Step = "phone"
	StepEmail        Step = "email"
	StepComments     Step = "comments"
	StepConfirmation Step = "confirmation"
	StepCorrection   Step = "correction"
)

// Valid reporta se s é uma das etapas conhecidas (incluindo StepNone).
// Um valor inválido só aparece quando o estado salvo foi corrompido ou
// veio de uma versão antiga do BFA.
func (s Step) Valid() bool {
	switch s {
	case StepNone, StepName, StepDate, StepTime, StepPartySize, StepPhone,
		StepEmail, StepComments, StepConfirmation, StepCorrection:
		return true
	}
	return false
}

// ============================================================
// Draft: a reserva parcialmente preenchida
// ============================================================

// Draft é o rascunho da reserva. Os campos são preenchidos na ordem das
// etapas, exceto Date/PartySize que podem vir de uma consulta de
// disponibilidade anterior.
type Draft struct {
	Name string `json:"nombre,omitempty"`

	// Date é sempre canônica (YYYY-MM-DD).
	Date string `json:"fecha,omitempty"`

	// Time é guardado literalmente ("20:00", "21 hs", ...).
	Time string `json:"hora,omitempty"`

	// PartySize é 0 quando o texto não tinha número reconhecível;
	// nesse caso PartySizeText guarda o texto original.
	PartySize     int    `json:"personas,omitempty"`
	PartySizeText string `json:"personas_texto,omitempty"`

	Phone    string `json:"telefono,omitempty"`
	Email    string `json:"email,omitempty"`
	Comments string `json:"comentarios,omitempty"`
}

// HasDate reporta se a data já foi preenchida.
func (d Draft) HasDate() bool { return d.Date != "" }

// HasPartySize reporta se a quantidade de pessoas já foi preenchida.
func (d Draft) HasPartySize() bool { return d.PartySize > 0 }

// PartySizeLabel devolve a quantidade de pessoas como o visitante vê.
func (d Draft) PartySizeLabel() string {
	if d.PartySize > 0 {
		return strconv.Itoa(d.PartySize)
	}
	return d.PartySizeText
}

// ============================================================
// AvailabilityCheck: resultado de uma pré-consulta
// ============================================================

// AvailabilityCheck guarda os parâmetros de uma consulta de disponibilidade
// bem-sucedida, para reaproveitar se o visitante decidir reservar logo em seguida.
type AvailabilityCheck struct {
	Date        string    `json:"fecha"`
	PartySize   int       `json:"personas"`
	DisplayDate string    `json:"fecha_formateada"`
	CheckedAt   time.Time `json:"checked_at"`
}

// ============================================================
// ConversationState: estado por sessão
// ============================================================

// ConversationState é o estado de uma sessão do widget. É carregado do
// SessionStore a cada mensagem e salvo de volta no final.
//
// Invariante: InProgress() == (Step != StepNone).
type ConversationState struct {
	SessionID    string `json:"session_id"`
	RestaurantID string `json:"restaurant_id,omitempty"`

	Step  Step  `json:"step"`
	Draft Draft `json:"draft"`

	// FirstName é o primeiro token do nome, usado nas respostas.
	FirstName string `json:"first_name,omitempty"`

	LastAvailabilityCheck *AvailabilityCheck `json:"last_availability_check,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState cria o estado inicial de uma sessão.
func NewConversationState(sessionID, restaurantID string) *ConversationState {
	return &ConversationState{
		SessionID:    sessionID,
		RestaurantID: restaurantID,
		Step:         StepNone,
	}
}

// InProgress reporta se há uma reserva em andamento.
func (s *ConversationState) InProgress() bool {
	return s.Step != StepNone
}

// Begin inicia uma reserva nova: rascunho vazio, etapa "name".
func (s *ConversationState) Begin() {
	s.Draft = Draft{}
	s.FirstName = ""
	s.Step = StepName
}

// Reset descarta a reserva em andamento (envio, cancelamento ou erro).
func (s *ConversationState) Reset() {
	s.Draft = Draft{}
	s.FirstName = ""
	s.Step = StepNone
}

// RecordAvailabilityCheck guarda o resultado de uma pré-consulta bem-sucedida.
func (s *ConversationState) RecordAvailabilityCheck(check AvailabilityCheck) {
	c := check
	s.LastAvailabilityCheck = &c
}

// ConsumeAvailabilityCheck devolve a última pré-consulta e a remove do estado.
// Uma consulta mais velha que ttl é descartada e nil é devolvido.
// ttl <= 0 desliga a expiração.
func (s *ConversationState) ConsumeAvailabilityCheck(now time.Time, ttl time.Duration) *AvailabilityCheck {
	check := s.LastAvailabilityCheck
	s.LastAvailabilityCheck = nil
	if check == nil {
		return nil
	}
	if ttl > 0 && now.Sub(check.CheckedAt) > ttl {
		return nil
	}
	return check
}

// HasPendingAvailabilityCheck reporta se existe uma pré-consulta ainda válida.
func (s *ConversationState) HasPendingAvailabilityCheck(now time.Time, ttl time.Duration) bool {
	if s.LastAvailabilityCheck == nil {
		return false
	}
	return ttl <= 0 || now.Sub(s.LastAvailabilityCheck.CheckedAt) <= ttl
}

// Clone devolve uma cópia profunda do estado.
func (s *ConversationState) Clone() *ConversationState {
	c := *s
	if s.LastAvailabilityCheck != nil {
		check := *s.LastAvailabilityCheck
		c.LastAvailabilityCheck = &check
	}
	return &c
}

// ============================================================
// EmailMarker: idempotência do e-mail de confirmação
// ============================================================

// EmailMarker é o estado do e-mail de confirmação de uma reserva,
// guardado por sessão e chaveado pelo id da reserva.
type EmailMarker string

const (
	EmailUnsent  EmailMarker = "unsent"
	EmailSending EmailMarker = "sending"
	EmailSent    EmailMarker = "sent"
)
