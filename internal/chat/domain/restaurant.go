package domain

// ============================================================
// RestaurantProfile: configuração da sessão
// ============================================================
//
// O widget é embutido na página de um restaurante. Tudo que o bot sabe
// responder fora da reserva (horários, menu, endereço, formas de pagamento)
// vem daqui. O perfil é somente leitura para o chat.

// RestaurantProfile é a configuração de um restaurante atendido pelo widget.
type RestaurantProfile struct {
	ID      string `mapstructure:"id" json:"id"`
	Name    string `mapstructure:"nombre" json:"nombre"`
	Address string `mapstructure:"direccion" json:"direccion,omitempty"`

	Phone    string `mapstructure:"telefono" json:"telefono,omitempty"`
	Email    string `mapstructure:"email" json:"email,omitempty"`
	WhatsApp string `mapstructure:"whatsapp" json:"whatsapp,omitempty"`

	GoogleMapsLink string `mapstructure:"google_maps_link" json:"google_maps_link,omitempty"`
	Directions     string `mapstructure:"directions_description" json:"directions_description,omitempty"`

	// WelcomeMessage substitui a saudação padrão quando preenchido.
	WelcomeMessage string `mapstructure:"welcome_message" json:"welcome_message,omitempty"`

	// OpeningHours é indexado pelo dia em espanhol, minúsculo e sem acento
	// ("lunes", "martes", ..., "sabado", "domingo").
	OpeningHours map[string]DayHours `mapstructure:"horarios" json:"horarios,omitempty"`

	Menu MenuData `mapstructure:"menu" json:"menu"`

	PaymentMethods []string `mapstructure:"formas_pago" json:"formas_pago,omitempty"`
	Delivery       string   `mapstructure:"delivery" json:"delivery,omitempty"`
	PriceInfo      string   `mapstructure:"precios" json:"precios,omitempty"`
}

// DayHours é o horário de um dia da semana.
type DayHours struct {
	Open   string `mapstructure:"apertura" json:"apertura,omitempty"`
	Close  string `mapstructure:"cierre" json:"cierre,omitempty"`
	Closed bool   `mapstructure:"cerrado" json:"cerrado,omitempty"`
	Note   string `mapstructure:"nota" json:"nota,omitempty"`
}

// Dish é um prato com preço opcional (0 = sem preço publicado).
type Dish struct {
	Name        string  `mapstructure:"nombre" json:"nombre"`
	Description string  `mapstructure:"descripcion" json:"descripcion,omitempty"`
	Price       float64 `mapstructure:"precio" json:"precio,omitempty"`
}

// SpecialMenu é um menu dietético (sem TACC, vegetariano, vegano).
type SpecialMenu struct {
	Description string   `mapstructure:"descripcion_general" json:"descripcion_general,omitempty"`
	MainDishes  []Dish   `mapstructure:"platos_principales" json:"platos_principales,omitempty"`
	Desserts    []Dish   `mapstructure:"postres" json:"postres,omitempty"`
	Breads      []string `mapstructure:"panificados" json:"panificados,omitempty"`
	Drinks      []string `mapstructure:"bebidas" json:"bebidas,omitempty"`
}

// Empty reporta se o menu não tem nada para mostrar.
func (m *SpecialMenu) Empty() bool {
	return m == nil || (m.Description == "" && len(m.MainDishes) == 0 &&
		len(m.Desserts) == 0 && len(m.Breads) == 0 && len(m.Drinks) == 0)
}

// MenuData é o menu publicado pelo restaurante. Só o menu de hoje é servido.
type MenuData struct {
	LunchToday  []Dish `mapstructure:"almuerzo_hoy" json:"almuerzo_hoy,omitempty"`
	DinnerToday []Dish `mapstructure:"cena_hoy" json:"cena_hoy,omitempty"`

	GlutenFree *SpecialMenu `mapstructure:"menu_sin_tacc" json:"menu_sin_tacc,omitempty"`
	Vegetarian *SpecialMenu `mapstructure:"vegetariano" json:"vegetariano,omitempty"`
	Vegan      *SpecialMenu `mapstructure:"vegano" json:"vegano,omitempty"`
}

// WeekDays lista os dias na ordem em que o bot os apresenta.
var WeekDays = []string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"}

// DefaultOpeningHours é usado quando o perfil não publica horários.
func DefaultOpeningHours() map[string]DayHours {
	hours := make(map[string]DayHours, len(WeekDays))
	for _, d := range WeekDays {
		hours[d] = DayHours{Open: "12:00", Close: "23:00"}
	}
	return hours
}

// DisplayName devolve o nome do restaurante ou um genérico.
func (p *RestaurantProfile) DisplayName() string {
	if p == nil || p.Name == "" {
		return "nuestro restaurante"
	}
	return p.Name
}

// Hours devolve os horários publicados ou o padrão.
func (p *RestaurantProfile) Hours() map[string]DayHours {
	if p == nil || len(p.OpeningHours) == 0 {
		return DefaultOpeningHours()
	}
	return p.OpeningHours
}

// ============================================================
// API de reservas: contratos JSON (POST /api/reservas/...)
// ============================================================

// AvailabilityRequest é o body de POST /api/reservas/validar_disponibilidad.
type AvailabilityRequest struct {
	RestaurantID string `json:"restaurante_id"`
	Date         string `json:"fecha"`
	Time         string `json:"hora"`
	PartySize    int    `json:"personas"`
}

// AvailabilityResponse é a resposta da consulta de disponibilidade.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// Valores fixos enviados com toda reserva criada pelo chat.
const (
	ReservationStatusConfirmed = "confirmada"
	ReservationOriginChatbot   = "chatbot"
)

// ReservationRequest é o body de POST /api/reservas.
type ReservationRequest struct {
	RestaurantID string `json:"restaurante_id"`
	Name         string `json:"nombre"`
	Date         string `json:"fecha"`
	Time         string `json:"hora"`
	PartySize    int    `json:"personas"`
	Phone        string `json:"telefono"`
	Email        string `json:"email"`
	Comments     string `json:"comentarios"`
	Status       string `json:"estado"`
	Origin       string `json:"origen"`
}

// ReservationResponse é a resposta de POST /api/reservas.
type ReservationResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ConfirmationRequest é o body de POST /api/reservas/enviar-confirmacion.
type ConfirmationRequest struct {
	ReservationID string `json:"reserva_id"`
	Email         string `json:"email"`
	RestaurantID  string `json:"restaurante_id"`
}

// ConfirmationResponse é a resposta do envio de e-mail.
type ConfirmationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
