package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"

	"go.uber.org/zap"
)

func faqProfile() *domain.RestaurantProfile {
	return &domain.RestaurantProfile{
		ID:             testRestaurantID,
		Name:           "Gandolfo Restó",
		Address:        "Av. Siempre Viva 742",
		Phone:          "11 5555-0000",
		GoogleMapsLink: "https://maps.example/gandolfo",
		OpeningHours: map[string]domain.DayHours{
			"lunes":  {Closed: true},
			"martes": {Open: "12:00", Close: "23:00", Note: "cocina hasta 22:30"},
		},
		Menu: domain.MenuData{
			LunchToday:  []domain.Dish{{Name: "Ñoquis", Price: 8500}, {Name: "Ensalada"}},
			DinnerToday: []domain.Dish{{Name: "Bife de chorizo", Price: 15000}},
			Vegan:       &domain.SpecialMenu{Description: "Todo de origen vegetal.", Drinks: []string{"Limonada"}},
		},
		PaymentMethods: []string{"Efectivo", "MercadoPago"},
	}
}

func faqAnswer(query, action string, hour int, firstName string) string {
	s := service.NewFAQStrategy(zap.NewNop())
	state := domain.NewConversationState("s1", testRestaurantID)
	state.FirstName = firstName
	return s.Answer(&domain.ChatContext{
		Query:      query,
		Action:     action,
		State:      state,
		Restaurant: faqProfile(),
		Now:        time.Date(2025, 6, 10, hour, 0, 0, 0, time.UTC),
	})
}

func TestFAQStrategy_Answer(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		action   string
		hour     int
		first    string
		contains []string
		excludes []string
	}{
		{name: "greeting", query: "Hola!", contains: []string{"¡Hola! ¿En qué puedo ayudarte?"}},
		{name: "greeting with name", query: "buenas", first: "Ana", contains: []string{"¡Hola de nuevo, Ana!"}},
		{name: "thanks", query: "gracias", contains: []string{"De nada."}},
		{name: "lunch by hour", query: "qué hay en el menú?", hour: 13, contains: []string{"almuerzo", "Ñoquis: $8500", "Ensalada: Precio no disponible"}},
		{name: "dinner by hour", query: "menu", hour: 20, contains: []string{"cena", "Bife de chorizo: $15000"}, excludes: []string{"Ñoquis"}},
		{name: "explicit shift", query: "menu de la cena", hour: 13, contains: []string{"Bife de chorizo"}},
		{name: "tomorrow menu", query: "el menú de mañana", contains: []string{"solo puedo mostrarte el menú de hoy"}},
		{name: "quick action menu", action: domain.ActionShowMenu, hour: 12, contains: []string{"Ñoquis"}},
		{name: "hours", query: "¿qué horario tienen?", contains: []string{"- Lunes: Cerrado", "- Martes: 12:00 a 23:00 (cocina hasta 22:30)"}, excludes: []string{"Miércoles"}},
		{name: "address", query: "¿dónde están?", contains: []string{"de \"Gandolfo Restó\"", "Dirección: Av. Siempre Viva 742", "Teléfono: 11 5555-0000"}},
		{name: "how to get there", query: "¿cómo llego?", contains: []string{"Cómo llegar", "https://maps.example/gandolfo"}},
		{name: "location action", action: domain.ActionShowLocation, contains: []string{"Nuestra dirección es: Av. Siempre Viva 742."}},
		{name: "vegan", query: "tienen opciones para veganos?", contains: []string{"Menú Especial: Vegano", "Todo de origen vegetal.", "Bebidas:", "• Limonada"}},
		{name: "gluten free missing", query: "algo sin TACC?", contains: []string{"no tengo información sobre el menú sin TACC"}},
		{name: "vegetarian missing", query: "menú vegetariano?", hour: 21, contains: []string{"Bife de chorizo"}},
		{name: "special menu action without type", action: domain.ActionShowSpecialMenu, contains: []string{"No estoy seguro de qué tipo de menú especial"}},
		{name: "payments", query: "aceptan tarjeta?", contains: []string{"- Efectivo\n- MercadoPago"}},
		{name: "prices", query: "cuál es el precio?", contains: []string{"Los precios están detallados en nuestro menú del día"}},
		{name: "delivery", query: "hacen delivery?", contains: []string{"llamando al 11 5555-0000"}},
		{name: "relevant fallback", query: "tienen wifi?", contains: []string{"aún estoy aprendiendo"}},
		{name: "unknown", query: "xyzzy", contains: []string{"no pude entender tu consulta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := faqAnswer(tt.query, tt.action, tt.hour, tt.first)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in answer, got %q", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("did not expect %q in answer, got %q", unwanted, got)
				}
			}
		})
	}
}

func TestFAQStrategy_EmptyProfile(t *testing.T) {
	s := service.NewFAQStrategy(zap.NewNop())
	ctx := &domain.ChatContext{
		Query:      "qué horarios tienen?",
		State:      domain.NewConversationState("s1", ""),
		Restaurant: &domain.RestaurantProfile{},
		Now:        time.Now(),
	}

	if got := s.Answer(ctx); !strings.Contains(got, "- Domingo: 12:00 a 23:00") {
		t.Errorf("expected default hours, got %q", got)
	}

	ctx.Query = "menu"
	if got := s.Answer(ctx); !strings.Contains(got, "no tengo disponible la información del menú") {
		t.Errorf("expected missing menu answer, got %q", got)
	}
}
