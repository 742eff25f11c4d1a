package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"

	"go.uber.org/zap"
)

// ============================================================
// FAQStrategy: perguntas gerais sobre o restaurante
// ============================================================

// FAQStrategy responde tudo que não é reserva nem disponibilidade com os
// dados do RestaurantProfile: menu do dia, horários, contato, como chegar,
// menus especiais, pagamento, preços e delivery. Não chama a API.
type FAQStrategy struct {
	logger *zap.Logger
}

// NewFAQStrategy cria a FAQStrategy.
func NewFAQStrategy(logger *zap.Logger) *FAQStrategy {
	return &FAQStrategy{logger: logger}
}

func (s *FAQStrategy) CanHandle(intent string) bool {
	return intent == domain.IntentGeneral
}

func (s *FAQStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	_, span := chatTracer.Start(ctx, "FAQStrategy.Handle")
	defer span.End()

	answer := s.Answer(chatCtx)
	if answer == "" {
		answer = "Lo siento, no pude procesar tu consulta en este momento. ¿Podrías intentarlo de otra manera?"
	}
	return &domain.ChatResponse{Answer: answer}, nil
}

// Answer escolhe a resposta. Ação rápida primeiro, depois palavras-chave
// na ordem abaixo; a primeira que casa ganha.
func (s *FAQStrategy) Answer(chatCtx *domain.ChatContext) string {
	p := chatCtx.Restaurant
	if p == nil {
		p = &domain.RestaurantProfile{}
	}
	q := chatCtx.Query
	first := chatCtx.State.FirstName

	switch chatCtx.Action {
	case domain.ActionShowMenu:
		return menuOfTheDay(p, chatCtx.Now.Hour(), "", false)
	case domain.ActionShowHours:
		return openingHours(p)
	case domain.ActionShowLocation:
		return directions(p)
	case domain.ActionShowSpecialMenu:
		return specialMenu(p, q)
	case "":
	default:
		s.logger.Debug("unknown quick action", zap.String("action", chatCtx.Action))
	}

	switch {
	case parser.Mentions(q, "hola", "buen", "buenas"):
		if first != "" {
			return fmt.Sprintf("¡Hola de nuevo, %s! ¿En qué puedo ayudarte?", first)
		}
		return "¡Hola! ¿En qué puedo ayudarte?"
	case parser.Mentions(q, "chau", "gracias"):
		if first != "" {
			return fmt.Sprintf("De nada, %s. ¡Que tengas un buen día!", first)
		}
		return "De nada. ¡Que tengas un buen día!"
	case parser.Mentions(q, "menu", "plato", "comida"):
		shift := ""
		if parser.Mentions(q, "almuerzo") {
			shift = "almuerzo"
		} else if parser.Mentions(q, "cena") {
			shift = "cena"
		}
		return menuOfTheDay(p, chatCtx.Now.Hour(), shift, parser.Mentions(q, "mañana"))
	case parser.Mentions(q, "horario"):
		return openingHours(p)
	case parser.Mentions(q, "llego"):
		return directions(p)
	case parser.Mentions(q, "ubicacion", "ubicados", "direccion", "donde"):
		return contactInfo(p)
	case parser.Mentions(q, "contacto", "telefono", "email", "whatsapp"):
		return contactInfo(p)
	case parser.Mentions(q, "tacc", "gluten", "celiaco", "vegetariano", "vegano"):
		return specialMenu(p, q)
	case parser.Mentions(q, "pago", "tarjeta", "efectivo", "mercadopago"):
		return paymentMethods(p)
	case parser.Mentions(q, "precio", "costo"):
		if p.PriceInfo != "" {
			return p.PriceInfo
		}
		return "Los precios están detallados en nuestro menú del día. ¿Te gustaría ver el menú?"
	case parser.Mentions(q, "delivery", "llevar", "pedido"):
		return delivery(p)
	case parser.IsRelevantQuery(q):
		return "Disculpa, aún estoy aprendiendo. Por ahora puedo ayudarte con información sobre:\n" +
			"- Nuestro menú del día\n" +
			"- Horarios de atención\n" +
			"- Ubicación y contacto\n" +
			"- Reservas\n" +
			"- Opciones de menú especial (sin TACC, vegetariano, vegano)"
	default:
		return "Lo siento, no pude entender tu consulta. ¿Podrías reformularla? " +
			"Puedo ayudarte con información sobre el menú, horarios, ubicación o hacer una reserva."
	}
}

// ============================================================
// Respostas montadas a partir do perfil
// ============================================================

var dayNames = map[string]string{
	"lunes": "Lunes", "martes": "Martes", "miercoles": "Miércoles", "jueves": "Jueves",
	"viernes": "Viernes", "sabado": "Sábado", "domingo": "Domingo",
}

// menuOfTheDay só serve o menu de hoje. O turno vem da pergunta ou da
// hora: 11h a 16h é almoço, o resto é jantar.
func menuOfTheDay(p *domain.RestaurantProfile, hour int, shift string, tomorrow bool) string {
	if len(p.Menu.LunchToday) == 0 && len(p.Menu.DinnerToday) == 0 {
		return "Lo siento, no tengo disponible la información del menú en este momento."
	}
	if tomorrow {
		return "Lo siento, por el momento solo puedo mostrarte el menú de hoy. ¿Te gustaría ver el menú de hoy?"
	}
	if shift == "" {
		shift = "cena"
		if hour >= 11 && hour < 16 {
			shift = "almuerzo"
		}
	}

	dishes := p.Menu.DinnerToday
	if shift == "almuerzo" {
		dishes = p.Menu.LunchToday
	}
	if len(dishes) == 0 {
		return fmt.Sprintf("Lo siento, no tengo disponible el menú de %s para hoy.", shift)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "El menú de %s para hoy es:\n\n", shift)
	for _, d := range dishes {
		name := d.Name
		if name == "" {
			name = "Plato sin nombre"
		}
		price := "Precio no disponible"
		if d.Price > 0 {
			price = formatPrice(d.Price)
		}
		fmt.Fprintf(&b, "• %s: %s\n", name, price)
	}
	b.WriteString("\nAdicionalmente, contamos con opciones para dietas especiales. " +
		"¿Necesitas información sobre menú sin TACC, vegetariano o vegano?")
	return b.String()
}

func openingHours(p *domain.RestaurantProfile) string {
	var b strings.Builder
	b.WriteString("⏰ Horarios de atención:\n")
	hours := p.Hours()
	for _, day := range domain.WeekDays {
		h, ok := hours[day]
		if !ok {
			continue
		}
		switch {
		case h.Closed:
			fmt.Fprintf(&b, "- %s: Cerrado\n", dayNames[day])
		case h.Open != "" && h.Close != "":
			fmt.Fprintf(&b, "- %s: %s a %s", dayNames[day], h.Open, h.Close)
			if h.Note != "" {
				fmt.Fprintf(&b, " (%s)", h.Note)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func contactInfo(p *domain.RestaurantProfile) string {
	if p.Address == "" && p.Phone == "" && p.Email == "" && p.WhatsApp == "" {
		return "Por el momento no puedo brindarte la información de contacto. Por favor, intenta más tarde."
	}

	whose := "del restaurante"
	if p.Name != "" {
		whose = fmt.Sprintf("de %q", p.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Información de contacto y ubicación %s:\n\n", whose)
	if p.Address != "" {
		fmt.Fprintf(&b, "📍 Dirección: %s\n\n", p.Address)
	}
	if p.Phone != "" {
		fmt.Fprintf(&b, "📞 Teléfono: %s\n", p.Phone)
	}
	if p.Email != "" {
		fmt.Fprintf(&b, "📧 Email: %s\n", p.Email)
	}
	if p.WhatsApp != "" {
		fmt.Fprintf(&b, "📱 WhatsApp: %s\n", p.WhatsApp)
	}
	return strings.TrimRight(b.String(), "\n")
}

func directions(p *domain.RestaurantProfile) string {
	var parts []string
	if p.Address != "" {
		parts = append(parts, fmt.Sprintf("Nuestra dirección es: %s.", p.Address))
	}
	if p.GoogleMapsLink != "" {
		parts = append(parts, fmt.Sprintf("Puedes encontrarnos en Google Maps aquí: %s", p.GoogleMapsLink))
	}
	if p.Directions != "" {
		parts = append(parts, p.Directions)
	}
	if len(parts) == 0 {
		return "No tengo instrucciones detalladas sobre cómo llegar en este momento, " +
			"pero nuestra dirección y detalles de contacto están disponibles. Pregunta por 'contacto'."
	}
	return "🗺️ Cómo llegar:\n\n" + strings.Join(parts, "\n\n")
}

// specialMenu escolhe o menu pelo texto da pergunta.
func specialMenu(p *domain.RestaurantProfile, query string) string {
	var (
		menu  *domain.SpecialMenu
		title string
	)
	switch {
	case parser.Mentions(query, "tacc", "celiac", "gluten"):
		menu, title = p.Menu.GlutenFree, "Sin TACC / Celíaco"
		if menu.Empty() {
			return "Lo siento, en este momento no tengo información sobre el menú sin TACC. " +
				"Por favor, consulta directamente con nuestro personal."
		}
	case parser.Mentions(query, "vegetarian"):
		menu, title = p.Menu.Vegetarian, "Vegetariano"
	case parser.Mentions(query, "vegan"):
		menu, title = p.Menu.Vegan, "Vegano"
	default:
		return "No estoy seguro de qué tipo de menú especial necesitas. " +
			"¿Podrías especificar si es para celíacos (sin TACC), vegetariano o vegano?"
	}

	if menu.Empty() {
		return fmt.Sprintf("No tengo detalles específicos para el menú %s en este momento, "+
			"pero puedes consultar con nuestro personal.", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Menú Especial: %s\n\n", title)
	if menu.Description != "" {
		b.WriteString(menu.Description + "\n\n")
	}
	writeDishes(&b, "Platos Principales", menu.MainDishes)
	writeDishes(&b, "Postres", menu.Desserts)
	writeItems(&b, "Panificados", menu.Breads)
	writeItems(&b, "Bebidas", menu.Drinks)
	return strings.TrimRight(b.String(), "\n")
}

func writeDishes(b *strings.Builder, title string, dishes []domain.Dish) {
	if len(dishes) == 0 {
		return
	}
	b.WriteString(title + ":\n")
	for _, d := range dishes {
		if d.Price > 0 {
			fmt.Fprintf(b, "• %s - %s\n", d.Name, formatPrice(d.Price))
		} else {
			fmt.Fprintf(b, "• %s\n", d.Name)
		}
	}
	b.WriteString("\n")
}

func writeItems(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title + ":\n")
	for _, it := range items {
		fmt.Fprintf(b, "• %s\n", it)
	}
	b.WriteString("\n")
}

func paymentMethods(p *domain.RestaurantProfile) string {
	methods := p.PaymentMethods
	if len(methods) == 0 {
		methods = []string{"Efectivo", "Tarjetas de débito y crédito", "MercadoPago"}
	}
	return "Aceptamos las siguientes formas de pago:\n- " + strings.Join(methods, "\n- ")
}

func delivery(p *domain.RestaurantProfile) string {
	if p.Delivery != "" {
		return p.Delivery
	}
	if p.Phone != "" {
		return fmt.Sprintf("Sí, ofrecemos servicio de delivery y pedidos para llevar. Puedes hacer tu pedido llamando al %s.", p.Phone)
	}
	return "Sí, ofrecemos servicio de delivery y pedidos para llevar. Puedes consultar nuestros datos de contacto para realizar tu pedido."
}

func formatPrice(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}
