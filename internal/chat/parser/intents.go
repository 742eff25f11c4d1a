package parser

import (
	"regexp"
	"strings"
)

var availabilityPhrases = foldAll([]string{
	"tenes mesa", "tienes mesa", "hay mesa", "tienen mesa", "tenés mesa",
	"mesa disponible", "disponibilidad", "libre para", "lugar para",
	"mesa para", "reservar para", "disponible para", "libres para",
	"hay lugar", "lugar disponible",
})

var affirmatives = foldAll([]string{
	"si", "sí", "yes", "ok", "dale", "bueno", "claro", "perfecto",
	"genial", "excelente", "vamos", "hagamos", "quiero",
})

// affirmativePhrases are multi-word and matched as substrings.
var affirmativePhrases = foldAll([]string{"me gustaría", "de una"})

var reservationKeywords = foldAll([]string{
	"reserva", "reservar", "anotame", "anotar", "guardar una mesa",
	"reservacion", "reservación", "quisiera una mesa", "necesito una mesa",
	"reservo", "hacer una reserva", "reservar mesa",
})

var relevantVocabulary = foldAll([]string{
	"hola", "buenas", "buen", "que tal", "como va", "hay alguien", "hello",
	"gracias", "chau", "listo",
	"menu", "menú", "comida", "plato", "restaurante", "reserva",
	"horario", "abren", "cierran", "ubicación", "ubicados", "dirección",
	"donde", "dónde", "como llego", "lugar",
	"precio", "costo", "vegetariano", "vegetarianas", "vegano", "sin gluten", "tacc", "celiaco",
	"estacionamiento", "parking", "delivery", "pedido", "llevar",
	"tartas", "empanadas", "facturas", "tortas", "fideos", "omelets", "parrilla",
	"sushi", "hamburguesas", "bebida", "vino", "cerveza", "postre", "mesa",
	"evento", "cumpleaños", "celebración", "pago", "mercadopago", "tarjeta", "efectivo",
	"wifi", "baño", "accesibilidad", "promoción", "descuento", "especial", "día", "hoy",
})

// dateSignalRe matches a date-like fragment in folded text.
var dateSignalRe = regexp.MustCompile(`\d{1,2}/\d{1,2}|\d{1,2}\s+de\s+[a-z]+`)

// HasDateSignal reports whether text mentions a relative day or a
// date-like numeric pattern. It does not validate the date.
func HasDateSignal(text string) bool {
	s := Fold(text)
	return strings.Contains(s, "manana") || strings.Contains(s, "hoy") || dateSignalRe.MatchString(s)
}

// IsAvailabilityQuery reports whether text asks for a table AND names a
// date. Either signal alone is not enough.
func IsAvailabilityQuery(text string) bool {
	s := Fold(text)
	return containsAny(s, availabilityPhrases) && HasDateSignal(text)
}

// WantsReservation reports whether text starts a reservation. Short
// affirmatives only count when an availability check is pending.
func WantsReservation(text string, pendingCheck bool) bool {
	s := Fold(text)
	if pendingCheck && IsAffirmative(s) {
		return true
	}
	return containsAny(s, reservationKeywords)
}

// IsAffirmative reports whether text contains a short affirmative, either
// as the whole message or as a word inside it.
func IsAffirmative(text string) bool {
	s := Fold(text)
	s = strings.Trim(s, " !¡.?¿,")
	for _, a := range affirmatives {
		if s == a || hasWord(s, a) {
			return true
		}
	}
	return containsAny(s, affirmativePhrases)
}

// IsRelevantQuery reports whether text touches the restaurant vocabulary
// (menu, hours, location, payments, dietary terms, greetings).
func IsRelevantQuery(text string) bool {
	return containsAny(Fold(text), relevantVocabulary)
}

// IsNoComment reports whether a comments answer means "nothing to add".
func IsNoComment(text string) bool {
	switch strings.Trim(Fold(text), " .!") {
	case "ninguno", "no", "ninguna", "nada":
		return true
	}
	return false
}

// IsConfirmation reports whether a confirmation answer accepts: any text
// starting with "s".
func IsConfirmation(text string) bool {
	return strings.HasPrefix(Fold(text), "s")
}
