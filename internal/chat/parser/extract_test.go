package parser_test

import (
	"testing"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"
)

func TestExtractPartySize(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"mesa para 4 personas mañana", 4, true},
		{"1 persona hoy", 1, true},
		{"hay lugar mañana para 6", 6, true},
		{"3 pax hoy", 3, true},
		{"mesa para mañana", parser.DefaultPartySize, false},
		{"0 personas", parser.DefaultPartySize, false},
	}

	for _, tt := range tests {
		got, ok := parser.ExtractPartySize(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractPartySize(%q) = %d, %v; want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParsePartySize(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"4", 4, true},
		{"somos 5", 5, true},
		{"4 personas", 4, true},
		{"Cuatro", 4, true},
		{"seremos doce", 12, true},
		{"muchos", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parser.ParsePartySize(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePartySize(%q) = %d, %v; want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFirstName(t *testing.T) {
	if got := parser.FirstName("  Ana   Gómez "); got != "Ana" {
		t.Errorf("expected Ana, got %q", got)
	}
	if got := parser.FirstName("   "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	if !parser.IsValidEmail("ana@x.com") {
		t.Error("expected ana@x.com to be valid")
	}
	for _, in := range []string{"ana@x", "ana.x.com", "ana"} {
		if parser.IsValidEmail(in) {
			t.Errorf("expected %q to be invalid", in)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := parser.NormalizePhone(" 11 2233\t4455 "); got != "1122334455" {
		t.Errorf("expected 1122334455, got %q", got)
	}
}

func TestIsRestaurantID(t *testing.T) {
	if !parser.IsRestaurantID("6a117059-4c19-4b2d-9c1e-6d2b4f3e2a10") {
		t.Error("expected uuid to be a valid restaurant id")
	}
	for _, in := range []string{"", "Gandolfo", "../admin", "6A11"} {
		if parser.IsRestaurantID(in) {
			t.Errorf("expected %q to be rejected", in)
		}
	}
}
