package parser_test

import (
	"testing"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"
)

// ref is a Tuesday in the middle of the year.
var ref = time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"hoy", "hoy", "2025-06-10", true},
		{"mañana with accent and case", "Mañana", "2025-06-11", true},
		{"manana without accent", "  manana ", "2025-06-11", true},
		{"hoy inside a sentence is not literal", "hoy a la noche", "", false},

		{"day of month ahead", "20 de junio", "2025-06-20", true},
		{"day of month today", "10 de junio", "2025-06-10", true},
		{"day of month past rolls forward", "15 de mayo", "2026-05-15", true},
		{"month prefix", "3 de sep", "2025-09-03", true},
		{"rioplatense spelling", "3 de setiembre", "2025-09-03", true},
		{"accented month text", "1 de DICIEMBRE", "2025-12-01", true},
		{"unknown month", "5 de foo", "", false},
		{"impossible day of month", "31 de febrero", "", false},

		{"slash ahead", "15/07", "2025-07-15", true},
		{"slash past rolls forward", "15/05", "2026-05-15", true},
		{"slash two digit year", "15/07/26", "2026-07-15", true},
		{"slash current year past rolls forward", "15/05/2025", "2026-05-15", true},
		{"slash earlier year rejected", "15/05/2024", "", false},
		{"slash invalid calendar date", "31/02/2025", "", false},
		{"slash 31 in 30-day month", "31/04", "", false},
		{"slash leap day", "29/02/2028", "2028-02-29", true},
		{"slash day zero", "0/5", "", false},
		{"slash day out of range", "32/1", "", false},
		{"slash month out of range", "10/13", "", false},
		{"slash inside sentence", "el 20/06 a la noche", "2025-06-20", true},

		{"iso ahead", "2025-07-01", "2025-07-01", true},
		{"iso today", "2025-06-10", "2025-06-10", true},
		{"iso past", "2025-06-09", "", false},
		{"iso invalid calendar date", "2025-02-30", "", false},
		{"iso without padding", "2025-6-1", "", false},

		{"weekday name", "el viernes", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ParseDate(tt.input, ref)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v (got %q)", tt.input, ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_DisplayRoundTrip(t *testing.T) {
	start := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		day := start.AddDate(0, 0, i)
		canonical := day.Format(parser.CanonicalLayout)
		got, ok := parser.ParseDate(day.Format(parser.DisplayLayout), ref)
		if !ok {
			t.Fatalf("ParseDate(%s) unparseable", day.Format(parser.DisplayLayout))
		}
		if got != canonical {
			t.Fatalf("round trip of %s = %s", canonical, got)
		}
	}
}

func TestParseDate_PastDatesThisYearMoveToNextYear(t *testing.T) {
	for d := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC); d.Before(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)); d = d.AddDate(0, 0, 1) {
		if d.Month() == time.February && d.Day() == 29 {
			continue
		}
		got, ok := parser.ParseDate(d.Format(parser.DisplayLayout), ref)
		if !ok {
			t.Fatalf("%s: expected a date, got unparseable", d.Format(parser.DisplayLayout))
		}
		want := d.AddDate(1, 0, 0).Format(parser.CanonicalLayout)
		if got != want {
			t.Fatalf("%s: expected %s, got %s", d.Format(parser.DisplayLayout), want, got)
		}
	}
}

func TestParseDate_UsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	// 01:00 UTC on the 11th is still the 10th in Buenos Aires.
	late := time.Date(2025, time.June, 11, 1, 0, 0, 0, time.UTC).In(loc)

	got, ok := parser.ParseDate("hoy", late)
	if !ok || got != "2025-06-10" {
		t.Errorf("expected 2025-06-10, got %q (ok=%v)", got, ok)
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"¿Tenés mesa para mañana?", "2025-06-11", true},
		{"hay lugar hoy a la noche?", "2025-06-10", true},
		{"hay lugar el 20/06 para 4", "2025-06-20", true},
		{"mesa para el 3 de julio", "2025-07-03", true},
		{"mesa para el 31/02", "", false},
		{"mesa para el viernes", "", false},
	}

	for _, tt := range tests {
		got, ok := parser.ExtractDate(tt.input, ref)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExtractDate(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2025-05-15", "2025-05-15", true},
		{"15/05/2025", "2025-05-15", true},
		{"5/1/2026", "2026-01-05", true},
		{"31/02/2025", "", false},
		{"2025-02-30", "", false},
		{"mañana", "", false},
	}

	for _, tt := range tests {
		got, ok := parser.NormalizeDate(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDisplayDate(t *testing.T) {
	if got := parser.DisplayDate("2025-05-15"); got != "15/05/2025" {
		t.Errorf("expected 15/05/2025, got %s", got)
	}
	if got := parser.DisplayDate("garbage"); got != "garbage" {
		t.Errorf("expected input back unchanged, got %s", got)
	}
}
