package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts for canonical (stored/sent) and display (shown to visitors) dates.
const (
	CanonicalLayout = "2006-01-02"
	DisplayLayout   = "02/01/2006"
)

var (
	dayOfMonthRe = regexp.MustCompile(`(\d{1,2})\s+de\s+([a-z]+)`)
	slashDateRe  = regexp.MustCompile(`(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?`)
	isoDateRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	fullSlashRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// monthNames is matched by prefix in order, so "sep" and "se" both
// resolve to September. "setiembre" is the Rioplatense spelling.
var monthNames = []struct {
	name  string
	month time.Month
}{
	{"enero", time.January},
	{"febrero", time.February},
	{"marzo", time.March},
	{"abril", time.April},
	{"mayo", time.May},
	{"junio", time.June},
	{"julio", time.July},
	{"agosto", time.August},
	{"septiembre", time.September},
	{"setiembre", time.September},
	{"octubre", time.October},
	{"noviembre", time.November},
	{"diciembre", time.December},
}

// ParseDate converts a free-text date into a canonical YYYY-MM-DD date.
// ref is the reference instant; only its calendar day (in ref's location)
// matters. Rules are tried in order and the first match wins:
//
//  1. "hoy" / "mañana" (whole message)
//  2. "<day> de <month>", rolled to next year when already past
//  3. DD/MM, DD/MM/YY, DD/MM/YYYY, rolled to next year when past and the
//     year was omitted or is the current one
//  4. YYYY-MM-DD, only when not in the past
//
// Impossible calendar dates (31/02, 2025-02-30) are rejected.
func ParseDate(text string, ref time.Time) (string, bool) {
	today := startOfDay(ref)
	s := Fold(text)

	switch s {
	case "hoy":
		return today.Format(CanonicalLayout), true
	case "manana":
		return today.AddDate(0, 0, 1).Format(CanonicalLayout), true
	}

	if m := dayOfMonthRe.FindStringSubmatch(s); m != nil {
		if d, ok := parseDayOfMonth(m[1], m[2], today); ok {
			return d.Format(CanonicalLayout), true
		}
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		if d, ok := parseSlashDate(m[1], m[2], m[3], today); ok {
			return d.Format(CanonicalLayout), true
		}
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := calendarDate(y, mo, d, today.Location()); ok && !t.Before(today) {
			return t.Format(CanonicalLayout), true
		}
	}

	return "", false
}

// ExtractDate finds a date inside a longer message ("¿tenés mesa para el
// 15/05?"). Relative words win over numeric patterns.
func ExtractDate(text string, ref time.Time) (string, bool) {
	s := Fold(text)
	switch {
	case strings.Contains(s, "manana"):
		return ParseDate("mañana", ref)
	case strings.Contains(s, "hoy"):
		return ParseDate("hoy", ref)
	}
	if m := slashDateRe.FindString(s); m != "" {
		return ParseDate(m, ref)
	}
	if m := dayOfMonthRe.FindString(s); m != "" {
		return ParseDate(m, ref)
	}
	return "", false
}

// NormalizeDate accepts a canonical date or DD/MM/YYYY and returns the
// canonical form. Unlike ParseDate it does not reject past dates.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := calendarDate(y, mo, d, time.UTC); ok {
			return t.Format(CanonicalLayout), true
		}
		return "", false
	}
	if m := fullSlashRe.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if t, ok := calendarDate(y, mo, d, time.UTC); ok {
			return t.Format(CanonicalLayout), true
		}
	}
	return "", false
}

// DisplayDate renders a canonical date as DD/MM/YYYY. Anything else is
// returned unchanged.
func DisplayDate(canonical string) string {
	t, err := time.Parse(CanonicalLayout, canonical)
	if err != nil {
		return canonical
	}
	return t.Format(DisplayLayout)
}

func parseDayOfMonth(dayText, monthText string, today time.Time) (time.Time, bool) {
	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month, ok := lookupMonth(monthText)
	if !ok {
		return time.Time{}, false
	}
	if t, ok := calendarDate(today.Year(), int(month), day, today.Location()); ok && !t.Before(today) {
		return t, true
	}
	return calendarDate(today.Year()+1, int(month), day, today.Location())
}

func parseSlashDate(dayText, monthText, yearText string, today time.Time) (time.Time, bool) {
	day, _ := strconv.Atoi(dayText)
	month, _ := strconv.Atoi(monthText)
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	year := today.Year()
	if yearText != "" {
		year, _ = strconv.Atoi(yearText)
		if len(yearText) == 2 {
			year += 2000
		}
	}

	t, ok := calendarDate(year, month, day, today.Location())
	if !ok {
		return time.Time{}, false
	}
	if !t.Before(today) {
		return t, true
	}
	if year != today.Year() {
		return time.Time{}, false
	}
	return calendarDate(year+1, month, day, today.Location())
}

func lookupMonth(prefix string) (time.Month, bool) {
	for _, m := range monthNames {
		if strings.HasPrefix(m.name, prefix) {
			return m.month, true
		}
	}
	return 0, false
}

// calendarDate builds a date and rejects anything time.Date would normalize.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
