package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// DefaultPartySize is assumed when an availability question names no party.
const DefaultPartySize = 2

var (
	personasRe    = regexp.MustCompile(`(\d+)\s*personas?`)
	paraNRe       = regexp.MustCompile(`para\s+(\d+)`)
	paxRe         = regexp.MustCompile(`(\d+)\s*pax`)
	firstNumberRe = regexp.MustCompile(`\d+`)
	restaurantRe  = regexp.MustCompile(`^[0-9a-f-]+$`)
)

var numberWords = map[string]int{
	"uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6,
	"siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "once": 11, "doce": 12,
}

// ExtractPartySize finds the party size in an availability question
// ("4 personas", "para 4", "4 pax"). It returns DefaultPartySize and false
// when nothing matches.
func ExtractPartySize(text string) (int, bool) {
	s := Fold(text)
	for _, re := range []*regexp.Regexp{personasRe, paraNRe, paxRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return DefaultPartySize, false
}

// ParsePartySize coerces a party-size answer to an integer: the first
// number in the text ("somos 4") or a number word ("cuatro").
func ParsePartySize(text string) (int, bool) {
	s := Fold(text)
	if m := firstNumberRe.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return n, true
		}
	}
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if n, ok := numberWords[tok]; ok {
			return n, true
		}
	}
	return 0, false
}

// FirstName is the first whitespace-separated token of a full name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// IsValidEmail applies the widget's loose check: an "@" and a ".".
func IsValidEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// NormalizePhone strips every whitespace character.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsRestaurantID reports whether id has the expected identifier shape
// (lowercase hex and dashes, as in a UUID).
func IsRestaurantID(id string) bool {
	return restaurantRe.MatchString(id)
}
