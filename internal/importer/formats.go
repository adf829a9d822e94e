package importer

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Supported date layouts.
const (
	DateDMYSlash = "DD/MM/YYYY"
	DateMDYSlash = "MM/DD/YYYY"
	DateISO      = "YYYY-MM-DD"
	DateDMYDash  = "DD-MM-YYYY"
	DateDMYDot   = "DD.MM.YYYY"
)

// Supported number formats.
const (
	NumberEU = "EU" // 1.234,56
	NumberUS = "US" // 1,234.56
)

type dateLayout struct {
	sep   string
	order [3]byte // 'D', 'M', 'Y'
}

var dateLayouts = map[string]dateLayout{
	DateDMYSlash: {"/", [3]byte{'D', 'M', 'Y'}},
	DateMDYSlash: {"/", [3]byte{'M', 'D', 'Y'}},
	DateISO:      {"-", [3]byte{'Y', 'M', 'D'}},
	DateDMYDash:  {"-", [3]byte{'D', 'M', 'Y'}},
	DateDMYDot:   {".", [3]byte{'D', 'M', 'Y'}},
}

// ValidDateFormat reports whether layout is one of the supported date layouts.
func ValidDateFormat(layout string) bool {
	_, ok := dateLayouts[layout]
	return ok
}

// ValidNumberFormat reports whether f is EU or US.
func ValidNumberFormat(f string) bool { return f == NumberEU || f == NumberUS }

// ParseDate reads s strictly in layout and returns a UTC date, or nil when s does
// not follow the layout's separator and token order or names an impossible day.
// Day and month may have one or two digits; the year must have four.
func ParseDate(s, layout string) *time.Time {
	l, ok := dateLayouts[layout]
	if !ok {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(s), l.sep)
	if len(parts) != 3 {
		return nil
	}
	var day, month, year int
	for i, tok := range l.order {
		p := parts[i]
		if !allDigits(p) {
			return nil
		}
		switch tok {
		case 'Y':
			if len(p) != 4 {
				return nil
			}
			year, _ = strconv.Atoi(p)
		case 'M':
			if len(p) < 1 || len(p) > 2 {
				return nil
			}
			month, _ = strconv.Atoi(p)
		case 'D':
			if len(p) < 1 || len(p) > 2 {
				return nil
			}
			day, _ = strconv.Atoi(p)
		}
	}
	if month < 1 || month > 12 || day < 1 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject instead
	if t.Day() != day || int(t.Month()) != month {
		return nil
	}
	return &t
}

// ParseNumber reads a localized amount. Currency symbols or codes and
// surrounding whitespace are ignored; a leading minus or accounting
// parentheses make the value negative. Thousands groups must have exactly
// three digits and a token without the decimal marker is an integer.
// Anything else yields nil.
func ParseNumber(s, format string) *decimal.Decimal {
	var thousands, dec byte
	switch format {
	case NumberEU:
		thousands, dec = '.', ','
	case NumberUS:
		thousands, dec = ',', '.'
	default:
		return nil
	}

	s = trimCurrency(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = trimCurrency(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		if neg {
			return nil
		}
		neg = true
		s = trimCurrency(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = trimCurrency(s[1:])
	}
	if s == "" {
		return nil
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, dec); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
		if frac == "" || !allDigits(frac) {
			return nil
		}
	}
	if strings.IndexByte(intPart, thousands) >= 0 {
		groups := strings.Split(intPart, string(thousands))
		if len(groups[0]) < 1 || len(groups[0]) > 3 || !allDigits(groups[0]) {
			return nil
		}
		for _, g := range groups[1:] {
			if len(g) != 3 || !allDigits(g) {
				return nil
			}
		}
		intPart = strings.Join(groups, "")
	} else if intPart != "" && !allDigits(intPart) {
		return nil
	}
	if intPart == "" {
		intPart = "0"
	}

	lit := intPart
	if frac != "" {
		lit += "." + frac
	}
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return nil
	}
	if neg {
		v = v.Neg()
	}
	return &v
}

func trimCurrency(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.Is(unicode.Sc, r)
	})
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
