// Package normalize canonicalizes raw cell values for comparison:
// case-folded diacritic-free text, compact uppercase plates, and
// locale-tolerant numbers. Unparsable input yields ok=false, never an
// error — absence is a normal outcome for the matching hard filters.
package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/motorgrid/lotsync/internal/model"
)

// stripMarks removes combining marks after NFD decomposition, turning
// "Citroën" into "Citroen".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text lowercases, strips diacritics, collapses internal whitespace and
// trims the result.
func Text(raw string) string {
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		s = raw // keep marks rather than dropping the value
	}
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Plate canonicalizes a license plate for exact comparison: text rules
// plus removal of internal spaces, hyphens and dots, uppercased.
func Plate(raw string) string {
	s := Text(raw)
	s = strings.NewReplacer(" ", "", "-", "", ".", "").Replace(s)
	return strings.ToUpper(s)
}

// Number parses a locale-formatted number. Thousands separators are
// removed and a decimal comma is converted to a dot. A separator
// followed by exactly three digits is read as a thousands separator;
// anything else is the decimal point.
func Number(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "-" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234.567,89 — dot groups, comma decimal
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234,567.89 — comma groups, dot decimal
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if groupSeparator(s, lastComma, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastDot >= 0:
		if groupSeparator(s, lastDot, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// groupSeparator reports whether the separator at idx looks like a
// thousands separator: exactly three digits follow it and every earlier
// occurrence is also three digits apart.
func groupSeparator(s string, idx int, sep string) bool {
	if len(s)-idx-1 != 3 {
		return false
	}
	for _, part := range strings.Split(s[:idx], sep)[1:] {
		if len(part) != 3 {
			return false
		}
	}
	return true
}

// Int parses a locale-formatted integer (year, mileage). Fractions are
// truncated toward zero.
func Int(raw string) (int, bool) {
	f, ok := Number(raw)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// usdMarkers are currency markers that indicate US dollars in the raw
// cell, matched case-insensitively against the normalized text.
var usdMarkers = []string{"usd", "u$s", "us$", "u$d", "dolar", "dolares", "dollar"}

// Price parses a currency-bearing value. The currency is detected by a
// keyword/symbol scan; base is assumed when no marker is present.
func Price(raw, base string) (model.Money, bool) {
	amount, ok := Number(raw)
	if !ok {
		return model.Money{}, false
	}

	currency := base
	lower := Text(raw)
	for _, m := range usdMarkers {
		if strings.Contains(lower, m) {
			currency = "USD"
			break
		}
	}
	if currency == base {
		// A bare "$" in an ARS locale stays in the base currency, but
		// "US$ 1000" was already caught above.
		switch {
		case strings.Contains(lower, "ars"), strings.Contains(lower, "peso"):
			currency = "ARS"
		}
	}

	return model.Money{Amount: amount, Currency: currency}, true
}
