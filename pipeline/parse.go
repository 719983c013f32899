package pipeline

import (
	"errors"
	"strconv"
	"strings"
)

// parseAmount reads a money amount the way the portal renders it:
// "12,345.67", "₪ 1,234.00", "1.234,56-" (trailing minus), "(500.00)".
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = s[:len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	// Strip currency symbols, spaces and thousands separators.
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',', r == ' ', r == ' ', r == '₪', r == '$', r == '€':
			// separator or currency, drop
		default:
			// letters like "NIS" etc., drop
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, errors.New("no digits in amount: " + s)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

// cellText trims the portal's padded cell text (nbsp, newlines, rtl marks).
func cellText(s string) string {
	return strings.Trim(strings.TrimSpace(s), " ‎‏")
}
