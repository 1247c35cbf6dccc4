package services

import (
	"strconv"
	"strings"
	"time"
)

// CardDetails feeds the card sub-flow. Only the format is checked; nothing is
// authorized or charged.
type CardDetails struct {
	Number string `json:"number"`
	Holder string `json:"holder"`
	Expiry string `json:"expiry"` // MM/YY or MM/YYYY
	CVV    string `json:"cvv"`
}

func ValidateCard(card CardDetails, now time.Time) error {
	fields := map[string]string{}

	number := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, card.Number)
	if len(number) != 16 || !allDigits(number) {
		fields["number"] = "Card number must have 16 digits"
	}
	if strings.TrimSpace(card.Holder) == "" {
		fields["holder"] = "Card holder name is required"
	}
	if month, year, ok := parseExpiry(card.Expiry); !ok {
		fields["expiry"] = "Expiry must be MM/YY"
	} else if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		fields["expiry"] = "Card has expired"
	}
	if cvv := strings.TrimSpace(card.CVV); len(cvv) < 3 || len(cvv) > 4 || !allDigits(cvv) {
		fields["cvv"] = "CVV must have 3 or 4 digits"
	}
	return newValidationError(fields)
}

func parseExpiry(s string) (month, year int, ok bool) {
	mm, yy, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return 0, 0, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	yy = strings.TrimSpace(yy)
	year, err = strconv.Atoi(yy)
	if err != nil {
		return 0, 0, false
	}
	switch len(yy) {
	case 2:
		year += 2000
	case 4:
	default:
		return 0, 0, false
	}
	return month, year, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
