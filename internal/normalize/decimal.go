package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalEU parses a comma-decimal amount with optional period thousands
// separators, the convention most of the banks print: "1.069,94" -> 1069.94.
// Input with no digits fails with a typed error, never a silent zero.
func ParseDecimalEU(s string) (decimal.Decimal, error) {
	cleaned, err := cleanAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return parseCleaned(s, cleaned)
}

// ParseDecimalUS parses a period-decimal amount with optional comma thousands
// separators: "1,069.94" or "1069.94" -> 1069.94. Some banks (Hipotekarna,
// NLB, UCB, Zapad, Ziraat, Adriatic) use this convention.
func ParseDecimalUS(s string) (decimal.Decimal, error) {
	cleaned, err := cleanAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return parseCleaned(s, cleaned)
}

func cleanAmount(s string) (string, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" || cleaned == "-" {
		return "", &Error{Field: "amount", Value: s, Msg: "empty"}
	}
	hasDigit := false
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return "", &Error{Field: "amount", Value: s, Msg: "no digits"}
	}
	return cleaned, nil
}

func parseCleaned(orig, cleaned string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &Error{Field: "amount", Value: orig, Msg: "not a number"}
	}
	return d, nil
}
