package parser

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/izvodcg/izvod/internal/normalize"
)

// Date and amount shapes shared across the bank layouts.
var (
	// DD.MM.YYYY with optional trailing dot
	dateDMYRe = regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4})\.?`)
	// DD/MM/YYYY
	dateSlashRe = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)
	// US convention: 1,234.56
	amountUSRe = regexp.MustCompile(`[\d,]+\.\d{2}`)
	// EU convention: 1.234,56
	amountEURe = regexp.MustCompile(`[\d.]+,\d{2}`)
)

// firstMatch returns the first capture group of re in text, or "".
func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// amountUS parses a period-decimal amount, returning zero on empty or
// unparsable cells. Parsers use it for optional columns where absence is
// legitimate; header fields that must parse go through normalize directly.
func amountUS(s string) decimal.Decimal {
	d, err := normalize.ParseDecimalUS(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// amountEU is amountUS for the comma-decimal convention.
func amountEU(s string) decimal.Decimal {
	d, err := normalize.ParseDecimalEU(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
