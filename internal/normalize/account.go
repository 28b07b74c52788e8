package normalize

import "strings"

// canonicalAccountLen is the full Montenegrin account number length:
// 3-digit bank code + 13-digit party number + 2-digit control.
const canonicalAccountLen = 18

// CanonicalizeAccount converts a bank-formatted account string into the
// 18-digit dash-free representation used as the stable join key across banks
// and as the export directory name.
//
// The 3-digit bank code prefix is kept verbatim; the remaining digits are
// right-aligned and zero-padded into the remaining 15 positions, preserving
// numeric value:
//
//	535-22023-67       -> 535000000002202367
//	530-0000000030153-55 -> 530000000003015355
//
// Already-canonical input passes through unchanged, so the function is
// idempotent.
func CanonicalizeAccount(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &Error{Field: "account_number", Value: s, Msg: "empty"}
	}

	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '-' || r == ' ':
			// separator, drop
		default:
			return "", &Error{Field: "account_number", Value: s, Msg: "non-numeric character"}
		}
	}

	d := digits.String()
	if len(d) < 4 {
		return "", &Error{Field: "account_number", Value: s, Msg: "too short for bank code + account"}
	}
	if len(d) > canonicalAccountLen {
		return "", &Error{Field: "account_number", Value: s, Msg: "more than 18 digits"}
	}
	if len(d) == canonicalAccountLen {
		return d, nil
	}

	bank := d[:3]
	rest := d[3:]
	return bank + strings.Repeat("0", canonicalAccountLen-3-len(rest)) + rest, nil
}

// BankCodeOf returns the 3-digit bank code prefix of a canonical or
// bank-formatted account number, or "" when it cannot be determined.
func BankCodeOf(account string) string {
	canonical, err := CanonicalizeAccount(account)
	if err != nil {
		return ""
	}
	return canonical[:3]
}
