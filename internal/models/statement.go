package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle tag of a persisted statement. Parsers never set it;
// it is owned by the store/pipeline layer.
type Status string

const (
	StatusNew      Status = "new"
	StatusReviewed Status = "reviewed"
	StatusExported Status = "exported"
	StatusError    Status = "error"
)

// CanTransition reports whether a status change is allowed:
// new → reviewed, new|reviewed → exported, any → error.
// Exported statements can be re-exported (exported → exported).
func CanTransition(from, to Status) bool {
	if to == StatusError {
		return true
	}
	switch from {
	case StatusNew:
		return to == StatusReviewed || to == StatusExported
	case StatusReviewed:
		return to == StatusExported
	case StatusExported:
		return to == StatusExported
	}
	return false
}

// ParsedStatement is one bank statement document in canonical form.
// A parser constructs it during a single parse call and hands ownership
// to the caller; afterwards it is treated as an immutable value.
type ParsedStatement struct {
	BankCode string
	BankName string

	// AccountNumber and IBAN are raw, as printed in the document.
	// Canonicalization happens at export/persist time.
	AccountNumber string
	IBAN          string

	StatementNumber string
	StatementDate   time.Time
	PeriodStart     time.Time
	PeriodEnd       time.Time

	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal

	// Currency defaults to EUR, the local currency of all nine banks.
	Currency string

	ClientName string
	ClientPIB  string

	// Transactions keep source document row order; never re-sorted.
	Transactions []ParsedTransaction
}

// ParsedTransaction is one movement row within a statement.
type ParsedTransaction struct {
	// RowNumber is the source ordinal. Some layouts restart numbering per
	// page, so it is descriptive, not a key.
	RowNumber int

	ValueDate   time.Time
	BookingDate time.Time

	Debit  decimal.Decimal
	Credit decimal.Decimal

	Counterparty        string
	CounterpartyAccount string
	CounterpartyBank    string

	PaymentCode string
	Purpose     string

	ReferenceDebit  string
	ReferenceCredit string
	ReclamationData string

	// Fee folded in from the bank's fee sub-line, when present.
	Fee decimal.Decimal
}

// Amount returns the movement amount and whether it is a debit.
func (t *ParsedTransaction) Amount() (decimal.Decimal, bool) {
	if t.Debit.IsPositive() {
		return t.Debit, true
	}
	return t.Credit, false
}

// Date returns the value date, falling back to the booking date.
func (t *ParsedTransaction) Date() time.Time {
	if !t.ValueDate.IsZero() {
		return t.ValueDate
	}
	return t.BookingDate
}

// DefaultReconcileTolerance is the rounding tolerance for the advisory
// balance check, in currency units.
var DefaultReconcileTolerance = decimal.NewFromFloat(0.01)

// Reconcile checks closing == opening - debit + credit within the tolerance.
// A mismatch is advisory: the statement is still accepted, the caller is
// expected to report the returned message.
func (s *ParsedStatement) Reconcile(tolerance decimal.Decimal) (ok bool, msg string) {
	expected := s.OpeningBalance.Sub(s.TotalDebit).Add(s.TotalCredit)
	diff := s.ClosingBalance.Sub(expected).Abs()
	if diff.LessThanOrEqual(tolerance) {
		return true, ""
	}
	return false, fmt.Sprintf(
		"balance mismatch: opening %s - debit %s + credit %s = %s, closing is %s (diff %s)",
		s.OpeningBalance, s.TotalDebit, s.TotalCredit, expected, s.ClosingBalance, diff)
}
