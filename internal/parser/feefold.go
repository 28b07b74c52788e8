package parser

import (
	"github.com/shopspring/decimal"

	"github.com/izvodcg/izvod/internal/models"
)

// feeFold accumulates transactions in source row order and folds fee
// sub-lines onto their parent. A fee sub-line is a row with no row number of
// its own and a fee-only amount; it annotates the immediately preceding
// transaction rather than being a movement itself. This is the only
// sequential state inside a parser.
type feeFold struct {
	txns []models.ParsedTransaction
}

// Append adds the next transaction row; it becomes the pending fee parent.
func (f *feeFold) Append(t models.ParsedTransaction) {
	f.txns = append(f.txns, t)
}

// FoldFee attaches a fee amount to the pending parent. Returns false when
// there is no parent yet (fee sub-line before any transaction), which the
// caller should treat as a structural anomaly. Zero fees are ignored.
func (f *feeFold) FoldFee(fee decimal.Decimal) bool {
	if len(f.txns) == 0 {
		return false
	}
	if fee.IsPositive() {
		f.txns[len(f.txns)-1].Fee = fee
	}
	return true
}

// Transactions returns the folded rows in source order.
func (f *feeFold) Transactions() []models.ParsedTransaction {
	return f.txns
}

// Count returns the number of accumulated transactions.
func (f *feeFold) Count() int { return len(f.txns) }
