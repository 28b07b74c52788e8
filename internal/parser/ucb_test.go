package parser

import (
	"testing"
)

func TestUCBParsePages(t *testing.T) {
	p := &UCBParser{}

	pages := []string{
		`UNIVERSAL CAPITAL BANK AD
Naziv: MONTEPRO DOO Mjesto: Podgorica
Broj partije: 560-0000000012345-29
Izvod broj : 37 NA DAN 24.02.2026
Poreski broj: 02789456
Prethodno stanje Duguje Potrazuje Novo stanje
1,069.94 250.00 1,500.00 2,319.94
1 TELENOR DOO 12-Podgorica/ 2026.02.24 250.00 0.00 221 racun za mobilni
Bulevar Dzordza Vasingtona
560000000007654321
2 KUPAC PROMET DOO 2026.02.24 0.00 1,500.00 163 uplata po fakturi 55/26
510000000000111222
Ukupno EUR : 250.00 1,500.00`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stmt.AccountNumber != "560-0000000012345-29" {
		t.Errorf("account: got %q", stmt.AccountNumber)
	}
	if stmt.ClientName != "MONTEPRO DOO" {
		t.Errorf("client: got %q (trailing labels must be stripped)", stmt.ClientName)
	}
	if stmt.ClientPIB != "02789456" {
		t.Errorf("pib: got %q", stmt.ClientPIB)
	}
	if stmt.StatementNumber != "37" {
		t.Errorf("statement number: got %q", stmt.StatementNumber)
	}
	if got := stmt.StatementDate.Format("02.01.2006"); got != "24.02.2026" {
		t.Errorf("statement date: got %q", got)
	}
	if got := stmt.OpeningBalance.StringFixed(2); got != "1069.94" {
		t.Errorf("opening: got %s", got)
	}
	if got := stmt.ClosingBalance.StringFixed(2); got != "2319.94" {
		t.Errorf("closing: got %s", got)
	}
	if got := stmt.TotalDebit.StringFixed(2); got != "250.00" {
		t.Errorf("total debit: got %s", got)
	}
	if got := stmt.TotalCredit.StringFixed(2); got != "1500.00" {
		t.Errorf("total credit: got %s", got)
	}

	if len(stmt.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(stmt.Transactions))
	}

	txn := stmt.Transactions[0]
	if txn.RowNumber != 1 {
		t.Errorf("txn[0].RowNumber: got %d", txn.RowNumber)
	}
	// Origin column stripped, address continuation appended.
	if txn.Counterparty != "TELENOR DOO, Bulevar Dzordza Vasingtona" {
		t.Errorf("txn[0].Counterparty: got %q", txn.Counterparty)
	}
	if txn.CounterpartyAccount != "560000000007654321" {
		t.Errorf("txn[0].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if got := txn.Debit.StringFixed(2); got != "250.00" {
		t.Errorf("txn[0].Debit: got %s", got)
	}
	if txn.PaymentCode != "221" {
		t.Errorf("txn[0].PaymentCode: got %q", txn.PaymentCode)
	}
	if txn.Purpose != "racun za mobilni" {
		t.Errorf("txn[0].Purpose: got %q", txn.Purpose)
	}
	if got := txn.BookingDate.Format("2006.01.02"); got != "2026.02.24" {
		t.Errorf("txn[0].BookingDate: got %q", got)
	}

	txn = stmt.Transactions[1]
	if got := txn.Credit.StringFixed(2); got != "1500.00" {
		t.Errorf("txn[1].Credit: got %s", got)
	}
	if txn.CounterpartyAccount != "510000000000111222" {
		t.Errorf("txn[1].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if txn.Purpose != "uplata po fakturi 55/26" {
		t.Errorf("txn[1].Purpose: got %q", txn.Purpose)
	}
}

func TestUCBZeroAmountRowDropped(t *testing.T) {
	p := &UCBParser{}

	pages := []string{
		`Broj partije: 560-0000000012345-29
1 STORNO STAVKA 2026.02.24 0.00 0.00 221 storno
2 PRENOS 2026.02.24 0.00 45.00 163 uplata`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(stmt.Transactions))
	}
	if stmt.Transactions[0].RowNumber != 2 {
		t.Errorf("kept row: got %d, want 2", stmt.Transactions[0].RowNumber)
	}
}
