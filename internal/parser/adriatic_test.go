package parser

import (
	"testing"
)

func TestAdriaticParsePages(t *testing.T) {
	p := &AdriaticParser{}

	pages := []string{
		`ADRIATIC BANK AD PODGORICA
STATEMENT TURNOVER
Statement no : 9
Account no : 580000000000555666
Currency : 978 EUR
Statem. date : 28.02.2026
IBAN : ME12580000000000555666
For period: 01.02.2026 - 28.02.2026 SEASIDE RENTALS DOO
INITIAL STATE ON DAY: 01.02.2026 1,203.55
10.02.2026 850.00 0.00
220 payment for services
1234567890123 456
SEASIDE SUPPLIES
580000000000111222
15.02.2026 0.00 400.00
163 incoming transfer
BOOKING AGENCY LTD
SALES: 850.00 400.00
NEW BALANCE ON DAY: 28.02.2026 753.55`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stmt.StatementNumber != "9" {
		t.Errorf("statement number: got %q", stmt.StatementNumber)
	}
	if stmt.AccountNumber != "580000000000555666" {
		t.Errorf("account: got %q", stmt.AccountNumber)
	}
	if stmt.Currency != "EUR" {
		t.Errorf("currency: got %q", stmt.Currency)
	}
	if got := stmt.StatementDate.Format("02.01.2006"); got != "28.02.2026" {
		t.Errorf("statement date: got %q", got)
	}
	if stmt.IBAN != "ME12580000000000555666" {
		t.Errorf("iban: got %q", stmt.IBAN)
	}
	if stmt.ClientName != "SEASIDE RENTALS DOO" {
		t.Errorf("client: got %q", stmt.ClientName)
	}
	if got := stmt.PeriodStart.Format("02.01.2006"); got != "01.02.2026" {
		t.Errorf("period start: got %q", got)
	}
	if got := stmt.PeriodEnd.Format("02.01.2006"); got != "28.02.2026" {
		t.Errorf("period end: got %q", got)
	}
	if got := stmt.OpeningBalance.StringFixed(2); got != "1203.55" {
		t.Errorf("opening: got %s", got)
	}
	if got := stmt.ClosingBalance.StringFixed(2); got != "753.55" {
		t.Errorf("closing: got %s", got)
	}
	if got := stmt.TotalDebit.StringFixed(2); got != "850.00" {
		t.Errorf("total debit: got %s", got)
	}
	if got := stmt.TotalCredit.StringFixed(2); got != "400.00" {
		t.Errorf("total credit: got %s", got)
	}

	if len(stmt.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(stmt.Transactions))
	}

	// CHARGED column is the debit side.
	txn := stmt.Transactions[0]
	if txn.RowNumber != 1 {
		t.Errorf("txn[0].RowNumber: got %d", txn.RowNumber)
	}
	if got := txn.Debit.StringFixed(2); got != "850.00" {
		t.Errorf("txn[0].Debit: got %s", got)
	}
	if got := txn.BookingDate.Format("02.01.2006"); got != "10.02.2026" {
		t.Errorf("txn[0].BookingDate: got %q", got)
	}
	if txn.PaymentCode != "220" {
		t.Errorf("txn[0].PaymentCode: got %q", txn.PaymentCode)
	}
	if txn.Purpose != "payment for services" {
		t.Errorf("txn[0].Purpose: got %q", txn.Purpose)
	}
	if txn.ReferenceDebit != "1234567890123 456" {
		t.Errorf("txn[0].ReferenceDebit: got %q", txn.ReferenceDebit)
	}
	if txn.Counterparty != "SEASIDE SUPPLIES" {
		t.Errorf("txn[0].Counterparty: got %q", txn.Counterparty)
	}
	if txn.CounterpartyAccount != "580000000000111222" {
		t.Errorf("txn[0].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}

	// IN BENEFIT column is the credit side.
	txn = stmt.Transactions[1]
	if got := txn.Credit.StringFixed(2); got != "400.00" {
		t.Errorf("txn[1].Credit: got %s", got)
	}
	if !txn.Debit.IsZero() {
		t.Errorf("txn[1].Debit: got %s, want zero", txn.Debit)
	}
	if txn.PaymentCode != "163" {
		t.Errorf("txn[1].PaymentCode: got %q", txn.PaymentCode)
	}
	if txn.Counterparty != "BOOKING AGENCY LTD" {
		t.Errorf("txn[1].Counterparty: got %q", txn.Counterparty)
	}
}

func TestAdriaticMissingAccountFails(t *testing.T) {
	p := &AdriaticParser{}
	_, err := p.parsePages([]string{"STATEMENT TURNOVER\nStatement no : 9"})
	if err == nil {
		t.Fatal("expected error when account number is missing")
	}
}
