package parser

import (
	"testing"
)

func TestPrvaParsePages(t *testing.T) {
	p := &PrvaParser{}

	pages := []string{
		`PRVA BANKA CRNE GORE
Račun: 535-1000-84 PIB: 02096129
Naziv: ASTRASOFT DOO Izvod
Račun: 535-22023-67 PIB: 03339645
IZVJEŠTAJ O PROMJENAMA I STANJU SREDSTAVA BROJ 17
Datum izvoda: 24.02.2026
2.163,40 1.083,99 0,00 1.079,41 6 / 0
1 CRNOGORSKI TELEKOM AD Filijala Podgorica 18,00 0,00 221 racun za telefon (18) 03486575302
820-30000-74 2026.02.24
0431 0.44 (18) 03486575-302
2 ELEKTROPRIVREDA CG Filijala Niksic 65,99 0,00 163 struja februar ( ) 03244822001
530-54171-72 0431 0.34 ( ) 03244822
2026.02.24
UKUPNO 1.083,99 0,00`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The bank's own account and PIB come first; the client's are second.
	if stmt.AccountNumber != "535-22023-67" {
		t.Errorf("account: got %q, want client account", stmt.AccountNumber)
	}
	if stmt.ClientPIB != "03339645" {
		t.Errorf("pib: got %q", stmt.ClientPIB)
	}
	if stmt.ClientName != "ASTRASOFT DOO" {
		t.Errorf("client: got %q", stmt.ClientName)
	}
	if stmt.StatementNumber != "17" {
		t.Errorf("statement number: got %q", stmt.StatementNumber)
	}
	if got := stmt.OpeningBalance.StringFixed(2); got != "2163.40" {
		t.Errorf("opening: got %s", got)
	}
	if got := stmt.TotalDebit.StringFixed(2); got != "1083.99" {
		t.Errorf("total debit: got %s", got)
	}
	if got := stmt.ClosingBalance.StringFixed(2); got != "1079.41" {
		t.Errorf("closing: got %s", got)
	}

	if len(stmt.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(stmt.Transactions))
	}

	txn := stmt.Transactions[0]
	if txn.RowNumber != 1 {
		t.Errorf("txn[0].RowNumber: got %d", txn.RowNumber)
	}
	if txn.Counterparty != "CRNOGORSKI TELEKOM AD" {
		t.Errorf("txn[0].Counterparty: got %q", txn.Counterparty)
	}
	if got := txn.Debit.StringFixed(2); got != "18.00" {
		t.Errorf("txn[0].Debit: got %s", got)
	}
	if txn.PaymentCode != "221" {
		t.Errorf("txn[0].PaymentCode: got %q", txn.PaymentCode)
	}
	if txn.Purpose != "racun za telefon" {
		t.Errorf("txn[0].Purpose: got %q", txn.Purpose)
	}
	if txn.ReferenceDebit != "(18)" {
		t.Errorf("txn[0].ReferenceDebit: got %q", txn.ReferenceDebit)
	}
	if txn.ReclamationData != "03486575302" {
		t.Errorf("txn[0].ReclamationData: got %q", txn.ReclamationData)
	}
	if txn.CounterpartyAccount != "820-30000-74" {
		t.Errorf("txn[0].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if got := txn.BookingDate.Format("2006.01.02"); got != "2026.02.24" {
		t.Errorf("txn[0].BookingDate: got %q", got)
	}
	// Fee parsed from the continuation line, period decimal.
	if got := txn.Fee.StringFixed(2); got != "0.44" {
		t.Errorf("txn[0].Fee: got %s", got)
	}

	txn = stmt.Transactions[1]
	if txn.RowNumber != 2 {
		t.Errorf("txn[1].RowNumber: got %d", txn.RowNumber)
	}
	// Account + fee on one continuation line.
	if txn.CounterpartyAccount != "530-54171-72" {
		t.Errorf("txn[1].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if got := txn.Fee.StringFixed(2); got != "0.34" {
		t.Errorf("txn[1].Fee: got %s", got)
	}
	// Empty model: reclamation, no debit reference.
	if txn.ReclamationData != "03244822001" {
		t.Errorf("txn[1].ReclamationData: got %q", txn.ReclamationData)
	}
	if txn.ReferenceDebit != "" {
		t.Errorf("txn[1].ReferenceDebit: got %q, want empty", txn.ReferenceDebit)
	}
}

func TestPrvaZeroAmountRowsDropped(t *testing.T) {
	p := &PrvaParser{}

	pages := []string{
		`Račun: 535-22023-67 PIB: 03339645
1 STORNO ZAPIS Filijala Podgorica 0,00 0,00 221 storno ( ) 03486575302
2 PRAVI PRENOS Filijala Podgorica 10,00 0,00 221 prenos ( ) 03486575303
UKUPNO 10,00 0,00`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("transactions: got %d, want 1 (zero row dropped)", len(stmt.Transactions))
	}
	if stmt.Transactions[0].RowNumber != 2 {
		t.Errorf("kept row: got %d, want 2", stmt.Transactions[0].RowNumber)
	}
}
