package parser

import (
	"testing"
)

func TestLovcenParsePages(t *testing.T) {
	p := &LovcenParser{}

	pages := []string{
		`LOVCEN BANKA AD
Klijent : GRADNJA PLUS DOO
PIB : 02456789
Broj računa : 565000000000123456
IZVOD BR. 007 za dan 24.02.2026
Predhodno stanje Duguje Potražuje Novo stanje
6.851,10 1.200,00 350,00 6.001,10
24.02.2026 GRADJEVINAR DOO 1.200,00 0,00 221 placanje po ugovoru
510000000000987654
Crnogorska komercijalna banka
565-123456
987-6543210
24.02.2026 INVESTITOR AD 0,00 350,00 163 avans za radove
565000000000222333`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stmt.AccountNumber != "565000000000123456" {
		t.Errorf("account: got %q", stmt.AccountNumber)
	}
	if stmt.ClientName != "GRADNJA PLUS DOO" {
		t.Errorf("client: got %q", stmt.ClientName)
	}
	if stmt.ClientPIB != "02456789" {
		t.Errorf("pib: got %q", stmt.ClientPIB)
	}
	// Leading zeros stripped from the statement number.
	if stmt.StatementNumber != "7" {
		t.Errorf("statement number: got %q, want %q", stmt.StatementNumber, "7")
	}
	if got := stmt.StatementDate.Format("02.01.2006"); got != "24.02.2026" {
		t.Errorf("statement date: got %q", got)
	}
	if got := stmt.OpeningBalance.StringFixed(2); got != "6851.10" {
		t.Errorf("opening: got %s", got)
	}
	if got := stmt.TotalDebit.StringFixed(2); got != "1200.00" {
		t.Errorf("total debit: got %s", got)
	}
	if got := stmt.TotalCredit.StringFixed(2); got != "350.00" {
		t.Errorf("total credit: got %s", got)
	}
	if got := stmt.ClosingBalance.StringFixed(2); got != "6001.10" {
		t.Errorf("closing: got %s", got)
	}

	if len(stmt.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(stmt.Transactions))
	}

	txn := stmt.Transactions[0]
	if txn.RowNumber != 1 {
		t.Errorf("txn[0].RowNumber: got %d", txn.RowNumber)
	}
	if txn.Counterparty != "GRADJEVINAR DOO" {
		t.Errorf("txn[0].Counterparty: got %q", txn.Counterparty)
	}
	if txn.CounterpartyAccount != "510000000000987654" {
		t.Errorf("txn[0].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if txn.CounterpartyBank != "Crnogorska komercijalna banka" {
		t.Errorf("txn[0].CounterpartyBank: got %q", txn.CounterpartyBank)
	}
	if txn.ReferenceDebit != "565-123456" {
		t.Errorf("txn[0].ReferenceDebit: got %q", txn.ReferenceDebit)
	}
	if txn.ReclamationData != "987-6543210" {
		t.Errorf("txn[0].ReclamationData: got %q", txn.ReclamationData)
	}
	if got := txn.Debit.StringFixed(2); got != "1200.00" {
		t.Errorf("txn[0].Debit: got %s", got)
	}
	if txn.PaymentCode != "221" {
		t.Errorf("txn[0].PaymentCode: got %q", txn.PaymentCode)
	}
	if got := txn.ValueDate.Format("02.01.2006"); got != "24.02.2026" {
		t.Errorf("txn[0].ValueDate: got %q", got)
	}

	txn = stmt.Transactions[1]
	if txn.RowNumber != 2 {
		t.Errorf("txn[1].RowNumber: got %d", txn.RowNumber)
	}
	if got := txn.Credit.StringFixed(2); got != "350.00" {
		t.Errorf("txn[1].Credit: got %s", got)
	}
	if txn.CounterpartyAccount != "565000000000222333" {
		t.Errorf("txn[1].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if txn.Purpose != "avans za radove" {
		t.Errorf("txn[1].Purpose: got %q", txn.Purpose)
	}
}

func TestLovcenPurposeContinuation(t *testing.T) {
	p := &LovcenParser{}

	pages := []string{
		`Broj računa : 565000000000123456
24.02.2026 DOBAVLJAC DOO 10,00 0,00 221 prva linija svrhe
druga linija svrhe`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Purpose; got != "prva linija svrhe druga linija svrhe" {
		t.Errorf("purpose: got %q", got)
	}
}
