package parser

import (
	"testing"

	"github.com/izvodcg/izvod/internal/models"
)

func TestHipotekarnaParsePages(t *testing.T) {
	p := &HipotekarnaParser{}

	pages := []string{
		`BALKAN ART DOO
02345678
520000000001234567
004  01.02.2026.
16.01.2026. CRNOGORSKA KOMERCIJALNA BANKA 123.45 0.00
510000000000123456 placanje po fakturi 520-000000123
17.01.2026. NLB BANKA 0.00 500.00
530000000000654321 uplata pazara
1,000.00 123.45 500.00 1,376.55 1 1`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stmt.AccountNumber != "520000000001234567" {
		t.Errorf("account: got %q", stmt.AccountNumber)
	}
	if stmt.ClientName != "BALKAN ART DOO" {
		t.Errorf("client: got %q", stmt.ClientName)
	}
	if stmt.ClientPIB != "02345678" {
		t.Errorf("pib: got %q", stmt.ClientPIB)
	}
	if stmt.StatementNumber != "4" {
		t.Errorf("statement number: got %q, want %q", stmt.StatementNumber, "4")
	}
	if got := stmt.StatementDate.Format("02.01.2006"); got != "01.02.2026" {
		t.Errorf("statement date: got %q", got)
	}

	if len(stmt.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(stmt.Transactions))
	}

	txn := stmt.Transactions[0]
	if got := txn.Debit.StringFixed(2); got != "123.45" {
		t.Errorf("txn[0].Debit: got %s", got)
	}
	if txn.CounterpartyAccount != "510000000000123456" {
		t.Errorf("txn[0].CounterpartyAccount: got %q", txn.CounterpartyAccount)
	}
	if txn.Purpose != "placanje po fakturi" {
		t.Errorf("txn[0].Purpose: got %q", txn.Purpose)
	}
	if txn.ReclamationData != "520-000000123" {
		t.Errorf("txn[0].ReclamationData: got %q", txn.ReclamationData)
	}
	if txn.CounterpartyBank != "CRNOGORSKA KOMERCIJALNA BANKA" {
		t.Errorf("txn[0].CounterpartyBank: got %q", txn.CounterpartyBank)
	}

	txn = stmt.Transactions[1]
	if got := txn.Credit.StringFixed(2); got != "500.00" {
		t.Errorf("txn[1].Credit: got %s", got)
	}
	if !txn.Debit.IsZero() {
		t.Errorf("txn[1].Debit: got %s, want zero", txn.Debit)
	}

	if got := stmt.OpeningBalance.StringFixed(2); got != "1000.00" {
		t.Errorf("opening: got %s", got)
	}
	if got := stmt.ClosingBalance.StringFixed(2); got != "1376.55" {
		t.Errorf("closing: got %s", got)
	}
	if got := stmt.TotalDebit.StringFixed(2); got != "123.45" {
		t.Errorf("total debit: got %s", got)
	}
	if got := stmt.TotalCredit.StringFixed(2); got != "500.00" {
		t.Errorf("total credit: got %s", got)
	}

	if ok, msg := stmt.Reconcile(models.DefaultReconcileTolerance); !ok {
		t.Errorf("reconciliation failed: %s", msg)
	}
}

func TestHipotekarnaHeaderFromFirstPageOnly(t *testing.T) {
	p := &HipotekarnaParser{}

	pages := []string{
		`BALKAN ART DOO
520000000001234567
004  01.02.2026.
16.01.2026. BANKA A 10.00 0.00
510000000000123456 prva strana`,
		`DRUGA FIRMA DOO
16.01.2026. BANKA B 20.00 0.00
530000000000654321 druga strana`,
	}

	stmt, err := p.parsePages(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.ClientName != "BALKAN ART DOO" {
		t.Errorf("client overwritten by later page: got %q", stmt.ClientName)
	}
	if len(stmt.Transactions) != 2 {
		t.Errorf("transactions across pages: got %d, want 2", len(stmt.Transactions))
	}
}

func TestHipotekarnaNoTransactions(t *testing.T) {
	p := &HipotekarnaParser{}
	_, err := p.parsePages([]string{"BALKAN ART DOO\n520000000001234567\n004  01.02.2026."})
	if err == nil {
		t.Fatal("expected error for statement without transactions")
	}
}
