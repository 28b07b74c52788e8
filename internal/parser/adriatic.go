package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/izvodcg/izvod/internal/extractor"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// AdriaticParser handles Adriatic Bank (580) PDF statements.
//
// English-language layout titled STATEMENT TURNOVER. Rows are date-led with
// CHARGED and IN BENEFIT amount columns; the description block under each
// row carries the payment-code-prefixed purpose, a long numeric reference,
// the counterparty and its account. Period decimal (1,203.55), dates
// DD.MM.YYYY.
type AdriaticParser struct{}

func (p *AdriaticParser) BankCode() string { return "580" }
func (p *AdriaticParser) BankName() string { return "Adriatic Bank" }

var (
	adriaticStmtNumRe = regexp.MustCompile(`Statement\s+no\s*:\s*(\d+)`)
	adriaticAcctRe    = regexp.MustCompile(`Account\s+no\s*:\s*(\d+)`)
	adriaticCurrRe    = regexp.MustCompile(`Currency\s*:\s*\d+\s+(\w+)`)
	adriaticDateRe    = regexp.MustCompile(`Statem\.\s*date\s*:\s*(\d{2}\.\d{2}\.\d{4})`)
	adriaticIBANRe    = regexp.MustCompile(`IBAN\s*:\s*(ME\d+)`)
	adriaticClientRe  = regexp.MustCompile(`For\s+period:\s*\d{2}\.\d{2}\.\d{4}\s*-\s*\d{2}\.\d{2}\.\d{4}\s+(.+)`)
	adriaticPeriodRe  = regexp.MustCompile(`For\s+period:\s*(\d{2}\.\d{2}\.\d{4})\s*-\s*(\d{2}\.\d{2}\.\d{4})`)
	adriaticOpenRe    = regexp.MustCompile(`INITIAL\s+STATE\s+ON\s+DAY:\s*\d{2}\.\d{2}\.\d{4}\s+([\d,]+\.\d{2})`)
	adriaticSalesRe   = regexp.MustCompile(`SALES:\s*([\d,]+\.\d{2})\s+([\d,]+\.\d{2})`)
	adriaticCloseRe   = regexp.MustCompile(`NEW\s+BALANCE.*?([\d,]+\.\d{2})\s*$`)
	// "DD.MM.YYYY description... charged in_benefit"
	adriaticTxnRe = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(.*?)\s*([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)
	// description block shapes
	adriaticRefRe    = regexp.MustCompile(`^\d{10,}\s+\d+$`)
	adriaticCodedRe  = regexp.MustCompile(`^(\d{3})\s+(.+)`)
	adriaticCpAcctRe = regexp.MustCompile(`^\d{15,18}$`)
)

func (p *AdriaticParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *AdriaticParser) parsePages(pages []string) (*models.ParsedStatement, error) {
	stmt := &models.ParsedStatement{
		BankCode: p.BankCode(),
		BankName: p.BankName(),
		Currency: "EUR",
	}
	if len(pages) == 0 {
		return nil, newParseError(p.BankCode(), "document", fmt.Errorf("no pages"))
	}

	p.parseHeader(pages[0], stmt)
	if stmt.AccountNumber == "" {
		return nil, newParseError(p.BankCode(), "header", fmt.Errorf("account number not found"))
	}

	for _, page := range pages {
		p.parsePage(page, stmt)
	}
	if len(stmt.Transactions) == 0 {
		return nil, newParseError(p.BankCode(), "transactions", fmt.Errorf("no transaction rows found"))
	}
	return stmt, nil
}

func (p *AdriaticParser) parseHeader(page string, stmt *models.ParsedStatement) {
	if m := adriaticStmtNumRe.FindStringSubmatch(page); m != nil {
		stmt.StatementNumber = m[1]
	}
	if m := adriaticAcctRe.FindStringSubmatch(page); m != nil {
		stmt.AccountNumber = m[1]
	}
	if m := adriaticCurrRe.FindStringSubmatch(page); m != nil {
		stmt.Currency = m[1]
	}
	if m := adriaticDateRe.FindStringSubmatch(page); m != nil {
		if d, err := normalize.ParseDateDMY(m[1]); err == nil {
			stmt.StatementDate = d
		}
	}
	if m := adriaticIBANRe.FindStringSubmatch(page); m != nil {
		stmt.IBAN = m[1]
	}
	if m := adriaticClientRe.FindStringSubmatch(page); m != nil {
		stmt.ClientName = normalize.CleanText(m[1])
	}
	if m := adriaticPeriodRe.FindStringSubmatch(page); m != nil {
		if d, err := normalize.ParseDateDMY(m[1]); err == nil {
			stmt.PeriodStart = d
		}
		if d, err := normalize.ParseDateDMY(m[2]); err == nil {
			stmt.PeriodEnd = d
		}
	}
	if m := adriaticOpenRe.FindStringSubmatch(page); m != nil {
		stmt.OpeningBalance = amountUS(m[1])
	}
}

func (p *AdriaticParser) parsePage(page string, stmt *models.ParsedStatement) {
	lines := strings.Split(page, "\n")

	var current *models.ParsedTransaction
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := adriaticSalesRe.FindStringSubmatch(line); m != nil {
			p.flush(current, stmt)
			current = nil
			stmt.TotalDebit = amountUS(m[1])
			stmt.TotalCredit = amountUS(m[2])
			continue
		}
		if m := adriaticCloseRe.FindStringSubmatch(line); m != nil && strings.Contains(line, "NEW BALANCE") {
			p.flush(current, stmt)
			current = nil
			stmt.ClosingBalance = amountUS(m[1])
			continue
		}
		if strings.Contains(line, "INITIAL STATE") {
			continue
		}

		if m := adriaticTxnRe.FindStringSubmatch(line); m != nil {
			p.flush(current, stmt)
			txn := models.ParsedTransaction{
				Debit:  amountUS(m[3]),
				Credit: amountUS(m[4]),
			}
			if d, err := normalize.ParseDateDMY(m[1]); err == nil {
				txn.BookingDate = d
				txn.ValueDate = d
			}
			p.parseDescLine(strings.TrimSpace(m[2]), &txn)
			current = &txn
			continue
		}

		if current == nil {
			continue
		}
		p.parseDescLine(line, current)
	}
	p.flush(current, stmt)
}

// parseDescLine classifies one description fragment: a long numeric
// reference, a payment-code-prefixed purpose, a counterparty account, or
// counterparty/purpose text.
func (p *AdriaticParser) parseDescLine(line string, txn *models.ParsedTransaction) {
	if line == "" {
		return
	}
	switch {
	case adriaticRefRe.MatchString(line):
		txn.ReferenceDebit = line
	case adriaticCpAcctRe.MatchString(line):
		txn.CounterpartyAccount = line
	default:
		if m := adriaticCodedRe.FindStringSubmatch(line); m != nil && txn.PaymentCode == "" {
			txn.PaymentCode = m[1]
			line = m[2]
		}
		// All-caps lines after the purpose belong to the counterparty block.
		if txn.Purpose != "" && line == strings.ToUpper(line) && looksLikeText(line) {
			if txn.Counterparty == "" {
				txn.Counterparty = normalize.CleanText(line)
			} else {
				txn.Counterparty = normalize.CleanText(txn.Counterparty + " " + line)
			}
			return
		}
		if txn.Purpose == "" {
			txn.Purpose = normalize.CleanText(line)
		} else {
			txn.Purpose = normalize.CleanText(txn.Purpose + " " + line)
		}
	}
}

func (p *AdriaticParser) flush(txn *models.ParsedTransaction, stmt *models.ParsedStatement) {
	if txn == nil {
		return
	}
	if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
		txn.RowNumber = len(stmt.Transactions) + 1
		stmt.Transactions = append(stmt.Transactions, *txn)
	}
}
