package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/izvodcg/izvod/internal/extractor"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// ZapadParser handles Zapad Banka (570) PDF statements.
//
// Two sub-formats share the bank code:
//
//  1. Daily statement, Montenegrin: "IZVOD RAČUNA - broj N" with numbered
//     rows and a trailing saldo column. A two-amount row does not say which
//     side the movement is on; that is resolved afterwards from the Ukupni
//     promet totals.
//  2. Period statement, English: "ACCOUNT STATEMENT" with DETAILS: blocks,
//     three-amount lines (debit, credit, balance) and IBAN counterparties.
//
// Period decimal (7,588.45) in both. Daily dates DD.MM.YYYY, period dates
// DD/MM/YYYY.
type ZapadParser struct{}

func (p *ZapadParser) BankCode() string { return "570" }
func (p *ZapadParser) BankName() string { return "Zapad Banka" }

var (
	// daily header
	zapadStmtNumRe  = regexp.MustCompile(`IZVOD\s+RAČUNA\s*-\s*broj\s+(\d+)`)
	zapadStmtDateRe = regexp.MustCompile(`za\s+dan\s+(\d{2}\.\d{2}\.\d{4})`)
	zapadClientRe   = regexp.MustCompile(`Klijent:\s*(.+?)(?:\s{2,}|Žiro)`)
	zapadPIBRe      = regexp.MustCompile(`JMBG/PIB:\s*(\d+)`)
	zapadAcctRe     = regexp.MustCompile(`Žiro\s+račun:\s*([\d-]+)`)
	zapadCurrRe     = regexp.MustCompile(`Valuta:\s*\d+\s+(\w+)`)
	zapadOpenRe     = regexp.MustCompile(`Prethodno\s+stanje:\s*([\d,]+\.\d{2})`)
	zapadCloseRe    = regexp.MustCompile(`Krajnje\s+stanje:\s*([\d,]+\.\d{2})`)
	zapadDebitRe    = regexp.MustCompile(`Ukupni\s+promet\s*-\s*duguje:\s*([\d,]+\.\d{2})`)
	zapadCreditRe   = regexp.MustCompile(`Ukupni\s+promet\s*-\s*potražuje:\s*([\d,]+\.\d{2})`)

	// daily rows: "N. <code> <name> <account> <amount> <saldo>" and the
	// three-amount variant with both movement columns present
	zapadTxn2Re = regexp.MustCompile(`^(\d+)\.\s+(\d+)\s+(.+?)\s+(\d{3}-\d+(?:-\d+)?)\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)
	zapadTxn3Re = regexp.MustCompile(`^(\d+)\.\s+(\d+)\s+(.+?)\s+(\d{3}-\d+(?:-\d+)?)\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)
	zapadRowRe  = regexp.MustCompile(`^\d+\.\s+\d+\s+`)

	// period format
	zapadIBANRe     = regexp.MustCompile(`IBAN:\s*(ME[\d ]*\d)`)
	zapadFromRe     = regexp.MustCompile(`FROM:\s*(\d{2}/\d{2}/\d{4})`)
	zapadToRe       = regexp.MustCompile(`TO:\s*(\d{2}/\d{2}/\d{4})`)
	zapadInBalRe    = regexp.MustCompile(`INCOMING\s+BALANCE:\s*([\d,]+\.\d{2})`)
	zapadOutBalRe   = regexp.MustCompile(`OUTGOING\s+BALANCE:\s*([\d,]+\.\d{2})`)
	zapadTurnoverRe = regexp.MustCompile(`TOTAL\s+TURNOVER\s+(?:EUR\(?\d*\)?:?)?\s*([\d,]+\.\d{2})\s+([\d,]+\.\d{2})`)
	zapadCurrEnRe   = regexp.MustCompile(`CURRENCY:\s*(\w+)\s*\(\d+\)`)
	zapadDetailsRe  = regexp.MustCompile(`DETAILS:\s*(.+)`)
	zapadAmounts3Re = regexp.MustCompile(`([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})`)
	zapadTransNoRe  = regexp.MustCompile(`\b(\d{7,8})\b`)
	zapadBlockIBAN  = regexp.MustCompile(`IBAN:\s*(\S+)`)
	zapadTimeRe     = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}`)
	zapadDateLeadRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
	zapadAlphaRe    = regexp.MustCompile(`[A-Za-z]`)
)

func (p *ZapadParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *ZapadParser) parsePages(pages []string) (*models.ParsedStatement, error) {
	stmt := &models.ParsedStatement{
		BankCode: p.BankCode(),
		BankName: p.BankName(),
		Currency: "EUR",
	}
	if len(pages) == 0 {
		return nil, newParseError(p.BankCode(), "document", fmt.Errorf("no pages"))
	}

	// The marker is a page-one title; matching only the head keeps a purpose
	// line quoting it from flipping a daily statement to the period layout.
	head := pages[0]
	if len(head) > 500 {
		head = head[:500]
	}
	if strings.Contains(head, "ACCOUNT STATEMENT") {
		p.parsePeriod(pages, stmt)
	} else {
		p.parseDaily(pages, stmt)
	}

	if stmt.AccountNumber == "" {
		return nil, newParseError(p.BankCode(), "header", fmt.Errorf("account number not found"))
	}
	if len(stmt.Transactions) == 0 {
		return nil, newParseError(p.BankCode(), "transactions", fmt.Errorf("no transaction rows found"))
	}
	return stmt, nil
}

func (p *ZapadParser) parseDaily(pages []string, stmt *models.ParsedStatement) {
	text := strings.Join(pages, "\n")

	if m := zapadStmtNumRe.FindStringSubmatch(text); m != nil {
		stmt.StatementNumber = m[1]
	}
	if m := zapadStmtDateRe.FindStringSubmatch(text); m != nil {
		if d, err := normalize.ParseDateDMY(m[1]); err == nil {
			stmt.StatementDate = d
		}
	}
	if m := zapadClientRe.FindStringSubmatch(text); m != nil {
		stmt.ClientName = normalize.CleanText(m[1])
	}
	if m := zapadPIBRe.FindStringSubmatch(text); m != nil {
		stmt.ClientPIB = m[1]
	}
	if m := zapadAcctRe.FindStringSubmatch(text); m != nil {
		stmt.AccountNumber = m[1]
	}
	if m := zapadCurrRe.FindStringSubmatch(text); m != nil {
		stmt.Currency = m[1]
	}
	if m := zapadOpenRe.FindStringSubmatch(text); m != nil {
		stmt.OpeningBalance = amountUS(m[1])
	}
	if m := zapadCloseRe.FindStringSubmatch(text); m != nil {
		stmt.ClosingBalance = amountUS(m[1])
	}
	if m := zapadDebitRe.FindStringSubmatch(text); m != nil {
		stmt.TotalDebit = amountUS(m[1])
	}
	if m := zapadCreditRe.FindStringSubmatch(text); m != nil {
		stmt.TotalCredit = amountUS(m[1])
	}

	p.parseDailyTransactions(text, stmt)

	// A two-amount row carries the movement and the running saldo but not
	// the side. When the statement's entire turnover is on the credit side,
	// reclassify.
	if stmt.TotalDebit.IsZero() && stmt.TotalCredit.IsPositive() {
		for i := range stmt.Transactions {
			if stmt.Transactions[i].Credit.IsZero() {
				stmt.Transactions[i].Credit = stmt.Transactions[i].Debit
				stmt.Transactions[i].Debit = decimal.Zero
			}
		}
	}
}

func (p *ZapadParser) parseDailyTransactions(text string, stmt *models.ParsedStatement) {
	lines := strings.Split(text, "\n")

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		var txn *models.ParsedTransaction
		if m := zapadTxn3Re.FindStringSubmatch(line); m != nil {
			// debit, credit, saldo all present
			txn = p.newDailyTxn(m, stmt)
			txn.Debit = amountUS(m[5])
			txn.Credit = amountUS(m[6])
		} else if m := zapadTxn2Re.FindStringSubmatch(line); m != nil {
			// movement + saldo; side decided later from the totals
			txn = p.newDailyTxn(m, stmt)
			txn.Debit = amountUS(m[5])
		}

		if txn == nil {
			i++
			continue
		}

		var purpose []string
		i++
		for i < len(lines) {
			next := strings.TrimSpace(lines[i])
			if next == "" {
				i++
				continue
			}
			if zapadRowRe.MatchString(next) ||
				strings.HasPrefix(next, "UKUPNO:") ||
				strings.HasPrefix(next, "Prethodno stanje:") ||
				strings.HasPrefix(next, "Krajnje stanje:") ||
				strings.HasPrefix(next, "Ovaj dokument") {
				break
			}
			purpose = append(purpose, next)
			i++
		}
		if len(purpose) > 0 {
			txn.Purpose = normalize.CleanText(strings.Join(purpose, " "))
		}
		stmt.Transactions = append(stmt.Transactions, *txn)
	}
}

func (p *ZapadParser) newDailyTxn(m []string, stmt *models.ParsedStatement) *models.ParsedTransaction {
	rb, _ := strconv.Atoi(m[1])
	return &models.ParsedTransaction{
		RowNumber:           rb,
		PaymentCode:         m[2],
		Counterparty:        normalize.CleanText(m[3]),
		CounterpartyAccount: m[4],
		ValueDate:           stmt.StatementDate,
		BookingDate:         stmt.StatementDate,
	}
}

func (p *ZapadParser) parsePeriod(pages []string, stmt *models.ParsedStatement) {
	first := pages[0]
	last := pages[len(pages)-1]

	p.parsePeriodHeader(first, stmt)

	if m := zapadOutBalRe.FindStringSubmatch(last); m != nil {
		stmt.ClosingBalance = amountUS(m[1])
	}
	if m := zapadTurnoverRe.FindStringSubmatch(last); m != nil {
		stmt.TotalDebit = amountUS(m[1])
		stmt.TotalCredit = amountUS(m[2])
	}

	for _, page := range pages {
		p.parsePeriodTransactions(page, stmt)
	}
}

func (p *ZapadParser) parsePeriodHeader(text string, stmt *models.ParsedStatement) {
	// Client name sits on the line after the title, before the ACCOUNT
	// PERIOD column header.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "ACCOUNT STATEMENT") && i+1 < len(lines) {
			name := strings.TrimSpace(lines[i+1])
			for _, suffix := range []string{"ACCOUNT PERIOD", "ACCOUNT", "PERIOD"} {
				name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
			}
			if name != "" {
				stmt.ClientName = normalize.CleanText(name)
			}
			break
		}
	}

	if m := zapadIBANRe.FindStringSubmatch(text); m != nil {
		stmt.IBAN = strings.ReplaceAll(m[1], " ", "")
		if len(stmt.IBAN) > 4 {
			stmt.AccountNumber = stmt.IBAN[4:]
		} else {
			stmt.AccountNumber = stmt.IBAN
		}
	}
	if m := zapadPIBRe.FindStringSubmatch(text); m != nil {
		stmt.ClientPIB = m[1]
	}
	if m := zapadFromRe.FindStringSubmatch(text); m != nil {
		if d, err := normalize.ParseDateDMYSlash(m[1]); err == nil {
			stmt.PeriodStart = d
		}
	}
	if m := zapadToRe.FindStringSubmatch(text); m != nil {
		if d, err := normalize.ParseDateDMYSlash(m[1]); err == nil {
			stmt.PeriodEnd = d
			stmt.StatementDate = d
		}
	}
	if m := zapadInBalRe.FindStringSubmatch(text); m != nil {
		stmt.OpeningBalance = amountUS(m[1])
	}
	if m := zapadCurrEnRe.FindStringSubmatch(text); m != nil {
		stmt.Currency = m[1]
	}
}

func (p *ZapadParser) parsePeriodTransactions(page string, stmt *models.ParsedStatement) {
	lines := strings.Split(page, "\n")

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, "DETAILS:") {
			i++
			continue
		}

		block := []string{line}
		i++
		for i < len(lines) {
			next := strings.TrimSpace(lines[i])
			if strings.Contains(next, "DETAILS:") ||
				strings.HasPrefix(next, "TOTAL TURNOVER") ||
				strings.HasPrefix(next, "OUTGOING BALANCE") ||
				strings.HasPrefix(next, "This document") ||
				zapadTimeRe.MatchString(next) {
				break
			}
			block = append(block, next)
			i++
		}
		p.parsePeriodBlock(block, stmt)
	}
}

func (p *ZapadParser) parsePeriodBlock(block []string, stmt *models.ParsedStatement) {
	joined := strings.Join(block, "\n")

	details := ""
	if m := zapadDetailsRe.FindStringSubmatch(block[0]); m != nil {
		details = strings.TrimSpace(m[1])
	}

	// Amount line: debit, credit, running balance.
	var debit, credit decimal.Decimal
	found := false
	for _, line := range block {
		if m := zapadAmounts3Re.FindStringSubmatch(line); m != nil {
			debit = amountUS(m[1])
			credit = amountUS(m[2])
			found = true
			break
		}
	}
	if !found {
		return
	}

	txn := models.ParsedTransaction{
		RowNumber: len(stmt.Transactions) + 1,
		Debit:     debit,
		Credit:    credit,
	}

	dates := dateSlashRe.FindAllString(joined, -1)
	if len(dates) > 0 {
		if d, err := normalize.ParseDateDMYSlash(dates[0]); err == nil {
			txn.ValueDate = d
			txn.BookingDate = d
		}
	}
	if len(dates) > 1 {
		if d, err := normalize.ParseDateDMYSlash(dates[1]); err == nil {
			txn.BookingDate = d
		}
	}

	transNo := firstMatch(zapadTransNoRe, joined)
	if m := zapadBlockIBAN.FindStringSubmatch(joined); m != nil {
		txn.CounterpartyAccount = m[1]
	}

	// Counterparty sits between the transaction number and the IBAN label.
	if transNo != "" {
		nameRe := regexp.MustCompile(regexp.QuoteMeta(transNo) + `\s+(.+?)\s+IBAN:`)
		for _, line := range block {
			if !strings.Contains(line, transNo) {
				continue
			}
			if m := nameRe.FindStringSubmatch(line); m != nil {
				name := normalize.CleanText(m[1])
				if name != "" && zapadAlphaRe.MatchString(name) {
					txn.Counterparty = name
				}
			}
			break
		}
	}

	purpose := []string{details}
	for _, line := range block[1:] {
		if line == "" ||
			zapadDateLeadRe.MatchString(line) ||
			zapadAmounts3Re.MatchString(line) ||
			strings.Contains(line, "IBAN:") ||
			(transNo != "" && strings.Contains(line, transNo)) {
			continue
		}
		purpose = append(purpose, line)
	}
	txn.Purpose = normalize.CleanText(strings.Join(purpose, " "))

	stmt.Transactions = append(stmt.Transactions, txn)
}
