package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/izvodcg/izvod/internal/extractor"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// UCBParser handles Universal Capital Bank (560) PDF statements.
//
// RB-numbered table rows with an origin/date column, then debit, credit,
// payment code and purpose. Period decimal (1,069.94), dates YYYY.MM.DD.
// Counterparty name and its 15-18 digit account continue on the following
// lines.
type UCBParser struct{}

func (p *UCBParser) BankCode() string { return "560" }
func (p *UCBParser) BankName() string { return "Universal Capital Bank" }

var (
	ucbClientRe  = regexp.MustCompile(`Naziv:\s*(.+)`)
	ucbAcctRe    = regexp.MustCompile(`Broj\s+partije:\s*([\d-]+)`)
	ucbStmtNumRe = regexp.MustCompile(`Izvod\s+broj\s*:\s*(\d+)`)
	ucbDateRe    = regexp.MustCompile(`NA\s+DAN\s+(\d{2}\.\d{2}\.\d{4})`)
	ucbPIBRe     = regexp.MustCompile(`(?:Poreski\s+broj|PIB):\s*(\d+)`)
	// summary: opening debit credit closing, all period decimal
	ucbSummaryRe = regexp.MustCompile(`^([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)
	// "RB NAME... origin/ YYYY.MM.DD debit credit code purpose..."
	ucbTxnRe    = regexp.MustCompile(`^(\d{1,3})\s+(.+?)\s+(\d{4}\.\d{2}\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+(\d{3})\s*(.*)`)
	ucbTotalRe  = regexp.MustCompile(`Ukupno\s+EUR\s*:?\s*([\d,]+\.\d{2})\s+([\d,]+\.\d{2})`)
	ucbCpAcctRe = regexp.MustCompile(`(\d{15,18})\s*$`)
	ucbOriginRe = regexp.MustCompile(`\s*\d{2}-[^/]*/?\s*$`)
)

func (p *UCBParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *UCBParser) parsePages(pages []string) (*models.ParsedStatement, error) {
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

func (p *UCBParser) parseHeader(page string, stmt *models.ParsedStatement) {
	if m := ucbClientRe.FindStringSubmatch(page); m != nil {
		name := strings.TrimSpace(m[1])
		// the extracted row may run into the next labeled field
		for _, stop := range []string{"Mjesto:", "Matični", "Izvod"} {
			if idx := strings.Index(name, stop); idx > 0 {
				name = strings.TrimSpace(name[:idx])
			}
		}
		stmt.ClientName = normalize.CleanText(name)
	}
	if m := ucbAcctRe.FindStringSubmatch(page); m != nil {
		stmt.AccountNumber = m[1]
	}
	if m := ucbStmtNumRe.FindStringSubmatch(page); m != nil {
		stmt.StatementNumber = m[1]
	}
	if m := ucbDateRe.FindStringSubmatch(page); m != nil {
		if d, err := normalize.ParseDateDMY(m[1]); err == nil {
			stmt.StatementDate = d
		}
	}
	if m := ucbPIBRe.FindStringSubmatch(page); m != nil {
		stmt.ClientPIB = m[1]
	}

	// Summary line under "Prethodno stanje Duguje Potrazuje Novo stanje".
	for _, line := range strings.Split(page, "\n") {
		if m := ucbSummaryRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			stmt.OpeningBalance = amountUS(m[1])
			stmt.TotalDebit = amountUS(m[2])
			stmt.TotalCredit = amountUS(m[3])
			stmt.ClosingBalance = amountUS(m[4])
			break
		}
	}
}

func (p *UCBParser) parsePage(page string, stmt *models.ParsedStatement) {
	lines := strings.Split(page, "\n")

	var current *models.ParsedTransaction
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := ucbTxnRe.FindStringSubmatch(line); m != nil {
			p.flush(current, stmt)
			rb, _ := strconv.Atoi(m[1])
			txn := models.ParsedTransaction{
				RowNumber:    rb,
				Counterparty: strings.TrimSpace(ucbOriginRe.ReplaceAllString(m[2], "")),
				Debit:        amountUS(m[4]),
				Credit:       amountUS(m[5]),
				PaymentCode:  m[6],
				Purpose:      normalize.CleanText(m[7]),
			}
			if d, err := normalize.ParseDateYMD(m[3]); err == nil {
				txn.BookingDate = d
				txn.ValueDate = d
			}
			current = &txn
			continue
		}

		if m := ucbTotalRe.FindStringSubmatch(line); m != nil {
			stmt.TotalDebit = amountUS(m[1])
			stmt.TotalCredit = amountUS(m[2])
			continue
		}

		// Continuation: address lines and the counterparty account. The
		// account is the last long digit run.
		if current != nil && !isUCBNoise(line) {
			if m := ucbCpAcctRe.FindStringSubmatch(line); m != nil {
				current.CounterpartyAccount = m[1]
				prefix := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line[:len(line)-len(m[0])]), ","))
				if prefix != "" {
					current.Counterparty = current.Counterparty + ", " + prefix
				}
			} else if current.Purpose != "" && looksLikeText(line) {
				current.Counterparty = current.Counterparty + ", " + line
			}
		}
	}
	p.flush(current, stmt)
}

// flush finalizes the pending transaction and appends it unless both amount
// columns were zero.
func (p *UCBParser) flush(txn *models.ParsedTransaction, stmt *models.ParsedStatement) {
	if txn == nil {
		return
	}
	txn.Counterparty = normalize.CleanText(strings.ReplaceAll(txn.Counterparty, ", ,", ","))
	if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
		stmt.Transactions = append(stmt.Transactions, *txn)
	}
}

var ucbNoiseWords = []string{"Ukupno", "Strana", "Prethodno", "Duguje", "Potrazuje", "Novo stanje"}

func isUCBNoise(line string) bool {
	for _, w := range ucbNoiseWords {
		if strings.Contains(line, w) {
			return true
		}
	}
	return false
}

var looksLikeTextRe = regexp.MustCompile(`^[A-Za-zŠĐŽĆČšđžćč]`)

func looksLikeText(line string) bool {
	return looksLikeTextRe.MatchString(line)
}
