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

// ZiraatParser handles Ziraat Bank Montenegro (575) PDF statements.
//
// Structurally close to Prva: RB-numbered rows, but amounts use period
// decimal (1,328.85) and the fee rides inside the debit cell as a second
// "Naknada 1.75" line. Counterparty names are often concatenated without
// spaces in the source PDF and are kept as extracted.
type ZiraatParser struct{}

func (p *ZiraatParser) BankCode() string { return "575" }
func (p *ZiraatParser) BankName() string { return "Ziraat Bank Montenegro" }

var (
	ziraatClientRe  = regexp.MustCompile(`(?m)Naziv:\s*(.+?)(?:\s{2,}|Matični|$)`)
	ziraatAcctRe    = regexp.MustCompile(`Račun:\s*([\d-]+)`)
	ziraatStmtNumRe = regexp.MustCompile(`IZVOD\s+BROJ\s+(\d+)`)
	ziraatDateRe    = regexp.MustCompile(`NA\s+DAN\s+(\d{2}\.\d{2}\.\d{4})`)
	ziraatPIBRe     = regexp.MustCompile(`PIB:\s*(\d+)`)
	// summary: opening debit credit closing, period decimal
	ziraatSummaryRe = regexp.MustCompile(`^([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)
	// "RB NAME... DD.MM.YYYY debit credit code purpose..."
	ziraatTxnRe = regexp.MustCompile(`^(\d{1,3})\s+(.+?)\s+(\d{2}\.\d{2}\.\d{4})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+(\d{3})\s*(.*)`)
	// fee sub-line inside the debit cell
	ziraatFeeRe     = regexp.MustCompile(`Naknada\s+([\d,]+\.\d{2})`)
	ziraatCpAcctRe  = regexp.MustCompile(`^\d{3}-\d+-\d{2}$`)
	ziraatRefPairRe = regexp.MustCompile(`^\(([^)]*)\)\s*(\S*)$`)
	ziraatTotalRe   = regexp.MustCompile(`UKUPNO:?\s*([\d,]+\.\d{2})\s+([\d,]+\.\d{2})`)
)

func (p *ZiraatParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *ZiraatParser) parsePages(pages []string) (*models.ParsedStatement, error) {
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

	fold := &feeFold{}
	for _, page := range pages {
		p.parsePage(page, stmt, fold)
	}
	stmt.Transactions = fold.Transactions()

	if len(stmt.Transactions) == 0 {
		return nil, newParseError(p.BankCode(), "transactions", fmt.Errorf("no transaction rows found"))
	}
	return stmt, nil
}

func (p *ZiraatParser) parseHeader(page string, stmt *models.ParsedStatement) {
	if m := ziraatClientRe.FindStringSubmatch(page); m != nil {
		stmt.ClientName = normalize.CleanText(m[1])
	}
	if m := ziraatAcctRe.FindStringSubmatch(page); m != nil {
		stmt.AccountNumber = m[1]
	}
	if m := ziraatStmtNumRe.FindStringSubmatch(page); m != nil {
		stmt.StatementNumber = m[1]
	}
	if m := ziraatDateRe.FindStringSubmatch(page); m != nil {
		if d, err := normalize.ParseDateDMY(m[1]); err == nil {
			stmt.StatementDate = d
		}
	}
	if m := ziraatPIBRe.FindStringSubmatch(page); m != nil {
		stmt.ClientPIB = m[1]
	}

	for _, line := range strings.Split(page, "\n") {
		if m := ziraatSummaryRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			stmt.OpeningBalance = amountUS(m[1])
			stmt.TotalDebit = amountUS(m[2])
			stmt.TotalCredit = amountUS(m[3])
			stmt.ClosingBalance = amountUS(m[4])
			break
		}
	}
}

func (p *ZiraatParser) parsePage(page string, stmt *models.ParsedStatement, fold *feeFold) {
	for _, raw := range strings.Split(page, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := ziraatTxnRe.FindStringSubmatch(line); m != nil {
			rb, _ := strconv.Atoi(m[1])
			txn := models.ParsedTransaction{
				RowNumber:    rb,
				Counterparty: normalize.CleanText(m[2]),
				Debit:        amountUS(m[4]),
				Credit:       amountUS(m[5]),
				PaymentCode:  m[6],
				Purpose:      normalize.CleanText(m[7]),
			}
			if d, err := normalize.ParseDateDMY(m[3]); err == nil {
				txn.BookingDate = d
				txn.ValueDate = d
			}
			if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
				fold.Append(txn)
			}
			continue
		}

		// Fee sub-line of the debit cell, printed under the row.
		if m := ziraatFeeRe.FindStringSubmatch(line); m != nil {
			fold.FoldFee(amountUS(m[1]))
			continue
		}

		if m := ziraatTotalRe.FindStringSubmatch(line); m != nil {
			stmt.TotalDebit = amountUS(m[1])
			stmt.TotalCredit = amountUS(m[2])
			continue
		}

		if fold.Count() == 0 {
			continue
		}
		last := fold.Transactions()
		current := &last[len(last)-1]

		// Continuation lines of the open row: the counterparty account and
		// the "(model) reference" pair. Empty "( )" models are dropped.
		switch {
		case ziraatCpAcctRe.MatchString(line):
			current.CounterpartyAccount = line
		case ziraatRefPairRe.MatchString(line):
			m := ziraatRefPairRe.FindStringSubmatch(line)
			if strings.TrimSpace(m[1]) == "" && m[2] == "" {
				continue
			}
			if current.ReferenceDebit == "" {
				current.ReferenceDebit = normalize.CleanText(line)
			} else if current.ReferenceCredit == "" {
				current.ReferenceCredit = normalize.CleanText(line)
			}
		case looksLikeText(line) && !strings.Contains(line, "IZVOD") && !strings.Contains(line, "Strana"):
			if current.Purpose != "" {
				current.Purpose = normalize.CleanText(current.Purpose + " " + line)
			}
		}
	}
}
