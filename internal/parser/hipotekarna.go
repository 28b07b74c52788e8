package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/izvodcg/izvod/internal/extractor"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// HipotekarnaParser handles Hipotekarna Banka (520) PDF statements.
//
// Text-only PDF, no ruled table lines. Header carries client and bank info,
// then an IZVOD BR. line, transaction rows, and a trailing summary row.
// Each transaction spans two lines:
//
//	16.01.2026. CRNOGORSKA KOMERCIJALNA BANKA 123.45 0.00
//	510000000000123456 placanje po fakturi 123-000000123
//
// Period decimal (1069.94). Dates DD.MM.YYYY with trailing dot.
type HipotekarnaParser struct{}

func (p *HipotekarnaParser) BankCode() string { return "520" }
func (p *HipotekarnaParser) BankName() string { return "Hipotekarna Banka" }

var (
	hipoTxnRe = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\.?\s+(.+?)\s+([\d,.]+)\s+([\d,.]+)\s*$`)
	hipoAcctRe = regexp.MustCompile(`^(\d{18})\s*(.*)`)
	// purpose tail: reclamation reference like 520-000012345
	hipoReclamRe = regexp.MustCompile(`(\d{3}-\d{9,15})\s*$`)
	// summary: opening debit credit closing count_debit count_credit
	hipoSummaryRe = regexp.MustCompile(`^([\d,.]+)\s+([\d,.]+)\s+([\d,.]+)\s+([\d,.]+)\s+(\d+)\s+(\d+)\s*$`)
	hipoStmtNumRe = regexp.MustCompile(`^(\d{1,4})\s+(\d{2}\.\d{2}\.\d{4})`)
	hipoOwnAcctRe = regexp.MustCompile(`\b(520\d{15})\b`)
	hipoPIBRe     = regexp.MustCompile(`^\d{7,8}$`)
)

func (p *HipotekarnaParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *HipotekarnaParser) parsePages(pages []string) (*models.ParsedStatement, error) {
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

// parseHeader reads the first page only; later pages repeat a shortened
// header that must not overwrite it.
func (p *HipotekarnaParser) parseHeader(page string, stmt *models.ParsedStatement) {
	lines := strings.Split(page, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)

		if m := hipoOwnAcctRe.FindString(line); m != "" && stmt.AccountNumber == "" {
			stmt.AccountNumber = m
			continue
		}

		// Statement number and date share one line: "004  01.02.2026."
		if m := hipoStmtNumRe.FindStringSubmatch(line); m != nil && stmt.StatementNumber == "" {
			stmt.StatementNumber = strings.TrimLeft(m[1], "0")
			if stmt.StatementNumber == "" {
				stmt.StatementNumber = "0"
			}
			if d, err := normalize.ParseDateDMY(m[2]); err == nil {
				stmt.StatementDate = d
			}
			continue
		}

		// PIB is a bare 7-8 digit line in the right header block.
		if hipoPIBRe.MatchString(line) && stmt.ClientPIB == "" {
			stmt.ClientPIB = line
			continue
		}

		// Client name: first non-numeric line of useful length before the
		// statement number appears.
		if stmt.ClientName == "" && stmt.StatementNumber == "" && len(line) > 3 &&
			!regexp.MustCompile(`^[\d.,\s-]+$`).MatchString(line) &&
			!strings.Contains(line, "Hipotekarna") {
			stmt.ClientName = normalize.CleanText(line)
		}
	}
}

func (p *HipotekarnaParser) parsePage(page string, stmt *models.ParsedStatement) {
	lines := strings.Split(page, "\n")

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		if m := hipoTxnRe.FindStringSubmatch(line); m != nil {
			txn := models.ParsedTransaction{
				RowNumber:        len(stmt.Transactions) + 1,
				CounterpartyBank: normalize.CleanText(m[2]),
			}
			if d, err := normalize.ParseDateDMY(m[1]); err == nil {
				txn.ValueDate = d
				txn.BookingDate = d
			}
			txn.Debit = amountUS(m[3])
			txn.Credit = amountUS(m[4])

			// Second line: counterparty account + purpose + reclamation.
			if i+1 < len(lines) {
				if m2 := hipoAcctRe.FindStringSubmatch(strings.TrimSpace(lines[i+1])); m2 != nil {
					txn.CounterpartyAccount = m2[1]
					rest := strings.TrimSpace(m2[2])
					if m3 := hipoReclamRe.FindStringSubmatch(rest); m3 != nil {
						txn.Purpose = normalize.CleanText(rest[:len(rest)-len(m3[0])])
						txn.ReclamationData = m3[1]
					} else if rest != "" {
						txn.Purpose = normalize.CleanText(rest)
					}
					i++
				}
			}

			if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
				stmt.Transactions = append(stmt.Transactions, txn)
			}
			i++
			continue
		}

		if m := hipoSummaryRe.FindStringSubmatch(line); m != nil {
			stmt.OpeningBalance = amountUS(m[1])
			stmt.TotalDebit = amountUS(m[2])
			stmt.TotalCredit = amountUS(m[3])
			stmt.ClosingBalance = amountUS(m[4])
		}
		i++
	}
}
