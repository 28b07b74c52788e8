package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/izvodcg/izvod/internal/extractor"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// LovcenParser handles Lovcen Banka (565) PDF statements.
//
// Ruled 8-column table, close to the Hipotekarna layout: value date,
// counterparty and account, bank, debit, credit, payment code + purpose,
// references, reclamation. Comma decimal (6.851,10), dates DD.MM.YYYY.
type LovcenParser struct{}

func (p *LovcenParser) BankCode() string { return "565" }
func (p *LovcenParser) BankName() string { return "Lovcen Banka" }

var (
	lovcenClientRe  = regexp.MustCompile(`(?m)Klijent\s*:\s*(.+?)(?:\s+PIB|\s*$)`)
	lovcenPIBRe     = regexp.MustCompile(`PIB\s*:\s*(\d+)`)
	lovcenAcctRe    = regexp.MustCompile(`Broj\s+ra[čc]una\s*:\s*(\d{18})`)
	lovcenStmtRe    = regexp.MustCompile(`IZVOD\s+BR\.\s*(\d+)\s+za\s+dan\s+(\d{2}\.\d{2}\.\d{4})`)
	// "date counterparty... debit credit code purpose..."
	lovcenTxnRe = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(.+?)\s+([\d.]+,\d{2})\s+([\d.]+,\d{2})\s+(\d{3})\s+(.*)`)
	// summary row under "Predhodno stanje": four comma-decimal amounts
	lovcenSummaryRe = regexp.MustCompile(`^([\d.]+,\d{2})\s+([\d.]+,\d{2})\s+([\d.]+,\d{2})\s+([\d.]+,\d{2})\s*$`)
	lovcenAcct18Re  = regexp.MustCompile(`^\d{18}$`)
	lovcenAcctDashRe = regexp.MustCompile(`^\d{3}-\d+-\d{2}$`)
	lovcenRefRe      = regexp.MustCompile(`^\d{3}-\d{6,}`)
)

func (p *LovcenParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *LovcenParser) parsePages(pages []string) (*models.ParsedStatement, error) {
	stmt := &models.ParsedStatement{
		BankCode: p.BankCode(),
		BankName: p.BankName(),
		Currency: "EUR",
	}
	text := strings.Join(pages, "\n")

	p.parseHeader(text, stmt)
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

func (p *LovcenParser) parseHeader(text string, stmt *models.ParsedStatement) {
	if m := lovcenClientRe.FindStringSubmatch(text); m != nil {
		stmt.ClientName = normalize.CleanText(m[1])
	}
	if m := lovcenPIBRe.FindStringSubmatch(text); m != nil {
		stmt.ClientPIB = m[1]
	}
	if m := lovcenAcctRe.FindStringSubmatch(text); m != nil {
		stmt.AccountNumber = m[1]
	}
	if m := lovcenStmtRe.FindStringSubmatch(text); m != nil {
		num := strings.TrimLeft(m[1], "0")
		if num == "" {
			num = "0"
		}
		stmt.StatementNumber = num
		if d, err := normalize.ParseDateDMY(m[2]); err == nil {
			stmt.StatementDate = d
		}
	}
}

func (p *LovcenParser) parsePage(page string, stmt *models.ParsedStatement) {
	lines := strings.Split(page, "\n")

	var current *models.ParsedTransaction
	afterSummaryHeader := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.Contains(line, "Predhodno stanje") || strings.Contains(line, "Prethodno stanje") {
			afterSummaryHeader = true
			continue
		}
		if afterSummaryHeader {
			if m := lovcenSummaryRe.FindStringSubmatch(line); m != nil {
				stmt.OpeningBalance = amountEU(m[1])
				stmt.TotalDebit = amountEU(m[2])
				stmt.TotalCredit = amountEU(m[3])
				stmt.ClosingBalance = amountEU(m[4])
				afterSummaryHeader = false
				continue
			}
		}

		if m := lovcenTxnRe.FindStringSubmatch(line); m != nil {
			p.flush(current, stmt)
			txn := models.ParsedTransaction{
				Debit:  amountEU(m[3]),
				Credit: amountEU(m[4]),
			}
			if d, err := normalize.ParseDateDMY(m[1]); err == nil {
				txn.ValueDate = d
				txn.BookingDate = d
			}
			txn.Counterparty = normalize.CleanText(m[2])
			txn.PaymentCode = m[5]
			txn.Purpose = normalize.CleanText(m[6])
			current = &txn
			continue
		}

		if current == nil {
			continue
		}
		// Continuation lines of the same ruled row: account number, bank
		// name, reference and reclamation fragments.
		switch {
		case lovcenAcct18Re.MatchString(line), lovcenAcctDashRe.MatchString(line):
			current.CounterpartyAccount = line
		case lovcenRefRe.MatchString(line):
			if current.ReferenceDebit == "" {
				current.ReferenceDebit = line
			} else if current.ReclamationData == "" {
				current.ReclamationData = line
			}
		case strings.Contains(strings.ToLower(line), "banka") && current.CounterpartyBank == "":
			current.CounterpartyBank = normalize.CleanText(line)
		case looksLikeText(line) && !strings.Contains(line, "IZVOD"):
			current.Purpose = normalize.CleanText(current.Purpose + " " + line)
		}
	}
	p.flush(current, stmt)
}

func (p *LovcenParser) flush(txn *models.ParsedTransaction, stmt *models.ParsedStatement) {
	if txn == nil {
		return
	}
	if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
		txn.RowNumber = len(stmt.Transactions) + 1
		stmt.Transactions = append(stmt.Transactions, *txn)
	}
}
