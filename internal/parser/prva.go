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

// PrvaParser handles Prva Banka CG (535) PDF statements.
//
// RB-numbered rows; columns RB, counterparty, origin, debit, credit, code,
// purpose, references, reclamation. Main amounts use comma decimal
// (2.163,40), fees on continuation lines use period decimal (0.44), dates
// YYYY.MM.DD.
type PrvaParser struct{}

func (p *PrvaParser) BankCode() string { return "535" }
func (p *PrvaParser) BankName() string { return "Prva Banka CG" }

var (
	// "RB NAME... DEBIT CREDIT CODE PURPOSE..."
	prvaTxnStartRe = regexp.MustCompile(`^(\d{1,3})\s+([A-Za-z/",].+?)\s+([\d.]+,\d{2})\s+([\d.]+,\d{2})\s+(\d{3})\s+(.*)`)
	prvaClientRe   = regexp.MustCompile(`(?m)Naziv:\s*(.+?)(?:\s+Izvod|\s*$)`)
	prvaPIBRe      = regexp.MustCompile(`PIB:\s*(\d+)`)
	prvaAcctRe     = regexp.MustCompile(`Ra[čc]un:\s*(535-[\d-]+)`)
	prvaStmtNumRe  = regexp.MustCompile(`SREDSTAVA\s+BROJ\s+(\d+)`)
	prvaStmtDateRe = regexp.MustCompile(`Datum\s+izvoda:\s*(\d{2}\.\d{2}\.\d{4})`)
	// "opening total_debit total_credit closing 6 / 0"
	prvaSummaryRe = regexp.MustCompile(`([\d.,]+)\s+([\d.,]+)\s+([\d.,]+)\s+([\d.,]+)\s+\d+\s*/\s*\d+`)

	// continuation line shapes
	prvaAcctDateRe    = regexp.MustCompile(`^(\d{3}-[\d-]+)\s+(\d{4}\.\d{2}\.\d{2})`)
	prvaBareDateRe    = regexp.MustCompile(`^(\d{4}\.\d{2}\.\d{2})\s*$`)
	prvaAcctFeeRe     = regexp.MustCompile(`^(\d{3}-[\d-]+)\s+\d{4}\s+([\d.]+)\s+\(([^)]*)\)\s*(.*)`)
	prvaFeeRe         = regexp.MustCompile(`^(\d{4})\s+([\d.]+)\s+\(([^)]*)\)\s*(.*)`)
	prvaNameContRe    = regexp.MustCompile(`^[A-Za-z/,]`)
	prvaNameOriginRe  = regexp.MustCompile(`^(.+?)\s+(?:Filijala\b|0\d{3}\b)`)
	prvaTrailParenRe  = regexp.MustCompile(`\(\d+\)$`)
	prvaEmptyModelRe  = regexp.MustCompile(`\(\s*\)\s+(\d{11,})`)
	prvaModelRefRe    = regexp.MustCompile(`\(([^)]*)\)\s+(\d{11,})`)
)

func (p *PrvaParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	return p.parsePages(pages)
}

func (p *PrvaParser) parsePages(pages []string) (*models.ParsedStatement, error) {
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

	p.parseTransactions(text, stmt)
	if len(stmt.Transactions) == 0 {
		return nil, newParseError(p.BankCode(), "transactions", fmt.Errorf("no transaction rows found"))
	}
	return stmt, nil
}

func (p *PrvaParser) parseHeader(text string, stmt *models.ParsedStatement) {
	if m := prvaClientRe.FindStringSubmatch(text); m != nil {
		stmt.ClientName = normalize.CleanText(m[1])
	}

	// The bank's own PIB and account come first in the letterhead; the
	// client's are the second occurrence.
	pibs := prvaPIBRe.FindAllStringSubmatch(text, -1)
	if len(pibs) >= 2 {
		stmt.ClientPIB = pibs[1][1]
	} else if len(pibs) == 1 {
		stmt.ClientPIB = pibs[0][1]
	}
	accts := prvaAcctRe.FindAllStringSubmatch(text, -1)
	if len(accts) >= 2 {
		stmt.AccountNumber = accts[1][1]
	} else if len(accts) == 1 {
		stmt.AccountNumber = accts[0][1]
	}

	if m := prvaStmtNumRe.FindStringSubmatch(text); m != nil {
		stmt.StatementNumber = m[1]
	}
	if m := prvaStmtDateRe.FindStringSubmatch(text); m != nil {
		if d, err := normalize.ParseDateDMY(m[1]); err == nil {
			stmt.StatementDate = d
		}
	}
	if m := prvaSummaryRe.FindStringSubmatch(text); m != nil {
		stmt.OpeningBalance = amountEU(m[1])
		stmt.TotalDebit = amountEU(m[2])
		stmt.TotalCredit = amountEU(m[3])
		stmt.ClosingBalance = amountEU(m[4])
	}
}

func (p *PrvaParser) parseTransactions(text string, stmt *models.ParsedStatement) {
	lines := strings.Split(text, "\n")

	var starts []int
	end := len(lines)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if prvaTxnStartRe.MatchString(trimmed) {
			starts = append(starts, i)
		}
		if strings.HasPrefix(trimmed, "UKUPNO") && end == len(lines) {
			end = i
		}
	}

	for idx, startIdx := range starts {
		blockEnd := end
		if idx+1 < len(starts) {
			blockEnd = starts[idx+1]
		}
		var block []string
		for j := startIdx; j < blockEnd; j++ {
			if trimmed := strings.TrimSpace(lines[j]); trimmed != "" {
				block = append(block, trimmed)
			}
		}
		if txn := p.parseBlock(block); txn != nil {
			stmt.Transactions = append(stmt.Transactions, *txn)
		}
	}
}

func (p *PrvaParser) parseBlock(block []string) *models.ParsedTransaction {
	if len(block) == 0 {
		return nil
	}
	m := prvaTxnStartRe.FindStringSubmatch(block[0])
	if m == nil {
		return nil
	}

	rb, _ := strconv.Atoi(m[1])
	txn := models.ParsedTransaction{
		RowNumber:   rb,
		PaymentCode: m[5],
		Debit:       amountEU(m[3]),
		Credit:      amountEU(m[4]),
	}
	p.parsePurposeTail(m[6], &txn)

	// Counterparty name runs until the branch/origin marker.
	if mn := prvaNameOriginRe.FindStringSubmatch(m[2]); mn != nil {
		txn.Counterparty = normalize.CleanText(mn[1])
	} else {
		txn.Counterparty = normalize.CleanText(m[2])
	}

	for _, line := range block[1:] {
		// "820-30000-74 2026.02.24"
		if mc := prvaAcctDateRe.FindStringSubmatch(line); mc != nil {
			txn.CounterpartyAccount = mc[1]
			if d, err := normalize.ParseDateYMD(mc[2]); err == nil {
				txn.BookingDate = d
				txn.ValueDate = d
			}
			continue
		}
		if mc := prvaBareDateRe.FindStringSubmatch(line); mc != nil {
			if d, err := normalize.ParseDateYMD(mc[1]); err == nil {
				txn.BookingDate = d
				txn.ValueDate = d
			}
			continue
		}
		// "530-54171-72 0431 0.34 ( ) 03244822"
		if mc := prvaAcctFeeRe.FindStringSubmatch(line); mc != nil {
			txn.CounterpartyAccount = mc[1]
			txn.Fee = amountUS(mc[2])
			if ref := strings.TrimSpace(mc[3]) + strings.TrimSpace(mc[4]); ref != "" {
				txn.ReferenceCredit = normalize.CleanText("(" + strings.TrimSpace(mc[3]) + ") " + strings.TrimSpace(mc[4]))
			}
			continue
		}
		// "0431 0.44 (18) 03486575-302"
		if mc := prvaFeeRe.FindStringSubmatch(line); mc != nil {
			txn.Fee = amountUS(mc[2])
			if ref := strings.TrimSpace(mc[3]) + strings.TrimSpace(mc[4]); ref != "" {
				txn.ReferenceCredit = normalize.CleanText("(" + strings.TrimSpace(mc[3]) + ") " + strings.TrimSpace(mc[4]))
			}
			continue
		}
		// Name continuation before the account line appears.
		if txn.CounterpartyAccount == "" && prvaNameContRe.MatchString(line) {
			extra := strings.SplitN(line, "stari ", 2)[0]
			extra = strings.SplitN(extra, "Filijala", 2)[0]
			extra = strings.TrimSpace(prvaTrailParenRe.ReplaceAllString(strings.TrimSpace(extra), ""))
			if extra != "" {
				txn.Counterparty = normalize.CleanText(txn.Counterparty + " " + extra)
			}
		}
	}

	if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
		return &txn
	}
	return nil
}

// parsePurposeTail splits the first line's tail into purpose text, an
// optional (MODEL) reference, and the trailing reclamation number.
func (p *PrvaParser) parsePurposeTail(tail string, txn *models.ParsedTransaction) {
	if m := prvaEmptyModelRe.FindStringSubmatchIndex(tail); m != nil {
		txn.Purpose = normalize.CleanText(tail[:m[0]])
		txn.ReclamationData = tail[m[2]:m[3]]
		return
	}
	if m := prvaModelRefRe.FindStringSubmatchIndex(tail); m != nil {
		txn.Purpose = normalize.CleanText(tail[:m[0]])
		txn.ReferenceDebit = "(" + tail[m[2]:m[3]] + ")"
		txn.ReclamationData = tail[m[4]:m[5]]
		return
	}
	txn.Purpose = normalize.CleanText(tail)
}
