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

// NLBParser handles NLB Banka (530) PDF statements.
//
// The PDFs use custom Identity-H font encoding: glyphs come out as raw CIDs
// and are decoded through the lookup tables in nlb_cid.go before parsing.
// Transactions are multi-line blocks keyed by a row-number line; the table
// columns are recognized by x-position. A "Naknada" line inside a block is
// the fee sub-line and folds onto its transaction.
//
// Period decimal (109.66). Dates DD.MM.YYYY.
type NLBParser struct{}

func (p *NLBParser) BankCode() string { return "530" }
func (p *NLBParser) BankName() string { return "NLB Banka" }

// Column x-boundaries of the NLB transaction table.
const (
	nlbColCounterpartyEnd = 210.0
	nlbColOriginEnd       = 340.0
	nlbColAmountEnd       = 413.0
	nlbColCodeEnd         = 445.0
	nlbColPurposeEnd      = 650.0
	nlbColReferenceEnd    = 740.0
	nlbRowNumberMaxX      = 45.0
)

var (
	nlbStmtNumRe = regexp.MustCompile(`IZVOD\s*BR\.\s*(\d+)`)
	nlbDateRe    = regexp.MustCompile(`DANA\s+(\d{2}\.\d{2}\.\d{4})`)
	nlbPIBRe     = regexp.MustCompile(`(?i)poreski\s*broj\s*(\d+)`)
	nlbAcctRe    = regexp.MustCompile(`530-\d{13}-\d{2}`)
	nlbAmountRe  = regexp.MustCompile(`\d+\.\d{2}`)
	nlbFeeRe     = regexp.MustCompile(`Naknada\s*([\d.]+)`)
	nlbAnyAcctRe = regexp.MustCompile(`^\d{3}-\d{13}-\d{2}$`)
	nlbCapsRe    = regexp.MustCompile(`^[A-ZŠĐŽĆČ][A-ZŠĐŽĆČ\s]+$`)
	nlbCellAmtRe = regexp.MustCompile(`^\d+\.\d{2}$`)
	nlbAcctLeadRe = regexp.MustCompile(`^\d{3}-`)
)

// nlbRow is one decoded line of positioned words.
type nlbRow struct {
	y     float64
	words []nlbWord
}

type nlbWord struct {
	x    float64
	text string
}

func (r nlbRow) text() string {
	parts := make([]string, 0, len(r.words))
	for _, w := range r.words {
		parts = append(parts, w.text)
	}
	return strings.Join(parts, " ")
}

func (p *NLBParser) Parse(data []byte) (*models.ParsedStatement, error) {
	pages, err := extractor.RowsByPage(data)
	if err != nil {
		return nil, newParseError(p.BankCode(), "extract", err)
	}
	if len(pages) == 0 {
		return nil, newParseError(p.BankCode(), "document", fmt.Errorf("no pages"))
	}

	// Decode the CID glyphs only when the library's own decoding produced
	// garbage; some newer NLB PDFs carry a proper ToUnicode table.
	decoded := make([][]nlbRow, len(pages))
	for i, rows := range pages {
		decoded[i] = p.decodeRows(rows, !pagesReadable(pages))
	}
	return p.parseRows(decoded)
}

func pagesReadable(pages [][]extractor.Row) bool {
	var texts []string
	for _, rows := range pages {
		var lines []string
		for _, r := range rows {
			lines = append(lines, r.Text())
		}
		texts = append(texts, strings.Join(lines, "\n"))
	}
	return extractor.IsReadable(texts)
}

func (p *NLBParser) decodeRows(rows []extractor.Row, applyCID bool) []nlbRow {
	out := make([]nlbRow, 0, len(rows))
	for _, r := range rows {
		nr := nlbRow{y: r.Y}
		for _, w := range r.Words {
			text := w.Text
			if applyCID {
				text = decodeNLBWord(w)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			nr.words = append(nr.words, nlbWord{x: w.X, text: text})
		}
		if len(nr.words) > 0 {
			out = append(out, nr)
		}
	}
	return out
}

func (p *NLBParser) parseRows(pages [][]nlbRow) (*models.ParsedStatement, error) {
	stmt := &models.ParsedStatement{
		BankCode: p.BankCode(),
		BankName: p.BankName(),
		Currency: "EUR",
	}

	p.parseHeader(pages[0], stmt)
	if stmt.AccountNumber == "" {
		return nil, newParseError(p.BankCode(), "header", fmt.Errorf("account number not found"))
	}

	fold := &feeFold{}
	for _, rows := range pages {
		p.parseTransactions(rows, stmt, fold)
	}
	stmt.Transactions = fold.Transactions()

	if len(stmt.Transactions) == 0 {
		return nil, newParseError(p.BankCode(), "transactions", fmt.Errorf("no transaction rows found"))
	}
	return stmt, nil
}

func (p *NLBParser) parseHeader(rows []nlbRow, stmt *models.ParsedStatement) {
	for _, row := range rows {
		text := row.text()

		if m := nlbStmtNumRe.FindStringSubmatch(text); m != nil && stmt.StatementNumber == "" {
			stmt.StatementNumber = m[1]
		}
		if m := nlbDateRe.FindStringSubmatch(text); m != nil && stmt.StatementDate.IsZero() {
			if d, err := normalize.ParseDateDMY(m[1]); err == nil {
				stmt.StatementDate = d
			}
		}
		if m := nlbPIBRe.FindStringSubmatch(text); m != nil && stmt.ClientPIB == "" {
			stmt.ClientPIB = m[1]
		}
		if m := nlbAcctRe.FindString(text); m != "" && stmt.AccountNumber == "" {
			stmt.AccountNumber = m
		}

		// Client name: an all-caps word block on the left before the table,
		// excluding the title vocabulary.
		if stmt.ClientName == "" {
			for _, w := range row.words {
				if w.x < 200 && len(w.text) > 2 && nlbCapsRe.MatchString(w.text) {
					switch w.text {
					case "IZVOD", "ZA", "STANJE", "NLB", "DANA", "PROMJENE":
					default:
						stmt.ClientName = normalize.CleanText(w.text)
					}
				}
			}
		}

		// Balance summary row sits between the header and the table:
		// opening, total debit, closing, counts.
		if stmt.OpeningBalance.IsZero() && stmt.ClosingBalance.IsZero() {
			amounts := nlbAmountRe.FindAllString(text, -1)
			if len(amounts) >= 3 && !strings.Contains(text, "-") {
				stmt.OpeningBalance = amountUS(amounts[0])
				stmt.TotalDebit = amountUS(amounts[1])
				stmt.ClosingBalance = amountUS(amounts[2])
			}
		}

		if strings.Contains(strings.ToUpper(strings.ReplaceAll(text, " ", "")), "PROMJENE") {
			return
		}
	}
}

// parseTransactions walks the PROMJENE section. Row-number lines (a bare
// number at the far left) key each transaction block; the block extends to
// the next key line or the Ukupno total.
func (p *NLBParser) parseTransactions(rows []nlbRow, stmt *models.ParsedStatement, fold *feeFold) {
	start := -1
	for i, row := range rows {
		combined := strings.ToUpper(strings.ReplaceAll(row.text(), " ", ""))
		if strings.Contains(combined, "PROMJENE") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return
	}

	data := rows[start:]
	var keyIndices []int
	end := len(data)
	for i, row := range data {
		if len(row.words) == 0 {
			continue
		}
		first := row.words[0]
		if n, err := strconv.Atoi(first.text); err == nil && n > 0 && first.x < nlbRowNumberMaxX {
			keyIndices = append(keyIndices, i)
		}
		if strings.Contains(row.text(), "Ukupno") {
			end = i
			if m := nlbAmountRe.FindString(row.text()); m != "" {
				stmt.TotalDebit = amountUS(m)
			}
			break
		}
	}

	for t, keyIdx := range keyIndices {
		blockStart := keyIdx - 2
		if blockStart < 0 {
			blockStart = 0
		}
		if t > 0 {
			if prev := keyIndices[t-1]; blockStart <= prev {
				blockStart = prev + 1
			}
		}
		blockEnd := end
		if t+1 < len(keyIndices) {
			blockEnd = keyIndices[t+1] - 2
			if blockEnd <= keyIdx {
				blockEnd = keyIdx + 1
			}
		}

		if txn := p.parseBlock(data[blockStart:blockEnd], data[keyIdx]); txn != nil {
			fold.Append(*txn)
		}
	}
}

func (p *NLBParser) parseBlock(block []nlbRow, key nlbRow) *models.ParsedTransaction {
	if len(key.words) == 0 {
		return nil
	}
	rowNum, err := strconv.Atoi(key.words[0].text)
	if err != nil {
		return nil
	}

	txn := models.ParsedTransaction{RowNumber: rowNum}

	// Key line carries payment code, purpose, references and reclamation in
	// fixed column bands.
	var purpose []string
	for _, w := range key.words[1:] {
		switch {
		case w.x < nlbColAmountEnd:
			// counterparty/origin/amount continuations handled from the block
		case w.x < nlbColCodeEnd:
			if txn.PaymentCode == "" {
				txn.PaymentCode = w.text
			}
		case w.x < nlbColPurposeEnd:
			purpose = append(purpose, w.text)
		case w.x < nlbColReferenceEnd:
			txn.ReferenceDebit = w.text
		default:
			txn.ReclamationData += w.text
		}
	}

	for _, row := range block {
		if row.y == key.y {
			continue
		}
		text := row.text()

		if isNLBTableHeader(text) {
			continue
		}

		// Fee sub-line: no row number, "Naknada <amount>".
		isFee := strings.Contains(text, "Naknada")
		if isFee {
			if m := nlbFeeRe.FindStringSubmatch(text); m != nil {
				txn.Fee = amountUS(m[1])
			}
		}

		// Counterparty name fragments occupy the leftmost column.
		var nameParts []string
		for _, w := range row.words {
			if w.x < nlbColCounterpartyEnd {
				nameParts = append(nameParts, w.text)
			}
		}
		if len(nameParts) > 0 {
			extra := normalize.CleanText(strings.Join(nameParts, " "))
			if extra != "" && !nlbAcctLeadRe.MatchString(extra) {
				if txn.Counterparty == "" {
					txn.Counterparty = extra
				} else {
					txn.Counterparty = normalize.CleanText(txn.Counterparty + " " + extra)
				}
			}
		}

		for _, w := range row.words {
			// Movement amount column; fee lines carry the fee there instead.
			if !isFee && w.x >= nlbColOriginEnd && w.x < nlbColAmountEnd && nlbCellAmtRe.MatchString(w.text) {
				txn.Debit = amountUS(w.text)
			}
			if m := dateDMYRe.FindStringSubmatch(w.text); m != nil {
				if d, err := normalize.ParseDateDMY(m[1]); err == nil {
					txn.BookingDate = d
					txn.ValueDate = d
				}
			}
			if nlbAnyAcctRe.MatchString(w.text) {
				txn.CounterpartyAccount = w.text
			}
		}
	}

	txn.Purpose = normalize.CleanText(strings.Join(purpose, " "))
	if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
		return &txn
	}
	return nil
}

func isNLBTableHeader(text string) bool {
	lower := strings.ToLower(text)
	for _, h := range []string{
		"nal.", "naziv", "sjedišt", "šifra", "datum", "knjižen",
		"zaduženje", "odobrenje", "iznos", "svrha", "poziv", "podaci", "reklamacij",
	} {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
