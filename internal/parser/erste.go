package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// ErsteParser handles Erste Bank (540) HTML statements.
//
// The only non-PDF layout: a windows-1250 encoded HTML document of nested
// tables. Transaction rows stack three dates in the first cell (document,
// value, processing); the remaining cells carry counterparty, purpose,
// references, debit and credit. Comma decimal (2.256,68), dates DD.MM.YYYY
// with trailing dot.
type ErsteParser struct{}

func (p *ErsteParser) BankCode() string { return "540" }
func (p *ErsteParser) BankName() string { return "Erste Bank" }

var (
	erstePeriodRe   = regexp.MustCompile(`Za\s+period.*?:\s*(\d{2}\.\d{2}\.\d{4})`)
	ersteClientRe   = regexp.MustCompile(`Naziv\s+klijenta:\s*(.+?)\s*$`)
	ersteAcctRe     = regexp.MustCompile(`Broj\s+ra[čc]una:\s*(540[\d-]+)`)
	ersteStmtNumRe  = regexp.MustCompile(`Broj\s+izvoda:\s*(\S+)`)
	ersteCurrencyRe = regexp.MustCompile(`Oznaka\s+valute:\s*(\w+)`)
	ersteDateRe     = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	erstePurposeRe  = regexp.MustCompile(`^\d+\s*-\s*(.*)`)
	ersteCpAcctRe   = regexp.MustCompile(`^\d{3}-`)
)

func (p *ErsteParser) Parse(data []byte) (*models.ParsedStatement, error) {
	text, err := charmap.Windows1250.NewDecoder().Bytes(data)
	if err != nil {
		// malformed byte sequences: fall back to the raw bytes, the regexes
		// only need the ASCII parts anyway
		text = data
	}
	doc, err := html.Parse(bytes.NewReader(text))
	if err != nil {
		return nil, newParseError(p.BankCode(), "html", err)
	}
	return p.parseDocument(doc)
}

func (p *ErsteParser) parseDocument(doc *html.Node) (*models.ParsedStatement, error) {
	stmt := &models.ParsedStatement{
		BankCode: p.BankCode(),
		BankName: p.BankName(),
		Currency: "EUR",
	}

	p.parseHeader(doc, stmt)
	if stmt.AccountNumber == "" {
		return nil, newParseError(p.BankCode(), "header", fmt.Errorf("account number not found"))
	}

	p.parseTransactions(doc, stmt)
	if len(stmt.Transactions) == 0 {
		return nil, newParseError(p.BankCode(), "transactions", fmt.Errorf("no transaction rows found"))
	}
	return stmt, nil
}

func (p *ErsteParser) parseHeader(doc *html.Node, stmt *models.ParsedStatement) {
	for _, para := range findAllElements(doc, "p") {
		text := nodeText(para, " ")
		if m := erstePeriodRe.FindStringSubmatch(text); m != nil && stmt.StatementDate.IsZero() {
			if d, err := normalize.ParseDateDMY(m[1]); err == nil {
				stmt.StatementDate = d
			}
		}
	}

	for _, table := range findAllElements(doc, "table") {
		text := nodeText(table, " ")

		if m := ersteClientRe.FindStringSubmatch(text); m != nil && stmt.ClientName == "" {
			stmt.ClientName = normalize.CleanText(m[1])
		}
		if m := ersteAcctRe.FindStringSubmatch(text); m != nil && stmt.AccountNumber == "" {
			stmt.AccountNumber = m[1]
		}
		if m := ersteStmtNumRe.FindStringSubmatch(text); m != nil && stmt.StatementNumber == "" {
			stmt.StatementNumber = m[1]
		}
		if m := ersteCurrencyRe.FindStringSubmatch(text); m != nil {
			stmt.Currency = m[1]
		}

		// Key/value rows: the company name cell is recognizable by its legal
		// form suffix when the labeled lookup found nothing.
		if stmt.ClientName == "" {
			for _, row := range findAllElements(table, "tr") {
				cells := findAllElements(row, "td")
				if len(cells) >= 2 {
					value := strings.TrimSpace(nodeText(cells[1], " "))
					if value != "" && strings.Contains(value, "DOO") {
						stmt.ClientName = normalize.CleanText(value)
					}
				}
			}
		}
	}
}

func (p *ErsteParser) parseTransactions(doc *html.Node, stmt *models.ParsedStatement) {
	// The transaction table is the one whose header names "Datum dokumenta".
	var txnTable *html.Node
	for _, table := range findAllElements(doc, "table") {
		if strings.Contains(nodeText(table, " "), "Datum dokumenta") {
			txnTable = table
			break
		}
	}
	if txnTable == nil {
		return
	}

	for _, row := range findAllElements(txnTable, "tr") {
		cells := findAllElements(row, "td")
		if len(cells) == 0 {
			continue
		}
		first := strings.TrimSpace(nodeText(cells[0], " "))
		firstLower := strings.ToLower(first)

		// "Početno stanje" and "Konačno stanje" rows carry the balances in
		// their last cell.
		if strings.Contains(firstLower, "stanje") && strings.Contains(firstLower, "po") {
			stmt.OpeningBalance = amountEU(strings.TrimSpace(nodeText(cells[len(cells)-1], " ")))
			continue
		}
		if strings.Contains(firstLower, "stanje") && strings.Contains(firstLower, "kon") {
			stmt.ClosingBalance = amountEU(strings.TrimSpace(nodeText(cells[len(cells)-1], " ")))
			continue
		}

		// "Stanje na dan" summary row: totals in the last two cells, first
		// line of each.
		if strings.Contains(first, "Stanje na dan") {
			if len(cells) >= 5 {
				stmt.TotalDebit = amountEU(firstLine(nodeText(cells[len(cells)-2], "\n")))
				stmt.TotalCredit = amountEU(firstLine(nodeText(cells[len(cells)-1], "\n")))
			}
			continue
		}

		if strings.Contains(first, "Datum dokumenta") || first == "" {
			continue
		}

		// Transaction row: first cell stacks document, value and processing
		// dates.
		dates := ersteDateRe.FindAllString(first, -1)
		if len(dates) == 0 || len(cells) < 5 {
			continue
		}

		txn := models.ParsedTransaction{RowNumber: len(stmt.Transactions) + 1}
		if d, err := normalize.ParseDateDMY(dates[0]); err == nil {
			txn.BookingDate = d
		}
		if len(dates) >= 2 {
			if d, err := normalize.ParseDateDMY(dates[1]); err == nil {
				txn.ValueDate = d
			}
		}

		p.parseCounterpartyCell(cells[1], &txn)
		p.parsePurposeCell(cells[2], &txn)
		p.parseReferencesCell(cells[3], &txn)
		txn.Debit = amountEU(strings.TrimSpace(nodeText(cells[4], " ")))
		if len(cells) > 5 {
			txn.Credit = amountEU(strings.TrimSpace(nodeText(cells[5], " ")))
		}

		if txn.Debit.IsPositive() || txn.Credit.IsPositive() {
			stmt.Transactions = append(stmt.Transactions, txn)
		}
	}
}

// parseCounterpartyCell reads name on the first line and a dash-delimited
// account number on the second. The third line, when present, is an exchange
// rate and is ignored.
func (p *ErsteParser) parseCounterpartyCell(cell *html.Node, txn *models.ParsedTransaction) {
	lines := cellLines(cell)
	if len(lines) == 0 {
		return
	}
	txn.Counterparty = normalize.CleanText(lines[0])
	if len(lines) > 1 && ersteCpAcctRe.MatchString(lines[1]) {
		txn.CounterpartyAccount = lines[1]
	}
}

// parsePurposeCell strips the leading sequential number: "1 - PAYPAL *...".
func (p *ErsteParser) parsePurposeCell(cell *html.Node, txn *models.ParsedTransaction) {
	lines := cellLines(cell)
	if len(lines) == 0 {
		return
	}
	if m := erstePurposeRe.FindStringSubmatch(lines[0]); m != nil {
		txn.Purpose = normalize.CleanText(m[1])
	} else {
		txn.Purpose = normalize.CleanText(lines[0])
	}
}

// parseReferencesCell: debit reference, credit reference, then the
// reclamation line.
func (p *ErsteParser) parseReferencesCell(cell *html.Node, txn *models.ParsedTransaction) {
	lines := cellLines(cell)
	if len(lines) >= 1 {
		txn.ReferenceDebit = normalize.CleanText(lines[0])
	}
	if len(lines) >= 2 {
		txn.ReferenceCredit = normalize.CleanText(lines[1])
	}
	if len(lines) >= 3 {
		txn.ReclamationData = normalize.CleanText(lines[2])
	}
}

// findAllElements returns every descendant element with the given tag name,
// document order.
func findAllElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// nodeText concatenates the text content of a node, joining fragments with
// sep. Text on either side of a <br> arrives as separate text nodes, so
// stacked cell lines stay distinct in the joined result.
func nodeText(n *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}

// cellLines returns the non-empty lines of a table cell, <br>-separated
// content included.
func cellLines(cell *html.Node) []string {
	var lines []string
	for _, l := range strings.Split(nodeText(cell, "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
