// Package exporter serializes parsed statements into the 1CClientBankExchange
// text format consumed by the downstream accounting system.
//
// The grammar is fixed and order-sensitive: a file header, one account
// section with balances and turnover, one document section per transaction,
// and terminator markers. Files are CRLF-terminated, windows-1251 encoded,
// and grouped under one directory per canonical account number.
//
// Export is a pure function of the statement and an externally supplied
// sequence number: the same inputs always produce byte-identical output, so a
// failed or repeated export is safely retryable.
package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
)

// senderName identifies this system in the exchange file header.
const senderName = "IzvodConverter"

// ExportError wraps a failure to serialize or write an exchange file. The
// parsed statement stays intact; the caller may retry the export without
// re-parsing.
type ExportError struct {
	Account string
	File    string
	Err     error
}

func (e *ExportError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("export %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("export account %s: %v", e.Account, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter writes exchange files under OutputRoot, one subdirectory per
// canonical account.
type Exporter struct {
	OutputRoot string
}

func New(outputRoot string) *Exporter {
	return &Exporter{OutputRoot: outputRoot}
}

// Export writes one exchange file for stmt using the externally allocated
// sequence number and returns the written path. The sequence number makes
// repeated exports for the same account accumulate instead of overwriting;
// re-running with the same number regenerates the identical file.
func (e *Exporter) Export(stmt *models.ParsedStatement, seq int) (string, error) {
	account, err := normalize.CanonicalizeAccount(stmt.AccountNumber)
	if err != nil {
		return "", &ExportError{Account: stmt.AccountNumber, Err: err}
	}

	dir := filepath.Join(e.OutputRoot, account)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &ExportError{Account: account, Err: err}
	}

	path := filepath.Join(dir, Filename(stmt, seq))
	encoded, err := Render(stmt)
	if err != nil {
		return "", &ExportError{Account: account, File: path, Err: err}
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", &ExportError{Account: account, File: path, Err: err}
	}
	return path, nil
}

// Filename builds the export file name: statement date plus the sequence
// number, zero-padded so directory listings sort chronologically.
func Filename(stmt *models.ParsedStatement, seq int) string {
	dateStr := "nodate"
	if !stmt.StatementDate.IsZero() {
		dateStr = stmt.StatementDate.Format("20060102")
	}
	return fmt.Sprintf("izvod_%s_%03d.txt", dateStr, seq)
}

// Render serializes stmt into the exchange grammar and encodes it
// windows-1251. Unmappable runes that survive transliteration become '?';
// the export never drops a transaction over encoding.
func Render(stmt *models.ParsedStatement) ([]byte, error) {
	text := renderText(stmt)

	enc := charmap.Windows1251.NewEncoder()
	// ReplaceUnsupported is not used because it substitutes the encoding's
	// own replacement byte; the importer expects plain ASCII '?'.
	var b strings.Builder
	for _, r := range text {
		s, err := enc.String(string(r))
		if err != nil {
			b.WriteByte('?')
			continue
		}
		b.WriteString(s)
	}
	return []byte(b.String()), nil
}

// renderText produces the exchange document as a CRLF-joined string, before
// encoding. Free text fields are transliterated here, never in the stored
// model.
func renderText(stmt *models.ParsedStatement) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	// Header. The creation date is the statement date, not the wall clock:
	// re-export must be byte-identical.
	add("1CClientBankExchange")
	add("ВерсияФормата=1.03")
	add("Кодировка=Windows")
	add("Отправитель=%s", senderName)
	add("Получатель=")
	add("ДатаСоздания=%s", fmtDate(stmt.StatementDate))
	add("ВремяСоздания=00:00:00")
	add("ДатаНачала=%s", fmtDate(stmt.PeriodStart))
	add("ДатаКонца=%s", fmtDate(stmt.PeriodEnd))
	add("РасчСчет=%s", stmt.AccountNumber)

	add("СекцияРасчСчет")
	add("НачальныйОстаток=%s", fmtAmount(stmt.OpeningBalance))
	add("КонечныйОстаток=%s", fmtAmount(stmt.ClosingBalance))
	add("ДебетОборот=%s", fmtAmount(stmt.TotalDebit))
	add("КредитОборот=%s", fmtAmount(stmt.TotalCredit))
	add("КонецРасчСчет")

	for _, tx := range stmt.Transactions {
		isDebit := tx.Debit.IsPositive()
		amount := tx.Credit
		if isDebit {
			amount = tx.Debit
		}

		add("СекцияДокумент=Платёжное поручение")
		add("Номер=%d", tx.RowNumber)
		add("Дата=%s", fmtDate(tx.Date()))
		add("Сумма=%s", fmtAmount(amount))

		if isDebit {
			// Money leaves the account: payer is the client.
			add("ПлательщикСчет=%s", stmt.AccountNumber)
			add("Плательщик=%s", freeText(stmt.ClientName))
			add("ПлательщикИНН=%s", stmt.ClientPIB)
			add("ПолучательСчет=%s", tx.CounterpartyAccount)
			add("Получатель=%s", freeText(tx.Counterparty))
			add("ПолучательИНН=")
			if tx.CounterpartyBank != "" {
				add("ПолучательБанк1=%s", freeText(tx.CounterpartyBank))
			}
		} else {
			add("ПлательщикСчет=%s", tx.CounterpartyAccount)
			add("Плательщик=%s", freeText(tx.Counterparty))
			add("ПлательщикИНН=")
			if tx.CounterpartyBank != "" {
				add("ПлательщикБанк1=%s", freeText(tx.CounterpartyBank))
			}
			add("ПолучательСчет=%s", stmt.AccountNumber)
			add("Получатель=%s", freeText(stmt.ClientName))
			add("ПолучательИНН=%s", stmt.ClientPIB)
		}

		add("НазначениеПлатежа=%s", freeText(tx.Purpose))
		// Fee and reference lines are emitted only when the statement carried
		// them, so documents without them keep the original shape.
		if tx.Fee.IsPositive() {
			add("Комиссия=%s", fmtAmount(tx.Fee))
		}
		if tx.ReferenceDebit != "" {
			add("РеференсДебет=%s", freeText(tx.ReferenceDebit))
		}
		if tx.ReferenceCredit != "" {
			add("РеференсКредит=%s", freeText(tx.ReferenceCredit))
		}
		add("КонецДокумента")
	}

	add("КонецФайла")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func fmtDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02.01.2006")
}

func fmtAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func freeText(s string) string {
	return normalize.Transliterate(s)
}
