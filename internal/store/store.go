// Package store persists parsed statements and their transactions in SQLite
// and owns the statement status lifecycle. Parsers and the exporter stay
// stateless; every mutation of status and every export sequence number comes
// through here.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/izvodcg/izvod/internal/models"
)

// ErrNotFound is returned when a statement id does not exist.
var ErrNotFound = errors.New("statement not found")

// ErrBadTransition is returned when a status update violates the lifecycle
// new -> reviewed -> exported, any -> error.
var ErrBadTransition = errors.New("invalid status transition")

// Statement is a persisted statement row: the canonical model plus the
// bookkeeping the pipeline needs.
type Statement struct {
	ID           int64
	SourceFile   string
	Status       models.Status
	ExportFile   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	models.ParsedStatement
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; serialize at the pool level instead of
	// surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS statements (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	bank_code        TEXT NOT NULL,
	bank_name        TEXT NOT NULL,
	account_number   TEXT NOT NULL,
	iban             TEXT NOT NULL DEFAULT '',
	statement_number TEXT NOT NULL DEFAULT '',
	statement_date   TEXT NOT NULL DEFAULT '',
	period_start     TEXT NOT NULL DEFAULT '',
	period_end       TEXT NOT NULL DEFAULT '',
	opening_balance  TEXT NOT NULL DEFAULT '0',
	closing_balance  TEXT NOT NULL DEFAULT '0',
	total_debit      TEXT NOT NULL DEFAULT '0',
	total_credit     TEXT NOT NULL DEFAULT '0',
	currency         TEXT NOT NULL DEFAULT 'EUR',
	client_name      TEXT NOT NULL DEFAULT '',
	client_pib       TEXT NOT NULL DEFAULT '',
	source_file      TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'new',
	export_file      TEXT NOT NULL DEFAULT '',
	error_message    TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_statements_source ON statements(bank_code, source_file);

CREATE TABLE IF NOT EXISTS transactions (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	statement_id         INTEGER NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
	row_number           INTEGER NOT NULL DEFAULT 0,
	value_date           TEXT NOT NULL DEFAULT '',
	booking_date         TEXT NOT NULL DEFAULT '',
	debit                TEXT NOT NULL DEFAULT '0',
	credit               TEXT NOT NULL DEFAULT '0',
	counterparty         TEXT NOT NULL DEFAULT '',
	counterparty_account TEXT NOT NULL DEFAULT '',
	counterparty_bank    TEXT NOT NULL DEFAULT '',
	payment_code         TEXT NOT NULL DEFAULT '',
	purpose              TEXT NOT NULL DEFAULT '',
	reference_debit      TEXT NOT NULL DEFAULT '',
	reference_credit     TEXT NOT NULL DEFAULT '',
	reclamation_data     TEXT NOT NULL DEFAULT '',
	fee                  TEXT NOT NULL DEFAULT '0'
);
CREATE INDEX IF NOT EXISTS idx_transactions_statement ON transactions(statement_id);

CREATE TABLE IF NOT EXISTS export_sequences (
	account  TEXT PRIMARY KEY,
	next_seq INTEGER NOT NULL
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SaveStatement persists a parsed statement with its transactions in one
// transaction and returns the new id. Status starts as new.
func (s *Store) SaveStatement(ctx context.Context, parsed *models.ParsedStatement, sourceFile string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO statements (
			bank_code, bank_name, account_number, iban, statement_number,
			statement_date, period_start, period_end,
			opening_balance, closing_balance, total_debit, total_credit,
			currency, client_name, client_pib,
			source_file, status, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		parsed.BankCode, parsed.BankName, parsed.AccountNumber, parsed.IBAN,
		parsed.StatementNumber, fmtDate(parsed.StatementDate),
		fmtDate(parsed.PeriodStart), fmtDate(parsed.PeriodEnd),
		parsed.OpeningBalance.String(), parsed.ClosingBalance.String(),
		parsed.TotalDebit.String(), parsed.TotalCredit.String(),
		parsed.Currency, parsed.ClientName, parsed.ClientPIB,
		sourceFile, string(models.StatusNew), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert statement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, t := range parsed.Transactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				statement_id, row_number, value_date, booking_date,
				debit, credit, counterparty, counterparty_account,
				counterparty_bank, payment_code, purpose,
				reference_debit, reference_credit, reclamation_data, fee
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			id, t.RowNumber, fmtDate(t.ValueDate), fmtDate(t.BookingDate),
			t.Debit.String(), t.Credit.String(),
			t.Counterparty, t.CounterpartyAccount, t.CounterpartyBank,
			t.PaymentCode, t.Purpose,
			t.ReferenceDebit, t.ReferenceCredit, t.ReclamationData,
			t.Fee.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert transaction %d: %w", t.RowNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// SaveError records a failed ingestion so the file is reportable; the source
// file itself stays in place for retry.
func (s *Store) SaveError(ctx context.Context, bankCode, bankName, sourceFile, msg string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO statements (bank_code, bank_name, account_number, source_file, status, error_message, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		bankCode, bankName, "", sourceFile, string(models.StatusError), msg, now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// HasSource reports whether a statement for this bank and source file name
// already exists, in any status. Used by the scanner to skip ingested files.
func (s *Store) HasSource(ctx context.Context, bankCode, sourceFile string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM statements WHERE bank_code = ? AND source_file = ?`,
		bankCode, sourceFile).Scan(&n)
	return n > 0, err
}

// UpdateStatus moves a statement through the lifecycle, enforcing the
// transition rules. Export bookkeeping rides along: pass exportFile when
// setting exported, errMsg when setting error.
func (s *Store) UpdateStatus(ctx context.Context, id int64, to models.Status, exportFile, errMsg string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var from string
	err = tx.QueryRowContext(ctx, `SELECT status FROM statements WHERE id = ?`, id).Scan(&from)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !models.CanTransition(models.Status(from), to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		UPDATE statements
		SET status = ?, export_file = CASE WHEN ? != '' THEN ? ELSE export_file END,
		    error_message = ?, updated_at = ?
		WHERE id = ?`,
		string(to), exportFile, exportFile, errMsg, now, id,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// NextSequence atomically allocates the next export sequence number for a
// canonical account. Two concurrent exports for one account can never get
// the same number.
func (s *Store) NextSequence(ctx context.Context, account string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, `SELECT next_seq FROM export_sequences WHERE account = ?`, account).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		next = 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO export_sequences (account, next_seq) VALUES (?, 2)`, account); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		if _, err := tx.ExecContext(ctx, `UPDATE export_sequences SET next_seq = ? WHERE account = ?`, next+1, account); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

// Get loads one statement with its transactions.
func (s *Store) Get(ctx context.Context, id int64) (*Statement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, bank_code, bank_name, account_number, iban, statement_number,
		       statement_date, period_start, period_end,
		       opening_balance, closing_balance, total_debit, total_credit,
		       currency, client_name, client_pib,
		       source_file, status, export_file, error_message, created_at, updated_at
		FROM statements WHERE id = ?`, id)
	st, err := scanStatement(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_number, value_date, booking_date, debit, credit,
		       counterparty, counterparty_account, counterparty_bank,
		       payment_code, purpose, reference_debit, reference_credit,
		       reclamation_data, fee
		FROM transactions WHERE statement_id = ? ORDER BY row_number, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.ParsedTransaction
		var valueDate, bookingDate, debit, credit, fee string
		if err := rows.Scan(&t.RowNumber, &valueDate, &bookingDate, &debit, &credit,
			&t.Counterparty, &t.CounterpartyAccount, &t.CounterpartyBank,
			&t.PaymentCode, &t.Purpose, &t.ReferenceDebit, &t.ReferenceCredit,
			&t.ReclamationData, &fee); err != nil {
			return nil, err
		}
		t.ValueDate = parseDate(valueDate)
		t.BookingDate = parseDate(bookingDate)
		t.Debit = parseDec(debit)
		t.Credit = parseDec(credit)
		t.Fee = parseDec(fee)
		st.Transactions = append(st.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return st, nil
}

// List returns statements newest first, without transactions.
func (s *Store) List(ctx context.Context, limit int) ([]*Statement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bank_code, bank_name, account_number, iban, statement_number,
		       statement_date, period_start, period_end,
		       opening_balance, closing_balance, total_debit, total_credit,
		       currency, client_name, client_pib,
		       source_file, status, export_file, error_message, created_at, updated_at
		FROM statements ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatement(row scanner) (*Statement, error) {
	var st Statement
	var stmtDate, periodStart, periodEnd string
	var opening, closing, debit, credit string
	var status, createdAt, updatedAt string
	err := row.Scan(&st.ID, &st.BankCode, &st.BankName, &st.AccountNumber, &st.IBAN,
		&st.StatementNumber, &stmtDate, &periodStart, &periodEnd,
		&opening, &closing, &debit, &credit,
		&st.Currency, &st.ClientName, &st.ClientPIB,
		&st.SourceFile, &status, &st.ExportFile, &st.ErrorMessage,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	st.StatementDate = parseDate(stmtDate)
	st.PeriodStart = parseDate(periodStart)
	st.PeriodEnd = parseDate(periodEnd)
	st.OpeningBalance = parseDec(opening)
	st.ClosingBalance = parseDec(closing)
	st.TotalDebit = parseDec(debit)
	st.TotalCredit = parseDec(credit)
	st.Status = models.Status(status)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		st.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		st.UpdatedAt = t
	}
	return &st, nil
}
