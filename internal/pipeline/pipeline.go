// Package pipeline orchestrates ingestion: it scans per-bank input
// directories, parses new files, persists the result, exports the exchange
// file, and moves processed inputs aside. One bad file never aborts a scan;
// failed files stay in place for retry and get an error record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/izvodcg/izvod/internal/config"
	"github.com/izvodcg/izvod/internal/exporter"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/normalize"
	"github.com/izvodcg/izvod/internal/parser"
	"github.com/izvodcg/izvod/internal/store"
)

type Pipeline struct {
	cfg      *config.Config
	registry *parser.Registry
	store    *store.Store
	exporter *exporter.Exporter
	log      *slog.Logger
	cron     *cron.Cron
}

func New(cfg *config.Config, reg *parser.Registry, st *store.Store, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		registry: reg,
		store:    st,
		exporter: exporter.New(cfg.OutputDir),
		log:      log,
	}
}

// Start schedules periodic scans. The first scan runs on the cron schedule,
// not immediately; call Scan directly for an immediate pass.
func (p *Pipeline) Start() error {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", p.cfg.ScanInterval), func() {
		if err := p.Scan(context.Background()); err != nil {
			p.log.Error("scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule scan: %w", err)
	}
	c.Start()
	p.cron = c
	p.log.Info("scheduler started", "interval", p.cfg.ScanInterval.String())
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (p *Pipeline) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
		p.log.Info("scheduler stopped")
	}
}

// Scan walks every bank's input directory and processes files not yet
// ingested. Returns an error only for scan-level problems; per-file failures
// are recorded and logged, never propagated.
func (p *Pipeline) Scan(ctx context.Context) error {
	for code := range config.BankNames {
		dir := filepath.Join(p.cfg.InputDir, code)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read input dir %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !config.ExtensionSupported(code, filepath.Ext(name)) {
				continue
			}

			seen, err := p.store.HasSource(ctx, code, name)
			if err != nil {
				return fmt.Errorf("dedup check %s: %w", name, err)
			}
			if seen {
				continue
			}

			p.ProcessFile(ctx, code, filepath.Join(dir, name))
		}
	}
	return nil
}

// ProcessFile ingests one file: parse, persist, export, move to processed.
// On failure the file stays in the input directory and an error statement is
// recorded.
func (p *Pipeline) ProcessFile(ctx context.Context, bankCode, path string) {
	name := filepath.Base(path)
	log := p.log.With("bank", bankCode, "file", name)
	log.Info("processing")

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("read failed", "error", err)
		p.recordError(ctx, bankCode, name, err)
		return
	}

	parsed, err := p.registry.Parse(bankCode, name, data)
	if err != nil {
		log.Error("parse failed", "error", err)
		p.recordError(ctx, bankCode, name, err)
		return
	}

	if ok, msg := parsed.Reconcile(models.DefaultReconcileTolerance); !ok {
		// warn only: statements with missing summary rows still export
		log.Warn("reconciliation mismatch", "detail", msg)
	}

	id, err := p.store.SaveStatement(ctx, parsed, name)
	if err != nil {
		log.Error("persist failed", "error", err)
		p.recordError(ctx, bankCode, name, err)
		return
	}
	log.Info("persisted", "statement", id, "transactions", len(parsed.Transactions))

	if err := p.exportStatement(ctx, id, parsed); err != nil {
		// parse result is kept; export stays manually retryable
		log.Error("export failed", "statement", id, "error", err)
	}

	if err := p.moveProcessed(bankCode, path, id); err != nil {
		log.Error("move to processed failed", "error", err)
		return
	}
	log.Info("done", "statement", id)
}

func (p *Pipeline) exportStatement(ctx context.Context, id int64, parsed *models.ParsedStatement) error {
	// The sequence counter is keyed by the canonical account, same as the
	// export directory: different raw spellings of one account must share a
	// counter or a later export overwrites an earlier file.
	account, err := normalize.CanonicalizeAccount(parsed.AccountNumber)
	if err != nil {
		return fmt.Errorf("canonicalize account %q: %w", parsed.AccountNumber, err)
	}
	seq, err := p.store.NextSequence(ctx, account)
	if err != nil {
		return fmt.Errorf("allocate sequence: %w", err)
	}
	path, err := p.exporter.Export(parsed, seq)
	if err != nil {
		return err
	}
	if err := p.store.UpdateStatus(ctx, id, models.StatusExported, path, ""); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	p.log.Info("exported", "statement", id, "file", path)
	return nil
}

// ReExport regenerates the exchange file for an already persisted statement.
// A fresh sequence number is allocated so the new file accumulates next to
// earlier ones.
func (p *Pipeline) ReExport(ctx context.Context, id int64) (string, error) {
	st, err := p.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if st.Status == models.StatusError {
		return "", fmt.Errorf("statement %d is in error state, nothing to export", id)
	}

	account, err := normalize.CanonicalizeAccount(st.AccountNumber)
	if err != nil {
		return "", fmt.Errorf("canonicalize account %q: %w", st.AccountNumber, err)
	}
	seq, err := p.store.NextSequence(ctx, account)
	if err != nil {
		return "", err
	}
	path, err := p.exporter.Export(&st.ParsedStatement, seq)
	if err != nil {
		return "", err
	}
	if err := p.store.UpdateStatus(ctx, id, models.StatusExported, path, ""); err != nil {
		return "", err
	}
	p.log.Info("re-exported", "statement", id, "file", path)
	return path, nil
}

func (p *Pipeline) recordError(ctx context.Context, bankCode, name string, cause error) {
	bankName := config.BankNames[bankCode]
	if bankName == "" {
		bankName = bankCode
	}
	if _, err := p.store.SaveError(ctx, bankCode, bankName, name, cause.Error()); err != nil {
		p.log.Error("record error failed", "file", name, "error", err)
	}
}

// moveProcessed relocates an ingested file to processed/<bank>/. When a file
// of the same name is already there, the statement id is appended.
func (p *Pipeline) moveProcessed(bankCode, path string, id int64) error {
	dir := filepath.Join(p.cfg.ProcessedDir, bankCode)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := filepath.Base(path)
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, id, ext))
	}
	return os.Rename(path, dest)
}
