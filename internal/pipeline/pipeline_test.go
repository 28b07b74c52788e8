package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/izvodcg/izvod/internal/config"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/parser"
	"github.com/izvodcg/izvod/internal/store"
)

const scanFixture = `<html><body>
<table><tr><td>Naziv klijenta:</td><td>STASSI ATHLETICS DOO</td></tr></table>
<table><tr><td>Broj racuna:</td><td>540-000000001422553</td></tr></table>
<table>
<tr><td>Datum dokumenta</td><td>Primalac</td><td>Svrha</td><td>Reference</td><td>Na teret</td><td>U korist</td></tr>
<tr>
<td>01.02.2026.</td>
<td>PAYPAL EUROPE SARL</td>
<td>1 - PAYPAL *TEST</td>
<td>REF-D-001</td>
<td>100,32</td>
<td>0,00</td>
</tr>
</table>
</body></html>`

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		InputDir:     filepath.Join(dir, "input"),
		ProcessedDir: filepath.Join(dir, "processed"),
		OutputDir:    filepath.Join(dir, "output"),
		DBPath:       filepath.Join(dir, "statements.db"),
		ScanInterval: time.Minute,
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	registry, err := parser.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, registry, st, log), st, cfg
}

func writeInput(t *testing.T, cfg *config.Config, bank, name, content string) string {
	t.Helper()
	dir := filepath.Join(cfg.InputDir, bank)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestScanIngestsAndExports(t *testing.T) {
	p, st, cfg := newTestPipeline(t)
	ctx := context.Background()

	inputPath := writeInput(t, cfg, "540", "izvod_001.html", scanFixture)

	if err := p.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	list, err := st.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("statements: got %d, want 1", len(list))
	}
	saved := list[0]
	if saved.Status != models.StatusExported {
		t.Errorf("status: got %s, want exported", saved.Status)
	}
	if saved.SourceFile != "izvod_001.html" {
		t.Errorf("source file: got %q", saved.SourceFile)
	}
	if saved.ExportFile == "" {
		t.Fatal("export file not recorded")
	}
	if _, err := os.Stat(saved.ExportFile); err != nil {
		t.Errorf("export file missing on disk: %v", err)
	}

	// The input file moved to processed/<bank>/.
	if _, err := os.Stat(inputPath); !os.IsNotExist(err) {
		t.Error("input file must be moved out of the input directory")
	}
	moved := filepath.Join(cfg.ProcessedDir, "540", "izvod_001.html")
	if _, err := os.Stat(moved); err != nil {
		t.Errorf("processed file missing: %v", err)
	}
}

func TestScanSkipsIngestedSource(t *testing.T) {
	p, st, cfg := newTestPipeline(t)
	ctx := context.Background()

	writeInput(t, cfg, "540", "izvod_001.html", scanFixture)
	if err := p.Scan(ctx); err != nil {
		t.Fatalf("first Scan: %v", err)
	}

	// Same file name reappears in the input directory.
	writeInput(t, cfg, "540", "izvod_001.html", scanFixture)
	if err := p.Scan(ctx); err != nil {
		t.Fatalf("second Scan: %v", err)
	}

	list, err := st.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("statements after rescan: got %d, want 1", len(list))
	}
}

func TestScanSkipsUnsupportedExtension(t *testing.T) {
	p, st, cfg := newTestPipeline(t)
	ctx := context.Background()

	// HTML is Erste-only; for Hipotekarna it must be ignored, not failed.
	writeInput(t, cfg, "520", "izvod_001.html", scanFixture)
	if err := p.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	list, err := st.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("statements: got %d, want 0", len(list))
	}
}

func TestScanRecordsParseFailure(t *testing.T) {
	p, st, cfg := newTestPipeline(t)
	ctx := context.Background()

	inputPath := writeInput(t, cfg, "520", "broken.pdf", "not a pdf")
	if err := p.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	list, err := st.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("statements: got %d, want 1", len(list))
	}
	if list[0].Status != models.StatusError {
		t.Errorf("status: got %s, want error", list[0].Status)
	}
	if list[0].ErrorMessage == "" {
		t.Error("error message must be recorded")
	}
	// Failed files stay in place for retry.
	if _, err := os.Stat(inputPath); err != nil {
		t.Errorf("failed input must stay in the input directory: %v", err)
	}
}

func TestSequenceSharedAcrossRawAccountSpellings(t *testing.T) {
	p, st, _ := newTestPipeline(t)
	ctx := context.Background()

	// Banks print the same logical account in different shapes; both
	// canonicalize to 535000000002202367 and must share one counter.
	stmt := func(account string) *models.ParsedStatement {
		return &models.ParsedStatement{
			BankCode:      "535",
			BankName:      "Prva Banka CG",
			AccountNumber: account,
			StatementDate: time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC),
			Currency:      "EUR",
			Transactions: []models.ParsedTransaction{
				{RowNumber: 1, Credit: decimal.RequireFromString("10.00"), Purpose: "uplata"},
			},
		}
	}

	idDashed, err := st.SaveStatement(ctx, stmt("535-22023-67"), "izvod_017.pdf")
	if err != nil {
		t.Fatalf("SaveStatement: %v", err)
	}
	idCanonical, err := st.SaveStatement(ctx, stmt("535000000002202367"), "izvod_018.pdf")
	if err != nil {
		t.Fatalf("SaveStatement: %v", err)
	}

	firstPath, err := p.ReExport(ctx, idDashed)
	if err != nil {
		t.Fatalf("ReExport dashed: %v", err)
	}
	secondPath, err := p.ReExport(ctx, idCanonical)
	if err != nil {
		t.Fatalf("ReExport canonical: %v", err)
	}

	if firstPath == secondPath {
		t.Fatalf("both spellings exported to %s, the second overwrote the first", firstPath)
	}
	if _, err := os.Stat(firstPath); err != nil {
		t.Errorf("first export missing after second: %v", err)
	}
	if _, err := os.Stat(secondPath); err != nil {
		t.Errorf("second export missing: %v", err)
	}
}

func TestReExportAllocatesNewSequence(t *testing.T) {
	p, st, cfg := newTestPipeline(t)
	ctx := context.Background()

	writeInput(t, cfg, "540", "izvod_001.html", scanFixture)
	if err := p.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	list, err := st.List(ctx, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v, %d entries", err, len(list))
	}
	firstPath := list[0].ExportFile

	secondPath, err := p.ReExport(ctx, list[0].ID)
	if err != nil {
		t.Fatalf("ReExport: %v", err)
	}
	if secondPath == firstPath {
		t.Error("re-export must allocate a fresh sequence number")
	}
	if _, err := os.Stat(secondPath); err != nil {
		t.Errorf("re-export file missing: %v", err)
	}
	if _, err := os.Stat(firstPath); err != nil {
		t.Errorf("earlier export must stay in place: %v", err)
	}
}
