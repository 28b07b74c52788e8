package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fatih/color"

	"github.com/izvodcg/izvod/internal/api"
	"github.com/izvodcg/izvod/internal/config"
	"github.com/izvodcg/izvod/internal/exporter"
	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/parser"
	"github.com/izvodcg/izvod/internal/pipeline"
	"github.com/izvodcg/izvod/internal/store"
)

const version = "1.0.0"

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(0)
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "parse":
		err = runParse(flag.Args()[1:])
	case "serve":
		err = runServe(flag.Args()[1:])
	case "version":
		fmt.Printf("izvod v%s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `izvod - Montenegrin bank statement converter

Parses bank statement files (PDF, HTML) from nine Montenegrin banks and
exports them as 1CClientBankExchange files.

Usage:
  izvod parse --bank=<code> [--output=<dir>] <file> [file ...]
  izvod serve [--config=<file>]
  izvod version

Commands:
  parse    Convert statement files once and write the exchange files.
  serve    Run the directory scanner and HTTP API.

Supported bank codes:
  520 Hipotekarna   530 NLB       535 Prva      540 Erste    560 UCB
  565 Lovcen        570 Zapad     575 Ziraat    580 Adriatic
`)
}

// runParse is the one-shot mode: parse each file and export next to it, no
// database involved.
func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	bankFlag := fs.String("bank", "", "bank code (520, 530, 535, 540, 560, 565, 570, 575, 580)")
	outputFlag := fs.String("output", ".", "output directory for exchange files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bankFlag == "" {
		return fmt.Errorf("--bank is required")
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no input files")
	}

	registry, err := parser.NewRegistry()
	if err != nil {
		return err
	}
	exp := exporter.New(*outputFlag)

	for seq, path := range fs.Args() {
		if err := parseOne(registry, exp, *bankFlag, path, seq+1); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func parseOne(registry *parser.Registry, exp *exporter.Exporter, bankCode, path string, seq int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("Processing: %s\n", path)
	stmt, err := registry.Parse(bankCode, filepath.Base(path), data)
	if err != nil {
		return err
	}

	color.Green("  %s statement %s, %d transaction(s)",
		stmt.BankName, stmt.StatementNumber, len(stmt.Transactions))
	if stmt.ClientName != "" {
		fmt.Printf("  Client:  %s\n", stmt.ClientName)
	}
	fmt.Printf("  Account: %s\n", stmt.AccountNumber)
	if !stmt.StatementDate.IsZero() {
		fmt.Printf("  Date:    %s\n", stmt.StatementDate.Format("02.01.2006"))
	}
	if ok, msg := stmt.Reconcile(models.DefaultReconcileTolerance); !ok {
		color.Yellow("  Warning: %s", msg)
	}

	out, err := exp.Export(stmt, seq)
	if err != nil {
		return err
	}
	fmt.Printf("  Output:  %s\n", out)
	return nil
}

// runServe starts the scanner and the HTTP API and blocks until SIGINT or
// SIGTERM.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFlag := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	registry, err := parser.NewRegistry()
	if err != nil {
		return err
	}
	logBanks(registry, log)

	pipe := pipeline.New(cfg, registry, st, log)
	if err := pipe.Start(); err != nil {
		return err
	}
	defer pipe.Stop()

	// First pass right away so a restart picks up waiting files.
	if err := pipe.Scan(context.Background()); err != nil {
		log.Error("initial scan failed", "error", err)
	}

	app := api.NewApp(&api.Handler{
		Registry: registry,
		Store:    st,
		Pipeline: pipe,
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr)
	}()
	log.Info("listening", "addr", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		return app.Shutdown()
	case err := <-errCh:
		return err
	}
}

func logBanks(registry *parser.Registry, log *slog.Logger) {
	banks := registry.Banks()
	codes := make([]string, 0, len(banks))
	for code := range banks {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	log.Info("parsers registered", "banks", codes)
}
