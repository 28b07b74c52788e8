package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InputDir != "/data/input" {
		t.Errorf("input dir: got %q", cfg.InputDir)
	}
	if cfg.OutputDir != "/data/output" {
		t.Errorf("output dir: got %q", cfg.OutputDir)
	}
	if cfg.DBPath != "/data/db/statements.db" {
		t.Errorf("db path: got %q", cfg.DBPath)
	}
	if cfg.ScanInterval != time.Minute {
		t.Errorf("scan interval: got %s", cfg.ScanInterval)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("IZVOD_LISTEN_ADDR", ":9090")
	t.Setenv("IZVOD_SCAN_INTERVAL", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.ScanInterval != 30*time.Second {
		t.Errorf("scan interval: got %s", cfg.ScanInterval)
	}
}

func TestLoadRejectsZeroInterval(t *testing.T) {
	t.Setenv("IZVOD_SCAN_INTERVAL", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero scan interval")
	}
}

func TestExtensionSupported(t *testing.T) {
	tests := []struct {
		code, ext string
		want      bool
	}{
		{"520", ".pdf", true},
		{"520", ".html", false},
		{"540", ".pdf", true},
		{"540", ".htm", true},
		{"540", ".html", true},
		{"540", ".HTML", true},
		{"575", ".txt", false},
		{"999", ".pdf", true},
		{"999", ".html", false},
	}
	for _, tt := range tests {
		if got := ExtensionSupported(tt.code, tt.ext); got != tt.want {
			t.Errorf("ExtensionSupported(%s, %s) = %v, want %v", tt.code, tt.ext, got, tt.want)
		}
	}
}

func TestBankNamesCoverAllParsers(t *testing.T) {
	want := []string{"520", "530", "535", "540", "560", "565", "570", "575", "580"}
	if len(BankNames) != len(want) {
		t.Fatalf("bank names: got %d entries, want %d", len(BankNames), len(want))
	}
	for _, code := range want {
		if BankNames[code] == "" {
			t.Errorf("bank %s has no display name", code)
		}
		if _, ok := SupportedExtensions[code]; !ok {
			t.Errorf("bank %s has no extension list", code)
		}
	}
}
