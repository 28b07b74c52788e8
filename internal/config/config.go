// Package config loads runtime settings from an optional YAML file and
// IZVOD_-prefixed environment variables, environment winning.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	DataDir      string        `mapstructure:"data_dir"`
	InputDir     string        `mapstructure:"input_dir"`
	ProcessedDir string        `mapstructure:"processed_dir"`
	OutputDir    string        `mapstructure:"output_dir"`
	DBPath       string        `mapstructure:"db_path"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	ListenAddr   string        `mapstructure:"listen_addr"`
}

// BankNames maps bank code to display name. Used for messages and labels,
// never for parsing decisions.
var BankNames = map[string]string{
	"520": "Hipotekarna Banka",
	"530": "NLB Banka",
	"535": "Prva Banka CG",
	"540": "Erste Bank",
	"560": "Universal Capital Bank",
	"565": "Lovcen Banka",
	"570": "Zapad Banka",
	"575": "Ziraat Bank",
	"580": "Adriatic Bank",
}

// SupportedExtensions lists accepted input extensions per bank code. Erste
// (540) delivers HTML next to PDF.
var SupportedExtensions = map[string][]string{
	"520": {".pdf"},
	"530": {".pdf"},
	"535": {".pdf"},
	"540": {".pdf", ".htm", ".html"},
	"560": {".pdf"},
	"565": {".pdf"},
	"570": {".pdf"},
	"575": {".pdf"},
	"580": {".pdf"},
}

// ExtensionSupported reports whether a file extension (lowercase, with dot)
// is accepted for the bank code. Unknown codes default to PDF only.
func ExtensionSupported(bankCode, ext string) bool {
	exts, ok := SupportedExtensions[bankCode]
	if !ok {
		exts = []string{".pdf"}
	}
	for _, e := range exts {
		if e == strings.ToLower(ext) {
			return true
		}
	}
	return false
}

// Load reads configuration. cfgFile may be empty, in which case only
// defaults and environment apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "/data")
	v.SetDefault("input_dir", "/data/input")
	v.SetDefault("processed_dir", "/data/processed")
	v.SetDefault("output_dir", "/data/output")
	v.SetDefault("db_path", "/data/db/statements.db")
	v.SetDefault("scan_interval", time.Minute)
	v.SetDefault("listen_addr", ":8080")

	v.SetEnvPrefix("IZVOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("scan_interval must be positive, got %s", cfg.ScanInterval)
	}
	return &cfg, nil
}
