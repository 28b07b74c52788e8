// Package parser defines the per-bank statement parser contract and the
// registry that routes a 3-digit bank code to its parser.
package parser

import (
	"fmt"

	"github.com/izvodcg/izvod/internal/models"
)

// Parser is the capability every bank parser implements. Parse is
// all-or-nothing over a single document: on error no statement is returned.
// Parsers are stateless and safe for concurrent use across distinct files.
type Parser interface {
	// Parse takes the raw file bytes and returns the canonical statement.
	Parse(data []byte) (*models.ParsedStatement, error)
	// BankCode returns the 3-digit routing code (e.g. "535").
	BankCode() string
	// BankName returns the human-readable bank name.
	BankName() string
}

// Registry maps bank codes to parsers. It is built once at startup and
// read-only afterwards.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds the registry with all nine bank parsers. Registering
// two parsers under one code is a configuration error caught here, not at
// dispatch time.
func NewRegistry() (*Registry, error) {
	r := &Registry{parsers: make(map[string]Parser)}
	all := []Parser{
		&HipotekarnaParser{},
		&NLBParser{},
		&PrvaParser{},
		&ErsteParser{},
		&UCBParser{},
		&LovcenParser{},
		&ZapadParser{},
		&ZiraatParser{},
		&AdriaticParser{},
	}
	for _, p := range all {
		if err := r.register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(p Parser) error {
	code := p.BankCode()
	if code == "" {
		return fmt.Errorf("parser %q has no bank code", p.BankName())
	}
	if existing, ok := r.parsers[code]; ok {
		return fmt.Errorf("bank code %s registered twice: %q and %q",
			code, existing.BankName(), p.BankName())
	}
	r.parsers[code] = p
	return nil
}

// Lookup returns the parser for a bank code, or UnsupportedBankError.
func (r *Registry) Lookup(code string) (Parser, error) {
	p, ok := r.parsers[code]
	if !ok {
		return nil, &UnsupportedBankError{Code: code}
	}
	return p, nil
}

// Parse dispatches raw file bytes to the parser registered for the code.
func (r *Registry) Parse(code, file string, data []byte) (*models.ParsedStatement, error) {
	p, err := r.Lookup(code)
	if err != nil {
		return nil, err
	}
	stmt, err := p.Parse(data)
	if err != nil {
		return nil, wrapParseError(p.BankCode(), file, err)
	}
	return stmt, nil
}

// Banks returns the code -> display name mapping of all registered parsers.
func (r *Registry) Banks() map[string]string {
	out := make(map[string]string, len(r.parsers))
	for code, p := range r.parsers {
		out[code] = p.BankName()
	}
	return out
}
