package parser

import (
	"errors"
	"fmt"
)

// ParseError reports a structural anomaly in a statement document: a missing
// section, an unparsable header field, or an empty transaction table where
// the document clearly contains one. The input file is left in place for
// retry; nothing is partially returned.
type ParseError struct {
	BankCode string
	File     string
	Section  string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bank %s: %s: %s: %v", e.BankCode, e.File, e.Section, e.Err)
	}
	return fmt.Sprintf("bank %s: %s: %s", e.BankCode, e.File, e.Section)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedBankError means no parser is registered for the code. The file
// is left untouched for operator attention.
type UnsupportedBankError struct {
	Code string
}

func (e *UnsupportedBankError) Error() string {
	return fmt.Sprintf("no parser registered for bank code %q", e.Code)
}

// newParseError is the constructor parsers use for their own failures.
func newParseError(bankCode, section string, err error) *ParseError {
	return &ParseError{BankCode: bankCode, Section: section, Err: err}
}

// wrapParseError attaches file identity to an error coming out of a parser,
// converting untyped errors into ParseError on the way.
func wrapParseError(bankCode, file string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.File == "" {
			pe.File = file
		}
		return err
	}
	return &ParseError{BankCode: bankCode, File: file, Section: "parse", Err: err}
}
