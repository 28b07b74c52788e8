// Package normalize holds the shared field normalizers every bank parser and
// the exporter run extracted values through: account canonicalization,
// locale-aware decimal and date parsing, and Latin transliteration.
package normalize

import "fmt"

// Error reports a field value that could not be canonicalized. Whether it is
// fatal to the whole statement or only to the field is the calling parser's
// policy.
type Error struct {
	Field string
	Value string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalize %s: %s: %q", e.Field, e.Msg, e.Value)
}
