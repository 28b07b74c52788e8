package normalize

import "strings"

// translitTable maps the Montenegrin Latin-extended letters to their closest
// plain-Latin equivalents. The export encoding cannot represent them, so
// every free-text field is run through Transliterate at export time; the
// stored canonical model keeps the original characters.
var translitTable = map[rune]string{
	'š': "s",
	'Š': "S",
	'č': "c",
	'Č': "C",
	'ć': "c",
	'Ć': "C",
	'ž': "z",
	'Ž': "Z",
	'đ': "dj",
	'Đ': "Dj",
}

// Transliterate is total and idempotent: every rune either maps through the
// table or passes through unchanged, and the output contains none of the
// table's source characters.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := translitTable[r]; ok {
			b.WriteString(repl)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanText collapses internal whitespace runs into single spaces and trims,
// matching how free-text cells come out of PDF extraction.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
