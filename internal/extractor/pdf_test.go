package extractor

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestRowsFromContent(t *testing.T) {
	content := pdf.Content{Text: []pdf.Text{
		// One header row near the top, glyphs out of x order and with a
		// small baseline wobble.
		{X: 200, Y: 701, S: "BR.", Font: "F1"},
		{X: 50, Y: 700, S: "IZVOD", Font: "F1"},
		{X: 240, Y: 700, S: "17", Font: "F1"},
		// A second row further down.
		{X: 50, Y: 650, S: "Racun:", Font: "F2"},
		{X: 120, Y: 650, S: "535-22023-67", Font: "F2"},
		// Whitespace-only glyphs are dropped.
		{X: 300, Y: 650, S: "  ", Font: "F2"},
	}}

	rows := rowsFromContent(content)
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	// Top of the page comes first.
	if got := rows[0].Text(); got != "IZVOD  BR.  17" {
		t.Errorf("rows[0]: got %q", got)
	}
	if len(rows[1].Words) != 2 {
		t.Fatalf("rows[1] words: got %d, want 2", len(rows[1].Words))
	}
	if rows[1].Words[0].Text != "Racun:" || rows[1].Words[1].Text != "535-22023-67" {
		t.Errorf("rows[1] order: got %q %q", rows[1].Words[0].Text, rows[1].Words[1].Text)
	}
	if rows[1].Words[1].Font != "F2" {
		t.Errorf("font: got %q", rows[1].Words[1].Font)
	}
}

func TestRowTextColumnGaps(t *testing.T) {
	// CG is adjacent (single space); the amounts sit in separate columns
	// (double space).
	row := Row{Words: []Word{
		{X: 50, Text: "Telekom"},
		{X: 60, Text: "CG"},
		{X: 340, Text: "18.00"},
		{X: 420, Text: "221"},
	}}
	if got := row.Text(); got != "Telekom CG  18.00  221" {
		t.Errorf("Text: got %q", got)
	}
	if got := (Row{}).Text(); got != "" {
		t.Errorf("empty row: got %q", got)
	}
}

func TestIsReadable(t *testing.T) {
	statement := strings.Repeat("Izvod broj 17 na dan 24.02.2026 stanje 2.163,40 ", 3)

	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"statement text", []string{statement}, true},
		{"empty", nil, false},
		{"too short", []string{"izvod"}, false},
		{"garbage glyphs", []string{strings.Repeat("�", 40)}, false},
		{"readable but not a statement", []string{strings.Repeat("lorem ipsum dolor sit amet ", 10)}, false},
	}
	for _, tt := range tests {
		if got := IsReadable(tt.pages); got != tt.want {
			t.Errorf("%s: IsReadable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTextQuality(t *testing.T) {
	if q := textQuality([]string{"Pošiljalac: ŽELJEZNIČKA 12, iznos 1.500,00"}); q < 0.95 {
		t.Errorf("diacritics must count as readable, quality = %f", q)
	}
	if q := textQuality([]string{strings.Repeat("�", 20)}); q != 0 {
		t.Errorf("control glyphs are unreadable, quality = %f", q)
	}
	if q := textQuality(nil); q != 0 {
		t.Errorf("empty input quality = %f", q)
	}
}
