// Package extractor turns raw statement files into text the bank parsers can
// work with: plain text pages with reconstructed rows, and positioned words
// for parsers that need the table column geometry.
package extractor

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Word is one extracted text fragment with its position on the page.
// Font is the PDF font resource name, used by parsers that must tell bold
// header glyphs from regular ones.
type Word struct {
	X    float64
	Font string
	Text string
}

// Row is one reconstructed line of words, left to right.
type Row struct {
	Y     float64
	Words []Word
}

// yRowTolerance groups glyphs whose baselines differ by less than this into
// one row.
const yRowTolerance = 4.0

// columnGap is the x-distance that separates table columns in the statement
// layouts; a gap wider than this becomes a double space in the joined text.
const columnGap = 15.0

// Pages returns the text content of each page, rows reconstructed from glyph
// coordinates. Falls back to the library's plain-text paths and then to raw
// content-stream parsing when the structured extraction produces garbage.
func Pages(data []byte) ([]string, error) {
	pages, libErr := pagesFromLibrary(data)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	rawPages, rawErr := pagesFromRawStreams(data)
	if rawErr == nil && isReadableText(rawPages) {
		return rawPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("pdf text extraction failed: %w", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted; the file may be scanned or use font encodings that cannot be decoded")
}

// RowsByPage returns positioned words grouped into rows for every page.
// Column-geometry parsers (NLB, Hipotekarna) work from this instead of the
// joined text.
func RowsByPage(data []byte) (pages [][]Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, rowsFromContent(page.Content()))
	}
	return pages, nil
}

// rowsFromContent groups raw text items into rows by Y coordinate and sorts
// each row by X. PDF Y grows bottom-to-top, so rows are emitted top-down.
func rowsFromContent(content pdf.Content) []Row {
	type bucket struct {
		y     float64
		words []Word
	}
	buckets := make(map[int]*bucket)
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		key := int(math.Round(t.Y / yRowTolerance))
		b, ok := buckets[key]
		if !ok {
			b = &bucket{y: t.Y}
			buckets[key] = b
		}
		b.words = append(b.words, Word{X: t.X, Font: t.Font, Text: t.S})
	}

	rows := make([]Row, 0, len(buckets))
	for _, b := range buckets {
		sort.Slice(b.words, func(i, j int) bool { return b.words[i].X < b.words[j].X })
		rows = append(rows, Row{Y: b.y, Words: b.words})
	}
	// Descending Y = top of page first.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Y > rows[j].Y })
	return rows
}

// Text joins a row's words, inserting double spaces across column gaps so
// regex parsers can tell adjacent columns apart.
func (r Row) Text() string {
	var b strings.Builder
	var prevX float64
	for i, w := range r.Words {
		if i > 0 {
			if w.X-prevX > columnGap {
				b.WriteString("  ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(w.Text)
		prevX = w.X
	}
	return strings.TrimSpace(b.String())
}

func pagesFromLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, openErr
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	// Coordinate-based row reconstruction first: it preserves the table
	// layout the parsers depend on.
	pages = pagesByContent(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	pages = pagesByPlainText(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	return pages, nil
}

func pagesByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows := rowsFromContent(page.Content())
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if line := row.Text(); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func pagesByPlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// statementWords appear in every supported bank's statements, Montenegrin or
// English layout. Extraction that yields none of them is treated as garbage.
var statementWords = []string{
	"izvod", "račun", "racun", "stanje", "promet", "datum", "iznos",
	"banka", "valuta", "naknada", "duguje", "potražuje", "potrazuje",
	"zaduženje", "zaduzenje", "odobrenje", "svrha", "klijent", "naziv",
	"statement", "account", "balance", "turnover", "date", "amount",
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of characters plausible in a statement
// (Latin letters incl. š č ž ć đ, digits, punctuation, whitespace) to total.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				readable++
			case unicode.IsSpace(r):
				readable++
			case strings.ContainsRune(".,-/:;()'\"%&@#!?+=*€", r):
				readable++
			case strings.ContainsRune("šČčŽžĆćĐđŠ", r):
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// IsReadable reports whether extracted pages look like decoded statement
// text. Parsers for banks with obfuscated font encodings use it to decide
// whether their own glyph-code tables must be applied.
func IsReadable(pages []string) bool {
	return isReadableText(pages)
}

// isReadableText requires enough text, a high readable-character ratio, and
// at least one recognizable statement word; anything less means the fonts
// defeated this extraction method and the next one should be tried.
func isReadableText(pages []string) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	if n <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsStatementWords(pages)
}
