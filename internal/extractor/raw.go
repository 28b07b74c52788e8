package extractor

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"regexp"
	"strings"
	"unicode"
)

// pagesFromRawStreams is the fallback extractor that works directly on the
// PDF byte stream, for documents whose fonts defeat the structured library.
// It finds ToUnicode CMap streams, builds the glyph-code mappings, then
// decodes the text operators (Tj, TJ, ') in every content stream.
func pagesFromRawStreams(data []byte) ([]string, error) {
	streams := contentStreams(data)
	if len(streams) == 0 {
		return nil, nil
	}

	cm := mergeCMaps(findToUnicodeMaps(data))

	var texts []string
	for _, stream := range streams {
		decompressed := tryInflate(stream)
		if text := textFromStream(decompressed, cm); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}
	return []string{strings.Join(texts, "\n")}, nil
}

// contentStreams finds all stream...endstream blocks.
func contentStreams(data []byte) [][]byte {
	var streams [][]byte
	startMarker := []byte("stream")
	endMarker := []byte("endstream")

	offset := 0
	for offset < len(data) {
		idx := bytes.Index(data[offset:], startMarker)
		if idx < 0 {
			break
		}
		start := offset + idx + len(startMarker)
		if start < len(data) && data[start] == '\r' {
			start++
		}
		if start < len(data) && data[start] == '\n' {
			start++
		}

		endIdx := bytes.Index(data[start:], endMarker)
		if endIdx < 0 {
			break
		}
		if endIdx > 0 {
			streams = append(streams, data[start:start+endIdx])
		}
		offset = start + endIdx + len(endMarker)
	}
	return streams
}

// tryInflate attempts zlib decompression, returning the input when the
// stream is not FlateDecode-compressed.
func tryInflate(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

var (
	hexShowRe   = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*Tj`)
	litShowRe   = regexp.MustCompile(`\(([^)]*)\)\s*Tj`)
	arrayShowRe = regexp.MustCompile(`\[([^\]]*)\]\s*TJ`)
	hexTokenIn  = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
	litTokenIn  = regexp.MustCompile(`\(([^)]*)\)`)
	tickShowRe  = regexp.MustCompile(`\(([^)]*)\)\s*'`)
	moveTextRe  = regexp.MustCompile(`([\d.\-]+)\s+([\d.\-]+)\s+T[dD]`)
)

// textFromStream decodes the text operators of one content stream, using
// Td/TD/T* positioning operators as line-break hints.
func textFromStream(data []byte, cm *CMap) string {
	content := string(data)
	if !strings.Contains(content, "Tj") && !strings.Contains(content, "TJ") &&
		!strings.Contains(content, "BT") {
		return ""
	}

	var lines []string
	for _, block := range textBlocks(content) {
		lines = append(lines, linesFromBlock(block, cm)...)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// textBlocks slices out BT...ET text objects.
func textBlocks(content string) []string {
	var blocks []string
	remaining := content
	for {
		bt := strings.Index(remaining, "BT")
		if bt < 0 {
			break
		}
		et := strings.Index(remaining[bt:], "ET")
		if et < 0 {
			break
		}
		blocks = append(blocks, remaining[bt:bt+et+2])
		remaining = remaining[bt+et+2:]
	}
	if len(blocks) == 0 && (strings.Contains(content, "Tj") || strings.Contains(content, "TJ")) {
		blocks = append(blocks, content)
	}
	return blocks
}

func linesFromBlock(block string, cm *CMap) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for _, op := range strings.Split(block, "\n") {
		op = strings.TrimSpace(op)

		if op == "T*" || moveTextRe.MatchString(op) {
			flush()
		}
		for _, m := range hexShowRe.FindAllStringSubmatch(op, -1) {
			current.WriteString(decodeHexString(m[1], cm))
		}
		for _, m := range litShowRe.FindAllStringSubmatch(op, -1) {
			current.WriteString(decodeLiteralString(m[1], cm))
		}
		for _, m := range arrayShowRe.FindAllStringSubmatch(op, -1) {
			current.WriteString(decodeShowArray(m[1], cm))
		}
		for _, m := range tickShowRe.FindAllStringSubmatch(op, -1) {
			flush()
			current.WriteString(decodeLiteralString(m[1], cm))
		}
	}
	flush()
	return lines
}

func decodeHexString(hexStr string, cm *CMap) string {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return ""
	}
	if cm != nil && cm.Len() > 0 {
		if out := cm.Decode(raw); out != "" {
			return out
		}
	}
	// No mapping: try UTF-16BE, then printable ASCII.
	if len(raw) >= 2 && len(raw)%2 == 0 {
		var b strings.Builder
		for i := 0; i+1 < len(raw); i += 2 {
			r := rune(raw[i])<<8 | rune(raw[i+1])
			if unicode.IsPrint(r) || r == ' ' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return stripUnprintable(string(raw))
}

func decodeLiteralString(s string, cm *CMap) string {
	decoded := decodePDFEscapes(s)
	if cm != nil && cm.Len() > 0 {
		if out := cm.Decode([]byte(decoded)); out != "" && mostlyPrintable(out) {
			return out
		}
	}
	return stripUnprintable(decoded)
}

// decodeShowArray decodes a TJ array, which interleaves strings and kerning
// numbers; only the strings matter here.
func decodeShowArray(arrayContent string, cm *CMap) string {
	type token struct {
		pos   int
		isHex bool
		value string
	}
	var tokens []token

	for _, idx := range hexTokenIn.FindAllStringSubmatchIndex(arrayContent, -1) {
		tokens = append(tokens, token{pos: idx[0], isHex: true, value: arrayContent[idx[2]:idx[3]]})
	}
	for _, idx := range litTokenIn.FindAllStringSubmatchIndex(arrayContent, -1) {
		tokens = append(tokens, token{pos: idx[0], isHex: false, value: arrayContent[idx[2]:idx[3]]})
	}
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j].pos < tokens[j-1].pos; j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}

	var b strings.Builder
	for _, t := range tokens {
		if t.isHex {
			b.WriteString(decodeHexString(t.value, cm))
		} else {
			b.WriteString(decodeLiteralString(t.value, cm))
		}
	}
	return b.String()
}

// decodePDFEscapes resolves the escape sequences of literal PDF strings.
func decodePDFEscapes(s string) string {
	var buf strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case '(', ')', '\\':
				buf.WriteByte(s[i])
			default:
				if s[i] >= '0' && s[i] <= '7' {
					val := int(s[i] - '0')
					for j := 1; j < 3 && i+j < len(s) && s[i+j] >= '0' && s[i+j] <= '7'; j++ {
						val = val*8 + int(s[i+j]-'0')
						i++
					}
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(s[i])
				}
			}
		} else {
			buf.WriteByte(s[i])
		}
		i++
	}
	return buf.String()
}

func stripUnprintable(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, s))
}

func mostlyPrintable(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	printable := 0
	for _, r := range runes {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return float64(printable)/float64(len(runes)) > 0.5
}
