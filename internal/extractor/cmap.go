package extractor

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf16"
)

// CMap is a glyph-code to Unicode mapping table built from a PDF ToUnicode
// stream. Keys are uppercase hex-encoded character codes.
type CMap struct {
	charMap map[string]string
}

// NewCMap returns an empty CMap.
func NewCMap() *CMap {
	return &CMap{charMap: make(map[string]string)}
}

// Len returns the number of mapped codes.
func (cm *CMap) Len() int { return len(cm.charMap) }

var (
	bfCharBlockRe  = regexp.MustCompile(`(?s)beginbfchar\s*(.*?)\s*endbfchar`)
	bfRangeBlockRe = regexp.MustCompile(`(?s)beginbfrange\s*(.*?)\s*endbfrange`)
	hexTokenRe     = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
)

// ParseCMap builds a CMap from ToUnicode stream content. Both bfchar pairs
// and bfrange blocks (plain and array form) are supported.
func ParseCMap(content string) *CMap {
	cm := NewCMap()

	// bfchar: <srcCode> <unicode> pairs
	for _, block := range bfCharBlockRe.FindAllStringSubmatch(content, -1) {
		tokens := hexTokenRe.FindAllStringSubmatch(block[1], -1)
		for i := 0; i+1 < len(tokens); i += 2 {
			src := strings.ToUpper(tokens[i][1])
			if uni := hexToUnicode(tokens[i+1][1]); uni != "" {
				cm.charMap[src] = uni
			}
		}
	}

	// bfrange: <start> <end> <startUnicode>  or  <start> <end> [<u1> <u2> ...]
	for _, block := range bfRangeBlockRe.FindAllStringSubmatch(content, -1) {
		for _, line := range strings.Split(block[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.Contains(line, "[") {
				cm.addRangeArray(line)
				continue
			}

			tokens := hexTokenRe.FindAllStringSubmatch(line, -1)
			if len(tokens) < 3 {
				continue
			}
			startCode := hexToInt(tokens[0][1])
			endCode := hexToInt(tokens[1][1])
			dstCode := hexToInt(tokens[2][1])
			if startCode < 0 || endCode < 0 || dstCode < 0 {
				continue
			}

			hexLen := len(tokens[0][1])
			for code := startCode; code <= endCode; code++ {
				uni := hexToUnicode(intToHex(dstCode+(code-startCode), len(tokens[2][1])))
				if uni != "" {
					cm.charMap[intToHex(code, hexLen)] = uni
				}
			}
		}
	}

	return cm
}

// addRangeArray handles the <start> <end> [<u1> <u2> ...] range form.
func (cm *CMap) addRangeArray(line string) {
	bracket := strings.Index(line, "[")
	if bracket < 0 {
		return
	}
	tokens := hexTokenRe.FindAllStringSubmatch(line[:bracket], -1)
	if len(tokens) < 2 {
		return
	}
	startCode := hexToInt(tokens[0][1])
	hexLen := len(tokens[0][1])

	for i, ut := range hexTokenRe.FindAllStringSubmatch(line[bracket:], -1) {
		if uni := hexToUnicode(ut[1]); uni != "" {
			cm.charMap[intToHex(startCode+i, hexLen)] = uni
		}
	}
}

// Decode maps raw PDF string bytes through the table. The code width (1 or 2
// bytes) is inferred from the key length; unmapped printable ASCII bytes
// pass through.
func (cm *CMap) Decode(raw []byte) string {
	if len(cm.charMap) == 0 {
		return ""
	}

	codeByteLen := 1
	for k := range cm.charMap {
		codeByteLen = len(k) / 2
		break
	}
	if codeByteLen < 1 {
		codeByteLen = 1
	}

	var out strings.Builder
	for i := 0; i <= len(raw)-codeByteLen; i += codeByteLen {
		chunk := raw[i : i+codeByteLen]
		key := strings.ToUpper(hex.EncodeToString(chunk))
		if uni, ok := cm.charMap[key]; ok {
			out.WriteString(uni)
			continue
		}
		// Mixed-width fonts: retry as a single byte and rewind.
		if codeByteLen > 1 {
			key1 := strings.ToUpper(hex.EncodeToString(chunk[:1]))
			if uni, ok := cm.charMap[key1]; ok {
				out.WriteString(uni)
				i -= codeByteLen - 1
				continue
			}
		}
		if codeByteLen == 1 && chunk[0] >= 32 && chunk[0] < 127 {
			out.WriteByte(chunk[0])
		}
	}
	return out.String()
}

// findToUnicodeMaps scans raw PDF bytes for every ToUnicode CMap stream.
func findToUnicodeMaps(data []byte) []*CMap {
	var cmaps []*CMap
	for _, stream := range contentStreams(data) {
		content := string(tryInflate(stream))
		if strings.Contains(content, "beginbfchar") || strings.Contains(content, "beginbfrange") {
			if cm := ParseCMap(content); cm.Len() > 0 {
				cmaps = append(cmaps, cm)
			}
		}
	}
	return cmaps
}

// mergeCMaps combines the per-font tables into one; later maps win on
// conflicting codes.
func mergeCMaps(cmaps []*CMap) *CMap {
	merged := NewCMap()
	for _, cm := range cmaps {
		for k, v := range cm.charMap {
			merged.charMap[k] = v
		}
	}
	return merged
}

func hexToInt(h string) int {
	val := 0
	for _, c := range strings.ToUpper(h) {
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return -1
		}
	}
	return val
}

func intToHex(val, hexLen int) string {
	h := strings.ToUpper(hex.EncodeToString([]byte{byte(val >> 8), byte(val)}))
	if len(h) > hexLen {
		h = h[len(h)-hexLen:]
	}
	for len(h) < hexLen {
		h = "0" + h
	}
	return h
}

// hexToUnicode converts a hex-encoded UTF-16BE value (with surrogate-pair
// handling) to a string.
func hexToUnicode(h string) string {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}

	switch len(data) {
	case 2:
		return string(rune(uint16(data[0])<<8 | uint16(data[1])))
	case 4:
		hi := uint16(data[0])<<8 | uint16(data[1])
		lo := uint16(data[2])<<8 | uint16(data[3])
		if hi >= 0xD800 && hi <= 0xDBFF && lo >= 0xDC00 && lo <= 0xDFFF {
			return string(utf16.DecodeRune(rune(hi), rune(lo)))
		}
		return string(rune(hi)) + string(rune(lo))
	}

	var out strings.Builder
	for i := 0; i+1 < len(data); i += 2 {
		out.WriteRune(rune(uint16(data[i])<<8 | uint16(data[i+1])))
	}
	return out.String()
}
