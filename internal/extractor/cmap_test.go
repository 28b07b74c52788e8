package extractor

import (
	"bytes"
	"compress/zlib"
	"testing"
)

const bfCharCMap = `/CIDInit /ProcSet findresource begin
begincmap
4 beginbfchar
<0049> <0049>
<007A> <007A>
<0160> <0160>
<0110> <0110>
endbfchar
endcmap`

func TestParseCMapBFChar(t *testing.T) {
	cm := ParseCMap(bfCharCMap)
	if cm.Len() != 4 {
		t.Fatalf("Len: got %d, want 4", cm.Len())
	}
	got := cm.Decode([]byte{0x01, 0x60, 0x01, 0x10, 0x00, 0x49, 0x00, 0x7A})
	if got != "ŠĐIz" {
		t.Errorf("Decode: got %q, want %q", got, "ŠĐIz")
	}
}

func TestParseCMapBFRange(t *testing.T) {
	cm := ParseCMap(`1 beginbfrange
<0030> <0039> <0030>
endbfrange`)
	if cm.Len() != 10 {
		t.Fatalf("Len: got %d, want 10", cm.Len())
	}
	got := cm.Decode([]byte{0x00, 0x31, 0x00, 0x39, 0x00, 0x30})
	if got != "190" {
		t.Errorf("Decode: got %q, want %q", got, "190")
	}
}

func TestParseCMapBFRangeArray(t *testing.T) {
	cm := ParseCMap(`1 beginbfrange
<0041> <0043> [<0161> <010D> <017E>]
endbfrange`)
	if cm.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", cm.Len())
	}
	got := cm.Decode([]byte{0x00, 0x41, 0x00, 0x42, 0x00, 0x43})
	if got != "ščž" {
		t.Errorf("Decode: got %q, want %q", got, "ščž")
	}
}

func TestDecodeSurrogatePair(t *testing.T) {
	// <D83DDCB0> is U+1F4B0 encoded as a UTF-16 surrogate pair.
	cm := ParseCMap(`1 beginbfchar
<0001> <D83DDCB0>
endbfchar`)
	got := cm.Decode([]byte{0x00, 0x01})
	if got != "\U0001F4B0" {
		t.Errorf("Decode: got %q, want %q", got, "\U0001F4B0")
	}
}

func TestDecodeEmptyCMap(t *testing.T) {
	if got := NewCMap().Decode([]byte("abc")); got != "" {
		t.Errorf("empty cmap must decode to nothing, got %q", got)
	}
}

func TestDecodeSingleByteCodes(t *testing.T) {
	cm := ParseCMap(`2 beginbfchar
<01> <0160>
<02> <0107>
endbfchar`)
	got := cm.Decode([]byte{0x01, 0x02, 'A'})
	// Unmapped printable ASCII passes through for one-byte codes.
	if got != "ŠćA" {
		t.Errorf("Decode: got %q, want %q", got, "ŠćA")
	}
}

func TestMergeCMapsLaterWins(t *testing.T) {
	a := ParseCMap(`1 beginbfchar
<0001> <0041>
endbfchar`)
	b := ParseCMap(`1 beginbfchar
<0001> <0042>
endbfchar`)
	merged := mergeCMaps([]*CMap{a, b})
	if got := merged.Decode([]byte{0x00, 0x01}); got != "B" {
		t.Errorf("merged Decode: got %q, want %q", got, "B")
	}
}

func TestContentStreams(t *testing.T) {
	data := []byte("1 0 obj\nstream\r\nfirst body\nendstream\n2 0 obj\nstream\nsecond\nendstream")
	streams := contentStreams(data)
	if len(streams) != 2 {
		t.Fatalf("streams: got %d, want 2", len(streams))
	}
	if string(streams[0]) != "first body\n" {
		t.Errorf("stream[0]: got %q", streams[0])
	}
	if string(streams[1]) != "second\n" {
		t.Errorf("stream[1]: got %q", streams[1])
	}
}

func TestTryInflate(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte("BT (Izvod br. 17) Tj ET"))
	w.Close()

	if got := string(tryInflate(buf.Bytes())); got != "BT (Izvod br. 17) Tj ET" {
		t.Errorf("inflate: got %q", got)
	}
	// Uncompressed input is returned unchanged.
	if got := string(tryInflate([]byte("plain"))); got != "plain" {
		t.Errorf("passthrough: got %q", got)
	}
}

func TestDecodePDFEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`a\(b\)c`, "a(b)c"},
		{`line\nnext`, "line\nnext"},
		{`tab\there`, "tab\there"},
		{`back\\slash`, `back\slash`},
		{`octal\101X`, "octalAX"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := decodePDFEscapes(tt.in); got != tt.want {
			t.Errorf("decodePDFEscapes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextFromStream(t *testing.T) {
	stream := []byte(`BT
1 0 0 1 50 700 Td
(IZVOD BR. 17) Tj
1 0 0 1 50 680 Td
(Racun: 535-22023-67) Tj
0 -20 Td
[(2.163) (,40)] TJ
ET`)
	got := textFromStream(stream, NewCMap())
	want := "IZVOD BR. 17\nRacun: 535-22023-67\n2.163,40"
	if got != want {
		t.Errorf("textFromStream:\ngot  %q\nwant %q", got, want)
	}
}

func TestTextFromStreamHexWithCMap(t *testing.T) {
	cm := ParseCMap(`3 beginbfchar
<0001> <0049>
<0002> <007A>
<0003> <0076>
endbfchar`)
	got := textFromStream([]byte("BT\n<000100020003> Tj\nET"), cm)
	if got != "Izv" {
		t.Errorf("textFromStream: got %q, want %q", got, "Izv")
	}
}
