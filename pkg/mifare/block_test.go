package mifare

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNormalizeBlockPadsShortBlock(t *testing.T) {
	in := Block{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out, changed := NormalizeBlock(in)
	if !changed {
		t.Fatalf("expected changed for %d-byte block", len(in))
	}
	want := Block{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
}

func TestNormalizeBlockTruncatesLongBlock(t *testing.T) {
	in := make(Block, 20)
	for i := range in {
		in[i] = byte(i + 1)
	}
	out, changed := NormalizeBlock(in)
	if !changed {
		t.Fatalf("expected changed for 20-byte block")
	}
	if len(out) != BlockSize || !bytes.Equal(out, in[:BlockSize]) {
		t.Fatalf("expected first 16 values, got %v", out)
	}
	out[0] = 0xFF
	if in[0] == 0xFF {
		t.Fatalf("truncated block aliases its input")
	}
}

func TestNormalizeBlockKeepsExactBlock(t *testing.T) {
	in := NewBlock()
	in[15] = 7
	out, changed := NormalizeBlock(in)
	if changed {
		t.Fatalf("expected unchanged for 16-byte block")
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("expected %v, got %v", in, out)
	}
}

func TestBlockJSONUsesIntegerArray(t *testing.T) {
	raw, err := json.Marshal(Block{0, 1, 255})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(raw) != "[0,1,255]" {
		t.Fatalf("expected [0,1,255], got %s", raw)
	}

	var b Block
	if err := json.Unmarshal([]byte("[9, 8, 7]"), &b); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !bytes.Equal(b, Block{9, 8, 7}) {
		t.Fatalf("expected [9 8 7], got %v", b)
	}
}

func TestBlockJSONRejectsOutOfRangeValues(t *testing.T) {
	for _, in := range []string{"[256]", "[-1]", "[1.5]", `"AAEC"`} {
		var b Block
		if err := json.Unmarshal([]byte(in), &b); err == nil {
			t.Fatalf("expected error for %s, got %v", in, b)
		}
	}
}

func TestParseBlockIndex(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"block_00", 0, true},
		{"block_15", 15, true},
		{"block_16", 0, false},
		{"block_1", 0, false},
		{"Block_01", 0, false},
		{"block_xx", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseBlockIndex(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseBlockIndex(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
	if BlockName(7) != "block_07" {
		t.Fatalf("expected block_07, got %s", BlockName(7))
	}
}
