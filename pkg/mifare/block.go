package mifare

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	BlockSize       = 16 // bytes per block
	BlockCount      = 16 // blocks per card
	BlocksPerSector = 4  // including the trailer
	DataBlocks      = 3  // blocks per sector addressed by text operations
	SectorCount     = BlockCount / BlocksPerSector
	UIDSize         = 4
)

// Block is one 16-byte unit of card memory.
type Block []byte

// NewBlock returns an all-zero block.
func NewBlock() Block {
	return make(Block, BlockSize)
}

// NormalizeBlock right-pads b with zeros or truncates it so that it is
// exactly BlockSize bytes long. The second result reports whether the length
// had to change. The returned block never aliases a truncated or padded b.
func NormalizeBlock(b Block) (Block, bool) {
	switch {
	case len(b) == BlockSize:
		return b, false
	case len(b) > BlockSize:
		return b[:BlockSize].Clone(), true
	default:
		out := NewBlock()
		copy(out, b)
		return out, true
	}
}

// Clone returns a copy of b.
func (b Block) Clone() Block {
	if b == nil {
		return nil
	}
	out := make(Block, len(b))
	copy(out, b)
	return out
}

// MarshalJSON encodes the block as an array of integers rather than the
// base64 string encoding/json uses for byte slices.
func (b Block) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return []byte(sb.String()), nil
}

// UnmarshalJSON decodes an array of integers, each of which must be in 0..255.
func (b *Block) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if values == nil {
		*b = nil
		return nil
	}
	out := make(Block, len(values))
	for i, v := range values {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("block value %d at offset %d out of range 0..255", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// BlockName returns the canonical name of block i, e.g. "block_07".
func BlockName(i int) string {
	return fmt.Sprintf("block_%02d", i)
}

// ParseBlockIndex is the inverse of BlockName for canonical names.
func ParseBlockIndex(name string) (int, bool) {
	num, ok := strings.CutPrefix(name, "block_")
	if !ok || len(num) != 2 {
		return 0, false
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 0 || i >= BlockCount {
		return 0, false
	}
	return i, true
}
