package mifare

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// UID is the 4-byte card identifier stored big-endian at the start of
// block 0.
type UID uint32

// Bytes returns the big-endian encoding of u.
func (u UID) Bytes() [UIDSize]byte {
	var b [UIDSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(u))
	return b
}

func (u UID) String() string {
	return fmt.Sprintf("%08X", uint32(u))
}

// UIDFromBlock reads the UID from the first 4 bytes of b. Missing bytes read
// as zero.
func UIDFromBlock(b Block) UID {
	var raw [UIDSize]byte
	copy(raw[:], b)
	return UID(binary.BigEndian.Uint32(raw[:]))
}

// PutUID overwrites the first 4 bytes of b with u, leaving the rest intact.
// b is normalized first so the result is always BlockSize bytes long.
func PutUID(b Block, u UID) Block {
	out, changed := NormalizeBlock(b)
	if !changed {
		out = out.Clone()
	}
	raw := u.Bytes()
	copy(out[:UIDSize], raw[:])
	return out
}

// ParseUID parses 8 hex characters, optionally prefixed with 0x, into a UID.
func ParseUID(s string) (UID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*UIDSize {
		return 0, fmt.Errorf("UID must be %d hex chars, got %d", 2*UIDSize, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("UID invalid hex: %w", err)
	}
	return UID(binary.BigEndian.Uint32(raw)), nil
}
