package cardstore

import (
	"fmt"
	"sort"

	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
)

// Table is the full card table: card name to block name to block.
type Table map[string]map[string]mifare.Block

// Normalizer canonicalizes a Table.
type Normalizer struct {
	// CardDigits is the zero-padding width of card numbers. Zero means
	// DefaultCardDigits.
	CardDigits int
}

func (n Normalizer) digits() int {
	if n.CardDigits <= 0 {
		return DefaultCardDigits
	}
	return n.CardDigits
}

// Normalize rewrites t in place so that every card has a canonical name and
// exactly 16 canonically named blocks of 16 bytes. Missing blocks are added
// zero-filled. It reports whether anything had to be renamed, padded,
// truncated or added. On error t is left untouched.
func (n Normalizer) Normalize(t Table) (bool, error) {
	digits := n.digits()
	out := make(Table, len(t))
	changed := false

	for _, raw := range sortedKeys(t) {
		if err := ValidateCardName(raw); err != nil {
			return false, err
		}
		name := canonicalCardName(raw, digits)
		if _, dup := out[name]; dup {
			return false, &InvalidCardNameError{Name: raw, Reason: fmt.Sprintf("duplicates %s", name)}
		}
		if name != raw {
			changed = true
		}

		blocks, blocksChanged, err := normalizeBlocks(name, t[raw])
		if err != nil {
			return false, err
		}
		changed = changed || blocksChanged
		out[name] = blocks
	}

	for k := range t {
		delete(t, k)
	}
	for k, v := range out {
		t[k] = v
	}
	return changed, nil
}

func normalizeBlocks(card string, in map[string]mifare.Block) (map[string]mifare.Block, bool, error) {
	out := make(map[string]mifare.Block, mifare.BlockCount)
	changed := false

	for _, raw := range sortedKeys(in) {
		_, name, err := canonicalBlockName(card, raw)
		if err != nil {
			return nil, false, err
		}
		if _, dup := out[name]; dup {
			return nil, false, &InvalidBlockNameError{Card: card, Name: raw, Reason: fmt.Sprintf("duplicates %s", name)}
		}
		if name != raw {
			changed = true
		}
		b, fixed := mifare.NormalizeBlock(in[raw])
		changed = changed || fixed
		out[name] = b
	}

	for i := 0; i < mifare.BlockCount; i++ {
		name := mifare.BlockName(i)
		if _, ok := out[name]; !ok {
			out[name] = mifare.NewBlock()
			changed = true
		}
	}
	return out, changed, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
