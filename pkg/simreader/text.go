package simreader

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// decodeText maps each byte to the Latin-1 character of the same value.
// Trailing zero bytes come back as NUL characters.
func decodeText(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode sector text: %w", err)
	}
	return string(out), nil
}

// encodeText fits text into capacity characters: longer text is cut, shorter
// text is padded with spaces. It returns the part of text that fits and the
// Latin-1 bytes to store.
func encodeText(text string, capacity int) (string, []byte, error) {
	runes := []rune(text)
	if len(runes) > capacity {
		runes = runes[:capacity]
	}
	kept := string(runes)
	padded := kept + strings.Repeat(" ", capacity-len(runes))
	data, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(padded))
	if err != nil {
		return "", nil, fmt.Errorf("encode sector text: %w", err)
	}
	return kept, data, nil
}
