package cardstore

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
)

const (
	cardPrefix  = "card"
	blockPrefix = "block"
	blockDigits = 2

	// DefaultCardDigits is the zero-padding width of card numbers.
	DefaultCardDigits = 2
	// MaxCardNumber is the highest card number a table may hold.
	MaxCardNumber = 99
)

// CardName returns the canonical name of card n, e.g. CardName(3, 2) is
// "card_03".
func CardName(n, digits int) string {
	return fmt.Sprintf("%s_%0*d", cardPrefix, digits, n)
}

// ValidateCardName checks that name is card_<digits> with a number in
// 0..MaxCardNumber. Surrounding whitespace, prefix case and zero padding are
// not checked; those are repaired by canonicalization.
func ValidateCardName(name string) error {
	parts := strings.Split(strings.TrimSpace(name), "_")
	if len(parts) != 2 {
		return &InvalidCardNameError{Name: name, Reason: "expected card_<number>"}
	}
	if strings.ToLower(parts[0]) != cardPrefix {
		return &InvalidCardNameError{Name: name, Reason: fmt.Sprintf("expected %q prefix, got %q", cardPrefix, parts[0])}
	}
	n, ok := parseNumber(parts[1])
	if !ok {
		return &InvalidCardNameError{Name: name, Reason: fmt.Sprintf("%q is not a number", parts[1])}
	}
	if n < 0 || n > MaxCardNumber {
		return &InvalidCardNameError{Name: name, Reason: fmt.Sprintf("number must be 0..%d", MaxCardNumber)}
	}
	return nil
}

// canonicalCardName lowercases the prefix, strips whitespace and re-pads the
// number of an already validated card name.
func canonicalCardName(name string, digits int) string {
	parts := strings.Split(strings.TrimSpace(name), "_")
	n, _ := parseNumber(parts[1])
	return CardName(n, digits)
}

// canonicalBlockName parses a block key leniently and returns its index and
// canonical form.
func canonicalBlockName(card, name string) (int, string, error) {
	parts := strings.Split(strings.TrimSpace(name), "_")
	if len(parts) != 2 {
		return 0, "", &InvalidBlockNameError{Card: card, Name: name, Reason: "expected block_<index>"}
	}
	if strings.ToLower(parts[0]) != blockPrefix {
		return 0, "", &InvalidBlockNameError{Card: card, Name: name, Reason: fmt.Sprintf("expected %q prefix, got %q", blockPrefix, parts[0])}
	}
	i, ok := parseNumber(parts[1])
	if !ok {
		return 0, "", &InvalidBlockNameError{Card: card, Name: name, Reason: fmt.Sprintf("%q is not a number", parts[1])}
	}
	if i >= mifare.BlockCount {
		return 0, "", &InvalidBlockNameError{Card: card, Name: name, Reason: fmt.Sprintf("index must be 0..%d", mifare.BlockCount-1)}
	}
	return i, fmt.Sprintf("%s_%0*d", blockPrefix, blockDigits, i), nil
}

// parseNumber accepts a non-empty run of ASCII digits. Runs too large for an
// int parse as math.MaxInt so callers report them as out of range.
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
