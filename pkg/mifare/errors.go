package mifare

import (
	"errors"
	"fmt"
)

// NoBlock is the MissingBlockError block index used when no card is loaded.
const NoBlock = -1

// ErrNoCard is returned when an operation needs a card and none is loaded.
var ErrNoCard error = &MissingBlockError{Block: NoBlock}

// OutOfRangeError reports a sector whose blocks lie outside the card.
type OutOfRangeError struct {
	Sector int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("sector %d out of range, use 0 <= sector < %d", e.Sector, SectorCount)
}

// MissingBlockError reports a block absent from the loaded card data.
type MissingBlockError struct {
	Card  string // card name, empty when unknown
	Block int    // block index, NoBlock when no card is loaded
}

func (e *MissingBlockError) Error() string {
	if e.Block == NoBlock {
		return "no card present"
	}
	if e.Card == "" {
		return fmt.Sprintf("%s is missing", BlockName(e.Block))
	}
	return fmt.Sprintf("%s is missing on %s", BlockName(e.Block), e.Card)
}

// IsOutOfRange checks if an error is an OutOfRangeError.
func IsOutOfRange(err error) bool {
	var e *OutOfRangeError
	return errors.As(err, &e)
}

// IsMissingBlock checks if an error is a MissingBlockError, ErrNoCard
// included.
func IsMissingBlock(err error) bool {
	var e *MissingBlockError
	return errors.As(err, &e)
}
