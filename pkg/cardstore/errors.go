package cardstore

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCard = errors.New("unknown card")
	ErrCardExists  = errors.New("card already exists")
)

// InvalidCardNameError reports a card key that is not card_<0..99>.
type InvalidCardNameError struct {
	Name   string
	Reason string
}

func (e *InvalidCardNameError) Error() string {
	return fmt.Sprintf("illegal card name %q: %s", e.Name, e.Reason)
}

// InvalidBlockNameError reports a block key that is not block_<0..15>.
type InvalidBlockNameError struct {
	Card   string
	Name   string
	Reason string
}

func (e *InvalidBlockNameError) Error() string {
	return fmt.Sprintf("illegal block name %q in %s: %s", e.Name, e.Card, e.Reason)
}

// EmptyStoreError reports a card table file that holds no cards.
type EmptyStoreError struct {
	Path string
}

func (e *EmptyStoreError) Error() string {
	return fmt.Sprintf("there is no card information in %q", e.Path)
}

// ParseError reports a card table file that is not a valid table.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse card table %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageIOError reports a failure reading or writing the card table file.
type StorageIOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *StorageIOError) Error() string {
	return fmt.Sprintf("%s card table %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageIOError) Unwrap() error { return e.Err }

// IsInvalidName checks if an error is an InvalidCardNameError or an
// InvalidBlockNameError.
func IsInvalidName(err error) bool {
	var cardErr *InvalidCardNameError
	var blockErr *InvalidBlockNameError
	return errors.As(err, &cardErr) || errors.As(err, &blockErr)
}

// IsEmptyStore checks if an error is an EmptyStoreError.
func IsEmptyStore(err error) bool {
	var e *EmptyStoreError
	return errors.As(err, &e)
}

// IsParseError checks if an error is a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

// IsStorageIO checks if an error is a StorageIOError.
func IsStorageIO(err error) bool {
	var e *StorageIOError
	return errors.As(err, &e)
}
