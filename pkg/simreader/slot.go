package simreader

import (
	"sync/atomic"

	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
)

// Slot holds the card currently presented to the simulated readers. It is
// empty until the first Load; every later Load replaces the card wholesale.
// All readers built on the same Slot see the same card.
type Slot struct {
	card atomic.Pointer[mifare.Card]
}

func NewSlot() *Slot {
	return &Slot{}
}

// Load presents c to the readers, replacing any previous card.
func (s *Slot) Load(c *mifare.Card) {
	s.card.Store(c)
}

// Snapshot returns the card presented right now, or nil when none is.
func (s *Slot) Snapshot() *mifare.Card {
	return s.card.Load()
}
