// Package hw talks to physical readers through the system PC/SC service.
// It needs cgo and libpcsclite; the rest of the module does not, so only
// programs that touch real hardware should import it.
package hw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebfe/scard"
)

// DefaultPollTimeout bounds each status-change wait while waiting for a card.
const DefaultPollTimeout = time.Second

// Terminal is a connected card on one physical reader. It satisfies
// pcsc.Card.
type Terminal struct {
	sctx  *scard.Context
	card  *scard.Card
	name  string
	index int
}

// Readers lists the readers known to the PC/SC service.
func Readers() ([]string, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}
	defer sctx.Release()
	return listReaders(sctx)
}

// Open waits until a card is present on reader index and connects to it.
// Waiting stops when ctx is done.
func Open(ctx context.Context, index int) (*Terminal, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}

	t, err := open(ctx, sctx, index)
	if err != nil {
		sctx.Release()
		return nil, err
	}
	return t, nil
}

func open(ctx context.Context, sctx *scard.Context, index int) (*Terminal, error) {
	readers, err := listReaders(sctx)
	if err != nil {
		return nil, err
	}
	name, err := pickReader(readers, index)
	if err != nil {
		return nil, err
	}
	if err := awaitCard(ctx, sctx, name, DefaultPollTimeout); err != nil {
		return nil, err
	}
	card, err := sctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", name, err)
	}
	return &Terminal{sctx: sctx, card: card, name: name, index: index}, nil
}

func listReaders(sctx *scard.Context) ([]string, error) {
	readers, err := sctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	if len(readers) == 0 {
		return nil, errors.New("no PC/SC readers attached")
	}
	return readers, nil
}

func pickReader(readers []string, index int) (string, error) {
	if index < 0 || index >= len(readers) {
		return "", fmt.Errorf("reader index %d out of range (0..%d)", index, len(readers)-1)
	}
	return readers[index], nil
}

// awaitCard blocks on status changes of reader until a card is present.
// Each wait is bounded by poll so that ctx is checked regularly.
func awaitCard(ctx context.Context, sctx *scard.Context, reader string, poll time.Duration) error {
	states := []scard.ReaderState{{Reader: reader, CurrentState: scard.StateUnaware}}
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wait for card on %q: %w", reader, err)
		}
		err := sctx.GetStatusChange(states, poll)
		switch {
		case errors.Is(err, scard.ErrTimeout):
			continue
		case err != nil:
			return fmt.Errorf("status change on %q: %w", reader, err)
		}
		if states[0].EventState&scard.StatePresent != 0 {
			return nil
		}
		states[0].CurrentState = states[0].EventState
	}
}

// Name is the PC/SC name of the reader the card sits on.
func (t *Terminal) Name() string {
	return t.name
}

// Index is the position of the reader in the PC/SC reader list.
func (t *Terminal) Index() int {
	return t.index
}

// Transmit sends one APDU and returns the raw response, status word
// included.
func (t *Terminal) Transmit(apdu []byte) ([]byte, error) {
	if t == nil || t.card == nil {
		return nil, errors.New("terminal is closed")
	}
	resp, err := t.card.Transmit(apdu)
	if err != nil {
		return nil, fmt.Errorf("transmit to %q: %w", t.name, err)
	}
	return resp, nil
}

// Close leaves the card powered, disconnects and releases the PC/SC
// context. It is safe to call more than once.
func (t *Terminal) Close() error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.card != nil {
		errs = append(errs, t.card.Disconnect(scard.LeaveCard))
		t.card = nil
	}
	if t.sctx != nil {
		errs = append(errs, t.sctx.Release())
		t.sctx = nil
	}
	return errors.Join(errs...)
}
