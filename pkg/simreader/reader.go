package simreader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
)

const (
	DefaultAccessDelay  = 120 * time.Millisecond
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultSector is the sector used by Read and Write.
	DefaultSector = 2
)

// Config configures a Reader.
type Config struct {
	// AccessDelay is slept before every block access. Zero disables it.
	AccessDelay time.Duration
	// PollInterval is slept between attempts of the blocking calls. Zero
	// means DefaultPollInterval.
	PollInterval time.Duration
	// OnWrite is called after every successful write, typically to flush
	// the card table to disk. Optional.
	OnWrite func() error
	Logger  *slog.Logger
}

// DefaultConfig returns a Config with the default access latency.
func DefaultConfig() Config {
	return Config{
		AccessDelay:  DefaultAccessDelay,
		PollInterval: DefaultPollInterval,
	}
}

// Reader is a simulated MFRC522 reader/writer. It reads and writes the card
// presented in its Slot. Each call works on the card that was presented when
// the call started, even if another card is loaded meanwhile.
type Reader struct {
	id      uuid.UUID
	slot    *Slot
	delay   time.Duration
	poll    time.Duration
	onWrite func() error
	logger  *slog.Logger
}

// New returns a Reader on slot.
func New(slot *Slot, cfg Config) *Reader {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	delay := cfg.AccessDelay
	if delay < 0 {
		delay = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Reader{
		id:      id,
		slot:    slot,
		delay:   delay,
		poll:    poll,
		onWrite: cfg.OnWrite,
		logger:  logger.With("reader", id.String()),
	}
}

// ID identifies the reader in logs.
func (r *Reader) ID() uuid.UUID {
	return r.id
}

// LoadData presents c to every reader sharing this reader's slot.
func (r *Reader) LoadData(c *mifare.Card) {
	r.slot.Load(c)
	if c != nil {
		r.logger.Debug("card presented", "card", c.Name())
	}
}

// ReadUIDNoBlock returns the UID of the presented card, or ErrNoCard.
func (r *Reader) ReadUIDNoBlock() (mifare.UID, error) {
	c := r.slot.Snapshot()
	if c == nil {
		return 0, mifare.ErrNoCard
	}
	return r.uid(c)
}

// ReadUID waits for a card and returns its UID.
func (r *Reader) ReadUID(ctx context.Context) (mifare.UID, error) {
	var uid mifare.UID
	err := r.wait(ctx, func() (err error) {
		uid, err = r.ReadUIDNoBlock()
		return err
	})
	return uid, err
}

// ReadSectorNoBlock returns the UID of the presented card and the text
// stored in sector. The text is not trimmed.
func (r *Reader) ReadSectorNoBlock(sector int) (mifare.UID, string, error) {
	blocks, err := mifare.TextBlocks(sector)
	if err != nil {
		return 0, "", err
	}
	c := r.slot.Snapshot()
	if c == nil {
		return 0, "", mifare.ErrNoCard
	}

	data := make([]byte, 0, len(blocks)*mifare.BlockSize)
	for _, i := range blocks {
		b, err := r.readBlock(c, i)
		if err != nil {
			return 0, "", err
		}
		data = append(data, b...)
	}
	text, err := decodeText(data)
	if err != nil {
		return 0, "", err
	}
	uid, err := r.uid(c)
	if err != nil {
		return 0, "", err
	}
	return uid, text, nil
}

// ReadSector waits for a card and reads sector from it.
func (r *Reader) ReadSector(ctx context.Context, sector int) (mifare.UID, string, error) {
	var (
		uid  mifare.UID
		text string
	)
	err := r.wait(ctx, func() (err error) {
		uid, text, err = r.ReadSectorNoBlock(sector)
		return err
	})
	return uid, text, err
}

// WriteSectorNoBlock stores text in sector of the presented card, padded
// with spaces or cut to the sector's capacity, then calls the write
// callback. It returns the card UID and the part of text that was stored.
func (r *Reader) WriteSectorNoBlock(sector int, text string) (mifare.UID, string, error) {
	blocks, err := mifare.TextBlocks(sector)
	if err != nil {
		return 0, "", err
	}
	kept, data, err := encodeText(text, len(blocks)*mifare.BlockSize)
	if err != nil {
		return 0, "", err
	}
	c := r.slot.Snapshot()
	if c == nil {
		return 0, "", mifare.ErrNoCard
	}

	var uid mifare.UID
	err = c.Transaction(func() error {
		// Block 0 is checked too so that a card without a UID is not
		// written before the call fails.
		for _, i := range append([]int{0}, blocks...) {
			if !c.HasBlock(i) {
				return &mifare.MissingBlockError{Card: c.Name(), Block: i}
			}
		}
		for n, i := range blocks {
			chunk := data[n*mifare.BlockSize : (n+1)*mifare.BlockSize]
			if err := r.writeBlock(c, i, chunk); err != nil {
				return err
			}
		}
		var err error
		if uid, err = r.uid(c); err != nil {
			return err
		}
		return r.persist()
	})
	if err != nil {
		return 0, "", err
	}
	r.logger.Debug("sector written", "card", c.Name(), "sector", sector, "chars", len([]rune(kept)))
	return uid, kept, nil
}

// WriteSector waits for a card and writes text to sector.
func (r *Reader) WriteSector(ctx context.Context, sector int, text string) (mifare.UID, string, error) {
	var (
		uid  mifare.UID
		kept string
	)
	err := r.wait(ctx, func() (err error) {
		uid, kept, err = r.WriteSectorNoBlock(sector, text)
		return err
	})
	return uid, kept, err
}

// WriteUIDNoBlock replaces the first 4 bytes of block 0 with uid, keeping
// bytes 4-15, then calls the write callback.
func (r *Reader) WriteUIDNoBlock(uid mifare.UID) error {
	c := r.slot.Snapshot()
	if c == nil {
		return mifare.ErrNoCard
	}
	return c.Transaction(func() error {
		b, err := r.readBlock(c, 0)
		if err != nil {
			return err
		}
		if err := r.writeBlock(c, 0, mifare.PutUID(b, uid)); err != nil {
			return err
		}
		r.logger.Debug("uid written", "card", c.Name(), "uid", uid.String())
		return r.persist()
	})
}

// WriteUID waits for a card and writes its UID.
func (r *Reader) WriteUID(ctx context.Context, uid mifare.UID) error {
	return r.wait(ctx, func() error {
		return r.WriteUIDNoBlock(uid)
	})
}

// Read waits for a card and reads DefaultSector.
func (r *Reader) Read(ctx context.Context) (mifare.UID, string, error) {
	return r.ReadSector(ctx, DefaultSector)
}

// ReadNoBlock reads DefaultSector of the presented card.
func (r *Reader) ReadNoBlock() (mifare.UID, string, error) {
	return r.ReadSectorNoBlock(DefaultSector)
}

// Write waits for a card and writes text to DefaultSector.
func (r *Reader) Write(ctx context.Context, text string) (mifare.UID, string, error) {
	return r.WriteSector(ctx, DefaultSector, text)
}

// WriteNoBlock writes text to DefaultSector of the presented card.
func (r *Reader) WriteNoBlock(text string) (mifare.UID, string, error) {
	return r.WriteSectorNoBlock(DefaultSector, text)
}

// wait retries attempt until it succeeds, fails with anything other than a
// missing card or block, or ctx is done.
func (r *Reader) wait(ctx context.Context, attempt func() error) error {
	timer := time.NewTimer(r.poll)
	defer timer.Stop()
	waiting := false
	for {
		err := attempt()
		if err == nil || !mifare.IsMissingBlock(err) {
			return err
		}
		if !waiting {
			r.logger.Debug("waiting for card", "reason", err.Error())
			waiting = true
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(r.poll)
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for card: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func (r *Reader) uid(c *mifare.Card) (mifare.UID, error) {
	b, err := r.readBlock(c, 0)
	if err != nil {
		return 0, err
	}
	return mifare.UIDFromBlock(b), nil
}

func (r *Reader) readBlock(c *mifare.Card, i int) (mifare.Block, error) {
	r.access()
	b, err := c.Block(i)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("block read", "card", c.Name(), "block", i)
	return b, nil
}

func (r *Reader) writeBlock(c *mifare.Card, i int, data []byte) error {
	r.access()
	if err := c.SetBlock(i, data); err != nil {
		return err
	}
	r.logger.Debug("block written", "card", c.Name(), "block", i)
	return nil
}

// access simulates the latency of one block access on the air interface.
func (r *Reader) access() {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
}

func (r *Reader) persist() error {
	if r.onWrite == nil {
		return nil
	}
	if err := r.onWrite(); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}
