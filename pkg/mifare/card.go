package mifare

import (
	"sort"
	"sync"
)

// Card is the block memory of one card. Each block access takes the card
// lock only for the duration of that access, so a reader never sees a
// half-written block and a persister can snapshot the card at any time.
type Card struct {
	name string

	mu     sync.RWMutex
	blocks map[string]Block

	// txn serializes multi-block write sequences. Block reads do not take it.
	txn sync.Mutex
}

// NewCard returns a card holding a copy of blocks, keyed by canonical block
// name. Blocks are not normalized here; a card may lack blocks entirely.
func NewCard(name string, blocks map[string]Block) *Card {
	c := &Card{name: name, blocks: make(map[string]Block, len(blocks))}
	for k, b := range blocks {
		c.blocks[k] = b.Clone()
	}
	return c
}

// NewBlankCard returns a card with all 16 blocks zeroed and uid written to
// block 0.
func NewBlankCard(name string, uid UID) *Card {
	c := &Card{name: name, blocks: make(map[string]Block, BlockCount)}
	for i := 0; i < BlockCount; i++ {
		c.blocks[BlockName(i)] = NewBlock()
	}
	c.blocks[BlockName(0)] = PutUID(c.blocks[BlockName(0)], uid)
	return c
}

func (c *Card) Name() string {
	return c.name
}

// Block returns a copy of block i.
func (c *Card) Block(i int) (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[BlockName(i)]
	if !ok {
		return nil, &MissingBlockError{Card: c.name, Block: i}
	}
	return b.Clone(), nil
}

// HasBlock reports whether block i is present.
func (c *Card) HasBlock(i int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blocks[BlockName(i)]
	return ok
}

// Transaction runs fn while holding the card's writer lock, so that the
// block writes and follow-up work of concurrent writers on this card do not
// interleave. Readers are not blocked by it.
func (c *Card) Transaction(fn func() error) error {
	c.txn.Lock()
	defer c.txn.Unlock()
	return fn()
}

// SetBlock replaces block i with data normalized to BlockSize bytes. The
// block must already exist.
func (c *Card) SetBlock(i int, data []byte) error {
	b, _ := NormalizeBlock(Block(data).Clone())
	c.mu.Lock()
	defer c.mu.Unlock()
	name := BlockName(i)
	if _, ok := c.blocks[name]; !ok {
		return &MissingBlockError{Card: c.name, Block: i}
	}
	c.blocks[name] = b
	return nil
}

// Reset replaces all blocks with a copy of blocks. It waits for a running
// Transaction to finish, so a multi-block write is never split by a reset.
func (c *Card) Reset(blocks map[string]Block) {
	fresh := make(map[string]Block, len(blocks))
	for k, b := range blocks {
		fresh[k] = b.Clone()
	}
	c.txn.Lock()
	defer c.txn.Unlock()
	c.mu.Lock()
	c.blocks = fresh
	c.mu.Unlock()
}

// UID reads the UID from block 0.
func (c *Card) UID() (UID, error) {
	b, err := c.Block(0)
	if err != nil {
		return 0, err
	}
	return UIDFromBlock(b), nil
}

// Blocks returns a deep copy of the card's block mapping.
func (c *Card) Blocks() map[string]Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Block, len(c.blocks))
	for k, b := range c.blocks {
		out[k] = b.Clone()
	}
	return out
}

// BlockNames returns the names of the blocks present, sorted.
func (c *Card) BlockNames() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.blocks))
	for k := range c.blocks {
		names = append(names, k)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
