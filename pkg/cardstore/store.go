package cardstore

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
)

// Options configures a Store.
type Options struct {
	CardDigits int          // zero-padding width of card numbers, default 2
	Indent     int          // indentation of the persisted file, default 2
	Logger     *slog.Logger // default slog.Default()
}

// Store owns the card table file and the in-memory cards loaded from it.
// Cards handed out by a Store stay live: block writes made through them are
// picked up by the next Persist.
type Store struct {
	path   string
	norm   Normalizer
	indent int
	logger *slog.Logger

	mu    sync.RWMutex
	cards map[string]*mifare.Card

	loads singleflight.Group
}

// New returns a Store for path without touching the file.
func New(path string, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	indent := opts.Indent
	if indent <= 0 {
		indent = DefaultIndent
	}
	return &Store{
		path:   path,
		norm:   Normalizer{CardDigits: opts.CardDigits},
		indent: indent,
		logger: logger.With("store", path),
		cards:  map[string]*mifare.Card{},
	}
}

// Open returns a Store for path with the table already loaded.
func Open(path string, opts Options) (*Store, error) {
	s := New(path, opts)
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load (re)reads the table from disk, repairing the file if needed, and
// replaces the in-memory table. A card that is still in the file keeps its
// *mifare.Card, refreshed in place, so readers holding it stay attached to
// the store. Cards no longer in the file are dropped and later writes to
// them are not persisted. Concurrent calls share a single read.
func (s *Store) Load() (bool, error) {
	v, err, _ := s.loads.Do("load", func() (interface{}, error) {
		t, changed, err := Load(s.path, s.norm, s.indent)
		if err != nil {
			return false, err
		}
		if changed {
			s.logger.Info("card table repaired and rewritten", "cards", len(t))
		}

		s.mu.RLock()
		prev := make(map[string]*mifare.Card, len(s.cards))
		for name, c := range s.cards {
			prev[name] = c
		}
		s.mu.RUnlock()

		// Reset waits for in-flight writes, whose persist callback needs
		// s.mu, so it must run without holding it.
		cards := make(map[string]*mifare.Card, len(t))
		for name, blocks := range t {
			if c, ok := prev[name]; ok {
				c.Reset(blocks)
				cards[name] = c
				continue
			}
			cards[name] = mifare.NewCard(name, blocks)
		}
		s.mu.Lock()
		s.cards = cards
		s.mu.Unlock()
		s.logger.Debug("card table loaded", "cards", len(cards))
		return changed, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Persist flushes the current in-memory table to disk. It is the
// persistence callback handed to simulated readers.
func (s *Store) Persist() error {
	unlock := lockPath(s.path)
	defer unlock()
	t := s.Table()
	if err := writeFile(s.path, Encode(t, s.indent)); err != nil {
		return err
	}
	s.logger.Debug("card table persisted", "cards", len(t))
	return nil
}

// Table returns a deep copy of the in-memory table.
func (s *Store) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := make(Table, len(s.cards))
	for name, c := range s.cards {
		t[name] = c.Blocks()
	}
	return t
}

// Names returns the card names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.cards))
	for name := range s.cards {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// CardName returns the canonical name of card n for this store.
func (s *Store) CardName(n int) string {
	return CardName(n, s.norm.digits())
}

// Card returns card number n.
func (s *Store) Card(n int) (*mifare.Card, error) {
	return s.CardByName(s.CardName(n))
}

// CardByName returns the card with the given canonical name.
func (s *Store) CardByName(name string) (*mifare.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, name)
	}
	return c, nil
}

// AddCard creates card n with zeroed blocks and uid in block 0, then
// persists the table.
func (s *Store) AddCard(n int, uid mifare.UID) (*mifare.Card, error) {
	name := s.CardName(n)
	if err := ValidateCardName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, ok := s.cards[name]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCardExists, name)
	}
	c := mifare.NewBlankCard(name, uid)
	s.cards[name] = c
	s.mu.Unlock()

	if err := s.Persist(); err != nil {
		return nil, err
	}
	s.logger.Info("card added", "card", name, "uid", uid.String())
	return c, nil
}

// PutCard installs blocks as card n, replacing any existing card of that
// number, then persists the table. blocks are normalized first.
func (s *Store) PutCard(n int, blocks map[string]mifare.Block) (*mifare.Card, error) {
	name := s.CardName(n)
	if err := ValidateCardName(name); err != nil {
		return nil, err
	}
	t := Table{name: blocks}
	if _, err := s.norm.Normalize(t); err != nil {
		return nil, err
	}

	c := mifare.NewCard(name, t[name])
	s.mu.Lock()
	s.cards[name] = c
	s.mu.Unlock()

	if err := s.Persist(); err != nil {
		return nil, err
	}
	s.logger.Info("card stored", "card", name)
	return c, nil
}
