package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/chaosAD/FakeMFRC552/mfrcsim/internal/config"
	"github.com/chaosAD/FakeMFRC552/pkg/cardstore"
	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
	"github.com/chaosAD/FakeMFRC552/pkg/simreader"
)

// noCard is the --card value meaning "let the user pick".
const noCard = -1

type app struct {
	cfg *config.Config
}

func (a *app) newStore() *cardstore.Store {
	return cardstore.New(a.cfg.Store.Path, cardstore.Options{
		CardDigits: *a.cfg.Store.CardDigits,
		Indent:     *a.cfg.Store.Indent,
	})
}

func (a *app) openStore() (*cardstore.Store, error) {
	s := a.newStore()
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// newReader returns a reader whose writes are flushed to s.
func (a *app) newReader(s *cardstore.Store) *simreader.Reader {
	return simreader.New(simreader.NewSlot(), simreader.Config{
		AccessDelay:  *a.cfg.Reader.AccessDelay,
		PollInterval: *a.cfg.Reader.PollInterval,
		OnWrite:      s.Persist,
	})
}

// context returns a context cancelled by SIGINT/SIGTERM and by the
// configured timeout, if any.
func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if *a.cfg.Reader.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, *a.cfg.Reader.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// tapAndRun starts op, which is expected to block until a card is present,
// then picks the card and presents it to r. This is the order of events at a
// real reader: the application waits, then the card is tapped.
func tapAndRun(ctx context.Context, r *simreader.Reader, pick func() (*mifare.Card, error), op func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- op(ctx) }()

	c, err := pick()
	if err != nil {
		cancel()
		<-errc
		return err
	}
	r.LoadData(c)
	return <-errc
}

// cardPicker returns a pick function for tapAndRun: card n when given,
// otherwise an interactive menu over the store's cards.
func cardPicker(s *cardstore.Store, n int) func() (*mifare.Card, error) {
	return func() (*mifare.Card, error) {
		if n != noCard {
			return s.Card(n)
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("--card is required when stdin is not a terminal")
		}

		names := s.Names()
		items := make([]string, 0, len(names))
		for _, name := range names {
			items = append(items, cardLabel(s, name))
		}
		i := selectMenu("Tap a card (arrows + Enter):", items)
		if i < 0 {
			return nil, fmt.Errorf("no card selected")
		}
		return s.CardByName(names[i])
	}
}

func cardLabel(s *cardstore.Store, name string) string {
	c, err := s.CardByName(name)
	if err != nil {
		return name
	}
	uid, err := c.UID()
	if err != nil {
		return fmt.Sprintf("%s  UID ?", name)
	}
	return fmt.Sprintf("%s  UID %s", name, uid)
}
