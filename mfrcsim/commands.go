package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaosAD/FakeMFRC552/pkg/cardstore"
	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
	"github.com/chaosAD/FakeMFRC552/pkg/pcsc"
	"github.com/chaosAD/FakeMFRC552/pkg/pcsc/hw"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	uidColor  = color.New(color.FgCyan)
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the cards in the card table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			for _, name := range s.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), cardLabel(s, name))
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [card]",
		Short: "Dump the blocks of one card, or of every card",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for _, name := range s.Names() {
					c, err := s.CardByName(name)
					if err != nil {
						return err
					}
					printCard(cmd, c)
				}
				return nil
			}
			n, err := parseCardNumber(args[0])
			if err != nil {
				return err
			}
			c, err := s.Card(n)
			if err != nil {
				return err
			}
			printCard(cmd, c)
			return nil
		},
	}
}

func newNormalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Canonicalize card and block names and rewrite the card table if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.newStore()
			changed, err := s.Load()
			if err != nil {
				return err
			}
			if changed {
				warnColor.Fprintf(cmd.OutOrStdout(), "%s: repaired and rewritten (%d cards)\n", s.Path(), len(s.Names()))
				return nil
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%s: already canonical (%d cards)\n", s.Path(), len(s.Names()))
			return nil
		},
	}
}

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new <card> <uid>",
		Short: "Add a blank card with the given UID (8 hex digits)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseCardNumber(args[0])
			if err != nil {
				return err
			}
			uid, err := mifare.ParseUID(args[1])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			c, err := s.AddCard(n, uid)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Added %s with UID %s\n", c.Name(), uid)
			return nil
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	var card, sector int
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Wait for a card and read the text stored in a sector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("sector") {
				sector = *a.cfg.Reader.DefaultSector
			}
			if _, err := mifare.TextBlocks(sector); err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			r := a.newReader(s)
			ctx, cancel := a.context()
			defer cancel()

			var (
				uid  mifare.UID
				text string
			)
			err = tapAndRun(ctx, r, cardPicker(s, card), func(ctx context.Context) error {
				var err error
				uid, text, err = r.ReadSector(ctx, sector)
				return err
			})
			if err != nil {
				return err
			}
			printUID(cmd, uid)
			fmt.Fprintf(cmd.OutOrStdout(), "Text: %s\n", strings.TrimRight(text, "\x00 "))
			return nil
		},
	}
	cmd.Flags().IntVar(&card, "card", noCard, "card number to tap (default: choose interactively)")
	cmd.Flags().IntVar(&sector, "sector", 0, "sector to read, 0..3 (default from config)")
	return cmd
}

func newWriteCmd(a *app) *cobra.Command {
	var card, sector int
	cmd := &cobra.Command{
		Use:   "write <text>",
		Short: "Wait for a card and write text into a sector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("sector") {
				sector = *a.cfg.Reader.DefaultSector
			}
			if _, err := mifare.TextBlocks(sector); err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			r := a.newReader(s)
			ctx, cancel := a.context()
			defer cancel()

			var (
				uid  mifare.UID
				kept string
			)
			err = tapAndRun(ctx, r, cardPicker(s, card), func(ctx context.Context) error {
				var err error
				uid, kept, err = r.WriteSector(ctx, sector, args[0])
				return err
			})
			if err != nil {
				return err
			}
			printUID(cmd, uid)
			if kept != args[0] {
				warnColor.Fprintf(cmd.OutOrStdout(), "Text truncated to %d character(s)\n", len([]rune(kept)))
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Wrote %q to sector %d\n", kept, sector)
			return nil
		},
	}
	cmd.Flags().IntVar(&card, "card", noCard, "card number to tap (default: choose interactively)")
	cmd.Flags().IntVar(&sector, "sector", 0, "sector to write, 0..3 (default from config)")
	return cmd
}

func newUIDCmd(a *app) *cobra.Command {
	var (
		card int
		set  string
	)
	cmd := &cobra.Command{
		Use:   "uid",
		Short: "Wait for a card and print its UID, or replace it with --set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var newUID mifare.UID
			if set != "" {
				u, err := mifare.ParseUID(set)
				if err != nil {
					return err
				}
				newUID = u
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			r := a.newReader(s)
			ctx, cancel := a.context()
			defer cancel()

			var uid mifare.UID
			err = tapAndRun(ctx, r, cardPicker(s, card), func(ctx context.Context) error {
				if set != "" {
					uid = newUID
					return r.WriteUID(ctx, newUID)
				}
				var err error
				uid, err = r.ReadUID(ctx)
				return err
			})
			if err != nil {
				return err
			}
			printUID(cmd, uid)
			if set != "" {
				okColor.Fprintln(cmd.OutOrStdout(), "UID updated")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&card, "card", noCard, "card number to tap (default: choose interactively)")
	cmd.Flags().StringVar(&set, "set", "", "new UID to write (8 hex digits)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		card   int
		reader int
		keyHex string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a physical card from a PC/SC reader into the card table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if card < 0 {
				return fmt.Errorf("--card is required")
			}
			key, err := hex.DecodeString(keyHex)
			if err != nil || len(key) != 6 {
				return fmt.Errorf("--key must be 12 hex digits")
			}
			if !cmd.Flags().Changed("reader") {
				reader = *a.cfg.Runtime.ReaderIndex
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}

			ctx, cancel := a.context()
			defer cancel()

			fmt.Fprintln(cmd.OutOrStdout(), "Waiting for card...")
			terminal, err := hw.Open(ctx, reader)
			if err != nil {
				return err
			}
			defer func() {
				if err := terminal.Close(); err != nil {
					slog.Warn("close reader", "reader", terminal.Name(), "error", err)
				}
			}()
			slog.Debug("card connected", "reader", terminal.Name(), "index", terminal.Index())

			blocks, err := pcsc.ReadCard(terminal, key)
			if err != nil {
				return err
			}
			c, err := s.PutCard(card, blocks)
			if err != nil {
				return err
			}
			uid, err := c.UID()
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Imported %s (UID %s) from %s\n", c.Name(), uid, terminal.Name())
			return nil
		},
	}
	cmd.Flags().IntVar(&card, "card", noCard, "card number to store the imported card as")
	cmd.Flags().IntVar(&reader, "reader", 0, "PC/SC reader index (default from config)")
	cmd.Flags().StringVar(&keyHex, "key", hex.EncodeToString(pcsc.FactoryKey), "key A for every sector, 12 hex digits")
	return cmd
}

// parseCardNumber accepts "3" as well as "card_03".
func parseCardNumber(arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n > cardstore.MaxCardNumber {
			return 0, fmt.Errorf("card number %d out of range (0..%d)", n, cardstore.MaxCardNumber)
		}
		return n, nil
	}
	if err := cardstore.ValidateCardName(arg); err != nil {
		return 0, err
	}
	_, num, _ := strings.Cut(strings.TrimSpace(arg), "_")
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("invalid card %q", arg)
	}
	return n, nil
}

func printUID(cmd *cobra.Command, uid mifare.UID) {
	fmt.Fprint(cmd.OutOrStdout(), "UID: ")
	uidColor.Fprintln(cmd.OutOrStdout(), uid.String())
}

func printCard(cmd *cobra.Command, c *mifare.Card) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, c.Name())
	blocks := c.Blocks()
	for _, name := range c.BlockNames() {
		i, ok := mifare.ParseBlockIndex(name)
		tag := ""
		switch {
		case !ok:
		case i == 0:
			tag = "  uid"
		case i%mifare.BlocksPerSector == mifare.DataBlocks:
			tag = "  trailer"
		}
		fmt.Fprintf(out, "  %s: % X%s\n", name, []byte(blocks[name]), tag)
	}
}
