package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chaosAD/FakeMFRC552/mfrcsim/internal/config"
	"github.com/chaosAD/FakeMFRC552/pkg/cardstore"
	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
	"github.com/chaosAD/FakeMFRC552/pkg/simreader"
)

func writeTestConfig(t *testing.T, table string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cards.json"), []byte(table), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	cfg := "store:\n  path: cards.json\nreader:\n  access_delay: 0s\n  poll_interval: 1ms\n  timeout: 2s\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const oneCard = `{"Card_3": {"block_0": [1, 2, 3, 4], "block_5": [], "block_6": [], "block_4": []}}`

func TestParseCardNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"card_07", 7, false},
		{" CARD_12 ", 12, false},
		{"100", 0, true},
		{"block_01", 0, true},
		{"card_x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCardNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseCardNumber(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("parseCardNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWriteThenRead(t *testing.T) {
	cfg := writeTestConfig(t, oneCard)

	out, err := runCLI(t, "--config", cfg, "write", "--card", "3", "--sector", "1", "hello")
	if err != nil {
		t.Fatalf("write: %v\n%s", err, out)
	}
	if !strings.Contains(out, "01020304") {
		t.Fatalf("write output missing UID: %q", out)
	}

	out, err = runCLI(t, "--config", cfg, "read", "--card", "3", "--sector", "1")
	if err != nil {
		t.Fatalf("read: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Text: hello") {
		t.Fatalf("read output = %q", out)
	}
}

func TestNewAndList(t *testing.T) {
	cfg := writeTestConfig(t, oneCard)

	if out, err := runCLI(t, "--config", cfg, "new", "5", "0xCAFEBABE"); err != nil {
		t.Fatalf("new: %v\n%s", err, out)
	}
	out, err := runCLI(t, "--config", cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "card_03  UID 01020304") || !strings.Contains(out, "card_05  UID CAFEBABE") {
		t.Fatalf("list output = %q", out)
	}

	if _, err := runCLI(t, "--config", cfg, "new", "5", "00000001"); !errors.Is(err, cardstore.ErrCardExists) {
		t.Fatalf("duplicate new err = %v, want ErrCardExists", err)
	}
}

func TestUIDSet(t *testing.T) {
	cfg := writeTestConfig(t, oneCard)

	if out, err := runCLI(t, "--config", cfg, "uid", "--card", "3", "--set", "a1b2c3d4"); err != nil {
		t.Fatalf("uid --set: %v\n%s", err, out)
	}
	out, err := runCLI(t, "--config", cfg, "uid", "--card", "3")
	if err != nil {
		t.Fatalf("uid: %v", err)
	}
	if !strings.Contains(out, "A1B2C3D4") {
		t.Fatalf("uid output = %q", out)
	}
}

func TestNormalizeRewritesTable(t *testing.T) {
	cfg := writeTestConfig(t, oneCard)

	out, err := runCLI(t, "--config", cfg, "normalize")
	if err != nil {
		t.Fatalf("normalize: %v\n%s", err, out)
	}
	if !strings.Contains(out, "repaired and rewritten") {
		t.Fatalf("first normalize output = %q", out)
	}
	out, err = runCLI(t, "--config", cfg, "normalize")
	if err != nil {
		t.Fatalf("second normalize: %v", err)
	}
	if !strings.Contains(out, "already canonical") {
		t.Fatalf("second normalize output = %q", out)
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "cards.json"))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	if !strings.Contains(string(data), `"card_03"`) || !strings.Contains(string(data), `"block_04"`) {
		t.Fatalf("table not canonical:\n%s", data)
	}
}

func TestReadUnknownCard(t *testing.T) {
	cfg := writeTestConfig(t, oneCard)

	_, err := runCLI(t, "--config", cfg, "read", "--card", "9")
	if !errors.Is(err, cardstore.ErrUnknownCard) {
		t.Fatalf("err = %v, want ErrUnknownCard", err)
	}
}

func TestTapAndRunWaitsForCard(t *testing.T) {
	r := simreader.New(simreader.NewSlot(), simreader.Config{PollInterval: time.Millisecond})
	card := mifare.NewBlankCard("card_01", 0x11223344)

	var got mifare.UID
	err := tapAndRun(context.Background(), r, func() (*mifare.Card, error) {
		time.Sleep(10 * time.Millisecond)
		return card, nil
	}, func(ctx context.Context) error {
		var err error
		got, err = r.ReadUID(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("tapAndRun: %v", err)
	}
	if got != 0x11223344 {
		t.Fatalf("uid = %s, want 11223344", got)
	}
}

func TestTapAndRunPickFailureCancelsOperation(t *testing.T) {
	r := simreader.New(simreader.NewSlot(), simreader.Config{PollInterval: time.Millisecond})
	pickErr := errors.New("no card selected")

	err := tapAndRun(context.Background(), r, func() (*mifare.Card, error) {
		return nil, pickErr
	}, func(ctx context.Context) error {
		_, err := r.ReadUID(ctx)
		return err
	})
	if !errors.Is(err, pickErr) {
		t.Fatalf("err = %v, want pick error", err)
	}
}

func TestLoadConfigExplicit(t *testing.T) {
	path := writeTestConfig(t, oneCard)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if want := filepath.Join(filepath.Dir(path), "cards.json"); cfg.Store.Path != want {
		t.Fatalf("store path = %q, want %q", cfg.Store.Path, want)
	}
	if *cfg.Reader.DefaultSector != config.DefaultSector {
		t.Fatalf("default sector = %d", *cfg.Reader.DefaultSector)
	}
}
