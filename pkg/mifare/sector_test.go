package mifare

import (
	"errors"
	"testing"
)

func TestSectorBlocks(t *testing.T) {
	for sector := 0; sector < SectorCount; sector++ {
		blocks, err := SectorBlocks(sector)
		if err != nil {
			t.Fatalf("SectorBlocks(%d) returned error: %v", sector, err)
		}
		want := [DataBlocks]int{4 * sector, 4*sector + 1, 4*sector + 2}
		if blocks != want {
			t.Fatalf("SectorBlocks(%d) = %v, want %v", sector, blocks, want)
		}
	}
}

func TestSectorBlocksOutOfRange(t *testing.T) {
	for _, sector := range []int{-1, 4, 100} {
		_, err := SectorBlocks(sector)
		var rangeErr *OutOfRangeError
		if !errors.As(err, &rangeErr) || rangeErr.Sector != sector {
			t.Fatalf("expected OutOfRangeError for sector %d, got %v", sector, err)
		}
		if !IsOutOfRange(err) {
			t.Fatalf("IsOutOfRange false for %v", err)
		}
	}
}

func TestTextBlocksSkipsUIDBlock(t *testing.T) {
	blocks, err := TextBlocks(0)
	if err != nil {
		t.Fatalf("TextBlocks(0) returned error: %v", err)
	}
	if len(blocks) != 2 || blocks[0] != 1 || blocks[1] != 2 {
		t.Fatalf("expected [1 2], got %v", blocks)
	}
	if n, _ := TextCapacity(0); n != 32 {
		t.Fatalf("expected sector 0 capacity 32, got %d", n)
	}
	if n, _ := TextCapacity(3); n != 48 {
		t.Fatalf("expected sector 3 capacity 48, got %d", n)
	}
}
