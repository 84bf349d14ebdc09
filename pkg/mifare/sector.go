package mifare

// SectorBlocks returns the three data blocks of sector, trailer excluded.
func SectorBlocks(sector int) ([DataBlocks]int, error) {
	first := sector * BlocksPerSector
	if sector < 0 || first+DataBlocks-1 >= BlockCount {
		return [DataBlocks]int{}, &OutOfRangeError{Sector: sector}
	}
	return [DataBlocks]int{first, first + 1, first + 2}, nil
}

// TextBlocks returns the blocks carrying sector text. It matches
// SectorBlocks except for sector 0, where block 0 holds the UID and is left
// out.
func TextBlocks(sector int) ([]int, error) {
	blocks, err := SectorBlocks(sector)
	if err != nil {
		return nil, err
	}
	if sector == 0 {
		return []int{blocks[1], blocks[2]}, nil
	}
	return blocks[:], nil
}

// TextCapacity is the number of characters sector text can hold.
func TextCapacity(sector int) (int, error) {
	blocks, err := TextBlocks(sector)
	if err != nil {
		return 0, err
	}
	return len(blocks) * BlockSize, nil
}
