package pcsc

import (
	"fmt"

	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
)

// PC/SC part 3 storage card commands.
const (
	CLA               = 0xFF
	InsGetData        = 0xCA
	InsReadBinary     = 0xB0
	InsUpdateBinary   = 0xD6
	InsLoadKey        = 0x82
	InsAuthenticate   = 0x86
	KeyTypeA          = 0x60
	KeyTypeB          = 0x61
	keyStructVolatile = 0x00
)

// FactoryKey is the transport key MIFARE Classic cards ship with.
var FactoryKey = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ReadBlock reads one 16-byte block (FF B0 00 <block> 10).
func ReadBlock(card Card, block byte) (mifare.Block, error) {
	apdu := []byte{CLA, InsReadBinary, 0x00, block, mifare.BlockSize}
	data, sw, err := Transmit(card, apdu)
	if err != nil {
		return nil, err
	}
	if !SwOK(sw) {
		return nil, &SWError{Cmd: InsReadBinary, SW: sw}
	}
	if len(data) != mifare.BlockSize {
		return nil, fmt.Errorf("block %d: expected %d bytes, got %d", block, mifare.BlockSize, len(data))
	}
	return mifare.Block(data), nil
}

// UpdateBlock writes one 16-byte block (FF D6 00 <block> 10 <data>).
func UpdateBlock(card Card, block byte, data []byte) error {
	if len(data) != mifare.BlockSize {
		return fmt.Errorf("block %d: data must be %d bytes, got %d", block, mifare.BlockSize, len(data))
	}
	apdu := make([]byte, 0, 5+mifare.BlockSize)
	apdu = append(apdu, CLA, InsUpdateBinary, 0x00, block, mifare.BlockSize)
	apdu = append(apdu, data...)
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if !SwOK(sw) {
		return &SWError{Cmd: InsUpdateBinary, SW: sw}
	}
	return nil
}

// LoadKey stores a 6-byte key in the reader's volatile key slot.
func LoadKey(card Card, slot byte, key []byte) error {
	if len(key) != 6 {
		return fmt.Errorf("key must be 6 bytes, got %d", len(key))
	}
	apdu := append([]byte{CLA, InsLoadKey, keyStructVolatile, slot, 0x06}, key...)
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if !SwOK(sw) {
		return &SWError{Cmd: InsLoadKey, SW: sw}
	}
	return nil
}

// Authenticate authenticates the sector holding block with the key in slot.
func Authenticate(card Card, block, keyType, slot byte) error {
	apdu := []byte{CLA, InsAuthenticate, 0x00, 0x00, 0x05, 0x01, 0x00, block, keyType, slot}
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if !SwOK(sw) {
		return &SWError{Cmd: InsAuthenticate, SW: sw}
	}
	return nil
}

// ReadCard reads blocks 0-15 of a MIFARE Classic card, authenticating each
// sector with key A.
//
// Steps:
//  1. Load key into reader slot 0
//  2. For each of the four sectors: authenticate, then read its four blocks
func ReadCard(card Card, key []byte) (map[string]mifare.Block, error) {
	if err := LoadKey(card, 0, key); err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	blocks := make(map[string]mifare.Block, mifare.BlockCount)
	for sector := 0; sector < mifare.SectorCount; sector++ {
		first := byte(sector * mifare.BlocksPerSector)
		if err := Authenticate(card, first, KeyTypeA, 0); err != nil {
			return nil, fmt.Errorf("authenticate sector %d: %w", sector, err)
		}
		for i := 0; i < mifare.BlocksPerSector; i++ {
			n := first + byte(i)
			b, err := ReadBlock(card, n)
			if err != nil {
				return nil, fmt.Errorf("read block %d: %w", n, err)
			}
			blocks[mifare.BlockName(int(n))] = b
		}
	}
	return blocks, nil
}
