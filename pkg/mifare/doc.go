/*
Package mifare models the memory of a 1K-style contactless card as seen by a
simple MFRC522-class reader: a fixed set of 16 blocks of 16 bytes, grouped
into sectors, with the card UID held in block 0.

# Memory Map

	block  0      UID (bytes 0-3) + 12 general-purpose bytes
	blocks 1-2    sector 0 data
	block  3      sector 0 trailer
	blocks 4-6    sector 1 data
	block  7      sector 1 trailer
	blocks 8-10   sector 2 data
	block  11     sector 2 trailer
	blocks 12-14  sector 3 data
	block  15     sector 3 trailer

Sector text operations address the first three blocks of a sector
(blocks 4s, 4s+1, 4s+2). Trailer blocks are never touched by them. Sector 0
skips block 0 so the UID cannot be overwritten by text.

# UID Encoding

The UID is the first 4 bytes of block 0 read as a big-endian unsigned
integer:

	block 0: DE AD BE EF 00 00 ...  ->  UID 0xDEADBEEF

# Block Names

On disk each block is keyed by its canonical name, block_00 through
block_15. BlockName and ParseBlockIndex convert between the two forms.

# Errors

OutOfRangeError reports a sector whose blocks fall outside the card.
MissingBlockError reports a block that is not present in the loaded data;
ErrNoCard is the MissingBlockError returned when no card is loaded at all.
*/
package mifare
