package scanner

import (
	"encoding/binary"
	"math/bits"
)

const (
	lo7  = 0x7f7f7f7f7f7f7f7f
	hi1  = 0x8080808080808080
	ones = 0x0101010101010101

	spaceWord = ' ' * ones
	tabWord   = '\t' * ones
	lfWord    = '\n' * ones
	crWord    = '\r' * ones
)

// zeroBytes sets the high bit of every byte of v that is zero and clears
// every other bit. Unlike the classic (v-ones)&^v&hi1 trick it has no false
// positives, so it can be combined with other masks.
func zeroBytes(v uint64) uint64 {
	return ^(((v & lo7) + lo7) | v | lo7)
}

// spaceMask marks the whitespace bytes of w.
func spaceMask(w uint64) uint64 {
	return zeroBytes(w^spaceWord) | zeroBytes(w^tabWord) |
		zeroBytes(w^lfWord) | zeroBytes(w^crWord)
}

// skipWhitespaceBlocks consumes whole 32-byte blocks of whitespace, stopping
// at the first non-whitespace byte inside a block or when fewer than
// BlockSize bytes remain.
func skipWhitespaceBlocks(data []byte, pos int) int {
	for len(data)-pos >= BlockSize {
		block := data[pos : pos+BlockSize]
		for i := 0; i < BlockSize; i += 8 {
			w := binary.LittleEndian.Uint64(block[i:])
			other := ^spaceMask(w) & hi1
			if other != 0 {
				return pos + i + bits.TrailingZeros64(other)/8
			}
		}
		pos += BlockSize
	}
	return pos
}
