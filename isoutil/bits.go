package isoutil

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Bit numbering follows the wire: bit 1 is the most significant bit of
// the first byte, bit 9 the most significant bit of the second, and so
// on. Bit 0 of a *bitset.BitSet is never used.

// BitSetToBytes renders bits 1..n*8 of bs as n big-endian bytes. Bits
// beyond n*8 are ignored; continuation bits are not added.
func BitSetToBytes(bs *bitset.BitSet, n int) []byte {
	d := make([]byte, n)
	PutBitSet(d, bs)
	return d
}

// PutBitSet writes bits 1..len(dst)*8 of bs into dst.
func PutBitSet(dst []byte, bs *bitset.BitSet) {
	for i := range dst {
		dst[i] = 0
	}
	if bs == nil {
		return
	}
	limit := uint(len(dst) * 8)
	for i, ok := bs.NextSet(1); ok && i <= limit; i, ok = bs.NextSet(i + 1) {
		dst[(i-1)>>3] |= 0x80 >> ((i - 1) & 7)
	}
}

// BytesToBitSet reads n bytes of b starting at offset into a bit set.
func BytesToBitSet(b []byte, offset, n int) (*bitset.BitSet, error) {
	if err := checkRange(len(b), offset, n); err != nil {
		return nil, err
	}
	bs := bitset.New(uint(n*8 + 1))
	for i := 0; i < n*8; i++ {
		if b[offset+(i>>3)]&(0x80>>(i&7)) != 0 {
			bs.Set(uint(i + 1))
		}
	}
	return bs, nil
}

// HexToBitSet reads n bytes worth of hex digits (2n characters) of b
// starting at offset. It agrees with BytesToBitSet applied to the decoded
// bytes.
func HexToBitSet(b []byte, offset, n int) (*bitset.BitSet, error) {
	raw, err := HexDecode(b, offset, n)
	if err != nil {
		return nil, fmt.Errorf("hex bitmap: %w", err)
	}
	return BytesToBitSet(raw, 0, n)
}
