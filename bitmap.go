package iso8583

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/mkadit/iso8583-packager/isoutil"
)

// BitmapPackager packs the presence bitmap. Bitmaps of 8 bytes or more are
// made of 8 byte blocks whose first bit flags that another block follows,
// so the bitmap announces its own length: a message using fields up to 64
// carries one block, up to 128 two, and so on, up to the configured
// maximum. Bitmaps shorter than 8 bytes have a fixed length and no
// continuation bit.
type BitmapPackager struct {
	length      int // maximum size in binary bytes
	description string
	encoding    BitmapEncoding
}

// NewBitmapPackager creates a bitmap packager holding at most length
// binary bytes. Hex encodings take twice as many bytes on the wire.
func NewBitmapPackager(length int, description string, encoding BitmapEncoding) *BitmapPackager {
	return &BitmapPackager{length: length, description: description, encoding: encoding}
}

func (bp *BitmapPackager) Length() int { return bp.length }

func (bp *BitmapPackager) Description() string { return bp.description }

func (bp *BitmapPackager) Encoding() BitmapEncoding { return bp.encoding }

func (bp *BitmapPackager) MaxPackedLength() int { return bp.wireLen(bp.length) }

// Capacity is the highest bit number the packager can represent.
func (bp *BitmapPackager) Capacity() int {
	if bp.extended() {
		return bp.maxBlocks() * 64
	}
	return bp.length * 8
}

func (bp *BitmapPackager) CreateComponent(fieldNumber int) Component {
	return NewBitMap(fieldNumber, nil)
}

func (bp *BitmapPackager) Pack(c Component) ([]byte, error) {
	bm, ok := c.(*BitMap)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a bitmap", ErrInvalidValue, c)
	}
	return bp.PackBits(bm.bits)
}

func (bp *BitmapPackager) Unpack(c Component, b []byte, offset int) (int, error) {
	bm, ok := c.(*BitMap)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not a bitmap", ErrInvalidValue, c)
	}
	bits, n, err := bp.UnpackBits(b, offset)
	if err != nil {
		return 0, err
	}
	bm.bits = bits
	return n, nil
}

// PackBits encodes a presence set using as few blocks as the highest set
// bit allows and sets the continuation bit of every block but the last.
// Bits sitting on a continuation position are rejected.
func (bp *BitmapPackager) PackBits(bits *bitset.BitSet) ([]byte, error) {
	if bits == nil {
		bits = bitset.New(0)
	}
	highest := 0
	for i, ok := bits.NextSet(1); ok; i, ok = bits.NextSet(i + 1) {
		highest = int(i)
	}
	if highest > bp.Capacity() {
		return nil, bp.capacityError()
	}

	size := bp.length
	if bp.extended() {
		size = (highest + 63) / 64 * bitmapBlockSize
		if size == 0 {
			size = bitmapBlockSize
		}
		for i := 1; i <= highest; i += 64 {
			if bits.Test(uint(i)) {
				return nil, fmt.Errorf("%w: bit %d is reserved as a continuation flag", ErrBitmapCapacity, i)
			}
		}
	}

	raw := isoutil.BitSetToBytes(bits, size)
	for block := 0; block < size/bitmapBlockSize-1; block++ {
		raw[block*bitmapBlockSize] |= 0x80
	}
	return bp.encode(raw), nil
}

// UnpackBits decodes a bitmap at offset. It reads blocks while their
// continuation bit is set and returns the presence set, with continuation
// bits removed, and the number of wire bytes consumed.
func (bp *BitmapPackager) UnpackBits(b []byte, offset int) (*bitset.BitSet, int, error) {
	if !bp.extended() {
		raw, err := bp.decode(b, offset, bp.length)
		if err != nil {
			return nil, 0, err
		}
		bits, err := isoutil.BytesToBitSet(raw, 0, len(raw))
		return bits, bp.wireLen(bp.length), err
	}

	var raw []byte
	for blocks := 0; ; blocks++ {
		if blocks == bp.maxBlocks() {
			return nil, 0, bp.capacityError()
		}
		block, err := bp.decode(b, offset+bp.wireLen(len(raw)), bitmapBlockSize)
		if err != nil {
			return nil, 0, err
		}
		raw = append(raw, block...)
		if block[0]&0x80 == 0 {
			break
		}
	}

	bits, err := isoutil.BytesToBitSet(raw, 0, len(raw))
	if err != nil {
		return nil, 0, err
	}
	for i := 1; i <= len(raw)*8; i += 64 {
		bits.Clear(uint(i))
	}
	return bits, bp.wireLen(len(raw)), nil
}

func (bp *BitmapPackager) extended() bool {
	return bp.length >= bitmapBlockSize
}

func (bp *BitmapPackager) maxBlocks() int {
	return bp.length / bitmapBlockSize
}

func (bp *BitmapPackager) wireLen(n int) int {
	if bp.encoding == BitmapBinary {
		return n
	}
	return n * 2
}

func (bp *BitmapPackager) capacityError() error {
	unit := "bits"
	if bp.encoding != BitmapBinary {
		unit = "fields"
	}
	return fmt.Errorf("%w: bitmap can only hold %s numbered up to %d in the %d bytes available",
		ErrBitmapCapacity, unit, bp.Capacity(), bp.length)
}

func (bp *BitmapPackager) encode(raw []byte) []byte {
	switch bp.encoding {
	case BitmapASCIIHex:
		return []byte(isoutil.HexString(raw))
	case BitmapEBCDICHex:
		return isoutil.ASCIIToEBCDIC(isoutil.HexString(raw))
	default:
		return raw
	}
}

// decode reads n binary bytes worth of bitmap at offset.
func (bp *BitmapPackager) decode(b []byte, offset, n int) ([]byte, error) {
	switch bp.encoding {
	case BitmapASCIIHex:
		return isoutil.HexDecode(b, offset, n)
	case BitmapEBCDICHex:
		hex, err := isoutil.EBCDICToASCIIBytes(b, offset, n*2)
		if err != nil {
			return nil, err
		}
		return isoutil.HexDecode(hex, 0, n)
	default:
		if err := checkSrc(b, offset, n); err != nil {
			return nil, err
		}
		return append([]byte(nil), b[offset:offset+n]...), nil
	}
}
