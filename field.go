package iso8583

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// Component is a node of a message tree. It is implemented by *Field,
// *BitMap and *Message only.
type Component interface {
	FieldNumber() int

	setFieldNumber(n int)
	clone() Component
}

// Field is a leaf holding a character or binary value.
type Field struct {
	fieldNumber int
	value       []byte
	binary      bool
}

// NewField creates a character field.
func NewField(fieldNumber int, value string) *Field {
	return &Field{fieldNumber: fieldNumber, value: []byte(value)}
}

// NewBinaryField creates a binary field. The value is copied.
func NewBinaryField(fieldNumber int, value []byte) *Field {
	f := &Field{fieldNumber: fieldNumber, binary: true}
	f.SetBytes(value)
	return f
}

func (f *Field) FieldNumber() int { return f.fieldNumber }

func (f *Field) setFieldNumber(n int) { f.fieldNumber = n }

// String returns the value as text. Binary values are returned as their
// raw bytes, not hex.
func (f *Field) String() string {
	return string(f.value)
}

// Bytes returns the value. The slice must not be modified.
func (f *Field) Bytes() []byte {
	return f.value
}

func (f *Field) IsBinary() bool { return f.binary }

func (f *Field) Len() int { return len(f.value) }

func (f *Field) Int() (int, error) {
	return strconv.Atoi(string(f.value))
}

func (f *Field) Int64() (int64, error) {
	return strconv.ParseInt(string(f.value), 10, 64)
}

func (f *Field) SetString(value string) {
	f.value = []byte(value)
}

func (f *Field) SetBytes(value []byte) {
	f.value = append([]byte(nil), value...)
}

func (f *Field) clone() Component {
	return &Field{
		fieldNumber: f.fieldNumber,
		value:       append([]byte(nil), f.value...),
		binary:      f.binary,
	}
}

// BitMap is a leaf holding a presence set. Bit n is set when field n is
// present.
type BitMap struct {
	fieldNumber int
	bits        *bitset.BitSet
}

func NewBitMap(fieldNumber int, bits *bitset.BitSet) *BitMap {
	if bits == nil {
		bits = bitset.New(0)
	}
	return &BitMap{fieldNumber: fieldNumber, bits: bits}
}

func (b *BitMap) FieldNumber() int { return b.fieldNumber }

func (b *BitMap) setFieldNumber(n int) { b.fieldNumber = n }

// Bits returns the presence set.
func (b *BitMap) Bits() *bitset.BitSet { return b.bits }

// Fields lists the set field numbers in ascending order.
func (b *BitMap) Fields() []int {
	out := make([]int, 0, b.bits.Count())
	for i, ok := b.bits.NextSet(0); ok; i, ok = b.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

func (b *BitMap) clone() Component {
	return &BitMap{fieldNumber: b.fieldNumber, bits: b.bits.Clone()}
}
