package iso8583

import "fmt"

// FieldPackager packs and unpacks one field slot. Implementations hold
// configuration only and are safe for concurrent use.
type FieldPackager interface {
	Pack(c Component) ([]byte, error)
	// Unpack decodes the field at offset into c and returns the number of
	// bytes consumed.
	Unpack(c Component, b []byte, offset int) (int, error)
	CreateComponent(fieldNumber int) Component
	// Length is the fixed or maximum logical length of the field.
	Length() int
	Description() string
	MaxPackedLength() int
}

// LeafPackager is the single field packager for character and binary
// leaves. The legacy field classes (IFA_NUMERIC, IFB_LLLCHAR, ...) are
// combinations of its strategies, see catalog.go.
type LeafPackager struct {
	length      int
	description string
	interpreter Interpreter
	prefixer    Prefixer
	padder      Padder
	binary      bool

	tagPrefixer Prefixer
	order       HeaderOrder
}

// LeafOption adjusts a LeafPackager at construction.
type LeafOption func(*LeafPackager)

// AsBinary makes the packager produce binary fields.
func AsBinary() LeafOption {
	return func(p *LeafPackager) {
		p.binary = true
	}
}

// WithTag prefixes the field with its own field number, encoded by tag,
// before or after the length prefix.
func WithTag(tag Prefixer, order HeaderOrder) LeafOption {
	return func(p *LeafPackager) {
		p.tagPrefixer = tag
		p.order = order
	}
}

func NewLeafPackager(length int, description string, interpreter Interpreter, prefixer Prefixer, padder Padder, opts ...LeafOption) *LeafPackager {
	p := &LeafPackager{
		length:      length,
		description: description,
		interpreter: interpreter,
		prefixer:    prefixer,
		padder:      padder,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LeafPackager) Length() int { return p.length }

func (p *LeafPackager) Description() string { return p.description }

func (p *LeafPackager) IsBinary() bool { return p.binary }

func (p *LeafPackager) Interpreter() Interpreter { return p.interpreter }

func (p *LeafPackager) Prefixer() Prefixer { return p.prefixer }

func (p *LeafPackager) Padder() Padder { return p.padder }

func (p *LeafPackager) MaxPackedLength() int {
	return p.tagLen() + p.prefixer.PackedLength() + p.interpreter.PackedLength(p.length)
}

func (p *LeafPackager) CreateComponent(fieldNumber int) Component {
	return &Field{fieldNumber: fieldNumber, binary: p.binary}
}

func (p *LeafPackager) tagLen() int {
	if p.tagPrefixer == nil {
		return 0
	}
	return p.tagPrefixer.PackedLength()
}

// Pack pads the value, writes the tag and length headers and encodes the
// value.
func (p *LeafPackager) Pack(c Component) ([]byte, error) {
	f, ok := c.(*Field)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotLeaf, c)
	}

	data, err := p.padder.Pad(f.Bytes(), p.length)
	if err != nil {
		return nil, err
	}
	if len(data) > p.length {
		return nil, fmt.Errorf("%w: field length %d too long. max: %d", ErrValueTooLong, len(data), p.length)
	}
	if isFixed(p.prefixer) && len(data) != p.length {
		return nil, fmt.Errorf("%w: fixed field length mismatch: expected %d, got %d", ErrInvalidLength, p.length, len(data))
	}

	tagLen, lenLen := p.tagLen(), p.prefixer.PackedLength()
	buf := make([]byte, tagLen+lenLen+p.interpreter.PackedLength(len(data)))

	tagAt, lenAt := 0, tagLen
	if p.order == LengthFirst {
		tagAt, lenAt = lenLen, 0
	}
	if p.tagPrefixer != nil {
		if err := p.tagPrefixer.EncodeLength(f.FieldNumber(), buf[tagAt:]); err != nil {
			return nil, fmt.Errorf("tag: %w", err)
		}
	}
	if err := p.prefixer.EncodeLength(len(data), buf[lenAt:]); err != nil {
		return nil, err
	}
	if err := p.interpreter.Interpret(data, buf[tagLen+lenLen:]); err != nil {
		return nil, err
	}
	return buf, nil
}

// Unpack reads the headers and value at offset and stores the value in c.
// Fixed length values are stored exactly as decoded, padding included;
// variable length values have their padding stripped.
func (p *LeafPackager) Unpack(c Component, b []byte, offset int) (int, error) {
	f, ok := c.(*Field)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrNotLeaf, c)
	}

	pos := offset
	if p.tagPrefixer != nil && p.order == TagFirst {
		if err := p.checkTag(f, b, pos); err != nil {
			return 0, err
		}
		pos += p.tagLen()
	}

	length, err := p.prefixer.DecodeLength(b, pos)
	if err != nil {
		return 0, err
	}
	pos += p.prefixer.PackedLength()

	if p.tagPrefixer != nil && p.order == LengthFirst {
		if err := p.checkTag(f, b, pos); err != nil {
			return 0, err
		}
		pos += p.tagLen()
	}

	if length == -1 {
		length = p.length
	} else if length > p.length {
		return 0, fmt.Errorf("%w: field length %d too long. max: %d", ErrValueTooLong, length, p.length)
	}

	raw, err := p.interpreter.Uninterpret(b, pos, length)
	if err != nil {
		return 0, err
	}
	pos += p.interpreter.PackedLength(length)

	if isFixed(p.prefixer) {
		f.value = raw
	} else {
		f.value = p.padder.Unpad(raw)
	}
	f.binary = p.binary
	return pos - offset, nil
}

func (p *LeafPackager) checkTag(f *Field, b []byte, pos int) error {
	tag, err := p.tagPrefixer.DecodeLength(b, pos)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	if tag != f.FieldNumber() {
		return fmt.Errorf("%w: expected %d, found %d", ErrTagMismatch, f.FieldNumber(), tag)
	}
	return nil
}

// SubMessagePackager packs a nested message as the value of an outer
// leaf, the way bitmap-addressed sub-fields such as DE 127 are carried.
type SubMessagePackager struct {
	outer *LeafPackager
	inner *MessagePackager
}

func NewSubMessagePackager(outer *LeafPackager, inner *MessagePackager) *SubMessagePackager {
	return &SubMessagePackager{outer: outer, inner: inner}
}

func (p *SubMessagePackager) Length() int { return p.outer.Length() }

func (p *SubMessagePackager) Description() string { return p.outer.Description() }

func (p *SubMessagePackager) MaxPackedLength() int { return p.outer.MaxPackedLength() }

// Inner returns the packager of the nested message.
func (p *SubMessagePackager) Inner() *MessagePackager { return p.inner }

func (p *SubMessagePackager) CreateComponent(fieldNumber int) Component {
	m := NewInnerMessage(fieldNumber)
	m.packager = p.inner
	return m
}

// Pack accepts a *Message, or a *Field already holding the packed inner
// bytes.
func (p *SubMessagePackager) Pack(c Component) ([]byte, error) {
	switch v := c.(type) {
	case *Message:
		data, err := p.inner.Pack(v)
		if err != nil {
			return nil, err
		}
		return p.outer.Pack(NewBinaryField(v.FieldNumber(), data))
	case *Field:
		return p.outer.Pack(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidValue, c)
	}
}

func (p *SubMessagePackager) Unpack(c Component, b []byte, offset int) (int, error) {
	m, ok := c.(*Message)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrNotSubField, c)
	}
	carrier := &Field{fieldNumber: m.FieldNumber(), binary: true}
	n, err := p.outer.Unpack(carrier, b, offset)
	if err != nil {
		return 0, err
	}
	if _, err := p.inner.Unpack(m, carrier.Bytes()); err != nil {
		return 0, err
	}
	return n, nil
}
