package iso8583

import (
	"fmt"
	"log/slog"

	"github.com/bits-and-blooms/bitset"
)

// MessagePackager packs whole messages from a table of field packagers
// indexed by field number. Slot 0 holds the MTI packager of top-level
// messages and slot 1 the bitmap; a sub-message layout may put its bitmap
// in slot 0 instead. It is immutable after construction and safe for
// concurrent use.
type MessagePackager struct {
	fields       []FieldPackager
	bitmapSlot   int // -1 when the layout has no bitmap
	headerLength int
	description  string
	logger       *slog.Logger
}

// NewMessagePackager creates a packager over fields, where fields[n] packs
// field n and nil marks an unused number.
func NewMessagePackager(fields []FieldPackager, opts ...PackagerOption) *MessagePackager {
	p := &MessagePackager{
		fields:     append([]FieldPackager(nil), fields...),
		bitmapSlot: -1,
		logger:     slog.Default(),
	}
	for i := 0; i < 2 && i < len(p.fields); i++ {
		if _, ok := p.fields[i].(*BitmapPackager); ok {
			p.bitmapSlot = i
			break
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *MessagePackager) Description() string { return p.description }

func (p *MessagePackager) HeaderLength() int { return p.headerLength }

// MaxField is the highest field number with a configured slot.
func (p *MessagePackager) MaxField() int { return len(p.fields) - 1 }

// FieldPackager returns the packager of field n, or nil.
func (p *MessagePackager) FieldPackager(n int) FieldPackager {
	if n < 0 || n >= len(p.fields) {
		return nil
	}
	return p.fields[n]
}

// BitmapPackager returns the bitmap packager, or nil for layouts without
// a bitmap.
func (p *MessagePackager) BitmapPackager() *BitmapPackager {
	if p.bitmapSlot < 0 {
		return nil
	}
	return p.fields[p.bitmapSlot].(*BitmapPackager)
}

// CreateMessage returns an empty top-level message bound to p.
func (p *MessagePackager) CreateMessage() *Message {
	return NewMessage(WithPackager(p))
}

func (p *MessagePackager) firstField() int {
	if p.bitmapSlot >= 0 {
		return p.bitmapSlot + 1
	}
	return 1
}

func (p *MessagePackager) fieldDescription(n int) string {
	if fp := p.FieldPackager(n); fp != nil {
		return fp.Description()
	}
	return ""
}

func (p *MessagePackager) packError(n int, err error) error {
	return &FieldError{Field: n, Description: p.fieldDescription(n), Op: "pack", Err: err}
}

func (p *MessagePackager) unpackError(n, offset int, err error) error {
	return &FieldError{Field: n, Description: p.fieldDescription(n), Op: "unpack", Offset: offset, Err: err}
}

// Pack encodes m as header, MTI, bitmap and the present fields in
// ascending order. The bitmap is computed from the fields and stored back
// on m.
func (p *MessagePackager) Pack(m *Message) ([]byte, error) {
	scratch := getBuffer()
	defer putBuffer(scratch)
	buf := *scratch

	// 1. Header
	if p.headerLength > 0 {
		if len(m.header) != p.headerLength {
			return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidHeader, len(m.header), p.headerLength)
		}
		buf = append(buf, m.header...)
	}

	// 2. MTI, or field 0 of an inner message
	if p.bitmapSlot != 0 {
		if fp := p.FieldPackager(0); fp != nil {
			// Unpack always reads slot 0 here, so it cannot be left out.
			c := m.fields[0]
			if c == nil {
				if !m.IsInner() {
					return nil, p.packError(0, ErrMissingMTI)
				}
				return nil, p.packError(0, ErrMissingField)
			}
			packed, err := fp.Pack(c)
			if err != nil {
				return nil, p.packError(0, err)
			}
			buf = append(buf, packed...)
		}
	}

	// 3. Bitmap
	first := p.firstField()
	if bp := p.BitmapPackager(); bp != nil {
		bits := bitset.New(uint(m.MaxField() + 1))
		for k := range m.fields {
			if k >= first {
				bits.Set(uint(k))
			}
		}
		packed, err := bp.PackBits(bits)
		if err != nil {
			return nil, p.packError(p.bitmapSlot, err)
		}
		m.setBitMap(bits)
		buf = append(buf, packed...)
	}

	// 4. Fields
	for n := first; n <= m.MaxField(); n++ {
		c, ok := m.fields[n]
		if !ok {
			continue
		}
		fp := p.FieldPackager(n)
		if fp == nil {
			return nil, p.packError(n, ErrFieldNotConfigured)
		}
		packed, err := fp.Pack(c)
		if err != nil {
			return nil, p.packError(n, err)
		}
		buf = append(buf, packed...)
	}

	*scratch = buf
	out := make([]byte, len(buf))
	copy(out, buf)
	p.logger.Debug("packed message", slog.String("packager", p.description), slog.Int("length", len(out)))
	return out, nil
}

// Unpack decodes b into m and returns the number of bytes consumed. The
// fields of m are replaced only when the whole message decodes; on error m
// is left unchanged.
func (p *MessagePackager) Unpack(m *Message, b []byte) (int, error) {
	tmp := &Message{fieldNumber: m.fieldNumber, fields: make(map[int]Component)}
	pos := 0

	// 1. Header
	if p.headerLength > 0 {
		if len(b) < p.headerLength {
			return 0, fmt.Errorf("%w: %d bytes available, header needs %d", ErrInvalidHeader, len(b), p.headerLength)
		}
		tmp.header = append([]byte(nil), b[:p.headerLength]...)
		pos = p.headerLength
	}

	unpackField := func(n int, fp FieldPackager) error {
		c := fp.CreateComponent(n)
		consumed, err := fp.Unpack(c, b, pos)
		if err != nil {
			return p.unpackError(n, pos, err)
		}
		tmp.fields[n] = c
		pos += consumed
		return nil
	}

	// 2. MTI, or field 0 of an inner message
	if p.bitmapSlot != 0 {
		if fp := p.FieldPackager(0); fp != nil {
			if err := unpackField(0, fp); err != nil {
				return 0, err
			}
		}
	}

	// 3. Bitmap, then the fields it announces
	if bp := p.BitmapPackager(); bp != nil {
		bits, consumed, err := bp.UnpackBits(b, pos)
		if err != nil {
			return 0, p.unpackError(p.bitmapSlot, pos, err)
		}
		pos += consumed

		first := uint(p.firstField())
		for i, ok := bits.NextSet(first); ok; i, ok = bits.NextSet(i + 1) {
			n := int(i)
			fp := p.FieldPackager(n)
			if fp == nil {
				return 0, p.unpackError(n, pos, ErrFieldNotConfigured)
			}
			if err := unpackField(n, fp); err != nil {
				return 0, err
			}
		}
		tmp.setBitMap(bits)
	} else {
		for n := p.firstField(); n < len(p.fields) && pos < len(b); n++ {
			if fp := p.fields[n]; fp != nil {
				if err := unpackField(n, fp); err != nil {
					return 0, err
				}
			}
		}
		tmp.bitmapDirty = true
	}

	if pos != len(b) {
		p.logger.Warn("unpack length differs from consumed bytes",
			slog.String("packager", p.description),
			slog.Int("length", len(b)),
			slog.Int("consumed", pos))
	}

	m.fields = tmp.fields
	if p.headerLength > 0 {
		m.header = tmp.header
	}
	m.bitmap = tmp.bitmap
	m.bitmapDirty = tmp.bitmapDirty
	m.maxFieldDirty = true
	p.logger.Debug("unpacked message", slog.String("packager", p.description), slog.Int("consumed", pos))
	return pos, nil
}
