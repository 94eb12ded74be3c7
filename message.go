package iso8583

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/mkadit/iso8583-packager/isoutil"
)

// Message is a field-numbered tree of components. The root of a tree has
// field number -1 and carries the MTI in field 0; nested messages carry the
// field number they occupy in their parent.
//
// A Message is not safe for concurrent mutation. Use one Message per
// in-flight transaction.
type Message struct {
	fieldNumber int
	fields      map[int]Component

	maxField      int
	maxFieldDirty bool

	bitmap      *BitMap
	bitmapDirty bool

	direction Direction
	header    []byte
	packager  *MessagePackager
}

// NewMessage creates a top-level message.
func NewMessage(opts ...MessageOption) *Message {
	m := &Message{
		fieldNumber: -1,
		fields:      make(map[int]Component),
		bitmapDirty: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewInnerMessage creates a message used as sub-field fieldNumber of
// another message.
func NewInnerMessage(fieldNumber int) *Message {
	return &Message{
		fieldNumber: fieldNumber,
		fields:      make(map[int]Component),
		bitmapDirty: true,
	}
}

func (m *Message) FieldNumber() int { return m.fieldNumber }

func (m *Message) setFieldNumber(n int) { m.fieldNumber = n }

// IsInner reports whether m is nested inside another message.
func (m *Message) IsInner() bool { return m.fieldNumber > -1 }

func (m *Message) touch() {
	m.maxFieldDirty = true
	m.bitmapDirty = true
}

// Set stores value as field fieldNumber. value may be a string, a []byte
// (stored as a binary field), an int, a Component, or nil, which unsets
// the field.
func (m *Message) Set(fieldNumber int, value any) error {
	if fieldNumber < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidField, fieldNumber)
	}

	var c Component
	switch v := value.(type) {
	case nil:
		m.Unset(fieldNumber)
		return nil
	case string:
		c = NewField(fieldNumber, v)
	case []byte:
		c = NewBinaryField(fieldNumber, v)
	case int:
		c = NewField(fieldNumber, strconv.Itoa(v))
	case int64:
		c = NewField(fieldNumber, strconv.FormatInt(v, 10))
	case *BitMap:
		return fmt.Errorf("%w: bitmaps are derived from the message fields", ErrInvalidValue)
	case Component:
		if isNilComponent(v) {
			m.Unset(fieldNumber)
			return nil
		}
		v.setFieldNumber(fieldNumber)
		c = v
	default:
		return fmt.Errorf("%w: %T", ErrInvalidValue, value)
	}

	m.fields[fieldNumber] = c
	m.touch()
	return nil
}

func isNilComponent(c Component) bool {
	switch v := c.(type) {
	case *Field:
		return v == nil
	case *Message:
		return v == nil
	}
	return false
}

// SetComponent stores c under its own field number.
func (m *Message) SetComponent(c Component) error {
	return m.Set(c.FieldNumber(), c)
}

// SetPath stores value at a dotted path such as "63.2.3", creating the
// intermediate messages. A nil value unsets the path.
func (m *Message) SetPath(path string, value any) error {
	if value == nil {
		return m.UnsetPath(path)
	}
	keys, err := parsePath(path)
	if err != nil {
		return err
	}

	cur := m
	for _, k := range keys[:len(keys)-1] {
		switch c := cur.fields[k].(type) {
		case nil:
			inner := NewInnerMessage(k)
			cur.fields[k] = inner
			cur.touch()
			cur = inner
		case *Message:
			cur = c
		default:
			return fmt.Errorf("%w: %d in path %q", ErrNotSubField, k, path)
		}
	}
	return cur.Set(keys[len(keys)-1], value)
}

// Unset removes the given fields.
func (m *Message) Unset(fieldNumbers ...int) {
	for _, n := range fieldNumbers {
		if _, ok := m.fields[n]; ok {
			delete(m.fields, n)
			m.touch()
		}
	}
}

// UnsetPath removes the component at path. When that leaves its parent
// message empty, the parent is removed from the grandparent as well; the
// removal does not cascade any further.
func (m *Message) UnsetPath(path string) error {
	keys, err := parsePath(path)
	if err != nil {
		return err
	}

	var parent *Message
	parentKey := -1
	cur := m
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur.fields[k].(*Message)
		if !ok {
			return nil
		}
		parent, parentKey, cur = cur, k, next
	}

	cur.Unset(keys[len(keys)-1])
	if parent != nil && len(cur.fields) == 0 {
		parent.Unset(parentKey)
	}
	return nil
}

func parsePath(path string) ([]int, error) {
	parts := strings.Split(path, ".")
	keys := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid path %q", ErrInvalidField, path)
		}
		keys[i] = n
	}
	return keys, nil
}

// Component returns field n, or nil when it is absent.
func (m *Message) Component(n int) Component {
	return m.fields[n]
}

// ComponentPath returns the component at path, or nil when any segment of
// the path is absent or is not a message.
func (m *Message) ComponentPath(path string) Component {
	keys, err := parsePath(path)
	if err != nil {
		return nil
	}
	cur := m
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur.fields[k].(*Message)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur.fields[keys[len(keys)-1]]
}

func (m *Message) HasField(n int) bool {
	_, ok := m.fields[n]
	return ok
}

func (m *Message) HasFieldPath(path string) bool {
	return m.ComponentPath(path) != nil
}

// HasFields reports whether every listed field is present.
func (m *Message) HasFields(fieldNumbers ...int) bool {
	for _, n := range fieldNumbers {
		if !m.HasField(n) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one listed field is present.
func (m *Message) HasAny(fieldNumbers ...int) bool {
	for _, n := range fieldNumbers {
		if m.HasField(n) {
			return true
		}
	}
	return false
}

func (m *Message) IsEmpty() bool { return len(m.fields) == 0 }

// GetString returns the value of leaf n. ok is false when the field is
// absent or is a nested message.
func (m *Message) GetString(n int) (string, bool) {
	return leafString(m.fields[n])
}

func (m *Message) GetStringPath(path string) (string, bool) {
	return leafString(m.ComponentPath(path))
}

func (m *Message) GetBytes(n int) ([]byte, bool) {
	return leafBytes(m.fields[n])
}

func (m *Message) GetBytesPath(path string) ([]byte, bool) {
	return leafBytes(m.ComponentPath(path))
}

// GetMessage returns nested message n.
func (m *Message) GetMessage(n int) (*Message, bool) {
	inner, ok := m.fields[n].(*Message)
	return inner, ok
}

func leafString(c Component) (string, bool) {
	if f, ok := c.(*Field); ok {
		return f.String(), true
	}
	return "", false
}

func leafBytes(c Component) ([]byte, bool) {
	if f, ok := c.(*Field); ok {
		return f.Bytes(), true
	}
	return nil, false
}

// Children returns the present field numbers in ascending order.
func (m *Message) Children() []int {
	keys := make([]int, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MaxField returns the highest field number present, or 0 for an empty
// message. The value is cached until the next mutation.
func (m *Message) MaxField() int {
	if m.maxFieldDirty {
		m.maxField = 0
		for k := range m.fields {
			if k > m.maxField {
				m.maxField = k
			}
		}
		m.maxFieldDirty = false
	}
	return m.maxField
}

// RecalcBitMap rebuilds the presence bitmap from the fields. Field 0 is
// never counted, nor is field 1 of a top-level message, which is the
// bitmap slot.
func (m *Message) RecalcBitMap() {
	first := 1
	if !m.IsInner() {
		first = 2
	}
	bits := bitset.New(uint(m.MaxField() + 1))
	for k := range m.fields {
		if k >= first {
			bits.Set(uint(k))
		}
	}
	m.setBitMap(bits)
}

func (m *Message) setBitMap(bits *bitset.BitSet) {
	n := BitmapField
	if m.IsInner() {
		n = 0
	}
	m.bitmap = NewBitMap(n, bits)
	m.bitmapDirty = false
}

// BitMap returns the presence set, recomputing it when fields changed
// since it was last derived or unpacked. The bitmap is held beside the
// fields rather than in slot 1, so Component(BitmapField) stays nil even
// after an unpack.
func (m *Message) BitMap() *bitset.BitSet {
	if m.bitmapDirty || m.bitmap == nil {
		m.RecalcBitMap()
	}
	return m.bitmap.Bits()
}

// Merge copies every field of other into m, replacing fields m already has
// under the same number. A nil other leaves m unchanged.
func (m *Message) Merge(other *Message) {
	if other == nil {
		return
	}
	for k, c := range other.fields {
		m.fields[k] = c.clone()
	}
	m.touch()
}

// Move relocates field from to number to, replacing anything there. Moving
// an absent field clears to.
func (m *Message) Move(from, to int) error {
	if to < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidField, to)
	}
	c, ok := m.fields[from]
	m.Unset(from)
	if !ok {
		m.Unset(to)
		return nil
	}
	c.setFieldNumber(to)
	m.fields[to] = c
	m.touch()
	return nil
}

// Clone returns a deep copy of m. Nested messages and values are copied;
// the packager is shared.
func (m *Message) Clone() *Message {
	return m.clone().(*Message)
}

// CloneFields is Clone restricted to the listed fields.
func (m *Message) CloneFields(fieldNumbers ...int) *Message {
	c := m.cloneShell()
	for _, n := range fieldNumbers {
		if f, ok := m.fields[n]; ok {
			c.fields[n] = f.clone()
		}
	}
	return c
}

func (m *Message) clone() Component {
	c := m.cloneShell()
	for k, f := range m.fields {
		c.fields[k] = f.clone()
	}
	return c
}

func (m *Message) cloneShell() *Message {
	c := &Message{
		fieldNumber:   m.fieldNumber,
		fields:        make(map[int]Component, len(m.fields)),
		maxFieldDirty: true,
		bitmapDirty:   true,
		direction:     m.direction,
		packager:      m.packager,
	}
	if m.header != nil {
		c.header = append([]byte(nil), m.header...)
	}
	return c
}

// SetMTI sets field 0. Inner messages have no MTI.
func (m *Message) SetMTI(mti string) error {
	if m.IsInner() {
		return ErrInnerMTI
	}
	return m.Set(MTIField, mti)
}

// MTI returns field 0 of a top-level message.
func (m *Message) MTI() (string, error) {
	if m.IsInner() {
		return "", ErrInnerMTI
	}
	mti, ok := m.GetString(MTIField)
	if !ok {
		return "", ErrMissingMTI
	}
	return mti, nil
}

func (m *Message) checkedMTI() (string, error) {
	mti, err := m.MTI()
	if err != nil {
		return "", err
	}
	if len(mti) != 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMTI, mti)
	}
	for i := 0; i < 4; i++ {
		if mti[i] < '0' || mti[i] > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidMTI, mti)
		}
	}
	return mti, nil
}

// IsRequest reports whether the MTI function digit is even.
func (m *Message) IsRequest() (bool, error) {
	mti, err := m.checkedMTI()
	if err != nil {
		return false, err
	}
	return (mti[2]-'0')%2 == 0, nil
}

func (m *Message) IsResponse() (bool, error) {
	req, err := m.IsRequest()
	return !req && err == nil, err
}

// IsRetransmission reports whether the MTI origin digit is 1.
func (m *Message) IsRetransmission() (bool, error) {
	mti, err := m.checkedMTI()
	if err != nil {
		return false, err
	}
	return mti[3] == '1', nil
}

// SetResponseMTI turns a request MTI into its response, e.g. 0100 into
// 0110 and 0401 into 0410.
func (m *Message) SetResponseMTI() error {
	req, err := m.IsRequest()
	if err != nil {
		return err
	}
	if !req {
		return fmt.Errorf("%w: not a request, can't set response MTI", ErrInvalidMTI)
	}
	mti, _ := m.MTI()
	origin := byte('0')
	switch mti[3] {
	case '2', '3':
		origin = '2'
	case '4', '5':
		origin = '4'
	}
	return m.SetMTI(mti[:2] + string(mti[2]+1) + string(origin))
}

// SetRetransmissionMTI marks a request as a repeat, e.g. 0200 into 0201.
func (m *Message) SetRetransmissionMTI() error {
	req, err := m.IsRequest()
	if err != nil {
		return err
	}
	if !req {
		return fmt.Errorf("%w: not a request", ErrInvalidMTI)
	}
	mti, _ := m.MTI()
	return m.SetMTI(mti[:3] + "1")
}

func (m *Message) Direction() Direction { return m.direction }

func (m *Message) SetDirection(d Direction) { m.direction = d }

func (m *Message) IsIncoming() bool { return m.direction == DirectionIncoming }

func (m *Message) IsOutgoing() bool { return m.direction == DirectionOutgoing }

// Header returns the opaque header bytes carried ahead of the MTI.
func (m *Message) Header() []byte { return m.header }

func (m *Message) SetHeader(header []byte) {
	m.header = append([]byte(nil), header...)
}

func (m *Message) Packager() *MessagePackager { return m.packager }

func (m *Message) SetPackager(p *MessagePackager) { m.packager = p }

// Pack encodes m with its bound packager.
func (m *Message) Pack() ([]byte, error) {
	if m.packager == nil {
		return nil, ErrNoPackagerConfigured
	}
	return m.packager.Pack(m)
}

// Unpack replaces the fields of m with those decoded from b by the bound
// packager and returns the number of bytes consumed.
func (m *Message) Unpack(b []byte) (int, error) {
	if m.packager == nil {
		return 0, ErrNoPackagerConfigured
	}
	return m.packager.Unpack(m, b)
}

// LogValue implements slog.LogValuer. Binary values are logged as hex.
func (m *Message) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4)
	if !m.IsInner() {
		if mti, err := m.MTI(); err == nil {
			attrs = append(attrs, slog.String("mti", mti))
		}
		if m.direction != DirectionNone {
			attrs = append(attrs, slog.String("direction", m.direction.String()))
		}
		if len(m.header) > 0 {
			attrs = append(attrs, slog.String("header", isoutil.HexString(m.header)))
		}
	}

	fieldAttrs := make([]any, 0, len(m.fields))
	for _, k := range m.Children() {
		if k == MTIField && !m.IsInner() {
			continue
		}
		key := strconv.Itoa(k)
		switch c := m.fields[k].(type) {
		case *Message:
			fieldAttrs = append(fieldAttrs, slog.Any(key, c))
		case *Field:
			if c.IsBinary() {
				fieldAttrs = append(fieldAttrs, slog.String(key, isoutil.HexString(c.Bytes())))
			} else {
				fieldAttrs = append(fieldAttrs, slog.String(key, c.String()))
			}
		}
	}
	attrs = append(attrs, slog.Group("fields", fieldAttrs...))
	return slog.GroupValue(attrs...)
}
