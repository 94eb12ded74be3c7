package iso8583

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/mkadit/iso8583-packager/isoutil"
)

// TLVCodec reads and writes tag-length-value lists carried inside binary
// fields such as DE 55. A codec holds configuration only and is safe for
// concurrent use.
type TLVCodec struct {
	Type TLVType

	// ASCII layout: fixed tag and length widths, length in base 10 or 16.
	TagLen     int
	LenLen     int
	LengthBase int
}

var (
	StandardTLV = TLVCodec{Type: TLVStandard}
	EMVTLV      = TLVCodec{Type: TLVEMV}
)

// ASCIITLV returns a codec for fixed width ASCII entries such as
// "AL04Data".
func ASCIITLV(tagLen, lenLen, base int) TLVCodec {
	return TLVCodec{Type: TLVASCII, TagLen: tagLen, LenLen: lenLen, LengthBase: base}
}

func tlvErr(tag []byte, offset int, format string, args ...any) error {
	return &TLVError{
		Tag:    bytes.Clone(tag),
		Offset: offset,
		Err:    fmt.Errorf("%w: "+format, append([]any{ErrInvalidTLV}, args...)...),
	}
}

// Parse splits data into entries. Tags and values are copied out of data.
func (c TLVCodec) Parse(data []byte) ([]TLV, error) {
	var tlvs []TLV
	for offset := 0; offset < len(data); {
		var (
			tlv  TLV
			next int
			err  error
		)
		switch c.Type {
		case TLVStandard:
			tlv, next, err = c.parseStandard(data, offset)
		case TLVEMV:
			tlv, next, err = c.parseEMV(data, offset)
		case TLVASCII:
			tlv, next, err = c.parseASCII(data, offset)
		default:
			return nil, fmt.Errorf("%w: unsupported type %d", ErrInvalidTLV, c.Type)
		}
		if err != nil {
			return nil, err
		}
		tlvs = append(tlvs, tlv)
		offset = next
	}
	return tlvs, nil
}

func tlvValue(data, tag []byte, offset, length int) (TLV, int, error) {
	if offset+length > len(data) {
		return TLV{}, 0, tlvErr(tag, offset, "value needs %d bytes, %d left", length, len(data)-offset)
	}
	return TLV{
		Tag:    bytes.Clone(tag),
		Length: length,
		Value:  bytes.Clone(data[offset : offset+length]),
	}, offset + length, nil
}

func (c TLVCodec) parseStandard(data []byte, offset int) (TLV, int, error) {
	tag := data[offset : offset+1]
	if offset+1 >= len(data) {
		return TLV{}, 0, tlvErr(tag, offset, "truncated length")
	}
	return tlvValue(data, tag, offset+2, int(data[offset+1]))
}

// parseEMV reads a BER-TLV entry: a tag whose low five bits all set means
// more tag bytes follow while their high bit is set; a length byte with
// the high bit set gives the count of length bytes that follow.
func (c TLVCodec) parseEMV(data []byte, offset int) (TLV, int, error) {
	start := offset
	first := data[offset]
	offset++
	if first&0x1F == 0x1F {
		for offset < len(data) && data[offset]&0x80 != 0 {
			offset++
		}
		if offset >= len(data) {
			return TLV{}, 0, tlvErr(data[start:], start, "truncated tag")
		}
		offset++
	}
	tag := data[start:offset]

	if offset >= len(data) {
		return TLV{}, 0, tlvErr(tag, offset, "truncated length")
	}
	lb := data[offset]
	offset++
	length := int(lb)
	if lb&0x80 != 0 {
		n := int(lb & 0x7F)
		if n == 0 || n > 4 {
			return TLV{}, 0, tlvErr(tag, offset-1, "invalid length form %#x", lb)
		}
		if offset+n > len(data) {
			return TLV{}, 0, tlvErr(tag, offset, "truncated length")
		}
		length = 0
		for i := 0; i < n; i++ {
			length = length<<8 | int(data[offset])
			offset++
		}
	}
	return tlvValue(data, tag, offset, length)
}

func (c TLVCodec) parseASCII(data []byte, offset int) (TLV, int, error) {
	if c.TagLen <= 0 || c.LenLen <= 0 {
		return TLV{}, 0, fmt.Errorf("%w: ASCII codec needs tag and length widths", ErrInvalidTLV)
	}
	if offset+c.TagLen > len(data) {
		return TLV{}, 0, tlvErr(nil, offset, "tag needs %d bytes, %d left", c.TagLen, len(data)-offset)
	}
	tag := data[offset : offset+c.TagLen]
	offset += c.TagLen

	if offset+c.LenLen > len(data) {
		return TLV{}, 0, tlvErr(tag, offset, "length needs %d bytes, %d left", c.LenLen, len(data)-offset)
	}
	raw := string(data[offset : offset+c.LenLen])
	length, err := strconv.ParseUint(raw, c.base(), 31)
	if err != nil {
		return TLV{}, 0, tlvErr(tag, offset, "invalid length %q", raw)
	}
	return tlvValue(data, tag, offset+c.LenLen, int(length))
}

func (c TLVCodec) base() int {
	if c.LengthBase == 16 {
		return 16
	}
	return 10
}

// Pack writes tlvs in order. The Length member of each entry is ignored;
// the length of Value is written.
func (c TLVCodec) Pack(tlvs []TLV) ([]byte, error) {
	var buf []byte
	for _, tlv := range tlvs {
		var err error
		switch c.Type {
		case TLVStandard:
			buf, err = c.packStandard(buf, tlv)
		case TLVEMV:
			buf, err = c.packEMV(buf, tlv)
		case TLVASCII:
			buf, err = c.packASCII(buf, tlv)
		default:
			return nil, fmt.Errorf("%w: unsupported type %d", ErrInvalidTLV, c.Type)
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (c TLVCodec) packStandard(buf []byte, tlv TLV) ([]byte, error) {
	if len(tlv.Tag) != 1 {
		return nil, tlvErr(tlv.Tag, len(buf), "tag must be 1 byte")
	}
	if len(tlv.Value) > 0xFF {
		return nil, tlvErr(tlv.Tag, len(buf), "value of %d bytes. max = 255", len(tlv.Value))
	}
	buf = append(buf, tlv.Tag[0], byte(len(tlv.Value)))
	return append(buf, tlv.Value...), nil
}

func (c TLVCodec) packEMV(buf []byte, tlv TLV) ([]byte, error) {
	if len(tlv.Tag) == 0 {
		return nil, tlvErr(nil, len(buf), "empty tag")
	}
	buf = append(buf, tlv.Tag...)

	n := len(tlv.Value)
	if n < 0x80 {
		buf = append(buf, byte(n))
		return append(buf, tlv.Value...), nil
	}
	var lenBytes []byte
	for v := n; v > 0; v >>= 8 {
		lenBytes = append([]byte{byte(v)}, lenBytes...)
	}
	buf = append(buf, 0x80|byte(len(lenBytes)))
	buf = append(buf, lenBytes...)
	return append(buf, tlv.Value...), nil
}

func (c TLVCodec) packASCII(buf []byte, tlv TLV) ([]byte, error) {
	if len(tlv.Tag) != c.TagLen {
		return nil, tlvErr(tlv.Tag, len(buf), "tag length %d, expected %d", len(tlv.Tag), c.TagLen)
	}
	length := strconv.FormatInt(int64(len(tlv.Value)), c.base())
	if len(length) > c.LenLen {
		return nil, tlvErr(tlv.Tag, len(buf), "value of %d bytes does not fit %d length digits", len(tlv.Value), c.LenLen)
	}
	buf = append(buf, tlv.Tag...)
	for i := len(length); i < c.LenLen; i++ {
		buf = append(buf, '0')
	}
	buf = append(buf, bytes.ToUpper([]byte(length))...)
	return append(buf, tlv.Value...), nil
}

// FindTLV returns the first entry with the given tag.
func FindTLV(tlvs []TLV, tag []byte) (*TLV, bool) {
	for i := range tlvs {
		if bytes.Equal(tlvs[i].Tag, tag) {
			return &tlvs[i], true
		}
	}
	return nil, false
}

// FilterTLV returns the entries whose tag starts with prefix.
func FilterTLV(tlvs []TLV, prefix []byte) []TLV {
	var out []TLV
	for _, tlv := range tlvs {
		if bytes.HasPrefix(tlv.Tag, prefix) {
			out = append(out, tlv)
		}
	}
	return out
}

// TLVToMap keys entries by tag: the literal tag for ASCII codecs, the
// upper case hex tag ("9F02") otherwise.
func (c TLVCodec) TLVToMap(tlvs []TLV) map[string][]byte {
	out := make(map[string][]byte, len(tlvs))
	for _, tlv := range tlvs {
		out[c.mapKey(tlv.Tag)] = tlv.Value
	}
	return out
}

func (c TLVCodec) mapKey(tag []byte) string {
	if c.Type == TLVASCII {
		return string(tag)
	}
	return isoutil.HexString(tag)
}

// MapToTLV is the inverse of TLVToMap. Entries are sorted by key so the
// packed form is stable.
func (c TLVCodec) MapToTLV(m map[string][]byte) ([]TLV, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tlvs := make([]TLV, 0, len(keys))
	for _, k := range keys {
		tag := []byte(k)
		if c.Type != TLVASCII {
			var err error
			if tag, err = isoutil.HexToBytes(k); err != nil {
				return nil, fmt.Errorf("%w: tag %q: %w", ErrInvalidTLV, k, err)
			}
		}
		tlvs = append(tlvs, TLV{Tag: tag, Length: len(m[k]), Value: m[k]})
	}
	return tlvs, nil
}

// GetTLV parses leaf n with codec.
func (m *Message) GetTLV(n int, codec TLVCodec) ([]TLV, error) {
	b, ok := m.GetBytes(n)
	if !ok {
		return nil, fmt.Errorf("%w: field %d is not a leaf", ErrNotLeaf, n)
	}
	return codec.Parse(b)
}

// SetTLV packs tlvs with codec and stores them as binary field n.
func (m *Message) SetTLV(n int, codec TLVCodec, tlvs []TLV) error {
	b, err := codec.Pack(tlvs)
	if err != nil {
		return err
	}
	return m.Set(n, b)
}
