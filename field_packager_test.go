package iso8583_test

import (
	"errors"
	"testing"

	"github.com/mkadit/iso8583-packager"
	"github.com/stretchr/testify/require"
)

func packUnpack(t *testing.T, fp iso8583.FieldPackager, in iso8583.Component) ([]byte, iso8583.Component) {
	t.Helper()

	packed, err := fp.Pack(in)
	require.NoError(t, err)

	out := fp.CreateComponent(in.FieldNumber())
	n, err := fp.Unpack(out, append(packed, 'X'), 0)
	require.NoError(t, err)
	require.Equal(t, len(packed), n)
	return packed, out
}

func TestLeafPackagers(t *testing.T) {
	tests := []struct {
		name  string
		fp    *iso8583.LeafPackager
		value string
		wire  []byte
		back  string // unpacked value when it differs from value
	}{
		{"IFE_LNUM", iso8583.IFELNum(9, "ebcdic"), "123456789",
			[]byte{0xF9, 0xF1, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6, 0xF7, 0xF8, 0xF9}, ""},
		{"IFA_NUMERIC", iso8583.IFANumeric(6, "processing code"), "123", []byte("000123"), "000123"},
		{"IFA_LLNUM", iso8583.IFALLNum(19, "pan"), "4111111111111111", []byte("164111111111111111"), ""},
		{"IF_CHAR", iso8583.IFChar(8, "terminal"), "TERM01", []byte("TERM01  "), "TERM01  "},
		{"IFA_LLLCHAR", iso8583.IFALLLChar(999, "private"), "hello", []byte("005hello"), ""},
		{"IFB_NUMERIC", iso8583.IFBNumeric(6, "processing code", true), "3000", []byte{0x00, 0x30, 0x00}, "003000"},
		{"IFB_LLNUM", iso8583.IFBLLNum(19, "pan", true), "4111111111111111",
			[]byte{0x16, 0x41, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11}, ""},
		{"IFB_LLNUM odd", iso8583.IFBLLNum(19, "pan", true), "123", []byte{0x03, 0x01, 0x23}, ""},
		{"IFB_LLLCHAR", iso8583.IFBLLLChar(999, "data"), "AB", []byte{0x00, 0x02, 'A', 'B'}, ""},
		{"IFB_LLHCHAR", iso8583.IFBLLHChar(255, "data"), "AB", []byte{0x02, 'A', 'B'}, ""},
		{"IFE_LLCHAR", iso8583.IFELLChar(99, "name"), "AB", []byte{0xF0, 0xF2, 0xC1, 0xC2}, ""},
		{"IFE_NUMERIC", iso8583.IFENumeric(4, "n"), "12", []byte{0xF0, 0xF0, 0xF1, 0xF2}, "0012"},
		{"IFA_AMOUNT", iso8583.IFAAmount(9, "fee"), "C00000100", []byte("C00000100"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, out := packUnpack(t, tt.fp, iso8583.NewField(2, tt.value))
			require.Equal(t, tt.wire, packed)
			want := tt.value
			if tt.back != "" {
				want = tt.back
			}
			require.Equal(t, want, out.(*iso8583.Field).String())
		})
	}
}

func TestBinaryLeafPackagers(t *testing.T) {
	value := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	tests := []struct {
		name string
		fp   *iso8583.LeafPackager
		wire []byte
	}{
		{"IFB_BINARY", iso8583.IFBBinary(4, "pin"), value},
		{"IFB_LLHBINARY", iso8583.IFBLLHBinary(255, "icc"), append([]byte{0x04}, value...)},
		{"IFB_LLLBINARY", iso8583.IFBLLLBinary(999, "icc"), append([]byte{0x00, 0x04}, value...)},
		{"IFA_BINARY", iso8583.IFABinary(4, "mac"), []byte("DEADBEEF")},
		{"IFA_LLBINARY counts bytes", iso8583.IFALLBinary(99, "icc"), []byte("04DEADBEEF")},
		{"IFE_BINARY", iso8583.IFEBinary(4, "mac"), []byte{0xC4, 0xC5, 0xC1, 0xC4, 0xC2, 0xC5, 0xC5, 0xC6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, out := packUnpack(t, tt.fp, iso8583.NewBinaryField(52, value))
			require.Equal(t, tt.wire, packed)

			f := out.(*iso8583.Field)
			require.True(t, f.IsBinary())
			require.Equal(t, value, f.Bytes())
		})
	}
}

func TestFixedFieldsKeepPadding(t *testing.T) {
	tests := []struct {
		name  string
		fp    *iso8583.LeafPackager
		value string
	}{
		{"ascii all zero", iso8583.IFANumeric(6, "processing code"), "000000"},
		{"ascii leading zeros", iso8583.IFANumeric(12, "amount"), "000000001000"},
		{"bcd all zero", iso8583.IFBNumeric(6, "processing code", true), "000000"},
		{"bcd leading zeros", iso8583.IFBNumeric(12, "amount", true), "000000001000"},
		{"ebcdic all zero", iso8583.IFENumeric(4, "n"), "0000"},
		{"char trailing blanks", iso8583.IFChar(4, "name"), "AB  "},
		{"ebcdic char trailing blanks", iso8583.IFEChar(4, "name"), "AB  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := packUnpack(t, tt.fp, iso8583.NewField(3, tt.value))
			require.Equal(t, tt.value, out.(*iso8583.Field).String())
		})
	}

	t.Run("variable fields drop padding", func(t *testing.T) {
		fp := iso8583.NewLeafPackager(10, "padded", iso8583.ASCIIInterpreter, iso8583.ASCIIPrefixers.LL, iso8583.SpacePadder)
		packed, out := packUnpack(t, fp, iso8583.NewField(3, "AB"))
		require.Equal(t, []byte("10AB        "), packed)
		require.Equal(t, "AB", out.(*iso8583.Field).String())
	})
}

func TestLeafPackagerErrors(t *testing.T) {
	t.Run("fixed length mismatch", func(t *testing.T) {
		fp := iso8583.NewLeafPackager(4, "fixed", iso8583.ASCIIInterpreter, iso8583.NullPrefixer, iso8583.NullPadder)
		_, err := fp.Pack(iso8583.NewField(3, "12"))
		require.ErrorIs(t, err, iso8583.ErrInvalidLength)
		require.ErrorContains(t, err, "fixed field length mismatch")
	})

	t.Run("variable value too long", func(t *testing.T) {
		_, err := iso8583.IFALLChar(5, "short").Pack(iso8583.NewField(3, "123456"))
		require.ErrorIs(t, err, iso8583.ErrValueTooLong)
	})

	t.Run("padded value too long", func(t *testing.T) {
		_, err := iso8583.IFANumeric(3, "short").Pack(iso8583.NewField(3, "1234"))
		require.ErrorIs(t, err, iso8583.ErrValueTooLong)
	})

	t.Run("truncating char field", func(t *testing.T) {
		packed, err := iso8583.IFTChar(3, "short").Pack(iso8583.NewField(3, "ABCDE"))
		require.NoError(t, err)
		require.Equal(t, []byte("ABC"), packed)
	})

	t.Run("decoded length above maximum", func(t *testing.T) {
		fp := iso8583.IFALLChar(5, "short")
		_, err := fp.Unpack(fp.CreateComponent(3), []byte("06ABCDEF"), 0)
		require.ErrorIs(t, err, iso8583.ErrValueTooLong)
	})

	t.Run("value past the end", func(t *testing.T) {
		fp := iso8583.IFALLChar(20, "short")
		_, err := fp.Unpack(fp.CreateComponent(3), []byte("10ABC"), 0)
		require.ErrorIs(t, err, iso8583.ErrOutOfBounds)
	})

	t.Run("non numeric bcd", func(t *testing.T) {
		_, err := iso8583.IFBNumeric(4, "n", true).Pack(iso8583.NewField(3, "12X4"))
		require.ErrorIs(t, err, iso8583.ErrInvalidDigit)
	})

	t.Run("nested message through a leaf", func(t *testing.T) {
		_, err := iso8583.IFALLChar(5, "leaf").Pack(iso8583.NewInnerMessage(3))
		require.ErrorIs(t, err, iso8583.ErrNotLeaf)
	})
}

func TestTaggedLeafPackager(t *testing.T) {
	t.Run("tag first", func(t *testing.T) {
		fp := iso8583.IFTALLChar(10, "tagged")
		packed, out := packUnpack(t, fp, iso8583.NewField(48, "HELLO"))
		require.Equal(t, []byte("4805HELLO"), packed)
		require.Equal(t, "HELLO", out.(*iso8583.Field).String())
	})

	t.Run("length first", func(t *testing.T) {
		fp := iso8583.NewLeafPackager(10, "tagged", iso8583.ASCIIInterpreter, iso8583.ASCIIPrefixers.LL, iso8583.NullPadder,
			iso8583.WithTag(iso8583.ASCIIPrefixers.LL, iso8583.LengthFirst))
		packed, _ := packUnpack(t, fp, iso8583.NewField(48, "HELLO"))
		require.Equal(t, []byte("0548HELLO"), packed)
	})

	t.Run("fixed field with tag only", func(t *testing.T) {
		fp := iso8583.IFTANumeric(4, "tagged")
		packed, out := packUnpack(t, fp, iso8583.NewField(7, "12"))
		require.Equal(t, []byte("070012"), packed)
		require.Equal(t, "0012", out.(*iso8583.Field).String())
	})

	t.Run("tag mismatch", func(t *testing.T) {
		fp := iso8583.IFTALLChar(10, "tagged")
		_, err := fp.Unpack(fp.CreateComponent(47), []byte("4805HELLO"), 0)
		require.ErrorIs(t, err, iso8583.ErrTagMismatch)
	})
}

func TestSubMessagePackager(t *testing.T) {
	inner := iso8583.NewMessagePackager([]iso8583.FieldPackager{
		iso8583.IFBBitmap(8, "SUB BITMAP"),
		nil,
		iso8583.IFALLChar(20, "NAME"),
		iso8583.IFANumeric(3, "CODE"),
	})
	fp := iso8583.NewSubMessagePackager(iso8583.IFBLLLBinary(999, "PRIVATE"), inner)
	require.Same(t, inner, fp.Inner())

	sub := iso8583.NewInnerMessage(62)
	require.NoError(t, sub.Set(2, "ACME"))
	require.NoError(t, sub.Set(3, "7"))

	packed, out := packUnpack(t, fp, sub)
	// BCD length 017, 8 bitmap bytes, "04ACME", "007"
	require.Len(t, packed, 2+8+6+3)
	require.Equal(t, []byte{0x00, 0x17, 0x60}, packed[:3])

	got := out.(*iso8583.Message)
	require.True(t, got.IsInner())
	require.Equal(t, 62, got.FieldNumber())
	name, ok := got.GetString(2)
	require.True(t, ok)
	require.Equal(t, "ACME", name)
	code, _ := got.GetString(3)
	require.Equal(t, "007", code)

	t.Run("pre-packed field", func(t *testing.T) {
		raw := packed[2:]
		again, err := fp.Pack(iso8583.NewBinaryField(62, raw))
		require.NoError(t, err)
		require.Equal(t, packed, again)
	})

	t.Run("leaf component on unpack", func(t *testing.T) {
		_, err := fp.Unpack(iso8583.NewField(62, ""), packed, 0)
		require.ErrorIs(t, err, iso8583.ErrNotSubField)
	})
}

func TestSubMessageLeadingField(t *testing.T) {
	inner := iso8583.NewMessagePackager([]iso8583.FieldPackager{
		iso8583.IFANumeric(4, "SUB MTI"),
		iso8583.IFBBitmap(8, "SUB BITMAP"),
		iso8583.IFALLChar(20, "NAME"),
	})
	outer := iso8583.NewMessagePackager([]iso8583.FieldPackager{
		iso8583.IFANumeric(4, "MTI"),
		iso8583.IFBBitmap(8, "BITMAP"),
		iso8583.NewSubMessagePackager(iso8583.IFALLLChar(999, "PRIVATE"), inner),
	})

	t.Run("missing", func(t *testing.T) {
		m := outer.CreateMessage()
		require.NoError(t, m.SetMTI("0100"))
		require.NoError(t, m.SetPath("2.2", "hello"))

		_, err := m.Pack()
		require.ErrorIs(t, err, iso8583.ErrMissingField)

		var fe *iso8583.FieldError
		require.True(t, errors.As(err, &fe))
		require.Equal(t, 2, fe.Field)

		var innerErr *iso8583.FieldError
		require.True(t, errors.As(fe.Err, &innerErr))
		require.Equal(t, 0, innerErr.Field)
		require.Equal(t, "SUB MTI", innerErr.Description)
	})

	t.Run("present", func(t *testing.T) {
		m := outer.CreateMessage()
		require.NoError(t, m.SetMTI("0100"))
		require.NoError(t, m.SetPath("2.0", "0001"))
		require.NoError(t, m.SetPath("2.2", "hello"))

		packed, err := m.Pack()
		require.NoError(t, err)

		out := outer.CreateMessage()
		n, err := out.Unpack(packed)
		require.NoError(t, err)
		require.Equal(t, len(packed), n)

		lead, ok := out.GetStringPath("2.0")
		require.True(t, ok)
		require.Equal(t, "0001", lead)
		name, ok := out.GetStringPath("2.2")
		require.True(t, ok)
		require.Equal(t, "hello", name)
	})
}
