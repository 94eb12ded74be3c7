package iso8583_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mkadit/iso8583-packager"
	"github.com/stretchr/testify/require"
)

func TestEMVTLV(t *testing.T) {
	long := bytes.Repeat([]byte{0xAB}, 128)
	data := []byte{
		0x9F, 0x02, 0x06, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
		0x5A, 0x08, 0x41, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
		0x9F, 0x10, 0x81, 0x80,
	}
	data = append(data, long...)

	tlvs, err := iso8583.EMVTLV.Parse(data)
	require.NoError(t, err)
	require.Len(t, tlvs, 3)

	require.Equal(t, []byte{0x9F, 0x02}, tlvs[0].Tag)
	require.Equal(t, 6, tlvs[0].Length)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00}, tlvs[0].Value)
	require.Equal(t, []byte{0x5A}, tlvs[1].Tag)
	require.Equal(t, 128, tlvs[2].Length)
	require.Equal(t, long, tlvs[2].Value)

	packed, err := iso8583.EMVTLV.Pack(tlvs)
	require.NoError(t, err)
	require.Equal(t, data, packed)

	// parsed entries do not alias the input
	data[3] = 0xFF
	require.Equal(t, byte(0x00), tlvs[0].Value[0])

	t.Run("lookup", func(t *testing.T) {
		pan, ok := iso8583.FindTLV(tlvs, []byte{0x5A})
		require.True(t, ok)
		require.Equal(t, 8, pan.Length)

		_, ok = iso8583.FindTLV(tlvs, []byte{0x9F, 0x36})
		require.False(t, ok)

		require.Len(t, iso8583.FilterTLV(tlvs, []byte{0x9F}), 2)
	})

	t.Run("map", func(t *testing.T) {
		m := iso8583.EMVTLV.TLVToMap(tlvs)
		require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00}, m["9F02"])
		require.Contains(t, m, "5A")

		back, err := iso8583.EMVTLV.MapToTLV(m)
		require.NoError(t, err)
		require.Equal(t, []byte{0x5A}, back[0].Tag)
		require.Equal(t, []byte{0x9F, 0x02}, back[1].Tag)
		require.Equal(t, []byte{0x9F, 0x10}, back[2].Tag)

		_, err = iso8583.EMVTLV.MapToTLV(map[string][]byte{"9F0": nil})
		require.ErrorIs(t, err, iso8583.ErrInvalidTLV)
	})
}

func TestEMVTLVErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		offset int
	}{
		{"truncated tag", []byte{0x9F}, 0},
		{"truncated multi byte tag", []byte{0x9F, 0x82}, 0},
		{"missing length", []byte{0x5A}, 1},
		{"truncated long length", []byte{0x5A, 0x82, 0x01}, 2},
		{"indefinite length", []byte{0x5A, 0x80}, 1},
		{"short value", []byte{0x5A, 0x08, 0x41}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iso8583.EMVTLV.Parse(tt.data)
			require.ErrorIs(t, err, iso8583.ErrInvalidTLV)

			var te *iso8583.TLVError
			require.True(t, errors.As(err, &te))
			require.Equal(t, tt.offset, te.Offset)
		})
	}

	_, err := iso8583.EMVTLV.Pack([]iso8583.TLV{{Value: []byte{1}}})
	require.ErrorIs(t, err, iso8583.ErrInvalidTLV)
}

func TestStandardTLV(t *testing.T) {
	tlvs := []iso8583.TLV{
		{Tag: []byte{0x01}, Value: []byte("abc")},
		{Tag: []byte{0x02}, Value: nil},
	}
	packed, err := iso8583.StandardTLV.Pack(tlvs)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x03, 'a', 'b', 'c', 0x02, 0x00}, packed)

	parsed, err := iso8583.StandardTLV.Parse(packed)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	require.Equal(t, 3, parsed[0].Length)
	require.Empty(t, parsed[1].Value)

	_, err = iso8583.StandardTLV.Parse([]byte{0x01})
	require.ErrorIs(t, err, iso8583.ErrInvalidTLV)

	_, err = iso8583.StandardTLV.Pack([]iso8583.TLV{{Tag: []byte{0x9F, 0x02}}})
	require.ErrorIs(t, err, iso8583.ErrInvalidTLV)

	_, err = iso8583.StandardTLV.Pack([]iso8583.TLV{{Tag: []byte{0x01}, Value: make([]byte, 256)}})
	require.ErrorIs(t, err, iso8583.ErrInvalidTLV)
}

func TestASCIITLV(t *testing.T) {
	t.Run("decimal lengths", func(t *testing.T) {
		codec := iso8583.ASCIITLV(2, 2, 10)
		tlvs, err := codec.Parse([]byte("AL04DataNM00"))
		require.NoError(t, err)
		require.Len(t, tlvs, 2)
		require.Equal(t, "AL", string(tlvs[0].Tag))
		require.Equal(t, "Data", string(tlvs[0].Value))

		packed, err := codec.Pack(tlvs)
		require.NoError(t, err)
		require.Equal(t, "AL04DataNM00", string(packed))

		m := codec.TLVToMap(tlvs)
		require.Equal(t, []byte("Data"), m["AL"])
	})

	t.Run("hex lengths", func(t *testing.T) {
		codec := iso8583.ASCIITLV(2, 2, 16)
		value := bytes.Repeat([]byte("z"), 26)
		packed, err := codec.Pack([]iso8583.TLV{{Tag: []byte("XY"), Value: value}})
		require.NoError(t, err)
		require.Equal(t, "XY1A"+string(value), string(packed))

		tlvs, err := codec.Parse(packed)
		require.NoError(t, err)
		require.Equal(t, 26, tlvs[0].Length)
	})

	t.Run("errors", func(t *testing.T) {
		codec := iso8583.ASCIITLV(2, 2, 10)
		for _, data := range []string{"A", "AL0", "ALxxData", "AL09Data"} {
			_, err := codec.Parse([]byte(data))
			require.ErrorIs(t, err, iso8583.ErrInvalidTLV, data)
		}

		_, err := codec.Pack([]iso8583.TLV{{Tag: []byte("ABC")}})
		require.ErrorIs(t, err, iso8583.ErrInvalidTLV)
		_, err = codec.Pack([]iso8583.TLV{{Tag: []byte("AB"), Value: make([]byte, 100)}})
		require.ErrorIs(t, err, iso8583.ErrInvalidTLV)

		_, err = iso8583.ASCIITLV(0, 2, 10).Parse([]byte("AL04Data"))
		require.ErrorIs(t, err, iso8583.ErrInvalidTLV)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := iso8583.TLVCodec{Type: 9}.Parse([]byte{1})
		require.ErrorIs(t, err, iso8583.ErrInvalidTLV)
	})
}

func TestMessageTLV(t *testing.T) {
	m := iso8583.NewMessage()
	tlvs := []iso8583.TLV{
		{Tag: []byte{0x9F, 0x26}, Value: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Tag: []byte{0x82}, Value: []byte{0x19, 0x80}},
	}
	require.NoError(t, m.SetTLV(55, iso8583.EMVTLV, tlvs))

	raw, ok := m.GetBytes(55)
	require.True(t, ok)
	require.Equal(t, []byte{0x9F, 0x26, 0x08}, raw[:3])

	got, err := m.GetTLV(55, iso8583.EMVTLV)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, tlvs[1].Value, got[1].Value)

	_, err = m.GetTLV(56, iso8583.EMVTLV)
	require.ErrorIs(t, err, iso8583.ErrNotLeaf)
}
