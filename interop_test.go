package iso8583_test

import (
	"testing"

	"github.com/mkadit/iso8583-packager"
	moov "github.com/moov-io/iso8583"
	"github.com/moov-io/iso8583/encoding"
	"github.com/moov-io/iso8583/field"
	"github.com/moov-io/iso8583/prefix"
	"github.com/stretchr/testify/require"
)

// The wire formats shared with moov-io/iso8583 must be byte compatible.

func TestInterpretersMatchMoov(t *testing.T) {
	tests := []struct {
		name  string
		ours  iso8583.Interpreter
		moov  encoding.Encoder
		value string
	}{
		{"ascii", iso8583.ASCIIInterpreter, encoding.ASCII, "HELLO 123"},
		{"bcd even", iso8583.BCDLeftPadded, encoding.BCD, "4111111111111111"},
		{"bcd odd", iso8583.BCDLeftPadded, encoding.BCD, "12345"},
		{"ebcdic", iso8583.EBCDICInterpreter, encoding.EBCDIC, "TERM0001 ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := tt.moov.Encode([]byte(tt.value))
			require.NoError(t, err)

			got := make([]byte, tt.ours.PackedLength(len(tt.value)))
			require.NoError(t, tt.ours.Interpret([]byte(tt.value), got))
			require.Equal(t, want, got)

			decoded, read, err := tt.moov.Decode(got, len(tt.value))
			require.NoError(t, err)
			require.Equal(t, len(got), read)

			ours, err := tt.ours.Uninterpret(want, 0, len(tt.value))
			require.NoError(t, err)
			require.Equal(t, decoded, ours)
		})
	}

	t.Run("ascii hex", func(t *testing.T) {
		raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		want, err := encoding.BytesToASCIIHex.Encode(raw)
		require.NoError(t, err)

		got := make([]byte, iso8583.ASCIIHexInterpreter.PackedLength(len(raw)))
		require.NoError(t, iso8583.ASCIIHexInterpreter.Interpret(raw, got))
		require.Equal(t, want, got)
	})
}

func TestPrefixersMatchMoov(t *testing.T) {
	tests := []struct {
		name   string
		ours   iso8583.Prefixer
		moov   prefix.Prefixer
		maxLen int
		length int
	}{
		{"ascii LL", iso8583.ASCIIPrefixers.LL, prefix.ASCII.LL, 99, 16},
		{"ascii LLL", iso8583.ASCIIPrefixers.LLL, prefix.ASCII.LLL, 999, 104},
		{"bcd LL", iso8583.BCDPrefixers.LL, prefix.BCD.LL, 99, 37},
		{"bcd LLL", iso8583.BCDPrefixers.LLL, prefix.BCD.LLL, 999, 123},
		{"ebcdic LL", iso8583.EBCDICPrefixers.LL, prefix.EBCDIC.LL, 99, 28},
		{"binary L", iso8583.BinaryPrefixerB, prefix.Binary.L, 255, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := tt.moov.EncodeLength(tt.maxLen, tt.length)
			require.NoError(t, err)

			got := make([]byte, tt.ours.PackedLength())
			require.NoError(t, tt.ours.EncodeLength(tt.length, got))
			require.Equal(t, want, got)

			n, err := tt.ours.DecodeLength(want, 0)
			require.NoError(t, err)
			require.Equal(t, tt.length, n)
		})
	}
}

var moovSpec = &moov.MessageSpec{
	Name: "ISO 8583 v1987 ASCII",
	Fields: map[int]field.Field{
		0: field.NewString(&field.Spec{
			Length:      4,
			Description: "Message Type Indicator",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		1: field.NewBitmap(&field.Spec{
			Length:      8,
			Description: "Bitmap",
			Enc:         encoding.BytesToASCIIHex,
			Pref:        prefix.Hex.Fixed,
		}),
		2: field.NewString(&field.Spec{
			Length:      19,
			Description: "Primary Account Number",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.LL,
		}),
		3: field.NewString(&field.Spec{
			Length:      6,
			Description: "Processing Code",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		11: field.NewString(&field.Spec{
			Length:      6,
			Description: "Systems Trace Audit Number (STAN)",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		41: field.NewString(&field.Spec{
			Length:      8,
			Description: "Card Acceptor Terminal Identification",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		70: field.NewString(&field.Spec{
			Length:      3,
			Description: "Network Management Information Code",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
	},
}

func TestMessageMatchesMoov(t *testing.T) {
	values := map[int]string{
		2:  "4111111111111111",
		3:  "301000",
		11: "123456",
		41: "TERM0001",
		70: "301",
	}

	theirs := moov.NewMessage(moovSpec)
	theirs.MTI("0800")
	for n, v := range values {
		require.NoError(t, theirs.Field(n, v))
	}
	theirPacked, err := theirs.Pack()
	require.NoError(t, err)

	p := iso8583.ISO87APackager()
	ours := p.CreateMessage()
	require.NoError(t, ours.SetMTI("0800"))
	for n, v := range values {
		require.NoError(t, ours.Set(n, v))
	}
	ourPacked, err := ours.Pack()
	require.NoError(t, err)
	require.Equal(t, string(theirPacked), string(ourPacked))

	t.Run("unpack theirs", func(t *testing.T) {
		m := p.CreateMessage()
		_, err := m.Unpack(theirPacked)
		require.NoError(t, err)
		for n, want := range values {
			got, _ := m.GetString(n)
			require.Equal(t, want, got, "field %d", n)
		}
	})

	t.Run("unpack ours", func(t *testing.T) {
		m := moov.NewMessage(moovSpec)
		require.NoError(t, m.Unpack(ourPacked))
		mti, err := m.GetMTI()
		require.NoError(t, err)
		require.Equal(t, "0800", mti)
		for n, want := range values {
			got, err := m.GetString(n)
			require.NoError(t, err)
			require.Equal(t, want, got, "field %d", n)
		}
	})
}
