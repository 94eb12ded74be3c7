package isoutil

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// IBM-1047 maps every one of the 256 byte values onto ISO-8859-1, so the
// two tables below are exact inverses of each other.
var (
	asciiToEBCDIC [256]byte
	ebcdicToASCII [256]byte
)

func init() {
	cp := charmap.CodePage1047
	for i := 0; i < 256; i++ {
		r := cp.DecodeByte(byte(i))
		if r > 0xFF {
			continue
		}
		ebcdicToASCII[i] = byte(r)
		asciiToEBCDIC[byte(r)] = byte(i)
	}
}

// ASCIIToEBCDIC transcodes s to IBM-1047.
func ASCIIToEBCDIC(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = asciiToEBCDIC[s[i]]
	}
	return out
}

// ASCIIToEBCDICBytes transcodes b to IBM-1047 into a new slice.
func ASCIIToEBCDICBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = asciiToEBCDIC[c]
	}
	return out
}

// ASCIIToEBCDICInto writes the IBM-1047 form of src into dst and returns
// the number of bytes written.
func ASCIIToEBCDICInto(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrOutOfBounds, len(src), len(dst))
	}
	for i, c := range src {
		dst[i] = asciiToEBCDIC[c]
	}
	return len(src), nil
}

// EBCDICToASCII decodes length bytes of b starting at offset.
func EBCDICToASCII(b []byte, offset, length int) (string, error) {
	out, err := EBCDICToASCIIBytes(b, offset, length)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EBCDICToASCIIBytes decodes length bytes of b starting at offset.
func EBCDICToASCIIBytes(b []byte, offset, length int) ([]byte, error) {
	if err := checkRange(len(b), offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = ebcdicToASCII[b[offset+i]]
	}
	return out, nil
}

func checkRange(size, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > size {
		return fmt.Errorf("%w: offset %d length %d in %d bytes", ErrOutOfBounds, offset, length, size)
	}
	return nil
}
