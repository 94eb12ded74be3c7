package isoutil

import "fmt"

const hexDigits = "0123456789ABCDEF"

// HexString returns the upper case hex dump of b. The result is always
// exactly twice as long as b.
func HexString(b []byte) string {
	out := make([]byte, len(b)*2)
	PutHex(out, b)
	return string(out)
}

// PutHex writes the upper case hex form of src into dst.
func PutHex(dst, src []byte) {
	for i, v := range src {
		dst[i*2] = hexDigits[v>>4]
		dst[i*2+1] = hexDigits[v&0x0F]
	}
}

// HexToBytes parses an even length hex string, either case.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHex, len(s))
	}
	return HexDecode([]byte(s), 0, len(s)/2)
}

// HexDecode reads n bytes worth of hex digits (2n characters) from b
// starting at offset.
func HexDecode(b []byte, offset, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrOutOfBounds, n)
	}
	if err := checkRange(len(b), offset, n*2); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		hi, ok1 := fromHexChar(b[offset+i*2])
		lo, ok2 := fromHexChar(b[offset+i*2+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, b[offset+i*2:offset+i*2+2], offset+i*2)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
