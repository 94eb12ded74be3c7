package isoutil

import "fmt"

// BCDLen returns the number of packed bytes needed for n digits.
func BCDLen(n int) int {
	return (n + 1) / 2
}

// StrToBCD packs s two digits per byte. When s has an odd length the
// spare nibble is zero, on the left when padLeft is set and on the right
// otherwise.
func StrToBCD(s string, padLeft bool) ([]byte, error) {
	return StrToBCDFill(s, padLeft, 0)
}

// StrToBCDFill is StrToBCD with an explicit filler nibble, typically 0xF.
// Besides decimal digits it accepts '=' (packed as 0xD, the track 2
// separator) and the hex letters A-F.
func StrToBCDFill(s string, padLeft bool, fill byte) ([]byte, error) {
	d := make([]byte, BCDLen(len(s)))
	if err := PutBCD(d, s, padLeft, fill); err != nil {
		return nil, err
	}
	return d, nil
}

// PutBCD packs s into dst, which must hold at least BCDLen(len(s)) bytes.
func PutBCD(dst []byte, s string, padLeft bool, fill byte) error {
	n := len(s)
	if len(dst) < BCDLen(n) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrOutOfBounds, BCDLen(n), len(dst))
	}
	if n == 0 {
		return nil
	}
	for i := 0; i < BCDLen(n); i++ {
		dst[i] = 0
	}

	fill &= 0x0F
	start := 0
	if n&1 == 1 && padLeft {
		start = 1
		dst[0] = fill << 4
	}

	i := start
	for ; i < n+start; i++ {
		nibble, err := bcdNibble(s[i-start])
		if err != nil {
			return fmt.Errorf("%w: %q at position %d", err, s[i-start], i-start)
		}
		if i&1 == 1 {
			dst[i>>1] |= nibble
		} else {
			dst[i>>1] |= nibble << 4
		}
	}
	if i&1 == 1 {
		dst[i>>1] |= fill
	}
	return nil
}

func bcdNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c == '=':
		return 0x0D, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, ErrInvalidDigit
}

// BCDToStr unpacks length digits from b starting at offset. padLeft must
// match the value used when packing so odd lengths skip the right nibble.
// Nibble 0xD comes back as '='; other non-decimal nibbles as upper case hex.
func BCDToStr(b []byte, offset, length int, padLeft bool) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: negative length %d", ErrOutOfBounds, length)
	}
	start := 0
	if length&1 == 1 && padLeft {
		start = 1
	}
	if err := checkRange(len(b), offset, BCDLen(length+start)); err != nil {
		return "", err
	}

	d := make([]byte, length)
	for i := start; i < length+start; i++ {
		shift := 4
		if i&1 == 1 {
			shift = 0
		}
		nibble := b[offset+(i>>1)] >> shift & 0x0F
		if nibble == 0x0D {
			d[i-start] = '='
			continue
		}
		d[i-start] = hexDigits[nibble]
	}
	return string(d), nil
}
