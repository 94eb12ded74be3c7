package iso8583

import "fmt"

// Prefixer encodes the length of a variable length field ahead of its
// value. Implementations are stateless and safe for concurrent use.
type Prefixer interface {
	// EncodeLength writes length into the first PackedLength() bytes of dst.
	EncodeLength(length int, dst []byte) error
	// DecodeLength reads a length at offset. It returns -1 when the
	// prefixer carries no length (fixed length fields).
	DecodeLength(b []byte, offset int) (int, error)
	// PackedLength is the size of the prefix on the wire.
	PackedLength() int
}

// Prefixers groups the 1 to 6 digit prefixes of one alphabet.
type Prefixers struct {
	L, LL, LLL, LLLL, LLLLL, LLLLLL Prefixer
}

var (
	ASCIIPrefixers  = digitPrefixers(func(n int) Prefixer { return asciiPrefixer{digits: n} })
	EBCDICPrefixers = digitPrefixers(func(n int) Prefixer { return ebcdicPrefixer{digits: n} })
	BCDPrefixers    = digitPrefixers(func(n int) Prefixer { return bcdPrefixer{digits: n} })

	// BinaryPrefixerB and BinaryPrefixerBB hold the length as a one or two
	// byte unsigned big-endian integer.
	BinaryPrefixerB  Prefixer = binaryPrefixer{size: 1}
	BinaryPrefixerBB Prefixer = binaryPrefixer{size: 2}

	// NullPrefixer marks a fixed length field.
	NullPrefixer Prefixer = nullPrefixer{}
)

func digitPrefixers(newFn func(int) Prefixer) Prefixers {
	return Prefixers{
		L:      newFn(1),
		LL:     newFn(2),
		LLL:    newFn(3),
		LLLL:   newFn(4),
		LLLLL:  newFn(5),
		LLLLLL: newFn(6),
	}
}

// isFixed reports whether p carries no length.
func isFixed(p Prefixer) bool {
	_, ok := p.(nullPrefixer)
	return ok
}

func invalidLen(length, digits int) error {
	return fmt.Errorf("%w: invalid len %d. Prefixing digits = %d", ErrInvalidLength, length, digits)
}

func invalidDigit(b []byte, pos int) error {
	return fmt.Errorf("%w: 0x%02X at offset %d", ErrInvalidDigit, b[pos], pos)
}

type asciiPrefixer struct {
	digits int
}

// EncodeLength writes every digit position before reporting a length that
// does not fit, so dst holds the low order digits on failure.
func (p asciiPrefixer) EncodeLength(length int, dst []byte) error {
	if length < 0 {
		return invalidLen(length, p.digits)
	}
	if err := checkDst(dst, p.digits); err != nil {
		return err
	}
	n := length
	for i := p.digits - 1; i >= 0; i-- {
		dst[i] = byte(n%10) + '0'
		n /= 10
	}
	if n != 0 {
		return invalidLen(length, p.digits)
	}
	return nil
}

func (p asciiPrefixer) DecodeLength(b []byte, offset int) (int, error) {
	if err := checkSrc(b, offset, p.digits); err != nil {
		return 0, err
	}
	n := 0
	for i := offset; i < offset+p.digits; i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0, invalidDigit(b, i)
		}
		n = n*10 + int(b[i]-'0')
	}
	return n, nil
}

func (p asciiPrefixer) PackedLength() int { return p.digits }

type ebcdicPrefixer struct {
	digits int
}

func (p ebcdicPrefixer) EncodeLength(length int, dst []byte) error {
	if length < 0 {
		return invalidLen(length, p.digits)
	}
	if err := checkDst(dst, p.digits); err != nil {
		return err
	}
	n := length
	for i := p.digits - 1; i >= 0; i-- {
		dst[i] = 0xF0 | byte(n%10)
		n /= 10
	}
	if n != 0 {
		return invalidLen(length, p.digits)
	}
	return nil
}

func (p ebcdicPrefixer) DecodeLength(b []byte, offset int) (int, error) {
	if err := checkSrc(b, offset, p.digits); err != nil {
		return 0, err
	}
	n := 0
	for i := offset; i < offset+p.digits; i++ {
		if b[i] < 0xF0 || b[i] > 0xF9 {
			return 0, invalidDigit(b, i)
		}
		n = n*10 + int(b[i]&0x0F)
	}
	return n, nil
}

func (p ebcdicPrefixer) PackedLength() int { return p.digits }

type bcdPrefixer struct {
	digits int
}

func (p bcdPrefixer) EncodeLength(length int, dst []byte) error {
	if length < 0 {
		return invalidLen(length, p.digits)
	}
	size := p.PackedLength()
	if err := checkDst(dst, size); err != nil {
		return err
	}
	n := length
	for i := size - 1; i >= 0; i-- {
		twoDigits := n % 100
		n /= 100
		dst[i] = byte(twoDigits/10)<<4 | byte(twoDigits%10)
	}
	if n != 0 || length >= pow10(p.digits) {
		return invalidLen(length, p.digits)
	}
	return nil
}

func (p bcdPrefixer) DecodeLength(b []byte, offset int) (int, error) {
	size := p.PackedLength()
	if err := checkSrc(b, offset, size); err != nil {
		return 0, err
	}
	n := 0
	for i := offset; i < offset+size; i++ {
		hi, lo := b[i]>>4, b[i]&0x0F
		if hi > 9 || lo > 9 {
			return 0, invalidDigit(b, i)
		}
		n = n*100 + int(hi)*10 + int(lo)
	}
	return n, nil
}

func (p bcdPrefixer) PackedLength() int { return (p.digits + 1) / 2 }

func pow10(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

type binaryPrefixer struct {
	size int
}

func (p binaryPrefixer) EncodeLength(length int, dst []byte) error {
	if length < 0 || length >= 1<<(8*p.size) {
		return fmt.Errorf("%w: invalid len %d. Prefixing bytes = %d", ErrInvalidLength, length, p.size)
	}
	if err := checkDst(dst, p.size); err != nil {
		return err
	}
	for i := p.size - 1; i >= 0; i-- {
		dst[i] = byte(length)
		length >>= 8
	}
	return nil
}

func (p binaryPrefixer) DecodeLength(b []byte, offset int) (int, error) {
	if err := checkSrc(b, offset, p.size); err != nil {
		return 0, err
	}
	n := 0
	for i := offset; i < offset+p.size; i++ {
		n = n<<8 | int(b[i])
	}
	return n, nil
}

func (p binaryPrefixer) PackedLength() int { return p.size }

type nullPrefixer struct{}

func (nullPrefixer) EncodeLength(int, []byte) error { return nil }

func (nullPrefixer) DecodeLength([]byte, int) (int, error) { return -1, nil }

func (nullPrefixer) PackedLength() int { return 0 }
