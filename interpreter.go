package iso8583

import (
	"fmt"

	"github.com/mkadit/iso8583-packager/isoutil"
)

// Interpreter converts a logical value to and from its wire encoding.
// Implementations are stateless and safe for concurrent use.
type Interpreter interface {
	// Interpret encodes data into the first PackedLength(len(data)) bytes
	// of dst.
	Interpret(data, dst []byte) error
	// Uninterpret decodes length logical units from raw starting at offset.
	Uninterpret(raw []byte, offset, length int) ([]byte, error)
	// PackedLength returns the wire size of n logical units.
	PackedLength(n int) int
}

var (
	// LiteralInterpreter copies bytes unchanged.
	LiteralInterpreter Interpreter = literalInterpreter{}
	// ASCIIInterpreter writes character data as ISO-8859-1 bytes, which on
	// the Go side is the identity.
	ASCIIInterpreter Interpreter = literalInterpreter{}
	// BinaryInterpreter carries raw binary values unchanged.
	BinaryInterpreter Interpreter = literalInterpreter{}

	EBCDICInterpreter Interpreter = ebcdicInterpreter{}

	// Packed BCD. LeftPadded variants put the spare nibble of an odd length
	// value first; F variants fill it with 0xF instead of 0x0.
	BCDLeftPadded   Interpreter = bcdInterpreter{padLeft: true}
	BCDRightPadded  Interpreter = bcdInterpreter{}
	BCDLeftPaddedF  Interpreter = bcdInterpreter{padLeft: true, fill: 0x0F}
	BCDRightPaddedF Interpreter = bcdInterpreter{fill: 0x0F}

	// ASCIIHexInterpreter writes each byte as two upper case ASCII hex digits.
	ASCIIHexInterpreter Interpreter = asciiHexInterpreter{}
	// EBCDICHexInterpreter writes each byte as two EBCDIC hex digits.
	EBCDICHexInterpreter Interpreter = ebcdicHexInterpreter{}
)

func checkDst(dst []byte, need int) error {
	if len(dst) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, len(dst))
	}
	return nil
}

func checkSrc(raw []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > len(raw) {
		return fmt.Errorf("%w: reading %d bytes at offset %d of %d", ErrOutOfBounds, n, offset, len(raw))
	}
	return nil
}

type literalInterpreter struct{}

func (literalInterpreter) Interpret(data, dst []byte) error {
	if err := checkDst(dst, len(data)); err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (literalInterpreter) Uninterpret(raw []byte, offset, length int) ([]byte, error) {
	if err := checkSrc(raw, offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, raw[offset:])
	return out, nil
}

func (literalInterpreter) PackedLength(n int) int { return n }

type ebcdicInterpreter struct{}

func (ebcdicInterpreter) Interpret(data, dst []byte) error {
	_, err := isoutil.ASCIIToEBCDICInto(dst, data)
	return err
}

func (ebcdicInterpreter) Uninterpret(raw []byte, offset, length int) ([]byte, error) {
	return isoutil.EBCDICToASCIIBytes(raw, offset, length)
}

func (ebcdicInterpreter) PackedLength(n int) int { return n }

type bcdInterpreter struct {
	padLeft bool
	fill    byte
}

func (bi bcdInterpreter) Interpret(data, dst []byte) error {
	return isoutil.PutBCD(dst, string(data), bi.padLeft, bi.fill)
}

func (bi bcdInterpreter) Uninterpret(raw []byte, offset, length int) ([]byte, error) {
	s, err := isoutil.BCDToStr(raw, offset, length, bi.padLeft)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (bcdInterpreter) PackedLength(n int) int { return isoutil.BCDLen(n) }

type asciiHexInterpreter struct{}

func (asciiHexInterpreter) Interpret(data, dst []byte) error {
	if err := checkDst(dst, len(data)*2); err != nil {
		return err
	}
	isoutil.PutHex(dst, data)
	return nil
}

// Uninterpret reads length bytes, that is 2*length hex digits.
func (asciiHexInterpreter) Uninterpret(raw []byte, offset, length int) ([]byte, error) {
	return isoutil.HexDecode(raw, offset, length)
}

func (asciiHexInterpreter) PackedLength(n int) int { return n * 2 }

type ebcdicHexInterpreter struct{}

func (ebcdicHexInterpreter) Interpret(data, dst []byte) error {
	if err := checkDst(dst, len(data)*2); err != nil {
		return err
	}
	hex := make([]byte, len(data)*2)
	isoutil.PutHex(hex, data)
	_, err := isoutil.ASCIIToEBCDICInto(dst, hex)
	return err
}

func (ebcdicHexInterpreter) Uninterpret(raw []byte, offset, length int) ([]byte, error) {
	hex, err := isoutil.EBCDICToASCIIBytes(raw, offset, length*2)
	if err != nil {
		return nil, err
	}
	return isoutil.HexDecode(hex, 0, length)
}

func (ebcdicHexInterpreter) PackedLength(n int) int { return n * 2 }

// NewAmountInterpreter encodes a signed amount such as "C00001000": the C
// or D sign goes through sign, the remaining digits through digits.
func NewAmountInterpreter(sign, digits Interpreter) Interpreter {
	return amountInterpreter{sign: sign, digits: digits}
}

type amountInterpreter struct {
	sign   Interpreter
	digits Interpreter
}

func (ai amountInterpreter) Interpret(data, dst []byte) error {
	if len(data) == 0 || (data[0] != 'C' && data[0] != 'D') {
		return fmt.Errorf("%w: amount must start with C or D", ErrInvalidValue)
	}
	n := ai.sign.PackedLength(1)
	if err := checkDst(dst, n); err != nil {
		return err
	}
	if err := ai.sign.Interpret(data[:1], dst); err != nil {
		return err
	}
	return ai.digits.Interpret(data[1:], dst[n:])
}

func (ai amountInterpreter) Uninterpret(raw []byte, offset, length int) ([]byte, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: amount needs a sign", ErrInvalidLength)
	}
	sign, err := ai.sign.Uninterpret(raw, offset, 1)
	if err != nil {
		return nil, err
	}
	digits, err := ai.digits.Uninterpret(raw, offset+ai.sign.PackedLength(1), length-1)
	if err != nil {
		return nil, err
	}
	return append(sign, digits...), nil
}

func (ai amountInterpreter) PackedLength(n int) int {
	if n < 1 {
		return 0
	}
	return ai.sign.PackedLength(1) + ai.digits.PackedLength(n-1)
}
