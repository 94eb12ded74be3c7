package iso8583

import (
	"fmt"
	"io"

	"github.com/mkadit/iso8583-packager/isoutil"
)

// LengthIndicator is the frame length written ahead of each message on a
// stream connection. It counts the message bytes only, not itself.
type LengthIndicator int

const (
	LengthNone    LengthIndicator = iota
	LengthBinary2                 // 2 byte big-endian
	LengthBinary4                 // 4 byte big-endian
	LengthASCII4                  // "0048"
	LengthHex4                    // "0030", ASCII hex
	LengthEBCDIC4                 // F0 F0 F4 F8
)

// MaxFrameLength bounds the message size ReadFrame will allocate for.
const MaxFrameLength = 1 << 20

var lengthIndicatorNames = map[LengthIndicator]string{
	LengthNone:    "none",
	LengthBinary2: "binary2",
	LengthBinary4: "binary4",
	LengthASCII4:  "ascii4",
	LengthHex4:    "hex4",
	LengthEBCDIC4: "ebcdic4",
}

func (li LengthIndicator) String() string {
	if s, ok := lengthIndicatorNames[li]; ok {
		return s
	}
	return fmt.Sprintf("LengthIndicator(%d)", int(li))
}

// ParseLengthIndicator maps a name such as "ascii4" to its indicator.
func ParseLengthIndicator(name string) (LengthIndicator, error) {
	for li, s := range lengthIndicatorNames {
		if s == name {
			return li, nil
		}
	}
	return LengthNone, fmt.Errorf("%w: unknown length indicator %q", ErrInvalidHeader, name)
}

func (li LengthIndicator) prefixer() Prefixer {
	switch li {
	case LengthBinary2:
		return BinaryPrefixerBB
	case LengthBinary4:
		return binaryPrefixer{size: 4}
	case LengthASCII4:
		return ASCIIPrefixers.LLLL
	case LengthHex4:
		return hexLengthPrefixer{}
	case LengthEBCDIC4:
		return EBCDICPrefixers.LLLL
	default:
		return NullPrefixer
	}
}

// Size is the number of bytes the indicator occupies.
func (li LengthIndicator) Size() int { return li.prefixer().PackedLength() }

// Write encodes msgLen into the first Size() bytes of dst.
func (li LengthIndicator) Write(msgLen int, dst []byte) error {
	return li.prefixer().EncodeLength(msgLen, dst)
}

// Read decodes the indicator at the start of b.
func (li LengthIndicator) Read(b []byte) (int, error) {
	if li == LengthNone {
		return len(b), nil
	}
	return li.prefixer().DecodeLength(b, 0)
}

// WriteFrame writes the indicator and msg with a single Write call.
func (li LengthIndicator) WriteFrame(w io.Writer, msg []byte) error {
	size := li.Size()
	frame := make([]byte, size+len(msg))
	if err := li.Write(len(msg), frame); err != nil {
		return err
	}
	copy(frame[size:], msg)
	_, err := w.Write(frame)
	return err
}

// ReadFrame reads one indicator and the message it announces. It returns
// io.EOF only when r ends cleanly before a new frame.
func (li LengthIndicator) ReadFrame(r io.Reader) ([]byte, error) {
	if li == LengthNone {
		return nil, fmt.Errorf("%w: cannot frame a stream without a length indicator", ErrInvalidHeader)
	}
	head := make([]byte, li.Size())
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	n, err := li.Read(head)
	if err != nil {
		return nil, err
	}
	if n > MaxFrameLength {
		return nil, fmt.Errorf("%w: frame of %d bytes. max = %d", ErrInvalidLength, n, MaxFrameLength)
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(r, msg); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return msg, nil
}

// hexLengthPrefixer writes a length below 0x10000 as four ASCII hex digits.
type hexLengthPrefixer struct{}

func (hexLengthPrefixer) EncodeLength(length int, dst []byte) error {
	if length < 0 || length > 0xFFFF {
		return fmt.Errorf("%w: invalid len %d. max = 65535", ErrInvalidLength, length)
	}
	if err := checkDst(dst, 4); err != nil {
		return err
	}
	isoutil.PutHex(dst, []byte{byte(length >> 8), byte(length)})
	return nil
}

func (hexLengthPrefixer) DecodeLength(b []byte, offset int) (int, error) {
	v, err := isoutil.HexDecode(b, offset, 2)
	if err != nil {
		return 0, err
	}
	return int(v[0])<<8 | int(v[1]), nil
}

func (hexLengthPrefixer) PackedLength() int { return 4 }
