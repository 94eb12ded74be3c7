package iso8583

import "fmt"

// Padder widens a value to a fixed length on pack. Unpad strips the
// padding again; it is applied to variable length values only.
type Padder interface {
	Pad(data []byte, maxLength int) ([]byte, error)
	Unpad(data []byte) []byte
}

var (
	// ZeroPadder left pads numeric values with '0'.
	ZeroPadder Padder = LeftPadder{pad: '0'}
	// SpacePadder right pads character values with blanks.
	SpacePadder Padder = RightPadder{pad: ' '}
	// SpaceTPadder right pads with blanks and truncates values that are
	// too long instead of failing.
	SpaceTPadder Padder = RightTPadder{pad: ' '}
	NullPadder   Padder = nullPadder{}
)

func tooLong(got, max int) error {
	return fmt.Errorf("%w: %d bytes. max = %d", ErrValueTooLong, got, max)
}

type LeftPadder struct {
	pad byte
}

func NewLeftPadder(pad byte) LeftPadder {
	return LeftPadder{pad: pad}
}

func (p LeftPadder) Pad(data []byte, maxLength int) ([]byte, error) {
	if len(data) > maxLength {
		return nil, tooLong(len(data), maxLength)
	}
	out := make([]byte, maxLength)
	n := maxLength - len(data)
	for i := 0; i < n; i++ {
		out[i] = p.pad
	}
	copy(out[n:], data)
	return out, nil
}

// Unpad strips every leading pad byte; a value made only of padding
// becomes empty.
func (p LeftPadder) Unpad(data []byte) []byte {
	i := 0
	for i < len(data) && data[i] == p.pad {
		i++
	}
	return data[i:]
}

type RightPadder struct {
	pad byte
}

func NewRightPadder(pad byte) RightPadder {
	return RightPadder{pad: pad}
}

func (p RightPadder) Pad(data []byte, maxLength int) ([]byte, error) {
	if len(data) > maxLength {
		return nil, tooLong(len(data), maxLength)
	}
	out := make([]byte, maxLength)
	copy(out, data)
	for i := len(data); i < maxLength; i++ {
		out[i] = p.pad
	}
	return out, nil
}

func (p RightPadder) Unpad(data []byte) []byte {
	i := len(data)
	for i > 0 && data[i-1] == p.pad {
		i--
	}
	return data[:i]
}

// RightTPadder is a RightPadder that truncates values longer than the
// field.
type RightTPadder struct {
	pad byte
}

func NewRightTPadder(pad byte) RightTPadder {
	return RightTPadder{pad: pad}
}

func (p RightTPadder) Pad(data []byte, maxLength int) ([]byte, error) {
	if len(data) > maxLength {
		data = data[:maxLength]
	}
	return RightPadder(p).Pad(data, maxLength)
}

func (p RightTPadder) Unpad(data []byte) []byte {
	return RightPadder(p).Unpad(data)
}

type nullPadder struct{}

func (nullPadder) Pad(data []byte, _ int) ([]byte, error) { return data, nil }

func (nullPadder) Unpad(data []byte) []byte { return data }
