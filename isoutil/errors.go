package isoutil

import "errors"

var (
	// ErrOutOfBounds is returned when an offset or length reaches past the
	// end of the supplied buffer. Reads and writes are never clamped.
	ErrOutOfBounds = errors.New("offset or length out of bounds")

	ErrInvalidDigit = errors.New("invalid character found, expected digit")
	ErrInvalidHex   = errors.New("invalid hex string")
)
