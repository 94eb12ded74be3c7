package iso8583

import (
	"errors"
	"fmt"

	"github.com/mkadit/iso8583-packager/isoutil"
)

var (
	ErrOutOfBounds  = isoutil.ErrOutOfBounds
	ErrInvalidDigit = isoutil.ErrInvalidDigit
	ErrInvalidHex   = isoutil.ErrInvalidHex

	ErrInvalidMTI     = errors.New("invalid MTI")
	ErrMissingMTI     = errors.New("MTI not available")
	ErrMissingField   = errors.New("mandatory field missing")
	ErrInnerMTI       = errors.New("MTI not available on inner message")
	ErrInvalidField   = errors.New("invalid field number")
	ErrInvalidValue   = errors.New("unsupported value type")
	ErrInvalidLength  = errors.New("invalid length")
	ErrValueTooLong   = errors.New("data is too long")
	ErrBitmapCapacity = errors.New("bitmap capacity exceeded")
	ErrTagMismatch    = errors.New("field tag mismatch")
	ErrInvalidTLV     = errors.New("invalid TLV data")
	ErrInvalidHeader  = errors.New("invalid header")
	ErrBufferTooSmall = fmt.Errorf("%w: buffer too small", ErrOutOfBounds)

	ErrValidationFailed = errors.New("validation failed")

	ErrNoPackagerConfigured = errors.New("no packager configured")
	ErrFieldNotConfigured   = errors.New("field not configured")
	ErrNotSubField          = errors.New("this is not a subField")
	ErrNotLeaf              = errors.New("not available on composite")
	ErrNotComposite         = errors.New("not available on leaf")
	ErrUnknownFieldType     = errors.New("unknown field type")
)

// FieldError attaches the failing field to an error raised while packing
// or unpacking it.
type FieldError struct {
	Field       int
	Description string
	Op          string // "pack" or "unpack"
	Offset      int    // wire offset where the field starts, unpack only
	Err         error
}

func (fe *FieldError) Error() string {
	if fe.Op == "unpack" {
		return fmt.Sprintf("error unpacking field %d (%s) at offset %d: %v", fe.Field, fe.Description, fe.Offset, fe.Err)
	}
	return fmt.Sprintf("error packing field %d (%s): %v", fe.Field, fe.Description, fe.Err)
}

func (fe *FieldError) Unwrap() error {
	return fe.Err
}

type ValidationError struct {
	Path    string
	Rule    string
	Message string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s (%s): %s", ve.Path, ve.Rule, ve.Message)
}

func (ve *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

type TLVError struct {
	Tag    []byte
	Offset int
	Err    error
}

func (te *TLVError) Error() string {
	return fmt.Sprintf("TLV tag %X at offset %d: %v", te.Tag, te.Offset, te.Err)
}

func (te *TLVError) Unwrap() error {
	return te.Err
}
