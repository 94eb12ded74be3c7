package iso8583

import (
	"errors"
	"fmt"
	"strconv"
)

// Builder assembles a message with chained setters and reports every
// failure at Build time.
type Builder struct {
	msg  *Message
	errs []error
}

func NewBuilder(opts ...MessageOption) *Builder {
	return &Builder{msg: NewMessage(opts...)}
}

func (b *Builder) fail(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

// MTI sets a four digit message type indicator.
func (b *Builder) MTI(mti string) *Builder {
	if len(mti) != 4 {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidMTI, mti))
	}
	if _, err := strconv.ParseUint(mti, 10, 16); err != nil {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidMTI, mti))
	}
	if err := b.msg.SetMTI(mti); err != nil {
		return b.fail(err)
	}
	return b
}

// Field sets a value at a dotted path such as "3" or "127.2".
func (b *Builder) Field(path string, value any) *Builder {
	if err := b.msg.SetPath(path, value); err != nil {
		return b.fail(fmt.Errorf("field %s: %w", path, err))
	}
	return b
}

func (b *Builder) PAN(pan string) *Builder { return b.Field("2", pan) }

func (b *Builder) ProcessingCode(code string) *Builder { return b.Field("3", code) }

func (b *Builder) Amount(amount string) *Builder { return b.Field("4", amount) }

func (b *Builder) STAN(stan string) *Builder { return b.Field("11", stan) }

func (b *Builder) Header(header []byte) *Builder {
	b.msg.SetHeader(header)
	return b
}

// Build returns the message, or all collected errors joined. The builder
// must not be used afterwards.
func (b *Builder) Build() (*Message, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	m := b.msg
	b.msg = nil
	return m, nil
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *Message {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
