package iso8583

import "log/slog"

// MessageOption represents a functional option for message configuration
type MessageOption func(*Message)

// WithPackager binds the packager used by Message.Pack and Message.Unpack
func WithPackager(packager *MessagePackager) MessageOption {
	return func(m *Message) {
		m.packager = packager
	}
}

// WithHeader sets the header for a message
func WithHeader(header []byte) MessageOption {
	return func(m *Message) {
		m.SetHeader(header)
	}
}

// WithMTI sets the Message Type Indicator. The error from SetMTI is
// ignored, so the option does nothing on inner messages; use a Builder to
// collect errors.
func WithMTI(mti string) MessageOption {
	return func(m *Message) {
		_ = m.SetMTI(mti)
	}
}

func WithDirection(d Direction) MessageOption {
	return func(m *Message) {
		m.direction = d
	}
}

// WithField sets a field by dotted path during message creation. Invalid
// paths are ignored; use a Builder to collect errors.
func WithField(path string, value any) MessageOption {
	return func(m *Message) {
		_ = m.SetPath(path, value)
	}
}

// WithFields sets multiple fields during message creation
func WithFields(fields map[string]any) MessageOption {
	return func(m *Message) {
		for path, value := range fields {
			_ = m.SetPath(path, value)
		}
	}
}

// PackagerOption represents a functional option for packager configuration
type PackagerOption func(*MessagePackager)

// WithHeaderLength makes the packager read and write n opaque header bytes
// ahead of the MTI.
func WithHeaderLength(n int) PackagerOption {
	return func(p *MessagePackager) {
		p.headerLength = n
	}
}

func WithDescription(description string) PackagerOption {
	return func(p *MessagePackager) {
		p.description = description
	}
}

// WithLogger sets the logger used for pack and unpack diagnostics. It
// defaults to slog.Default().
func WithLogger(logger *slog.Logger) PackagerOption {
	return func(p *MessagePackager) {
		if logger != nil {
			p.logger = logger
		}
	}
}
