package iso8583

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Processor unpacks raw messages on a bounded number of goroutines, all
// sharing one MessagePackager.
type Processor struct {
	packager     *MessagePackager
	validator    *Validator
	concurrency  int
	errorHandler func(error)
	logger       *slog.Logger
}

type ProcessorOption func(*Processor)

// WithConcurrency caps the number of messages unpacked at once.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithErrorHandler is called for every message that fails during batch or
// stream processing.
func WithErrorHandler(handler func(error)) ProcessorOption {
	return func(p *Processor) {
		p.errorHandler = handler
	}
}

// WithValidator runs v on every unpacked message.
func WithValidator(v *Validator) ProcessorOption {
	return func(p *Processor) {
		p.validator = v
	}
}

func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

func NewProcessor(packager *MessagePackager, opts ...ProcessorOption) *Processor {
	p := &Processor{
		packager:    packager,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.errorHandler == nil {
		p.errorHandler = func(err error) {
			p.logger.Error("processor error", slog.Any("error", err))
		}
	}
	return p
}

// Process unpacks and validates a single message.
func (p *Processor) Process(data []byte) (*Message, error) {
	m := p.packager.CreateMessage()
	m.SetDirection(DirectionIncoming)
	if _, err := m.Unpack(data); err != nil {
		return nil, err
	}
	if p.validator != nil {
		if err := p.validator.Validate(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ProcessBatch unpacks every entry of batch. results[i] is nil for a failed
// entry and the returned error joins the failures. Cancelling ctx stops new
// work from starting.
func (p *Processor) ProcessBatch(ctx context.Context, batch [][]byte) ([]*Message, error) {
	results := make([]*Message, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)

loop:
	for i, data := range batch {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			defer func() { <-sem }()

			m, err := p.Process(data)
			if err != nil {
				errs[i] = fmt.Errorf("message %d: %w", i, err)
				p.errorHandler(errs[i])
				return
			}
			results[i] = m
		}(i, data)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}

// ProcessStream unpacks messages from in and sends them to out until in is
// closed or ctx is done. Output order is not guaranteed. Failed messages go
// to the error handler only.
func (p *Processor) ProcessStream(ctx context.Context, in <-chan []byte, out chan<- *Message) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	sem := make(chan struct{}, p.concurrency)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-in:
			if !ok {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(data []byte) {
				defer wg.Done()
				defer func() { <-sem }()

				m, err := p.Process(data)
				if err != nil {
					p.errorHandler(err)
					return
				}
				select {
				case out <- m:
				case <-ctx.Done():
				}
			}(data)
		}
	}
}

// ProcessFrames reads length framed messages from r and feeds them
// through ProcessStream. It returns nil when r ends cleanly between
// frames.
func (p *Processor) ProcessFrames(ctx context.Context, r io.Reader, li LengthIndicator, out chan<- *Message) error {
	in := make(chan []byte)
	done := make(chan error, 1)
	go func() {
		done <- p.ProcessStream(ctx, in, out)
	}()

	var readErr error
read:
	for {
		frame, err := li.ReadFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		select {
		case in <- frame:
		case <-ctx.Done():
			break read
		}
	}
	close(in)

	if err := <-done; err != nil {
		return err
	}
	return readErr
}
