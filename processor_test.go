package iso8583_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkadit/iso8583-packager"
	"github.com/stretchr/testify/require"
)

func packedAuthorizations(t *testing.T, p *iso8583.MessagePackager, stans ...string) [][]byte {
	t.Helper()

	var out [][]byte
	for _, stan := range stans {
		m := iso8583.NewBuilder(iso8583.WithPackager(p)).
			MTI("0200").
			PAN("4111111111111111").
			ProcessingCode("301000").
			STAN(stan).
			MustBuild()
		packed, err := m.Pack()
		require.NoError(t, err)
		out = append(out, packed)
	}
	return out
}

func TestProcessorProcess(t *testing.T) {
	p := iso8583.ISO87APackager()
	data := packedAuthorizations(t, p, "123456")[0]

	proc := iso8583.NewProcessor(p)
	m, err := proc.Process(data)
	require.NoError(t, err)
	require.True(t, m.IsIncoming())
	stan, _ := m.GetString(11)
	require.Equal(t, "123456", stan)

	_, err = proc.Process(data[:10])
	require.Error(t, err)

	t.Run("validator", func(t *testing.T) {
		proc := iso8583.NewProcessor(p, iso8583.WithValidator(iso8583.NewValidator().Require("4")))
		_, err := proc.Process(data)
		require.ErrorIs(t, err, iso8583.ErrValidationFailed)
	})
}

func TestProcessorBatch(t *testing.T) {
	p := iso8583.ISO87APackager()
	batch := packedAuthorizations(t, p, "100001", "100002", "100003", "100004", "100005", "100006", "100007")
	batch = append(batch, []byte("0200garbage"))

	var (
		active, peak atomic.Int32
		mu           sync.Mutex
		handled      []error
	)
	throttle := iso8583.CustomRule{RuleName: "throttle", Func: func(*iso8583.Field) error {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}}

	proc := iso8583.NewProcessor(p,
		iso8583.WithConcurrency(2),
		iso8583.WithValidator(iso8583.NewValidator().AddRule("11", throttle)),
		iso8583.WithErrorHandler(func(err error) {
			mu.Lock()
			handled = append(handled, err)
			mu.Unlock()
		}),
	)

	results, err := proc.ProcessBatch(context.Background(), batch)
	require.Error(t, err)
	require.Contains(t, err.Error(), "message 7:")
	require.Len(t, handled, 1)
	require.LessOrEqual(t, peak.Load(), int32(2))

	require.Len(t, results, 8)
	require.Nil(t, results[7])
	for i, m := range results[:7] {
		require.NotNil(t, m, "message %d", i)
		stan, _ := m.GetString(11)
		require.Equal(t, "10000"+string(rune('1'+i)), stan)
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := iso8583.NewProcessor(p).ProcessBatch(ctx, batch)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestProcessorStream(t *testing.T) {
	p := iso8583.ISO87APackager()
	batch := packedAuthorizations(t, p, "000001", "000002", "000003")

	in := make(chan []byte, len(batch)+1)
	out := make(chan *iso8583.Message, len(batch))
	for _, data := range batch {
		in <- data
	}
	in <- []byte("bad")
	close(in)

	var failures atomic.Int32
	proc := iso8583.NewProcessor(p, iso8583.WithErrorHandler(func(error) { failures.Add(1) }))
	require.NoError(t, proc.ProcessStream(context.Background(), in, out))
	close(out)

	var stans []string
	for m := range out {
		stan, _ := m.GetString(11)
		stans = append(stans, stan)
	}
	require.ElementsMatch(t, []string{"000001", "000002", "000003"}, stans)
	require.Equal(t, int32(1), failures.Load())

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := proc.ProcessStream(ctx, make(chan []byte), make(chan *iso8583.Message))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestProcessorFrames(t *testing.T) {
	p := iso8583.ISO87APackager()
	batch := packedAuthorizations(t, p, "000011", "000012", "000013")

	var stream bytes.Buffer
	for _, data := range batch {
		require.NoError(t, iso8583.LengthBinary2.WriteFrame(&stream, data))
	}
	full := stream.Bytes()

	proc := iso8583.NewProcessor(p)

	t.Run("clean end", func(t *testing.T) {
		out := make(chan *iso8583.Message, len(batch))
		err := proc.ProcessFrames(context.Background(), bytes.NewReader(full), iso8583.LengthBinary2, out)
		require.NoError(t, err)
		require.Len(t, out, 3)
	})

	t.Run("truncated frame", func(t *testing.T) {
		out := make(chan *iso8583.Message, len(batch))
		err := proc.ProcessFrames(context.Background(), bytes.NewReader(full[:len(full)-3]), iso8583.LengthBinary2, out)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.Len(t, out, 2)
	})

	t.Run("empty stream", func(t *testing.T) {
		out := make(chan *iso8583.Message)
		err := proc.ProcessFrames(context.Background(), bytes.NewReader(nil), iso8583.LengthBinary2, out)
		require.NoError(t, err)
	})
}
