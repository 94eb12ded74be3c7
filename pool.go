package iso8583

import "sync"

// packBuffers holds scratch space for MessagePackager.Pack. The packed
// bytes are always copied out before a buffer goes back to the pool.
var packBuffers = sync.Pool{
	New: func() any {
		b := make([]byte, 0, DefaultBufferSize/2)
		return &b
	},
}

func getBuffer() *[]byte {
	b := packBuffers.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// putBuffer returns b to the pool unless it grew past DefaultBufferSize.
func putBuffer(b *[]byte) {
	if cap(*b) > DefaultBufferSize {
		return
	}
	packBuffers.Put(b)
}
