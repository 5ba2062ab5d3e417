package util

import "sync"

// ChunkSize is the fixed pump buffer size.  One readiness event moves
// at most this many bytes.
const ChunkSize = 2048

// BufPool provides reusable byte buffers for the stream pump.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ChunkSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished, typically via defer.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
