// Package iobuf implements an append-only receive buffer with an advancing
// read cursor, the read-side counterpart of a write-side segment
// accumulator that tracks a `begin` mark into an ever-growing slice: bytes
// are fed in from the network, and readers consume them from the front,
// advancing the cursor as they go instead of carving out named segments.
package iobuf

// Buffer holds bytes received from the peer that have not yet been consumed
// by a Reader, plus whether the peer has signaled EOF (a zero-length
// ReceiveData call).
type Buffer struct {
	data    []byte
	start   int
	maxSize int
	eof     bool
}

// New returns a Buffer that refuses to hold more than maxSize unconsumed
// bytes at once. maxSize <= 0 means unbounded.
func New(maxSize int) *Buffer {
	return &Buffer{maxSize: maxSize}
}

// Feed appends chunk to the buffer. Reports ok=false if doing so would
// exceed maxSize; the caller (Connection.ReceiveData) turns that into a
// RemoteProtocolError.
func (b *Buffer) Feed(chunk []byte) (ok bool) {
	if b.maxSize > 0 && b.Len()+len(chunk) > b.maxSize {
		return false
	}

	b.compact()
	b.data = append(b.data, chunk...)
	return true
}

// SetEOF records that the peer will send no more bytes.
func (b *Buffer) SetEOF() {
	b.eof = true
}

// EOF reports whether the peer has signaled end of stream.
func (b *Buffer) EOF() bool {
	return b.eof
}

// Bytes returns the unconsumed bytes. The slice is only valid until the next
// call to Feed or Advance.
func (b *Buffer) Bytes() []byte {
	return b.data[b.start:]
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.data) - b.start
}

// Advance moves the read cursor forward by n bytes, marking them consumed.
func (b *Buffer) Advance(n int) {
	b.start += n
	if b.start > len(b.data) {
		b.start = len(b.data)
	}
}

// compact reclaims space occupied by already-consumed bytes once they make
// up at least half of the buffered data or reach 4096 bytes, so a long-lived
// keep-alive connection
// doesn't accumulate an ever-growing slice.
func (b *Buffer) compact() {
	if b.start == 0 {
		return
	}

	if b.start < len(b.data)/2 && b.start < 4096 {
		return
	}

	b.data = append(b.data[:0], b.data[b.start:]...)
	b.start = 0
}
