package wire

// FixedBody slices out exactly n bytes of body content, in whatever pieces
// the caller happens to receive them in, before reporting done.
type FixedBody struct {
	remaining int64
}

// NewFixedBody builds a reader for a body of exactly n bytes.
func NewFixedBody(n int64) *FixedBody {
	return &FixedBody{remaining: n}
}

// Next returns the next slice of body content directly out of data (no
// copy), or done=true once remaining has reached zero. A FixedBody created
// for a zero-length body reports done immediately without ever needing
// data.
func (f *FixedBody) Next(data []byte) (payload, rest []byte, done bool) {
	if f.remaining == 0 {
		return nil, data, true
	}

	take := f.remaining
	if int64(len(data)) < take {
		take = int64(len(data))
	}

	f.remaining -= take
	return data[:take], data[take:], f.remaining == 0
}

// Remaining reports how many more bytes are expected.
func (f *FixedBody) Remaining() int64 {
	return f.remaining
}
