package httpcore

// Config holds construction-time tunables. There are no environment
// variables and no files consumed by the core; a Connection reads Config
// once, at construction, and never again.
type Config struct {
	// MaxHeaderBlockSize bounds the combined request-line/status-line plus
	// headers block. Exceeding it before a terminator is a
	// RemoteProtocolError. Defaults to 16 KiB.
	MaxHeaderBlockSize int
	// MaxHeaderCount bounds the number of header fields accepted in a
	// single message, an independent guard against slow, tiny, comma-free
	// header floods that would otherwise pass under MaxHeaderBlockSize.
	MaxHeaderCount int
	// MaxTrailerCount bounds the number of trailer fields accepted after a
	// chunked body. Defaults to 16; trailers are rarer and smaller than
	// leading headers in practice.
	MaxTrailerCount int
	// MaxBufferedBytes bounds the receive buffer's total unconsumed size,
	// independent of where in a message those bytes fall (internal/iobuf).
	// 0 means unbounded.
	MaxBufferedBytes int
	// InitialWriteBufferSize is not read by Connection: every Send call
	// returns a freshly allocated slice.
	InitialWriteBufferSize int
	// honorKeepAliveHTTP10, if set, treats a HTTP/1.0 request or response
	// carrying "Connection: keep-alive" as keeping the connection alive
	// instead of unconditionally closing. Off by default. Unexported: no
	// caller in this codebase needs to flip it yet.
	honorKeepAliveHTTP10 bool
}

// Default returns the Config used when the caller doesn't need to override
// anything.
func Default() Config {
	return Config{
		MaxHeaderBlockSize:     16 << 10,
		MaxHeaderCount:         64,
		MaxTrailerCount:        16,
		MaxBufferedBytes:       0,
		InitialWriteBufferSize: 512,
	}
}
