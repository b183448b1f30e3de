package wire

import (
	"bytes"

	"github.com/framewire/httpcore/version"
)

type requestLineState uint8

const (
	rlMethod requestLineState = iota
	rlTarget
	rlVersion
)

// RequestLine matches "METHOD SP request-target SP HTTP/1.x CRLF". Method
// is a token, target is any VCHAR sequence (no decoding is performed, URL
// parsing is out of scope here), and the version must be 1.0 or 1.1.
type RequestLine struct {
	state    requestLineState
	acc      *LineBuffer
	budget   int // total line bytes (up to and including the LF) allowed across every Parse call; 0 means unbounded
	consumed int
	Method   []byte
	Target   []byte
	Version  version.Version
}

func NewRequestLine(maxSize int) *RequestLine {
	return &RequestLine{acc: NewLineBuffer(maxSize), budget: maxSize}
}

// Parse consumes as much of data as forms complete tokens, returning
// done=true and the unconsumed remainder once the full line (up to and
// including its terminator) has been read. A bare LF is accepted leniently
// as a terminator. The size limit is enforced unconditionally on every call,
// not only while a token is being accumulated across calls, so a whole
// oversize line arriving in one call is rejected exactly like a fragmented
// one.
func (r *RequestLine) Parse(data []byte) (done bool, rest []byte, err error) {
	seen := len(data)
	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		seen = lf + 1
	}

	r.consumed += seen
	if r.budget > 0 && r.consumed > r.budget {
		return false, nil, ErrRequestLineTooLong
	}

	switch r.state {
	case rlMethod:
		goto method
	case rlTarget:
		goto target
	case rlVersion:
		goto version_
	}

method:
	if i := bytes.IndexByte(data, ' '); i != -1 {
		if r.acc.Len() == 0 {
			r.Method = clone(data[:i])
		} else {
			if !r.acc.Append(data[:i]) {
				return false, nil, ErrRequestLineTooLong
			}
			r.Method = clone(r.acc.Bytes())
			r.acc.Clear()
		}

		if len(r.Method) == 0 {
			return false, nil, ErrMalformedStartLine
		}

		data = data[i+1:]
	} else {
		if !r.acc.Append(data) {
			return false, nil, ErrRequestLineTooLong
		}

		r.state = rlMethod
		return false, nil, nil
	}

target:
	if i := bytes.IndexByte(data, ' '); i != -1 {
		if r.acc.Len() == 0 {
			r.Target = clone(data[:i])
		} else {
			if !r.acc.Append(data[:i]) {
				return false, nil, ErrRequestLineTooLong
			}
			r.Target = clone(r.acc.Bytes())
			r.acc.Clear()
		}

		if len(r.Target) == 0 {
			return false, nil, ErrMalformedStartLine
		}

		data = data[i+1:]
	} else {
		if !r.acc.Append(data) {
			return false, nil, ErrRequestLineTooLong
		}

		r.state = rlTarget
		return false, nil, nil
	}

version_:
	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		var tok []byte
		if r.acc.Len() == 0 {
			tok = stripCR(data[:lf])
		} else {
			if !r.acc.Append(data[:lf]) {
				return false, nil, ErrRequestLineTooLong
			}
			tok = stripCR(r.acc.Bytes())
			r.acc.Clear()
		}

		v := version.FromBytes(tok)
		if v == version.Unknown {
			return false, nil, ErrUnsupportedVersion
		}

		r.Version = v
		r.state = rlMethod
		return true, data[lf+1:], nil
	}

	if !r.acc.Append(data) {
		return false, nil, ErrRequestLineTooLong
	}

	r.state = rlVersion
	return false, nil, nil
}

// Reset prepares the tokenizer for another request line, releasing the
// previous Method/Target byte slices (the caller is expected to have
// already consumed them into an owned Request event).
func (r *RequestLine) Reset() {
	r.state = rlMethod
	r.acc.Clear()
	r.consumed = 0
	r.Method, r.Target = nil, nil
}

func stripCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}

	return b
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	return append([]byte(nil), b...)
}
