// Package writer serializes outgoing message heads, body chunks and
// trailers into wire bytes by appending onto a caller-owned buffer, the
// same append/grow style as a scratch write buffer that is reused across
// an entire keep-alive connection instead of being reallocated per message.
package writer

import (
	"errors"
	"strconv"

	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
)

// ErrForeignHeaderName reports a header field name that isn't a valid
// US-ASCII token, which has no defined wire representation.
var ErrForeignHeaderName = errors.New("header field name contains a non-ASCII or invalid byte")

// ValidateHeaders checks every field name in headers against the token
// grammar (RFC 7230 §3.2.6): visible US-ASCII only, none of the delimiters
// that would make the field ambiguous with the following ':' or the
// line's CRLF terminator. Values pass through unescaped by AppendHeaders
// and are the caller's responsibility.
func ValidateHeaders(headers *header.List) error {
	for _, f := range headers.Fields() {
		if !isToken(f.Name) {
			return ErrForeignHeaderName
		}
	}

	return nil
}

func isToken(name []byte) bool {
	if len(name) == 0 {
		return false
	}

	for _, c := range name {
		if c <= 0x20 || c >= 0x7f || c == ':' {
			return false
		}
	}

	return true
}

// AppendRequestLine appends "METHOD target HTTP/x.y\r\n".
func AppendRequestLine(dst []byte, m method.Method, target []byte, v version.Version) []byte {
	dst = append(dst, m.String()...)
	dst = append(dst, ' ')
	dst = append(dst, target...)
	dst = append(dst, ' ')
	dst = append(dst, v.String()...)
	return append(dst, '\r', '\n')
}

// AppendStatusLine appends "HTTP/x.y CODE reason\r\n". If reason is empty,
// the code's standard reason phrase is used.
func AppendStatusLine(dst []byte, v version.Version, code status.Code, reason []byte) []byte {
	dst = append(dst, v.String()...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(code), 10)
	dst = append(dst, ' ')
	if len(reason) == 0 {
		dst = append(dst, status.Text(code)...)
	} else {
		dst = append(dst, reason...)
	}

	return append(dst, '\r', '\n')
}

// AppendHeaders appends every field as "Name: Value\r\n", followed by the
// blank line that terminates the header block.
func AppendHeaders(dst []byte, headers *header.List) []byte {
	for _, f := range headers.Fields() {
		dst = append(dst, f.Name...)
		dst = append(dst, ':', ' ')
		dst = append(dst, f.Value...)
		dst = append(dst, '\r', '\n')
	}

	return append(dst, '\r', '\n')
}

// AppendData appends payload verbatim (identity/fixed/close-delimited
// framing) or as one chunk (chunked framing, chunked=true). An empty
// payload under chunked framing appends nothing, matching the rule that a
// zero-length chunk is reserved for the terminator written by
// AppendEndOfMessage.
func AppendData(dst []byte, payload []byte, chunked bool) []byte {
	if !chunked {
		return append(dst, payload...)
	}

	if len(payload) == 0 {
		return dst
	}

	dst = strconv.AppendInt(dst, int64(len(payload)), 16)
	dst = append(dst, '\r', '\n')
	dst = append(dst, payload...)
	return append(dst, '\r', '\n')
}

// AppendEndOfMessage appends the chunked terminator and trailer fields
// (chunked=true), or nothing at all for any other framing, whose end is
// implicit in byte count or connection closure.
func AppendEndOfMessage(dst []byte, trailers *header.List, chunked bool) []byte {
	if !chunked {
		return dst
	}

	dst = append(dst, '0', '\r', '\n')
	if trailers != nil {
		for _, f := range trailers.Fields() {
			dst = append(dst, f.Name...)
			dst = append(dst, ':', ' ')
			dst = append(dst, f.Value...)
			dst = append(dst, '\r', '\n')
		}
	}

	return append(dst, '\r', '\n')
}
