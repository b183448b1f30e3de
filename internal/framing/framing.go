// Package framing decides, given a message's method/status and headers,
// whether its body is chunked, fixed-length, delimited by connection
// close, or absent entirely. The decision is a pure function of headers,
// callable from either side (reader or writer, client or server) rather
// than tied to parsing one concrete request.
package framing

import (
	"strings"

	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/status"
)

type Mode uint8

const (
	NoBody Mode = iota
	Fixed
	Chunked
	UntilClose
)

func (m Mode) String() string {
	switch m {
	case NoBody:
		return "no-body"
	case Fixed:
		return "fixed"
	case Chunked:
		return "chunked"
	case UntilClose:
		return "until-close"
	default:
		return "unknown"
	}
}

// Info is the outcome of a framing decision.
type Info struct {
	Mode   Mode
	Length int64 // valid when Mode == Fixed
}

// FramingError reports a malformed or conflicting set of framing headers.
// It carries a suggested status code for the caller to attach to the
// RemoteProtocolError it raises.
type FramingError struct {
	msg  string
	Code status.Code
}

func (e *FramingError) Error() string { return e.msg }

func newErr(code status.Code, msg string) *FramingError {
	return &FramingError{msg: msg, Code: code}
}

var (
	ErrChunkedNotLast      = newErr(status.BadRequest, "chunked coding must be the final transfer-coding")
	ErrBadContentLength    = newErr(status.BadRequest, "malformed or conflicting Content-Length")
	ErrContentLengthRange  = newErr(status.BadRequest, "Content-Length out of range")
	ErrForbiddenBodyHeader = newErr(status.InternalServerError, "Content-Length/Transfer-Encoding not allowed on a response with no body")
)

// DecideRequest applies the request-side framing precedence: a valid
// chunked Transfer-Encoding wins outright, Content-Length is next, and no
// header at all means no body.
func DecideRequest(headers *header.List) (Info, error) {
	if header.ContainsToken(headers, "Transfer-Encoding", "chunked") {
		last, _ := header.LastToken(headers, "Transfer-Encoding")
		if !strings.EqualFold(last, "chunked") {
			return Info{}, ErrChunkedNotLast
		}

		return Info{Mode: Chunked}, nil
	}

	if length, present, err := contentLength(headers); err != nil {
		return Info{}, err
	} else if present {
		return Info{Mode: Fixed, Length: length}, nil
	}

	return Info{Mode: NoBody}, nil
}

// DecideResponse applies the response-side framing rules. reqMethod is the
// method of the request this response answers.
func DecideResponse(reqMethod method.Method, code status.Code, headers *header.List) (Info, error) {
	switch {
	case code.IsInformational(), code == status.NoContent, code == status.NotModified:
		return Info{Mode: NoBody}, nil
	case reqMethod == method.HEAD:
		return Info{Mode: NoBody}, nil
	case reqMethod == method.CONNECT && code.IsSuccess():
		return Info{Mode: NoBody}, nil
	}

	if header.ContainsToken(headers, "Transfer-Encoding", "chunked") {
		last, _ := header.LastToken(headers, "Transfer-Encoding")
		if !strings.EqualFold(last, "chunked") {
			return Info{}, ErrChunkedNotLast
		}

		return Info{Mode: Chunked}, nil
	}

	if length, present, err := contentLength(headers); err != nil {
		return Info{}, err
	} else if present {
		return Info{Mode: Fixed, Length: length}, nil
	}

	return Info{Mode: UntilClose}, nil
}

// ValidateOutgoingHeaders rejects a Content-Length or Transfer-Encoding
// header on a response whose framing mode forbids a body outright (1xx,
// 204, 304, or a successful CONNECT response). It only applies to
// messages about to be sent: a response received from a peer is decoded
// under DecideResponse regardless of whether the peer honored this rule,
// since rejecting it after the fact wouldn't undo the framing ambiguity
// it already caused on the wire.
func ValidateOutgoingHeaders(mode Mode, headers *header.List) error {
	if mode != NoBody {
		return nil
	}

	if headers.Has("Content-Length") || headers.Has("Transfer-Encoding") {
		return ErrForbiddenBodyHeader
	}

	return nil
}

// contentLength reads and validates the Content-Length header. Multiple
// occurrences are tolerated only when they all agree, guarding against the
// classic request-smuggling ambiguity of disagreeing duplicates.
func contentLength(headers *header.List) (n int64, present bool, err error) {
	values := headers.Values(nil, "Content-Length")
	if len(values) == 0 {
		return 0, false, nil
	}

	n, err = parseUint63(values[0])
	if err != nil {
		return 0, false, err
	}

	for _, v := range values[1:] {
		other, err := parseUint63(v)
		if err != nil || other != n {
			return 0, false, ErrBadContentLength
		}
	}

	return n, true, nil
}

const maxInt64 = 1<<63 - 1

// parseUint63 parses a non-negative decimal integer up to 2^63-1, rejecting
// signs, whitespace and non-digit bytes outright.
func parseUint63(s string) (int64, error) {
	if len(s) == 0 {
		return 0, ErrBadContentLength
	}

	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, ErrBadContentLength
		}

		d := int64(c - '0')
		if n > (maxInt64-d)/10 {
			return 0, ErrContentLengthRange
		}

		n = n*10 + d
	}

	return n, nil
}
