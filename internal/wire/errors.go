package wire

import "github.com/framewire/httpcore/status"

// Error is a malformed-input failure raised by a tokenizer, carrying the
// status code a server caller should consider using for a last-gasp
// response, the same shape as framing.FramingError.
type Error struct {
	msg  string
	Code status.Code
}

func (e *Error) Error() string { return e.msg }

func newErr(code status.Code, msg string) *Error {
	return &Error{msg: msg, Code: code}
}

var (
	ErrLineTooLong          = newErr(status.RequestHeaderFieldsTooLarge, "header block exceeds the configured limit")
	ErrRequestLineTooLong   = newErr(status.RequestURITooLong, "request line exceeds the configured limit")
	ErrStatusLineTooLong    = newErr(status.RequestHeaderFieldsTooLarge, "status line exceeds the configured limit")
	ErrMalformedStartLine   = newErr(status.BadRequest, "malformed request or status line")
	ErrUnsupportedVersion   = newErr(status.HTTPVersionNotSupported, "unsupported HTTP version")
	ErrObsoleteLineFolding  = newErr(status.BadRequest, "obsolete line folding is not accepted")
	ErrMalformedHeaderField = newErr(status.BadRequest, "malformed header field")
	ErrTooManyHeaders       = newErr(status.RequestHeaderFieldsTooLarge, "too many header fields")
	ErrBadChunkSize         = newErr(status.BadRequest, "malformed chunk size")
	ErrBadChunkEncoding     = newErr(status.BadRequest, "malformed chunked transfer coding")
	ErrPrematureEOF         = newErr(status.BadRequest, "connection closed mid-message")
)
