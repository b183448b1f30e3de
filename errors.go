package httpcore

import "github.com/framewire/httpcore/status"

// LocalProtocolError means the caller misused the API: it tried to send an
// event illegal in the current state, produced conflicting framing headers,
// attempted client pipelining, and so on. A genuine protocol violation
// (an illegal event, conflicting framing) moves both parties to ERROR;
// a merely premature call (pipelining before StartNextCycle, StartNextCycle
// before both parties are DONE) leaves the connection usable, since the
// caller can simply wait and retry.
type LocalProtocolError struct {
	msg string
}

func (e *LocalProtocolError) Error() string { return e.msg }

func newLocalError(msg string) *LocalProtocolError {
	return &LocalProtocolError{msg: msg}
}

// RemoteProtocolError means the peer violated HTTP: malformed bytes,
// impossible framing, an oversize header block, invalid chunk encoding, EOF
// mid-message, or data received after the peer closed. Code is a suggested
// status a server caller may use for a last-gasp error response before
// closing the socket.
type RemoteProtocolError struct {
	msg  string
	Code status.Code
}

func (e *RemoteProtocolError) Error() string { return e.msg }

func newRemoteError(code status.Code, msg string) *RemoteProtocolError {
	return &RemoteProtocolError{msg: msg, Code: code}
}

// Local errors: caller misuse of the send/receive_data/next_event/
// start_next_cycle API.
var (
	ErrEventNotPermitted   = newLocalError("event not permitted in current state")
	ErrPipeliningRefused   = newLocalError("pipelining is not supported for a client role")
	ErrNotDoneYet          = newLocalError("start_next_cycle requires both parties to be DONE")
	ErrAlreadyErrored      = newLocalError("connection is in ERROR state")
	ErrConflictingFraming  = newLocalError("message may not carry a body under its framing")
	ErrForeignHeaderOnSend = newLocalError("non-ASCII or invalid byte in header field name")
)

// Remote errors: peer violated the wire protocol.
var (
	ErrRequestLineTooLong  = newRemoteError(status.RequestURITooLong, "request line exceeds configured limit")
	ErrResponseLineTooLong = newRemoteError(status.RequestHeaderFieldsTooLarge, "response line exceeds configured limit")
	ErrHeaderBlockTooLarge = newRemoteError(status.RequestHeaderFieldsTooLarge, "header block exceeds configured limit")
	ErrTooManyHeaders      = newRemoteError(status.RequestHeaderFieldsTooLarge, "too many header fields")
	ErrMalformedStartLine  = newRemoteError(status.BadRequest, "malformed request or status line")
	ErrUnsupportedVersion  = newRemoteError(status.HTTPVersionNotSupported, "unsupported HTTP version")
	ErrObsoleteLineFolding = newRemoteError(status.BadRequest, "obsolete line folding is not accepted")
	ErrBadContentLength    = newRemoteError(status.BadRequest, "malformed Content-Length value")
	ErrBadChunkSize        = newRemoteError(status.BadRequest, "malformed chunk size")
	ErrBadChunkEncoding    = newRemoteError(status.BadRequest, "malformed chunked transfer coding")
	ErrDataAfterClose      = newRemoteError(status.BadRequest, "data received after peer closed")
	ErrPrematureEOF        = newRemoteError(status.BadRequest, "connection closed mid-message")
)
