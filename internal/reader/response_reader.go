package reader

import (
	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/internal/framing"
	"github.com/framewire/httpcore/internal/wire"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
)

type responseStage uint8

const (
	responseStageHead responseStage = iota
	responseStageBody
)

// ResponseHead is the parsed status line plus headers of one response.
// Informational is set for any 1xx status other than none; such a response
// never carries a body and is followed by another head from the same
// reader (typically the final response to the same request).
type ResponseHead struct {
	Status        status.Code
	Version       version.Version
	Reason        []byte
	Headers       *header.List
	Informational bool
}

// ResponseReader turns bytes arriving on the client side of a connection
// into a response head, its body Data slices, and a final EndOfMessage.
// The caller must supply, via SetRequestMethod, the method of the request
// this response answers before feeding any bytes for it: response body
// framing depends on it (a HEAD request's response never has a body
// regardless of its headers, a successful CONNECT's never does either).
type ResponseReader struct {
	maxHeaderBlock int
	maxHeaderCount int
	maxTrailers    int
	reqMethod      method.Method

	stage         responseStage
	line          *wire.StatusLine
	block         *wire.HeaderBlock
	body          *bodyStage
	headBytesSeen int
}

func NewResponseReader(maxHeaderBlock, maxHeaderCount, maxTrailers int) *ResponseReader {
	r := &ResponseReader{
		maxHeaderBlock: maxHeaderBlock,
		maxHeaderCount: maxHeaderCount,
		maxTrailers:    maxTrailers,
	}
	r.resetHead()
	return r
}

// SetRequestMethod records which request the next response answers.
func (r *ResponseReader) SetRequestMethod(m method.Method) {
	r.reqMethod = m
}

func (r *ResponseReader) resetHead() {
	r.stage = responseStageHead
	r.line = wire.NewStatusLine(r.maxHeaderBlock)
	r.block = wire.NewHeaderBlock(r.maxHeaderBlock, r.maxHeaderCount)
	r.headBytesSeen = 0
}

// AtMessageBoundary reports whether the reader has not yet consumed any
// byte of a new message, i.e. an EOF right now would be a graceful close
// rather than a premature one.
func (r *ResponseReader) AtMessageBoundary() bool {
	return r.stage == responseStageHead && r.headBytesSeen == 0
}

func (r *ResponseReader) lineDone() bool {
	return r.line.Version != version.Unknown
}

func (r *ResponseReader) Next(data []byte, eof bool) (outcome Outcome, head *ResponseHead, payload []byte, trailers *header.List, rest []byte, err error) {
	if r.stage == responseStageHead {
		r.headBytesSeen += len(data)

		if !r.lineDone() {
			done, restAfterLine, lerr := r.line.Parse(data)
			if lerr != nil {
				return NeedMore, nil, nil, nil, nil, lerr
			}

			if !done {
				return NeedMore, nil, nil, nil, nil, nil
			}

			data = restAfterLine
			if r.maxHeaderBlock > 0 {
				// The header block gets whatever the status line left of
				// the shared limit.
				left := r.maxHeaderBlock - (r.headBytesSeen - len(restAfterLine))
				if left <= 0 {
					return NeedMore, nil, nil, nil, nil, wire.ErrLineTooLong
				}

				r.block = wire.NewHeaderBlock(left, r.maxHeaderCount)
			}
		}

		done, restAfterHeaders, herr := r.block.Parse(data)
		if herr != nil {
			return NeedMore, nil, nil, nil, nil, herr
		}

		if !done {
			return NeedMore, nil, nil, nil, nil, nil
		}

		headers := header.New(len(r.block.Fields()))
		for _, f := range r.block.Fields() {
			headers.Add(f.Name, f.Value)
		}

		code := r.line.Code
		head = &ResponseHead{
			Status:        code,
			Version:       r.line.Version,
			Reason:        r.line.Reason,
			Headers:       headers,
			Informational: code.IsInformational(),
		}

		if head.Informational {
			r.resetHead()
			return GotResponseHead, head, nil, nil, restAfterHeaders, nil
		}

		info, ferr := framing.DecideResponse(r.reqMethod, code, headers)
		if ferr != nil {
			return NeedMore, nil, nil, nil, nil, ferr
		}

		r.body = newBodyStage(info, r.maxHeaderBlock, r.maxTrailers)
		r.stage = responseStageBody
		return GotResponseHead, head, nil, nil, restAfterHeaders, nil
	}

	outcome, payload, trailers, rest, err = r.body.next(data, eof)
	if outcome == GotEndOfMessage {
		r.resetHead()
	}

	return outcome, nil, payload, trailers, rest, err
}
