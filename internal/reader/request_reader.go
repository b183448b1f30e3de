package reader

import (
	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/internal/framing"
	"github.com/framewire/httpcore/internal/wire"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/version"
)

type requestStage uint8

const (
	requestStageHead requestStage = iota
	requestStageBody
)

// RequestHead is the parsed request line plus headers of one request.
type RequestHead struct {
	Method  method.Method
	Target  []byte
	Version version.Version
	Headers *header.List
}

// RequestReader turns bytes arriving on the server side of a connection
// into a request head, its body Data slices, and a final EndOfMessage.
type RequestReader struct {
	maxHeaderBlock int
	maxHeaderCount int
	maxTrailers    int

	stage        requestStage
	line         *wire.RequestLine
	block        *wire.HeaderBlock
	body         *bodyStage
	headBytesSeen int
}

// NewRequestReader builds a reader bounded by the given header block size
// (shared by the request line and the header fields) and field counts.
func NewRequestReader(maxHeaderBlock, maxHeaderCount, maxTrailers int) *RequestReader {
	r := &RequestReader{
		maxHeaderBlock: maxHeaderBlock,
		maxHeaderCount: maxHeaderCount,
		maxTrailers:    maxTrailers,
	}
	r.resetHead()
	return r
}

func (r *RequestReader) resetHead() {
	r.stage = requestStageHead
	r.line = wire.NewRequestLine(r.maxHeaderBlock)
	r.block = wire.NewHeaderBlock(r.maxHeaderBlock, r.maxHeaderCount)
	r.headBytesSeen = 0
}

// AtMessageBoundary reports whether the reader has not yet consumed any
// byte of a new message, i.e. an EOF right now would be a graceful close
// rather than a premature one.
func (r *RequestReader) AtMessageBoundary() bool {
	return r.stage == requestStageHead && r.headBytesSeen == 0
}

// Next advances the reader. eof is only meaningful while a body is being
// read; it is ignored while a head is being assembled (an EOF mid-head is
// reported by the caller directly, since there is no body-mode to route it
// through yet).
func (r *RequestReader) Next(data []byte, eof bool) (outcome Outcome, head *RequestHead, payload []byte, trailers *header.List, rest []byte, err error) {
	if r.stage == requestStageHead {
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
				// The header block gets whatever the request line left of
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

		info, ferr := framing.DecideRequest(headers)
		if ferr != nil {
			return NeedMore, nil, nil, nil, nil, ferr
		}

		head = &RequestHead{
			Method:  method.Parse(string(r.line.Method)),
			Target:  r.line.Target,
			Version: r.line.Version,
			Headers: headers,
		}

		r.body = newBodyStage(info, r.maxHeaderBlock, r.maxTrailers)
		r.stage = requestStageBody
		return GotRequestHead, head, nil, nil, restAfterHeaders, nil
	}

	outcome, payload, trailers, rest, err = r.body.next(data, eof)
	if outcome == GotEndOfMessage {
		r.resetHead()
	}

	return outcome, nil, payload, trailers, rest, err
}

// lineDone reports whether the request-line phase has completed, without
// wire.RequestLine needing to expose its internal state: a successfully
// parsed version is never version.Unknown, so its presence is the signal.
func (r *RequestReader) lineDone() bool {
	return r.line.Version != version.Unknown
}
