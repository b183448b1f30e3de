// Package reader assembles the byte-level tokenizers in internal/wire into
// whole-message events: a head (request or response), a stream of body
// Data slices, and a final EndOfMessage carrying any trailers. It returns
// plain values rather than the root package's Event type to avoid an
// import cycle; Connection wraps these into Events at the boundary.
package reader

import (
	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/internal/framing"
	"github.com/framewire/httpcore/internal/wire"
)

// Outcome discriminates what a reader's Next call produced.
type Outcome uint8

const (
	NeedMore Outcome = iota
	GotRequestHead
	GotResponseHead
	GotData
	GotEndOfMessage
)

// bodyStage drives whichever body tokenizer a framing.Info selects.
type bodyStage struct {
	mode            framing.Mode
	fixed           *wire.FixedBody
	chunked         *wire.Chunked
	close           wire.CloseBody
	pendingEOM      bool
	pendingRest     []byte
	pendingTrailers *header.List
}

func newBodyStage(info framing.Info, maxLineSize, maxTrailers int) *bodyStage {
	s := &bodyStage{mode: info.Mode}

	switch info.Mode {
	case framing.Fixed:
		s.fixed = wire.NewFixedBody(info.Length)
	case framing.Chunked:
		s.chunked = wire.NewChunked(maxLineSize, maxTrailers)
	}

	return s
}

// next reports NeedMore, GotData or GotEndOfMessage. eof signals the peer
// will send no more bytes; it is only consulted for close-delimited bodies
// (where it means the body is now complete) and to detect a premature EOF
// on a fixed or chunked body still in progress.
func (s *bodyStage) next(data []byte, eof bool) (outcome Outcome, payload []byte, trailers *header.List, rest []byte, err error) {
	if s.pendingEOM {
		s.pendingEOM = false
		return GotEndOfMessage, nil, s.pendingTrailers, s.pendingRest, nil
	}

	switch s.mode {
	case framing.NoBody:
		return GotEndOfMessage, nil, header.New(0), data, nil

	case framing.Fixed:
		payload, rest, done := s.fixed.Next(data)
		if done {
			s.pendingEOM = false
			if len(payload) == 0 {
				return GotEndOfMessage, nil, header.New(0), rest, nil
			}

			s.pendingEOM = true
			s.pendingRest = rest
			s.pendingTrailers = header.New(0)
			return GotData, payload, nil, rest, nil
		}

		if len(payload) == 0 {
			if eof {
				return NeedMore, nil, nil, data, wire.ErrPrematureEOF
			}

			return NeedMore, nil, nil, data, nil
		}

		return GotData, payload, nil, rest, nil

	case framing.Chunked:
		result, chunk, rest, cerr := s.chunked.Next(data)
		if cerr != nil {
			return NeedMore, nil, nil, data, cerr
		}

		switch result {
		case wire.GotData:
			return GotData, chunk, nil, rest, nil
		case wire.GotDone:
			trailers := header.New(len(s.chunked.Trailers()))
			for _, f := range s.chunked.Trailers() {
				trailers.Add(f.Name, f.Value)
			}

			return GotEndOfMessage, nil, trailers, rest, nil
		default:
			if eof {
				return NeedMore, nil, nil, data, wire.ErrPrematureEOF
			}

			return NeedMore, nil, nil, data, nil
		}

	default: // framing.UntilClose
		payload := s.close.Next(data)
		if len(payload) > 0 {
			return GotData, payload, nil, nil, nil
		}

		if eof {
			return GotEndOfMessage, nil, header.New(0), nil, nil
		}

		return NeedMore, nil, nil, data, nil
	}
}
