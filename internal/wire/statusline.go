package wire

import (
	"bytes"

	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
)

type statusLineState uint8

const (
	slVersion statusLineState = iota
	slCode
	slSpace
	slReason
)

// StatusLine matches "HTTP/1.x SP 3DIGIT SP reason CRLF". The reason
// phrase may be empty and may itself contain spaces or tabs.
type StatusLine struct {
	state    statusLineState
	acc      *LineBuffer
	budget   int // total line bytes (up to and including the LF) allowed across every Parse call; 0 means unbounded
	consumed int
	Version  version.Version
	Code     status.Code
	Reason   []byte
}

func NewStatusLine(maxSize int) *StatusLine {
	return &StatusLine{acc: NewLineBuffer(maxSize), budget: maxSize}
}

// Parse enforces the size limit unconditionally on every call, not only
// while a token is being accumulated across calls, so a whole oversize
// reason phrase arriving in one call is rejected exactly like a fragmented
// one (see RequestLine.Parse).
func (s *StatusLine) Parse(data []byte) (done bool, rest []byte, err error) {
	seen := len(data)
	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		seen = lf + 1
	}

	s.consumed += seen
	if s.budget > 0 && s.consumed > s.budget {
		return false, nil, ErrStatusLineTooLong
	}

	switch s.state {
	case slVersion:
		goto ver
	case slCode:
		goto code
	case slSpace:
		goto space
	case slReason:
		goto reason
	}

ver:
	if i := bytes.IndexByte(data, ' '); i != -1 {
		var tok []byte
		if s.acc.Len() == 0 {
			tok = data[:i]
		} else {
			if !s.acc.Append(data[:i]) {
				return false, nil, ErrStatusLineTooLong
			}
			tok = s.acc.Bytes()
		}

		v := version.FromBytes(tok)
		s.acc.Clear()
		if v == version.Unknown {
			return false, nil, ErrUnsupportedVersion
		}

		s.Version = v
		data = data[i+1:]
	} else {
		if !s.acc.Append(data) {
			return false, nil, ErrStatusLineTooLong
		}

		s.state = slVersion
		return false, nil, nil
	}

code:
	// a status code is always exactly 3 digits, delivered without a
	// terminator of its own; accumulate until we have all 3.
	if s.acc.Len()+len(data) < 3 {
		if !s.acc.Append(data) {
			return false, nil, ErrStatusLineTooLong
		}

		s.state = slCode
		return false, nil, nil
	}

	{
		var digits [3]byte
		if s.acc.Len() > 0 {
			need := 3 - s.acc.Len()
			if !s.acc.Append(data[:need]) {
				return false, nil, ErrStatusLineTooLong
			}
			copy(digits[:], s.acc.Bytes())
			data = data[need:]
			s.acc.Clear()
		} else {
			copy(digits[:], data[:3])
			data = data[3:]
		}

		code, ok := parseDigits3(digits)
		if !ok {
			return false, nil, ErrMalformedStartLine
		}

		s.Code = code
	}

space:
	if len(data) == 0 {
		s.state = slSpace
		return false, nil, nil
	}

	if data[0] != ' ' {
		return false, nil, ErrMalformedStartLine
	}

	data = data[1:]

reason:
	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		var reason []byte
		if s.acc.Len() == 0 {
			reason = stripCR(data[:lf])
		} else {
			if !s.acc.Append(data[:lf]) {
				return false, nil, ErrStatusLineTooLong
			}
			reason = stripCR(s.acc.Bytes())
		}

		s.Reason = clone(reason)
		s.acc.Clear()
		s.state = slVersion
		return true, data[lf+1:], nil
	}

	if !s.acc.Append(data) {
		return false, nil, ErrStatusLineTooLong
	}

	s.state = slReason
	return false, nil, nil
}

func (s *StatusLine) Reset() {
	s.state = slVersion
	s.acc.Clear()
	s.consumed = 0
	s.Reason = nil
}

func parseDigits3(d [3]byte) (status.Code, bool) {
	var n uint16
	for _, c := range d {
		if c < '0' || c > '9' {
			return 0, false
		}

		n = n*10 + uint16(c-'0')
	}

	return status.Code(n), true
}
