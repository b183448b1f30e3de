package wire

import "bytes"

// HeaderBlock reads the sequence of header fields that follows a
// request-line or status-line, up to and including the blank line that
// terminates it. It shares one size budget with whatever start-line reader
// ran before it, so the two together are bounded by a single configured
// limit rather than each getting its own independent one.
type HeaderBlock struct {
	acc      *LineBuffer
	budget   int // total block bytes (up to and including the blank line) allowed across every Parse call, shared with the start-line reader; 0 means unbounded
	consumed int
	count    int
	maxCount int
	fields   []Field
}

// Field is a raw (name, value) pair as read off the wire, before it is
// copied into a header.List.
type Field struct {
	Name, Value []byte
}

// NewHeaderBlock builds a reader with budget bytes left in the shared
// start-line-plus-headers limit (0 or negative means unbounded) and room
// for at most maxCount fields (0 or negative means unbounded).
func NewHeaderBlock(budget, maxCount int) *HeaderBlock {
	return &HeaderBlock{acc: NewLineBuffer(0), budget: budget, maxCount: maxCount}
}

// Parse consumes as many complete header lines as data holds, returning
// done=true and the fields read once the terminating blank line has been
// seen. Fields are only valid until the next call to Parse or Reset.
func (h *HeaderBlock) Parse(data []byte) (done bool, rest []byte, err error) {
	for {
		lf := bytes.IndexByte(data, '\n')
		seen := len(data)
		if lf != -1 {
			seen = lf + 1
		}

		h.consumed += seen
		if h.budget > 0 && h.consumed > h.budget {
			return false, nil, ErrLineTooLong
		}

		if lf == -1 {
			h.acc.Append(data)
			return false, nil, nil
		}

		var line []byte
		if h.acc.Len() == 0 {
			line = stripCR(data[:lf])
		} else {
			h.acc.Append(data[:lf])
			line = stripCR(h.acc.Bytes())
		}

		data = data[lf+1:]
		h.acc.Clear()

		if len(line) == 0 {
			return true, data, nil
		}

		if line[0] == ' ' || line[0] == '\t' {
			return false, nil, ErrObsoleteLineFolding
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return false, nil, ErrMalformedHeaderField
		}

		name := line[:colon]
		value := trimOWSBytes(line[colon+1:])

		if h.maxCount > 0 && h.count >= h.maxCount {
			return false, nil, ErrTooManyHeaders
		}

		h.count++
		h.fields = append(h.fields, Field{Name: clone(name), Value: clone(value)})
	}
}

// Fields returns the header fields read so far.
func (h *HeaderBlock) Fields() []Field {
	return h.fields
}

// Reset prepares the reader for another message.
func (h *HeaderBlock) Reset() {
	h.acc.Clear()
	h.consumed = 0
	h.count = 0
	h.fields = h.fields[:0]
}

func trimOWSBytes(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}

	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}

	return b
}
