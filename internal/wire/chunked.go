package wire

import "bytes"

type chunkedState uint8

const (
	chunkSize chunkedState = iota
	chunkData
	chunkDataCRLF
	chunkTrailer
)

// Result discriminates what Chunked.Next produced.
type Result uint8

const (
	NeedMore Result = iota
	GotData
	GotDone
)

// Chunked decodes the chunked transfer-coding: a sequence of
// "size [;ext] CRLF data CRLF" segments terminated by a zero-size segment
// and an optional trailer field block, itself terminated by a blank line.
// Trailer fields are collected rather than discarded, since a caller needs
// them to populate EndOfMessage.
type Chunked struct {
	state     chunkedState
	acc       *LineBuffer
	remaining int64
	trailer   *HeaderBlock
}

// NewChunked builds a decoder whose chunk-size lines and trailer block are
// each bounded by maxLineSize bytes, with room for at most maxTrailers
// trailer fields (0 means unbounded for either).
func NewChunked(maxLineSize, maxTrailers int) *Chunked {
	return &Chunked{
		acc:     NewLineBuffer(maxLineSize),
		trailer: NewHeaderBlock(maxLineSize, maxTrailers),
	}
}

// Next advances the decoder by as much as data allows, returning one unit
// of progress at a time: NeedMore (call again once more bytes arrive),
// GotData (payload is a chunk of body content, sliced directly from data),
// or GotDone (the terminating chunk and any trailer fields have been read;
// Trailers() now returns them). rest is whatever of data the decoder didn't
// need for this step and should be fed into the next call immediately.
func (c *Chunked) Next(data []byte) (result Result, payload []byte, rest []byte, err error) {
	switch c.state {
	case chunkData:
		goto dataStep
	case chunkDataCRLF:
		goto dataCRLF
	case chunkTrailer:
		goto trailer
	}

size:
	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		var line []byte
		if c.acc.Len() == 0 {
			line = stripCR(data[:lf])
		} else {
			if !c.acc.Append(data[:lf]) {
				return NeedMore, nil, nil, ErrBadChunkSize
			}
			line = stripCR(c.acc.Bytes())
		}

		data = data[lf+1:]
		c.acc.Clear()

		if semi := bytes.IndexByte(line, ';'); semi != -1 {
			line = line[:semi]
		}

		n, ok := parseHex(trimOWSBytes(line))
		if !ok {
			return NeedMore, nil, nil, ErrBadChunkSize
		}

		if n == 0 {
			c.state = chunkTrailer
			goto trailer
		}

		c.remaining = n
		c.state = chunkData
		goto dataStep
	}

	if !c.acc.Append(data) {
		return NeedMore, nil, nil, ErrBadChunkSize
	}

	c.state = chunkSize
	return NeedMore, nil, nil, nil

dataStep:
	if len(data) == 0 {
		return NeedMore, nil, nil, nil
	}

	take := c.remaining
	if int64(len(data)) < take {
		take = int64(len(data))
	}

	payload = data[:take]
	data = data[take:]
	c.remaining -= take

	if c.remaining == 0 {
		c.state = chunkDataCRLF
	}

	return GotData, payload, data, nil

dataCRLF:
	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		var line []byte
		if c.acc.Len() == 0 {
			line = stripCR(data[:lf])
		} else {
			if !c.acc.Append(data[:lf]) {
				return NeedMore, nil, nil, ErrBadChunkEncoding
			}
			line = stripCR(c.acc.Bytes())
		}

		data = data[lf+1:]
		c.acc.Clear()

		if len(line) != 0 {
			return NeedMore, nil, nil, ErrBadChunkEncoding
		}

		c.state = chunkSize
		goto size
	}

	if !c.acc.Append(data) {
		return NeedMore, nil, nil, ErrBadChunkEncoding
	}

	c.state = chunkDataCRLF
	return NeedMore, nil, nil, nil

trailer:
	done, rest2, terr := c.trailer.Parse(data)
	if terr != nil {
		return NeedMore, nil, nil, terr
	}

	if !done {
		c.state = chunkTrailer
		return NeedMore, nil, nil, nil
	}

	return GotDone, nil, rest2, nil
}

// Trailers returns the trailer fields read during the last message, valid
// until the next Reset.
func (c *Chunked) Trailers() []Field {
	return c.trailer.Fields()
}

// Reset prepares the decoder for another chunked body.
func (c *Chunked) Reset() {
	c.state = chunkSize
	c.acc.Clear()
	c.remaining = 0
	c.trailer.Reset()
}

func parseHex(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}

	var n int64
	for _, c := range b {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		default:
			return 0, false
		}

		if n > (maxInt64-d)/16 {
			return 0, false
		}

		n = n*16 + d
	}

	return n, true
}

const maxInt64 = 1<<63 - 1
