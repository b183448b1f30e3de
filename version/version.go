// Package version models the two HTTP versions this engine speaks on the
// wire: 1.0 and 1.1. Anything else (0.9, 2, garbage) parses to Unknown and
// is rejected by the request-line/status-line readers.
package version

type Version uint8

const (
	Unknown Version = iota
	HTTP10
	HTTP11
)

const (
	tokenLen    = len("HTTP/1.1")
	majorOffset = len("HTTP/") + 0
	minorOffset = len("HTTP/1.")
	scheme      = "HTTP/"
)

var lut = [2][2]Version{
	1: {0: HTTP10, 1: HTTP11},
}

// FromBytes parses an exact "HTTP/x.y" token as it appears on the wire.
func FromBytes(b []byte) Version {
	if len(b) != tokenLen || string(b[:len(scheme)]) != scheme {
		return Unknown
	}

	major, minor := b[majorOffset]-'0', b[minorOffset]-'0'
	if major > 1 || minor > 1 {
		return Unknown
	}

	return lut[major][minor]
}

func (v Version) String() string {
	switch v {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

// AtLeast11 reports whether v is HTTP/1.1 or newer. Used by the keep-alive
// default rule: anything below 1.1 defaults to close.
func (v Version) AtLeast11() bool {
	return v >= HTTP11
}
