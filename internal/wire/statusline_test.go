package wire

import (
	"strings"
	"testing"

	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
	"github.com/stretchr/testify/require"
)

func TestStatusLineWholeLine(t *testing.T) {
	sl := NewStatusLine(1024)
	done, rest, err := sl.Parse([]byte("HTTP/1.1 200 OK\r\nHost: x\r\n"))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, version.HTTP11, sl.Version)
	require.Equal(t, status.OK, sl.Code)
	require.Equal(t, "OK", string(sl.Reason))
	require.Equal(t, "Host: x\r\n", string(rest))
}

func TestStatusLineEmptyReason(t *testing.T) {
	sl := NewStatusLine(1024)
	done, _, err := sl.Parse([]byte("HTTP/1.1 204 \r\n"))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, status.NoContent, sl.Code)
	require.Empty(t, sl.Reason)
}

func TestStatusLineByteAtATime(t *testing.T) {
	sl := NewStatusLine(1024)
	line := "HTTP/1.1 404 Not Found\r\n"
	var done bool
	var err error
	for i := 0; i < len(line) && !done; i++ {
		done, _, err = sl.Parse([]byte{line[i]})
		require.NoError(t, err)
	}

	require.True(t, done)
	require.Equal(t, status.NotFound, sl.Code)
	require.Equal(t, "Not Found", string(sl.Reason))
}

func TestStatusLineMalformedCode(t *testing.T) {
	sl := NewStatusLine(1024)
	_, _, err := sl.Parse([]byte("HTTP/1.1 2XX OK\r\n"))
	require.ErrorIs(t, err, ErrMalformedStartLine)
}

func TestStatusLineUnsupportedVersion(t *testing.T) {
	sl := NewStatusLine(1024)
	_, _, err := sl.Parse([]byte("HTTP/2.0 200 OK\r\n"))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestStatusLineRejectsOversize(t *testing.T) {
	sl := NewStatusLine(4)
	_, _, err := sl.Parse([]byte("HTTP/1.1"))
	require.ErrorIs(t, err, ErrStatusLineTooLong)
}

// A whole oversize line delivered as a single Parse call must be rejected
// exactly like one that arrives fragmented across many calls: the limit is
// tracked unconditionally, not only while a token is being accumulated.
func TestStatusLineRejectsOversizeInOneCall(t *testing.T) {
	sl := NewStatusLine(16)
	line := "HTTP/1.1 200 " + strings.Repeat("x", 64) + "\r\n"
	_, _, err := sl.Parse([]byte(line))
	require.ErrorIs(t, err, ErrStatusLineTooLong)
}
