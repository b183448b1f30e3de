package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderBlockWholeBlock(t *testing.T) {
	hb := NewHeaderBlock(0, 0)
	done, rest, err := hb.Parse([]byte("Host: example.com\r\nContent-Length: 5\r\n\r\nhello"))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "hello", string(rest))

	fields := hb.Fields()
	require.Len(t, fields, 2)
	require.Equal(t, "Host", string(fields[0].Name))
	require.Equal(t, "example.com", string(fields[0].Value))
	require.Equal(t, "Content-Length", string(fields[1].Name))
	require.Equal(t, "5", string(fields[1].Value))
}

func TestHeaderBlockAcrossCalls(t *testing.T) {
	hb := NewHeaderBlock(0, 0)
	done, _, err := hb.Parse([]byte("Hos"))
	require.NoError(t, err)
	require.False(t, done)

	done, _, err = hb.Parse([]byte("t: example.com\r\n"))
	require.NoError(t, err)
	require.False(t, done)

	done, rest, err := hb.Parse([]byte("\r\n"))
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, rest)
	require.Equal(t, "example.com", func() string { v, _ := lookup(hb.Fields(), "Host"); return v }())
}

func TestHeaderBlockRejectsObsoleteFolding(t *testing.T) {
	hb := NewHeaderBlock(0, 0)
	_, _, err := hb.Parse([]byte("Host: example.com\r\n continued\r\n\r\n"))
	require.ErrorIs(t, err, ErrObsoleteLineFolding)
}

func TestHeaderBlockRejectsMalformedField(t *testing.T) {
	hb := NewHeaderBlock(0, 0)
	_, _, err := hb.Parse([]byte("NoColonHere\r\n\r\n"))
	require.ErrorIs(t, err, ErrMalformedHeaderField)
}

func TestHeaderBlockEnforcesMaxCount(t *testing.T) {
	hb := NewHeaderBlock(0, 1)
	_, _, err := hb.Parse([]byte("A: 1\r\nB: 2\r\n\r\n"))
	require.ErrorIs(t, err, ErrTooManyHeaders)
}

func TestHeaderBlockEnforcesSharedBudget(t *testing.T) {
	hb := NewHeaderBlock(10, 0)
	_, _, err := hb.Parse([]byte("Host: example.com\r\n\r\n"))
	require.ErrorIs(t, err, ErrLineTooLong)
}

func lookup(fields []Field, name string) (string, bool) {
	for _, f := range fields {
		if string(f.Name) == name {
			return string(f.Value), true
		}
	}

	return "", false
}
