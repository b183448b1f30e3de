package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	require.Equal(t, HTTP11, FromBytes([]byte("HTTP/1.1")))
	require.Equal(t, HTTP10, FromBytes([]byte("HTTP/1.0")))
	require.Equal(t, Unknown, FromBytes([]byte("HTTP/2.0")))
	require.Equal(t, Unknown, FromBytes([]byte("HTTP/0.9")))
	require.Equal(t, Unknown, FromBytes([]byte("garbage")))
}

func TestAtLeast11(t *testing.T) {
	require.True(t, HTTP11.AtLeast11())
	require.False(t, HTTP10.AtLeast11())
	require.False(t, Unknown.AtLeast11())
}
