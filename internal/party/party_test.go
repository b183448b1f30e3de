package party

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientHappyPath(t *testing.T) {
	s, ok := Client(Idle, KindRequest)
	require.True(t, ok)
	require.Equal(t, SendBody, s)

	s, ok = Client(SendBody, KindData)
	require.True(t, ok)
	require.Equal(t, SendBody, s)

	s, ok = Client(SendBody, KindEndOfMessage)
	require.True(t, ok)
	require.Equal(t, Done, s)
}

func TestClientIllegalEdge(t *testing.T) {
	_, ok := Client(Idle, KindData)
	require.False(t, ok)
}

func TestClientConnectionClosedFromTerminalStates(t *testing.T) {
	for _, s := range []State{Done, MustClose, Closed, Error} {
		next, ok := Client(s, KindConnectionClosed)
		require.True(t, ok, s.String())
		require.Equal(t, Closed, next)
	}

	_, ok := Client(SendBody, KindConnectionClosed)
	require.False(t, ok)
}

func TestServerHappyPath(t *testing.T) {
	s, ok := Server(SendResponse, KindInformationalResponse)
	require.True(t, ok)
	require.Equal(t, SendResponse, s)

	s, ok = Server(SendResponse, KindResponse)
	require.True(t, ok)
	require.Equal(t, SendBody, s)
}

func TestRecomputeKeepAliveDowngrade(t *testing.T) {
	client, server := Recompute(Done, SendBody, false)
	require.Equal(t, MustClose, client)
	require.Equal(t, SendBody, server)
}

func TestRecomputeForcedClosePropagation(t *testing.T) {
	client, server := Recompute(Closed, Done, true)
	require.Equal(t, Closed, client)
	require.Equal(t, MustClose, server)
}

func TestRecomputeIsNoopOnStableStates(t *testing.T) {
	client, server := Recompute(SendBody, SendResponse, true)
	require.Equal(t, SendBody, client)
	require.Equal(t, SendResponse, server)
}
