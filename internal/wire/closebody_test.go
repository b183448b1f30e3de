package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloseBodyConsumesEverything(t *testing.T) {
	var c CloseBody
	require.Equal(t, "whatever arrives", string(c.Next([]byte("whatever arrives"))))
}
