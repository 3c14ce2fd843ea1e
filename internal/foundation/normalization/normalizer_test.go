package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mode string

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]mode{"Client": "client", "server": "server"}, "all")

	require.Equal(t, mode("client"), n.Normalize("  CLIENT "))
	require.Equal(t, mode("all"), n.Normalize("nope"))
	require.Equal(t, []string{"client", "server"}, n.ValidKeys())

	v, err := n.NormalizeWithError("")
	require.NoError(t, err)
	require.Equal(t, mode("all"), v)

	_, err = n.NormalizeWithError("edge")
	require.ErrorContains(t, err, "valid options")
}
