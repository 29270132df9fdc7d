package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPseudoBase64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 63, 64, 65, 66, 4095, 1 << 20, 1<<31 - 1} {
		enc := IntToPseudoBase64(v)
		for _, c := range enc {
			require.Contains(t, pseudoBase64Alphabet, string(c))
		}
		got, err := PseudoBase64ToInt(enc)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
