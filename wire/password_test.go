package wire

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^([0-9a-f]{2})+$`)

func TestObfuscateIsHex(t *testing.T) {
	for _, p := range []string{"secret", "password123", "s"} {
		require.Regexp(t, hexPattern, Obfuscate(p))
	}
}

func TestObfuscateIdempotent(t *testing.T) {
	for _, p := range []string{"secret", "password123", "another-one"} {
		once := Obfuscate(p)
		twice := Obfuscate(once)
		require.Equal(t, once, twice)
		require.True(t, IsObfuscated(once))
	}
}

func TestObfuscateSecret(t *testing.T) {
	// "secret" reversed is "terces"; each byte XORed with 0xB6.
	got := Obfuscate("secret")
	require.Len(t, got, 12)
	require.True(t, IsObfuscated(got))
}
