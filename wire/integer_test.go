package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeIntScenarios(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{127, []byte{0x02, 0x01, 0x7F}},
		{-1, []byte{0x02, 0x01, 0xFF}},
		{128, []byte{0x02, 0x02, 0x00, 0x80}},
		{-129, []byte{0x02, 0x02, 0xFF, 0x7F}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, EncodeInt(c.v), "v=%d", c.v)
	}
}

func TestEncodeIntSmallWidth(t *testing.T) {
	for v := int64(-128); v <= 127; v++ {
		require.Len(t, EncodeInt(v), 3, "v=%d", v)
	}
}

func TestIntRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 127, 128, -128, -129, 32767, -32768, 32768,
		1 << 20, -(1 << 20), 1<<31 - 1, -(1 << 31)}
	for _, v := range values {
		enc := EncodeInt(v)
		got, n, err := DecodeInt(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, v, got)
	}
}

func TestLenRoundTrip(t *testing.T) {
	for _, l := range []int{0, 1, 0x7F, 0x80, 0xFF, 0x7FFF, 0x8000, 1 << 20} {
		enc := EncodeLen(l)
		if l < 0x80 {
			require.Len(t, enc, 1)
		}
		got, n, err := DecodeLen(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, l, got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "a longer string with spaces"} {
		enc := EncodeString(s)
		got, n, err := DecodeString(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, s, got)
	}
}

func TestIntArrayRoundTrip(t *testing.T) {
	vs := []int64{1, -1, 2, 2000000000, -2000000000}
	enc := EncodeIntArray(vs)
	got, n, err := DecodeIntArray(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, vs, got)
}

func TestStringArrayRoundTrip(t *testing.T) {
	ss := []string{"foo", "bar", ""}
	enc := EncodeStringArray(ss)
	got, n, err := DecodeStringArray(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, ss, got)
}
