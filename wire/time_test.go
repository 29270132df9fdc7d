package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimeISO8601(t *testing.T) {
	tm, ok, err := ParseTime("2024-06-19T14:25:00Z")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2024, tm.Year())
	require.Equal(t, 14, tm.Hour())
}

func TestParseTimeNullDate(t *testing.T) {
	tm, ok, err := ParseTime("nulldate")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, tm.IsZero())
}

func TestParseTimeLegacy(t *testing.T) {
	tm, ok, err := ParseTime("Jun 19 14:25:00 2024")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2024, tm.Year())
	require.Equal(t, 6, int(tm.Month()))
	require.Equal(t, 19, tm.Day())
}
