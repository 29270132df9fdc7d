// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgWriterReaderRoundTrip(t *testing.T) {
	body := NewArgWriter().
		Int(-5).
		Str("hello").
		IntArray([]int64{1, 2, 3}).
		Bytes()

	r := NewArgReader(body)

	v, err := r.NextInt()
	require.NoError(t, err)
	require.Equal(t, int64(-5), v)

	s, err := r.NextString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	arr, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, arr)

	require.True(t, r.Done())
}

func TestArgReaderNextRawPreservesTrailingNUL(t *testing.T) {
	raw := []byte("payload\x00")
	body := NewArgWriter().Raw(raw).Bytes()

	r := NewArgReader(body)
	got, err := r.NextRaw()
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestArgReaderStringStripsTrailingNUL(t *testing.T) {
	body := NewArgWriter().Str("text\x00").Bytes()

	r := NewArgReader(body)
	s, err := r.NextString()
	require.NoError(t, err)
	require.Equal(t, "text", s)
}

func TestArgReaderNextIntArray(t *testing.T) {
	body := NewArgWriter().IntArray([]int64{7, -1, 2}).Bytes()
	r := NewArgReader(body)
	arr, err := r.NextIntArray()
	require.NoError(t, err)
	require.Equal(t, []int64{7, -1, 2}, arr)
}

func TestArgReaderEmptyRaw(t *testing.T) {
	body := NewArgWriter().Raw(nil).Bytes()
	r := NewArgReader(body)
	got, err := r.NextRaw()
	require.NoError(t, err)
	require.Empty(t, got)
}
