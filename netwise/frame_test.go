// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndReadFrameRoundTrip(t *testing.T) {
	header := encodeRequestHeader(7, RPCApply, true, ClientVersion, ClientRelease, ClientInumber)
	body := NewArgWriter().Str("hello").Int(42).Bytes()

	frame, err := buildFrame(header, body)
	require.NoError(t, err)

	gotHeader, gotBody, err := readRawFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, header, gotHeader)
	require.Equal(t, body, gotBody)

	seq, rpc, err := decodeUploadHeader(gotHeader)
	require.NoError(t, err)
	require.Equal(t, int64(7), seq)
	require.Equal(t, int64(RPCApply), rpc)
}

func TestReadRawFrameRejectsWrongProtocolVersion(t *testing.T) {
	header := encodeRequestHeader(1, RPCApply, false, 0, 0, 0)
	frame, err := buildFrame(header, nil)
	require.NoError(t, err)
	frame[4] = 0x31 // corrupt the protocol version byte

	_, _, err = readRawFrame(bytes.NewReader(frame))
	require.Error(t, err)
}

func TestDecodeResponseHeader(t *testing.T) {
	header := NewArgWriter().Int(9).Int(0).Bytes()
	seq, status, err := decodeResponseHeader(header)
	require.NoError(t, err)
	require.Equal(t, int64(9), seq)
	require.Equal(t, int64(0), status)
}
