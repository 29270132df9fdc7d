// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// serveFrames runs a single-threaded fake server against conn: for every
// frame it receives, it calls handler with the decoded (sequence, rpc,
// body) and writes back whatever header/body handler returns.
func serveFrames(conn net.Conn, handler func(seq, rpc int64, body []byte) (header, body []byte)) {
	go func() {
		for {
			header, body, err := readRawFrame(conn)
			if err != nil {
				return
			}
			seq, rpc, err := decodeUploadHeader(header)
			if err != nil {
				return
			}
			respHeader, respBody := handler(seq, rpc, body)
			frame, err := buildFrame(respHeader, respBody)
			if err != nil {
				return
			}
			if _, err := conn.Write(frame); err != nil {
				return
			}
		}
	}()
}

func TestConnCallApply(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Conn{conn: client}

	serveFrames(server, func(seq, rpc int64, body []byte) ([]byte, []byte) {
		respHeader := NewArgWriter().Int(seq).Int(0).Bytes()
		respBody := NewArgWriter().Str("msg").Int(5).Int(1).Int(0).Int(0).Bytes()
		return respHeader, respBody
	})

	res, err := c.Call(RPCApply, nil)
	require.NoError(t, err)
	require.True(t, res.HasValid)
	require.True(t, res.Valid)
	require.EqualValues(t, 5, res.Collection)
	require.True(t, res.Persistent)
	require.False(t, res.MayBeMore)
	require.Equal(t, []byte("msg"), res.Message)
}

func TestConnCallFragmentedContinuation(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Conn{conn: client}

	var calls int
	serveFrames(server, func(seq, rpc int64, body []byte) ([]byte, []byte) {
		calls++
		respHeader := NewArgWriter().Int(seq).Int(0).Bytes()
		if calls == 1 {
			return respHeader, NewArgWriter().Str("part1").Int(0x10).Bytes()
		}
		require.EqualValues(t, RPCGetNextPiece, rpc)
		return respHeader, NewArgWriter().Str("part2").Int(0).Bytes()
	})

	res, err := c.Call(RPCCloseCollection, nil)
	require.NoError(t, err)
	require.Equal(t, "part1part2", string(res.Message))
	require.Equal(t, 2, calls)
}

func TestConnCallDrainsPendingMessages(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Conn{conn: client}

	var drained bool
	c.OnPendingMessages = func() error {
		drained = true
		return nil
	}

	serveFrames(server, func(seq, rpc int64, body []byte) ([]byte, []byte) {
		respHeader := NewArgWriter().Int(seq).Int(0).Bytes()
		return respHeader, NewArgWriter().Str("msg").Int(0x02).Bytes()
	})

	_, err := c.Call(RPCCloseCollection, nil)
	require.NoError(t, err)
	require.True(t, drained)
}

func TestConnCallInvalidResultErrors(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Conn{conn: client}

	serveFrames(server, func(seq, rpc int64, body []byte) ([]byte, []byte) {
		respHeader := NewArgWriter().Int(seq).Int(0).Bytes()
		return respHeader, NewArgWriter().Str("msg").Int(0).Int(0).Bytes()
	})

	_, err := c.Call(999, nil)
	require.Error(t, err)
}

func TestDownloadBlockAndReader(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Conn{conn: client}

	chunks := [][]byte{[]byte("hello"), []byte("world")}
	serveFrames(server, func(seq, rpc int64, body []byte) ([]byte, []byte) {
		r := NewArgReader(body)
		_, _ = r.NextInt() // handle
		index, _ := r.NextInt()
		data := chunks[index]
		last := index == int64(len(chunks)-1)
		respHeader := NewArgWriter().Int(seq).Int(0).Bytes()
		respBody := NewArgWriter().Int(int64(len(data))).Int(boolInt(last)).Raw(data).Bytes()
		return respHeader, respBody
	})

	got, err := io.ReadAll(c.Download(42))
	require.NoError(t, err)
	require.Equal(t, "helloworld", string(got))
}

func TestServeUpload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Conn{conn: client, cfg: Config{Version: ClientVersion, Release: ClientRelease, Inumber: ClientInumber}}

	data := bytes.Repeat([]byte("x"), 300)
	var received []byte
	done := make(chan error, 1)

	go func() {
		header, _, err := readRawFrame(server)
		if err != nil {
			done <- err
			return
		}
		serverSeq, rpc, err := decodeUploadHeader(header)
		if err != nil {
			done <- err
			return
		}
		if rpc != RPCDoPush {
			done <- errRPCMismatch
			return
		}

		pushRpc := int64(RPCGetBlock1) // chunk size 256
		for {
			respHeader := NewArgWriter().Int(serverSeq).Int(pushRpc).Bytes()
			frame, _ := buildFrame(respHeader, nil)
			if _, err := server.Write(frame); err != nil {
				done <- err
				return
			}

			chHeader, chBody, err := readRawFrame(server)
			if err != nil {
				done <- err
				return
			}
			chSeq, _, err := decodeUploadHeader(chHeader)
			if err != nil {
				done <- err
				return
			}
			if chSeq != serverSeq {
				done <- errSeqMismatch
				return
			}

			r := NewArgReader(chBody)
			_, _ = r.NextInt() // length
			last, _ := r.NextInt()
			chunk, _ := r.NextRaw()
			received = append(received, chunk...)

			if last == 1 {
				break
			}
			serverSeq++
		}

		stopHeader := NewArgWriter().Int(serverSeq + 1).Int(int64(rpcStopPushing)).Bytes()
		frame, _ := buildFrame(stopHeader, nil)
		if _, err := server.Write(frame); err != nil {
			done <- err
			return
		}

		stopReqHeader, _, err := readRawFrame(server)
		if err != nil {
			done <- err
			return
		}
		clientSeq, _, err := decodeUploadHeader(stopReqHeader)
		if err != nil {
			done <- err
			return
		}
		ackHeader := NewArgWriter().Int(clientSeq).Int(0).Bytes()
		ackFrame, _ := buildFrame(ackHeader, nil)
		if _, err := server.Write(ackFrame); err != nil {
			done <- err
			return
		}
		done <- nil
	}()

	err := c.ServeUpload(7, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, data, received)
}

var (
	errRPCMismatch = &testError{"unexpected initial rpc"}
	errSeqMismatch = &testError{"chunk reply sequence mismatch"}
)

type testError struct{ msg string }

func (sf *testError) Error() string { return sf.msg }
