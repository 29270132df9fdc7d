// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package docbroker

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwise-go/dctm/netwise"
)

const testProtocolVersion byte = 0x30

func writeFrame(w io.Writer, header, body []byte) error {
	n := 2 + len(header) + len(body)
	out := make([]byte, 4, 4+n)
	binary.BigEndian.PutUint32(out, uint32(n))
	out = append(out, testProtocolVersion, byte(len(header)))
	out = append(out, header...)
	out = append(out, body...)
	_, err := w.Write(out)
	return err
}

func readFrame(r io.Reader) (header, body []byte, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	rest := make([]byte, n)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, nil, err
	}
	headerLen := int(rest[1])
	return rest[2 : 2+headerLen], rest[2+headerLen:], nil
}

// serveOneDocbrokerQuery answers a single request/response on conn,
// then closes it, matching the broker's own one-shot-per-connection
// behavior: it decodes the incoming sequence, replies with it and the
// given body, and tears the socket down.
func serveOneDocbrokerQuery(t *testing.T, conn net.Conn, body []byte) {
	t.Helper()
	defer conn.Close()
	header, _, err := readFrame(conn)
	require.NoError(t, err)
	r := netwise.NewArgReader(header)
	seq, err := r.NextInt()
	require.NoError(t, err)
	respHeader := netwise.NewArgWriter().Int(seq).Int(0).Bytes()
	require.NoError(t, writeFrame(conn, respHeader, body))
}

func listenLoopback(t *testing.T) (net.Listener, string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return ln, host, port
}

func TestGetDocbaseMap(t *testing.T) {
	ln, host, port := listenLoopback(t)
	defer ln.Close()

	objectText := encodeDocbaseMapObject([]string{"docbase1"}, "INET_ADDR 02 0665 01 00 host.example")
	respBody := netwise.NewArgWriter().Str(string(objectText)).Bytes()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn := <-accepted
		serveOneDocbrokerQuery(t, conn, respBody)
	}()

	m, err := Dial(host, port).GetDocbaseMap()
	<-done
	require.NoError(t, err)
	names, ok := m.Get("r_docbase_name")
	require.True(t, ok)
	require.Equal(t, []string{"docbase1"}, names)
}

func TestGetServerMapFailsWhenNoServers(t *testing.T) {
	ln, host, port := listenLoopback(t)
	defer ln.Close()

	objectText := encodeDocbaseMapObject([]string{}, "INET_ADDR 02 0665 01 00 host.example")
	respBody := netwise.NewArgWriter().Str(string(objectText)).Bytes()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn := <-accepted
		serveOneDocbrokerQuery(t, conn, respBody)
	}()

	_, err := Dial(host, port).GetServerMap("docbase1")
	<-done
	require.Error(t, err)
}
