// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwise-go/dctm/netwise"
	"github.com/netwise-go/dctm/wire"
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

// runFakeServer answers requests on conn one at a time: for every
// incoming frame it decodes (sequence, rpc) from the header and hands
// them to handler, replying with a standard (seq, status=0) header and
// whatever body handler returns.
func runFakeServer(conn net.Conn, handler func(seq, rpc int64) []byte) {
	go func() {
		for {
			header, _, err := readFrame(conn)
			if err != nil {
				return
			}
			r := netwise.NewArgReader(header)
			seq, err := r.NextInt()
			if err != nil {
				return
			}
			rpc, err := r.NextInt()
			if err != nil {
				return
			}
			respHeader := netwise.NewArgWriter().Int(seq).Int(0).Bytes()
			respBody := handler(seq, rpc)
			if err := writeFrame(conn, respHeader, respBody); err != nil {
				return
			}
		}
	}()
}

// encodeEntryPointsObject builds the TYPE+OBJ wire text for a
// GeneratedType instance carrying repeating NAME/POS attributes, the
// shape parseEntryPoints expects off an ENTRY_POINTS response.
func encodeEntryPointsObject(names []string, opcodes []int64) []byte {
	w := wire.NewTextWriter()
	w.Token("TYPE").Token("GeneratedType").Token("100").Token("NULL").Int(2)
	w.Token("NAME").TypeMarker(wire.TypeString).Repeating(true).Int(0)
	w.Token("POS").TypeMarker(wire.TypeInt).Repeating(true).Int(0)

	w.Token("OBJ").Token("GeneratedType").Int(2)
	w.Int(int64(len(names)))
	for _, n := range names {
		w.String(n)
	}
	w.Int(int64(len(opcodes)))
	for _, o := range opcodes {
		w.Int(o)
	}
	w.Int(0) // no extended attrs
	return w.Bytes()
}

func listenLoopback(t *testing.T) (net.Listener, netwise.Config) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return ln, netwise.Config{Host: host, Port: port}
}

func TestDialPerformsHandshakeAndNegotiatesLocale(t *testing.T) {
	ln, transport := listenLoopback(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	entryPointsBody := encodeEntryPointsObject(
		[]string{"ENTRY_POINTS", "GET_ERRORS", "SET_LOCALE"},
		[]int64{0, 558, 900},
	)

	done := make(chan struct{})
	go func() {
		conn := <-accepted
		defer conn.Close()

		runFakeServer(conn, func(seq, rpc int64) []byte {
			switch rpc {
			case netwise.RPCNewSessionByAddr:
				return netwise.NewArgWriter().
					Str("").
					IntArray([]int64{0, 0, 0, 0, 0, 0, 0, 0}).
					Str("1111111111111111").
					Bytes()
			case netwise.RPCApplyForObject:
				return netwise.NewArgWriter().Str(string(entryPointsBody)).Int(1).Int(0).Int(0).Bytes()
			case netwise.RPCApplyForBool:
				return netwise.NewArgWriter().Int(1).Int(1).Int(0).Bytes()
			default:
				return netwise.NewArgWriter().Int(0).Int(1).Int(0).Bytes()
			}
		})
		<-done
	}()
	defer close(done)

	cfg := Config{Transport: transport, DocbaseID: 12345}
	sess, err := Dial(cfg)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "1111111111111111", sess.sessionID)
	require.Equal(t, 0, sess.serVersion)
	require.False(t, sess.iso8601)
	require.Contains(t, sess.entryPoints, "SET_LOCALE")

	require.NoError(t, sess.Close())
}

func TestDialFailsOnRejectedSession(t *testing.T) {
	ln, transport := listenLoopback(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	done := make(chan struct{})
	go func() {
		conn := <-accepted
		defer conn.Close()
		runFakeServer(conn, func(seq, rpc int64) []byte {
			return netwise.NewArgWriter().
				Str("[DM_SESSION_E_BAD_DOCBASE]rejected").
				IntArray([]int64{0, 0, 0, 0, 0, 0, 0, 0}).
				Str(nullID).
				Bytes()
		})
		<-done
	}()
	defer close(done)

	cfg := Config{Transport: transport, DocbaseID: 12345}
	_, err := Dial(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DM_SESSION_E_BAD_DOCBASE")
}
