// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"

	"github.com/netwise-go/dctm/clog"
)

// Conn is one netwise connection: a single TCP or TLS socket, a
// monotonically increasing client sequence counter, and the RPC-level
// request/response pump built on top of the frame codec. A Conn is not
// safe for concurrent use — the protocol itself is strictly
// request/response, so callers MUST serialize calls.
type Conn struct {
	conn net.Conn
	cfg  Config
	log  clog.Clog

	sequence int64
	draining bool

	// OnPendingMessages is invoked when a response's OOB byte reports
	// pending server messages (bit 0x02), guarded by a single-level
	// re-entrancy latch so a GET_ERRORS drain triggered from within this
	// hook never recurses. It is nil until the owning session installs
	// one; a nil hook simply skips the drain. A non-nil error return is
	// propagated to the call that observed the pending-messages bit,
	// taking priority over a plain invalid-result error.
	OnPendingMessages func() error
}

// Result is the decoded shape of one RPC response: the free-form result
// bytes (Message, itself often a typed-object text blob the caller
// decodes further), the positional fields the given opcode's response
// carries, and the out-of-band byte that closed it out.
type Result struct {
	Message     []byte
	RawMessage  interface{}
	HasValid    bool
	Valid       bool
	Collection  int64
	Persistent  bool
	MayBeMore   bool
	RecordCount int64
	OOB         int64
}

// Dial opens a netwise connection per cfg: TCP (optionally through a
// SOCKS proxy), then an optional TLS wrap.
func Dial(cfg Config) (*Conn, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	var (
		raw net.Conn
		err error
	)
	if cfg.ProxyURL != nil {
		dialer, derr := proxy.FromURL(cfg.ProxyURL, &net.Dialer{Timeout: cfg.ConnectTimeout})
		if derr != nil {
			return nil, errors.Wrap(derr, "netwise: proxy dialer")
		}
		raw, err = dialer.Dial("tcp", addr)
	} else {
		raw, err = net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	}
	if err != nil {
		return nil, errors.Wrap(err, "netwise: dial")
	}

	if cfg.Secure {
		tlsConn := tls.Client(raw, cfg.TLSConfig)
		_ = tlsConn.SetDeadline(time.Now().Add(cfg.ConnectTimeout))
		if err := tlsConn.Handshake(); err != nil {
			raw.Close()
			return nil, errors.Wrap(err, "netwise: tls handshake")
		}
		_ = tlsConn.SetDeadline(time.Time{})
		raw = tlsConn
	}

	return &Conn{conn: raw, cfg: cfg, log: clog.NewLogger("netwise")}, nil
}

// LogMode enables or disables frame-level tracing.
func (sf *Conn) LogMode(enable bool) { sf.log.LogMode(enable) }

// SetLogProvider overrides the logging backend.
func (sf *Conn) SetLogProvider(p clog.LogProvider) { sf.log.SetLogProvider(p) }

// Close tears down the underlying socket. Idempotent: closing an already
// closed net.Conn returns its own (ignorable) error, which Close passes
// through unchanged.
func (sf *Conn) Close() error {
	if sf.conn == nil {
		return nil
	}
	return sf.conn.Close()
}

func (sf *Conn) nextSequence() int64 {
	sf.sequence++
	return sf.sequence
}

// Exchange performs one bare request/response round trip: it does not
// interpret the response body at all beyond validating the frame
// envelope (sequence echo, zero status). DownloadBlock, the session's
// handshake calls and the docbroker query, which read the body by hand
// (rather than through the opcode-shape dispatch in Call), use this
// directly.
func (sf *Conn) Exchange(rpc int64, body []byte) ([]byte, error) {
	seq := sf.nextSequence()
	header := encodeRequestHeader(seq, rpc, true, sf.cfg.Version, sf.cfg.Release, sf.cfg.Inumber)
	frame, err := buildFrame(header, body)
	if err != nil {
		return nil, errors.Wrap(err, "netwise: build frame")
	}
	if sf.cfg.CallTimeout > 0 {
		_ = sf.conn.SetDeadline(time.Now().Add(sf.cfg.CallTimeout))
	}
	sf.log.Debug("-> seq=%d rpc=%d bytes=%d", seq, rpc, len(body))
	if _, err := sf.conn.Write(frame); err != nil {
		return nil, errors.Wrap(err, "netwise: write frame")
	}

	respHeader, respBody, err := readRawFrame(sf.conn)
	if err != nil {
		return nil, errors.Wrap(err, "netwise: read frame")
	}
	gotSeq, status, err := decodeResponseHeader(respHeader)
	if err != nil {
		return nil, err
	}
	if gotSeq != seq {
		return nil, errors.Errorf("netwise: sequence mismatch: got %d want %d", gotSeq, seq)
	}
	if status != 0 {
		return nil, errors.Errorf("netwise: bad status 0x%x", status)
	}
	sf.log.Debug("<- seq=%d bytes=%d", gotSeq, len(respBody))
	return respBody, nil
}

// Call issues rpc with the given pre-encoded arguments, decodes the
// response's opcode-specific positional fields and trailing OOB byte,
// drains pending server messages through OnPendingMessages, and follows a
// fragmented-reply continuation via GET_NEXT_PIECE. It returns an error
// when the opcode's validity field is false and no message-queue error
// took priority, mirroring the reference client's rpc() dispatch.
func (sf *Conn) Call(rpc int64, args []byte) (Result, error) {
	body, err := sf.Exchange(rpc, args)
	if err != nil {
		return Result{}, err
	}

	r := NewArgReader(body)
	message, err := r.Next()
	if err != nil {
		return Result{}, errors.Wrap(err, "netwise: decode result message")
	}

	var result Result
	switch rpc {
	case RPCApplyForObject:
		v, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		p, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		result.HasValid, result.Valid, result.Persistent = true, v > 0, p > 0
	case RPCApply:
		c, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		p, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		m, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		result.Collection, result.Persistent, result.MayBeMore = c, p > 0, m > 0
		result.HasValid, result.Valid = true, c >= 0
	case RPCCloseCollection, RPCGetNextPiece:
		// no positional fields beyond message and OOB.
	case RPCMultiNext:
		rc, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		m, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		v, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		result.RecordCount, result.MayBeMore = rc, m > 0
		result.HasValid, result.Valid = true, v > 0
	default:
		v, err := r.NextInt()
		if err != nil {
			return Result{}, err
		}
		result.HasValid, result.Valid = true, v > 0
	}

	oob, err := r.NextInt()
	if err != nil {
		return Result{}, errors.Wrap(err, "netwise: decode OOB byte")
	}
	result.OOB = oob
	result.RawMessage = message
	result.Message = messageBytes(message)

	if oob&0x02 != 0 && sf.OnPendingMessages != nil && !sf.draining {
		sf.draining = true
		msgErr := sf.OnPendingMessages()
		sf.draining = false
		if msgErr != nil {
			return result, msgErr
		}
	}

	if result.HasValid && !result.Valid {
		return result, errors.New("netwise: unknown error")
	}

	fragmented := oob == 0x10 || (oob == 0x01 && rpc == RPCGetNextPiece)
	if fragmented {
		next, err := sf.Call(RPCGetNextPiece, nil)
		if err != nil {
			return result, err
		}
		result.Message = append(result.Message, next.Message...)
		if s, ok := result.RawMessage.(string); ok {
			result.RawMessage = s + string(next.Message)
		}
	}

	return result, nil
}

// messageBytes normalizes the first body item of a Call response (an
// int or a string, per the tag it happened to carry) into bytes.
func messageBytes(v interface{}) []byte {
	switch t := v.(type) {
	case string:
		return []byte(t)
	case nil:
		return nil
	default:
		return nil
	}
}
