// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// DownloadBlock issues one GET_BLOCK-family request: [handle, index] out,
// (declared-length, last-flag, data) back. It aborts when the server
// reports a closed puller (length 0, not last) or when the declared
// length disagrees with the data actually carried.
func (sf *Conn) DownloadBlock(rpc, handle, index int64) (data []byte, last bool, err error) {
	args := NewArgWriter().Int(handle).Int(index).Bytes()
	body, err := sf.Exchange(rpc, args)
	if err != nil {
		return nil, false, err
	}

	r := NewArgReader(body)
	length, err := r.NextInt()
	if err != nil {
		return nil, false, errors.Wrap(err, "netwise: decode block length")
	}
	lastFlag, err := r.NextInt()
	if err != nil {
		return nil, false, errors.Wrap(err, "netwise: decode block last flag")
	}
	last = lastFlag == 1
	data, err = r.NextRaw()
	if err != nil {
		return nil, false, errors.Wrap(err, "netwise: decode block data")
	}

	if length == 0 && !last {
		return nil, false, errors.New("netwise: puller closed")
	}
	if int(length) != len(data) {
		return nil, false, errors.Errorf("netwise: invalid content size: declared %d got %d", length, len(data))
	}
	return data, last, nil
}

// Download returns an io.Reader that drives repeated GET_BLOCK5 calls
// against an already-open puller handle, stopping once the server sets
// the last-flag.
func (sf *Conn) Download(handle int64) io.Reader {
	return &blockReader{conn: sf, rpc: RPCGetBlock5, handle: handle}
}

type blockReader struct {
	conn         *Conn
	rpc, handle  int64
	index        int64
	buf          []byte
	done         bool
	err          error
}

func (sf *blockReader) Read(p []byte) (int, error) {
	for len(sf.buf) == 0 {
		if sf.done {
			if sf.err != nil {
				return 0, sf.err
			}
			return 0, io.EOF
		}
		data, last, err := sf.conn.DownloadBlock(sf.rpc, sf.handle, sf.index)
		if err != nil {
			sf.done, sf.err = true, err
			return 0, err
		}
		sf.index++
		sf.buf = data
		if last {
			sf.done = true
		}
	}
	n := copy(p, sf.buf)
	sf.buf = sf.buf[n:]
	return n, nil
}

// ServeUpload drives the client side of a content push: it issues
// DO_PUSH(handle), then answers each server-driven callback frame with
// up to CHUNKS[rpc] bytes read from src, until the server signals the
// stop-pushing opcode, at which point it sends an empty frame on its own
// sequence and returns.
func (sf *Conn) ServeUpload(handle int64, src io.Reader) error {
	seq, rpc, err := sf.doPush(handle)
	if err != nil {
		return errors.Wrap(err, "netwise: do push")
	}

	for {
		size, ok := ChunkSizes[rpc]
		if !ok {
			return errors.Errorf("netwise: unknown upload chunk opcode %d", rpc)
		}

		if size == 0 {
			return sf.stopPushing()
		}

		buf := make([]byte, size)
		n, rerr := io.ReadFull(src, buf)
		if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
			return errors.Wrap(rerr, "netwise: read upload source")
		}
		buf = buf[:n]
		last := n < size

		body := NewArgWriter().Int(int64(len(buf))).Int(boolInt(last)).Raw(buf).Bytes()
		header := encodeRequestHeader(seq, 0, false, 0, 0, 0)
		frame, err := buildFrame(header, body)
		if err != nil {
			return err
		}
		if _, err := sf.conn.Write(frame); err != nil {
			return errors.Wrap(err, "netwise: write upload chunk")
		}

		respHeader, _, err := readRawFrame(sf.conn)
		if err != nil {
			return errors.Wrap(err, "netwise: read upload callback")
		}
		if seq, rpc, err = decodeUploadHeader(respHeader); err != nil {
			return err
		}
	}
}

// doPush sends the initial DO_PUSH(handle) request and reads the
// server's first push callback, which carries its own (sequence, rpc)
// pair rather than a status.
func (sf *Conn) doPush(handle int64) (seq, rpc int64, err error) {
	clientSeq := sf.nextSequence()
	header := encodeRequestHeader(clientSeq, RPCDoPush, true, sf.cfg.Version, sf.cfg.Release, sf.cfg.Inumber)
	args := NewArgWriter().Int(handle).Bytes()
	frame, err := buildFrame(header, args)
	if err != nil {
		return 0, 0, err
	}
	if sf.cfg.CallTimeout > 0 {
		_ = sf.conn.SetDeadline(time.Now().Add(sf.cfg.CallTimeout))
	}
	if _, err := sf.conn.Write(frame); err != nil {
		return 0, 0, errors.Wrap(err, "netwise: write do push")
	}
	respHeader, _, err := readRawFrame(sf.conn)
	if err != nil {
		return 0, 0, errors.Wrap(err, "netwise: read do push callback")
	}
	return decodeUploadHeader(respHeader)
}

// stopPushing answers the server's stop-pushing opcode with an empty
// frame on the client's own current sequence, and waits for the
// standard (sequence, status) acknowledgement that closes the push out.
func (sf *Conn) stopPushing() error {
	clientSeq := sf.sequence
	header := encodeRequestHeader(clientSeq, 0, true, sf.cfg.Version, sf.cfg.Release, sf.cfg.Inumber)
	frame, err := buildFrame(header, nil)
	if err != nil {
		return err
	}
	if _, err := sf.conn.Write(frame); err != nil {
		return errors.Wrap(err, "netwise: write upload stop frame")
	}
	respHeader, _, err := readRawFrame(sf.conn)
	if err != nil {
		return errors.Wrap(err, "netwise: read upload stop acknowledgement")
	}
	gotSeq, status, err := decodeResponseHeader(respHeader)
	if err != nil {
		return err
	}
	if gotSeq != clientSeq {
		return errors.Errorf("netwise: upload stop sequence mismatch: got %d want %d", gotSeq, clientSeq)
	}
	if status != 0 {
		return errors.Errorf("netwise: upload stop bad status 0x%x", status)
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
