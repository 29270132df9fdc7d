// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// protocolVersion is the single byte every frame carries right after its
// 4-byte length prefix.
const protocolVersion byte = 0x30

// buildFrame assembles a complete frame: 4-byte big-endian length
// (counting everything that follows), the protocol version byte, a
// header-length byte, headerPayload, then body.
func buildFrame(headerPayload, body []byte) ([]byte, error) {
	if len(headerPayload) > 0xff {
		return nil, errors.New("netwise: header payload too large")
	}
	n := 2 + len(headerPayload) + len(body)
	out := make([]byte, 4, 4+n)
	binary.BigEndian.PutUint32(out, uint32(n))
	out = append(out, protocolVersion, byte(len(headerPayload)))
	out = append(out, headerPayload...)
	out = append(out, body...)
	return out, nil
}

// readRawFrame reads one complete frame off r and splits it into its
// header payload and body, validating the protocol version byte and the
// declared header length.
func readRawFrame(r io.Reader) (header, body []byte, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, nil, errors.Wrap(err, "read frame length")
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	rest := make([]byte, n)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, nil, errors.Wrap(err, "read frame body")
	}
	if len(rest) < 2 {
		return nil, nil, errors.New("frame shorter than its own header prefix")
	}
	if rest[0] != protocolVersion {
		return nil, nil, errors.Errorf("wrong protocol version 0x%02x, expected 0x%02x", rest[0], protocolVersion)
	}
	headerLen := int(rest[1])
	if len(rest) < 2+headerLen {
		return nil, nil, errors.New("truncated header")
	}
	return rest[2 : 2+headerLen], rest[2+headerLen:], nil
}

// encodeRequestHeader builds a client request header: sequence, rpc
// type, and — unless suppressed for an upload-continuation reply — the
// protocol identity triple (version, release, inumber).
func encodeRequestHeader(seq, rpc int64, includeIdentity bool, version, release, inumber int64) []byte {
	w := NewArgWriter().Int(seq).Int(rpc)
	if includeIdentity {
		w.Int(version).Int(release).Int(inumber)
	}
	return w.Bytes()
}

// decodeResponseHeader reads the (sequence, status) pair of a standard
// Request/Response or DownloadRequest/DownloadResponse reply.
func decodeResponseHeader(header []byte) (seq, status int64, err error) {
	r := NewArgReader(header)
	if seq, err = r.NextInt(); err != nil {
		return 0, 0, errors.Wrap(err, "decode response sequence")
	}
	if status, err = r.NextInt(); err != nil {
		return 0, 0, errors.Wrap(err, "decode response status")
	}
	return seq, status, nil
}

// decodeUploadHeader reads the (sequence, rpc) pair of a server-driven
// upload callback frame; unlike a normal response it carries no status.
func decodeUploadHeader(header []byte) (seq, rpc int64, err error) {
	r := NewArgReader(header)
	if seq, err = r.NextInt(); err != nil {
		return 0, 0, errors.Wrap(err, "decode upload sequence")
	}
	if rpc, err = r.NextInt(); err != nil {
		return 0, 0, errors.Wrap(err, "decode upload rpc")
	}
	return seq, rpc, nil
}
