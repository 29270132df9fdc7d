// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

import (
	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/wire"
)

// ArgWriter builds a frame body: a concatenation of 0x02/0x05/0x16/0x30/
// 0x36 items, one per request argument or response value.
type ArgWriter struct {
	buf []byte
}

// NewArgWriter returns an empty ArgWriter.
func NewArgWriter() *ArgWriter { return &ArgWriter{} }

// Int appends a 0x02-tagged integer argument.
func (sf *ArgWriter) Int(v int64) *ArgWriter {
	sf.buf = append(sf.buf, wire.EncodeInt(v)...)
	return sf
}

// Str appends a 0x16/0x05-tagged string argument.
func (sf *ArgWriter) Str(s string) *ArgWriter {
	sf.buf = append(sf.buf, wire.EncodeString(s)...)
	return sf
}

// Raw appends b as an opaque string argument, without treating it as
// NUL-terminated text: used for binary upload chunks.
func (sf *ArgWriter) Raw(b []byte) *ArgWriter {
	sf.buf = append(sf.buf, encodeRawBytes(b)...)
	return sf
}

// IntArray appends a 0x30-tagged integer array argument.
func (sf *ArgWriter) IntArray(vs []int64) *ArgWriter {
	sf.buf = append(sf.buf, wire.EncodeIntArray(vs)...)
	return sf
}

// Object appends a typed object's text serialization as a string
// argument, matching how method arguments such as SET_LOCALE or
// AUTHENTICATE_USER carry a TypedObject payload.
func (sf *ArgWriter) Object(encoded []byte) *ArgWriter {
	sf.buf = append(sf.buf, wire.EncodeString(string(encoded))...)
	return sf
}

// Bytes returns the accumulated body.
func (sf *ArgWriter) Bytes() []byte { return sf.buf }

// ArgReader walks a frame body one item at a time, auto-detecting each
// item's tag the way the reference client's Response.next() does.
type ArgReader struct {
	buf []byte
}

// NewArgReader wraps a frame body for sequential reading.
func NewArgReader(b []byte) *ArgReader { return &ArgReader{buf: b} }

// Done reports whether every item has been consumed.
func (sf *ArgReader) Done() bool { return len(sf.buf) == 0 }

// Remaining returns the unread tail of the body.
func (sf *ArgReader) Remaining() []byte { return sf.buf }

// Next reads one item, returning it as int64, string, []int64 or nil at
// end of input, dispatching on the leading tag byte exactly as the
// reference client's generic response reader does.
func (sf *ArgReader) Next() (interface{}, error) {
	if len(sf.buf) == 0 {
		return nil, nil
	}
	switch sf.buf[0] {
	case wire.TagInt:
		v, n, err := wire.DecodeInt(sf.buf)
		if err != nil {
			return nil, errors.Wrap(err, "netwise: decode int argument")
		}
		sf.buf = sf.buf[n:]
		return v, nil
	case wire.TagEmptyStr, wire.TagStr:
		v, n, err := wire.DecodeString(sf.buf)
		if err != nil {
			return nil, errors.Wrap(err, "netwise: decode string argument")
		}
		sf.buf = sf.buf[n:]
		return v, nil
	case wire.TagIntArray:
		v, n, err := wire.DecodeIntArray(sf.buf)
		if err != nil {
			return nil, errors.Wrap(err, "netwise: decode int array argument")
		}
		sf.buf = sf.buf[n:]
		return v, nil
	default:
		return nil, errors.Errorf("netwise: unknown argument tag 0x%02x", sf.buf[0])
	}
}

// NextInt reads one item and requires it to be an integer.
func (sf *ArgReader) NextInt() (int64, error) {
	v, err := sf.Next()
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, errors.New("netwise: expected integer argument")
	}
	return n, nil
}

// NextString reads one item and requires it to be a string.
func (sf *ArgReader) NextString() (string, error) {
	v, err := sf.Next()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("netwise: expected string argument")
	}
	return s, nil
}

// NextIntArray reads one item and requires it to be an integer array.
func (sf *ArgReader) NextIntArray() ([]int64, error) {
	v, err := sf.Next()
	if err != nil {
		return nil, err
	}
	a, ok := v.([]int64)
	if !ok {
		return nil, errors.New("netwise: expected integer array argument")
	}
	return a, nil
}

// NextRaw reads one item as opaque binary (no trailing-NUL stripping),
// for the DownloadResponse request class.
func (sf *ArgReader) NextRaw() ([]byte, error) {
	if len(sf.buf) == 0 {
		return nil, errors.New("netwise: no more arguments")
	}
	b, n, err := decodeRawBytes(sf.buf)
	if err != nil {
		return nil, errors.Wrap(err, "netwise: decode raw argument")
	}
	sf.buf = sf.buf[n:]
	return b, nil
}

// encodeRawBytes is EncodeString without the symmetric NUL-termination
// rule: used for binary content chunks that may legitimately end in a
// zero byte.
func encodeRawBytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte{wire.TagEmptyStr, 0x00}
	}
	out := make([]byte, 0, 1+4+len(b))
	out = append(out, wire.TagStr)
	out = append(out, wire.EncodeLen(len(b))...)
	out = append(out, b...)
	return out
}

// decodeRawBytes reads a string item as opaque bytes, without stripping
// a trailing NUL: the DownloadResponse counterpart of wire.DecodeString.
func decodeRawBytes(b []byte) ([]byte, int, error) {
	if len(b) < 1 {
		return nil, 0, errors.Wrap(wire.ErrTruncated, "decode raw: empty")
	}
	switch b[0] {
	case wire.TagEmptyStr:
		if len(b) < 2 || b[1] != 0x00 {
			return nil, 0, errors.Wrap(wire.ErrTruncated, "decode raw: bad empty marker")
		}
		return []byte{}, 2, nil
	case wire.TagStr:
		l, n, err := wire.DecodeLen(b[1:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "decode raw: length")
		}
		start := 1 + n
		if len(b) < start+l {
			return nil, 0, errors.Wrap(wire.ErrTruncated, "decode raw: body")
		}
		out := make([]byte, l)
		copy(out, b[start:start+l])
		return out, start + l, nil
	default:
		return nil, 0, errors.Errorf("decode raw: unexpected tag 0x%02x", b[0])
	}
}
