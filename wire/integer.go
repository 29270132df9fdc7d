// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package wire implements the primitive codecs shared by the typed-object
// serializer and the frame transport: tagged integers, length prefixes,
// integer/string arrays, the legacy text tokenizer, pseudo-base64 integers
// and password obfuscation.
package wire

import (
	"github.com/pkg/errors"
)

// Tag bytes of the binary codec.
const (
	TagInt        byte = 0x02
	TagEmptyStr   byte = 0x05
	TagStr        byte = 0x16
	TagIntArray   byte = 0x30
	TagStrArray   byte = 0x36
	intArrayMark  byte = 0x82
	strArrayMark  byte = 0x80
	emptyStrMark  byte = 0x00
	lenLongFlag   byte = 0x80
	lenShortLimit byte = 0x80
)

// ErrTruncated is returned when a decode function runs out of input
// before a complete item has been read.
var ErrTruncated = errors.New("wire: truncated input")

// intCacheMax bounds the hot-path memoization ranges called out by the
// spec: encodeInt for [-0xFFFF, 0xFFFF] and encodeLen for [0, 0xFFFF].
const intCacheMax = 0xFFFF

var (
	intEncodeCache [2*intCacheMax + 1][]byte
	lenEncodeCache [intCacheMax + 1][]byte
)

func init() {
	for v := -intCacheMax; v <= intCacheMax; v++ {
		intEncodeCache[v+intCacheMax] = encodeIntUncached(int64(v))
	}
	for v := 0; v <= intCacheMax; v++ {
		lenEncodeCache[v] = encodeLenUncached(v)
	}
}

// EncodeInt returns the 0x02-tagged encoding of v: tag byte, one length
// byte L in [1,4], then L big-endian (MSB-first) bytes. The minimal width
// that round-trips v through two's-complement sign extension is chosen.
func EncodeInt(v int64) []byte {
	if v >= -intCacheMax && v <= intCacheMax {
		return intEncodeCache[v+intCacheMax]
	}
	return encodeIntUncached(v)
}

func encodeIntUncached(v int64) []byte {
	width := intWidth(v)
	b := make([]byte, 2+width)
	b[0] = TagInt
	b[1] = byte(width)
	for i := 0; i < width; i++ {
		shift := uint(8 * (width - 1 - i))
		b[2+i] = byte(v >> shift)
	}
	return b
}

// intWidth returns the minimal byte count L in [1,4] such that the L
// MSB-first bytes of v sign-extend back to v.
func intWidth(v int64) int {
	for _, w := range [...]int{1, 2, 3, 4} {
		lo := int64(-1) << (uint(w)*8 - 1)
		hi := -lo - 1
		if v >= lo && v <= hi {
			return w
		}
	}
	return 4
}

// DecodeInt reads a 0x02-tagged integer from b and returns its value and
// the number of bytes consumed. The payload is sign-extended per its top
// bit, per spec: a length-L payload whose top bit is set decodes negative.
func DecodeInt(b []byte) (int64, int, error) {
	if len(b) < 2 || b[0] != TagInt {
		return 0, 0, errors.Wrap(ErrTruncated, "decode int: missing tag")
	}
	l := int(b[1])
	if l < 1 || l > 4 || len(b) < 2+l {
		return 0, 0, errors.Wrap(ErrTruncated, "decode int: bad length")
	}
	var v int64
	if b[2]&0x80 != 0 {
		v = -1
	}
	for i := 0; i < l; i++ {
		v = (v << 8) | int64(b[2+i])
	}
	return v, 2 + l, nil
}

// EncodeLen returns the length-prefix encoding of L: a single byte if
// L < 0x80, else a byte whose low 7 bits give the following MSB-first
// byte count (1..4), followed by those bytes.
func EncodeLen(l int) []byte {
	if l >= 0 && l <= intCacheMax {
		return lenEncodeCache[l]
	}
	return encodeLenUncached(l)
}

func encodeLenUncached(l int) []byte {
	if l < int(lenShortLimit) {
		return []byte{byte(l)}
	}
	width := lenWidth(l)
	b := make([]byte, 1+width)
	b[0] = lenLongFlag | byte(width)
	for i := 0; i < width; i++ {
		shift := uint(8 * (width - 1 - i))
		b[1+i] = byte(l >> shift)
	}
	return b
}

func lenWidth(l int) int {
	for _, w := range [...]int{1, 2, 3, 4} {
		if l < 1<<(uint(w)*8) {
			return w
		}
	}
	return 4
}

// DecodeLen reads a length prefix from b and returns the decoded length
// and the number of bytes consumed.
func DecodeLen(b []byte) (int, int, error) {
	if len(b) < 1 {
		return 0, 0, errors.Wrap(ErrTruncated, "decode len: empty")
	}
	v := b[0]
	if v < lenShortLimit {
		return int(v), 1, nil
	}
	width := int(v & 0x7F)
	if width < 1 || width > 4 || len(b) < 1+width {
		return 0, 0, errors.Wrap(ErrTruncated, "decode len: bad width")
	}
	l := 0
	for i := 0; i < width; i++ {
		l = (l << 8) | int(b[1+i])
	}
	return l, 1 + width, nil
}
