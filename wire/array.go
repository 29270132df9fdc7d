// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package wire

import "github.com/pkg/errors"

// EncodeString returns the 0x16-tagged encoding of s: tag, length prefix,
// then the raw bytes. An empty string is encoded as the shorter 0x05 0x00
// form per the tag table.
func EncodeString(s string) []byte {
	if s == "" {
		return []byte{TagEmptyStr, emptyStrMark}
	}
	b := make([]byte, 0, 1+4+len(s))
	b = append(b, TagStr)
	b = append(b, EncodeLen(len(s))...)
	b = append(b, s...)
	return b
}

// DecodeString reads a string encoded by EncodeString (or the 0x05 0x00
// empty form) and returns its value and bytes consumed.
func DecodeString(b []byte) (string, int, error) {
	if len(b) < 1 {
		return "", 0, errors.Wrap(ErrTruncated, "decode string: empty")
	}
	switch b[0] {
	case TagEmptyStr:
		if len(b) < 2 || b[1] != emptyStrMark {
			return "", 0, errors.Wrap(ErrTruncated, "decode string: bad empty marker")
		}
		return "", 2, nil
	case TagStr:
		l, n, err := DecodeLen(b[1:])
		if err != nil {
			return "", 0, errors.Wrap(err, "decode string: length")
		}
		start := 1 + n
		if len(b) < start+l {
			return "", 0, errors.Wrap(ErrTruncated, "decode string: body")
		}
		s := string(b[start : start+l])
		// strip a single trailing NUL when the string was written as
		// NUL-terminated text, as legacy peers sometimes do.
		if l > 0 && s[l-1] == 0 {
			s = s[:l-1]
		}
		return s, start + l, nil
	default:
		return "", 0, errors.Errorf("decode string: unexpected tag 0x%02x", b[0])
	}
}

// EncodeIntArray returns the 0x30-tagged encoding of an integer array:
// tag, 0x82, a two-byte big-endian byte length, then the concatenated
// 0x02-encoded integers.
func EncodeIntArray(vs []int64) []byte {
	var body []byte
	for _, v := range vs {
		body = append(body, EncodeInt(v)...)
	}
	b := make([]byte, 0, 4+len(body))
	b = append(b, TagIntArray, intArrayMark)
	b = append(b, byte(len(body)>>8), byte(len(body)))
	b = append(b, body...)
	return b
}

// DecodeIntArray reads an integer array encoded by EncodeIntArray.
func DecodeIntArray(b []byte) ([]int64, int, error) {
	if len(b) < 4 || b[0] != TagIntArray || b[1] != intArrayMark {
		return nil, 0, errors.Wrap(ErrTruncated, "decode int array: header")
	}
	byteLen := int(b[2])<<8 | int(b[3])
	if len(b) < 4+byteLen {
		return nil, 0, errors.Wrap(ErrTruncated, "decode int array: body")
	}
	body := b[4 : 4+byteLen]
	var vs []int64
	consumed := 0
	for consumed < byteLen {
		v, n, err := DecodeInt(body[consumed:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "decode int array: element")
		}
		vs = append(vs, v)
		consumed += n
	}
	return vs, 4 + byteLen, nil
}

// EncodeStringArray returns the 0x36 0x80-tagged encoding of a string
// array: concatenated 0x16 strings terminated by 0x00 0x00.
func EncodeStringArray(ss []string) []byte {
	b := []byte{TagStrArray, strArrayMark}
	for _, s := range ss {
		b = append(b, EncodeString(s)...)
	}
	b = append(b, 0x00, 0x00)
	return b
}

// DecodeStringArray reads a string array encoded by EncodeStringArray.
func DecodeStringArray(b []byte) ([]string, int, error) {
	if len(b) < 2 || b[0] != TagStrArray || b[1] != strArrayMark {
		return nil, 0, errors.Wrap(ErrTruncated, "decode string array: header")
	}
	pos := 2
	var ss []string
	for {
		if len(b) < pos+2 {
			return nil, 0, errors.Wrap(ErrTruncated, "decode string array: terminator")
		}
		if b[pos] == 0x00 && b[pos+1] == 0x00 {
			pos += 2
			break
		}
		s, n, err := DecodeString(b[pos:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "decode string array: element")
		}
		ss = append(ss, s)
		pos += n
	}
	return ss, pos, nil
}
