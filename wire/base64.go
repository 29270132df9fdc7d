// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package wire

import "github.com/pkg/errors"

// pseudoBase64Alphabet is the digit alphabet used for D6 attribute
// positions: A-Za-z0-9+/, little-endian, 6 bits per digit.
const pseudoBase64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var pseudoBase64Index [256]int8

func init() {
	for i := range pseudoBase64Index {
		pseudoBase64Index[i] = -1
	}
	for i := 0; i < len(pseudoBase64Alphabet); i++ {
		pseudoBase64Index[pseudoBase64Alphabet[i]] = int8(i)
	}
}

// PseudoBase64ToInt decodes a little-endian pseudo-base64 string: digits
// are read right-to-left, accumulating (acc<<6)|digit.
func PseudoBase64ToInt(s string) (int64, error) {
	var v int64
	for i := len(s) - 1; i >= 0; i-- {
		d := pseudoBase64Index[s[i]]
		if d < 0 {
			return 0, errors.Errorf("pseudo-base64: invalid digit %q", s[i])
		}
		v = (v << 6) | int64(d)
	}
	return v, nil
}

// IntToPseudoBase64 encodes v using the same alphabet and digit order as
// PseudoBase64ToInt, emitting the minimal number of digits (at least one).
func IntToPseudoBase64(v int64) string {
	if v == 0 {
		return string(pseudoBase64Alphabet[0])
	}
	// PseudoBase64ToInt walks the string right-to-left so that the
	// rightmost digit carries the most significance; building the digit
	// sequence least-significant-first here produces exactly that layout
	// without any further reversal.
	var digits []byte
	for v > 0 {
		digits = append(digits, pseudoBase64Alphabet[v&0x3F])
		v >>= 6
	}
	return string(digits)
}
