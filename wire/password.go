// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"regexp"
)

const obfuscateXOR = 0xB6

var obfuscatedPattern = regexp.MustCompile(`^([0-9a-f]{2})+$`)

// IsObfuscated reports whether p is already an obfuscated password: an
// even-length lowercase hex string where every decoded byte is either
// exactly 0xB6 or XORs with 0xB6 to a value <= 0x7F.
func IsObfuscated(p string) bool {
	if !obfuscatedPattern.MatchString(p) {
		return false
	}
	for i := 0; i < len(p); i += 2 {
		var x byte
		if _, err := fmt.Sscanf(p[i:i+2], "%02x", &x); err != nil {
			return false
		}
		if x != obfuscateXOR && (x^obfuscateXOR) > 0x7F {
			return false
		}
	}
	return true
}

// Obfuscate returns the obfuscated form of password p: the byte sequence
// reversed, each byte x mapped to x (if x == 0xB6) or x^0xB6, emitted as
// lowercase hex. Obfuscating an already-obfuscated password is a no-op
// (idempotent), matching the dynamic-method-surface contract that callers
// may pass either a plaintext or pre-obfuscated password.
func Obfuscate(password string) string {
	if IsObfuscated(password) {
		return password
	}
	b := []byte(password)
	out := make([]byte, len(b))
	for i, x := range b {
		if x != obfuscateXOR {
			x ^= obfuscateXOR
		}
		out[len(b)-1-i] = x
	}
	return fmt.Sprintf("%x", out)
}
