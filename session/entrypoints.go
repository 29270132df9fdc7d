// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/typedobject"
)

// entryPoints is the server's NAME/POS table: the method name a
// dynamic-surface call is issued against, and the opcode APPLY-family
// calls must use for it.
type entryPoints map[string]int64

// parseEntryPoints reads the paired repeating NAME/POS attributes off
// the ENTRY_POINTS response object.
func parseEntryPoints(obj *typedobject.TypedObject) (entryPoints, error) {
	names := obj.Get("NAME")
	positions := obj.Get("POS")
	if names == nil || positions == nil {
		return nil, errors.New("session: entry points object missing NAME/POS")
	}
	if names.Count() != positions.Count() {
		return nil, errors.New("session: entry points NAME/POS count mismatch")
	}
	out := make(entryPoints, names.Count())
	for i := 0; i < names.Count(); i++ {
		name, ok := names.At(i).(string)
		if !ok {
			return nil, errors.Errorf("session: entry point name at %d is not a string", i)
		}
		pos, ok := positions.At(i).(int64)
		if !ok {
			return nil, errors.Errorf("session: entry point position at %d is not an integer", i)
		}
		out[name] = pos
	}
	return out, nil
}

// opcode returns the APPLY-family method opcode registered for name, or
// an error if the server never advertised it.
func (sf entryPoints) opcode(name string) (int64, error) {
	pos, ok := sf[name]
	if !ok {
		return 0, errors.Errorf("session: unknown method %q", name)
	}
	return pos, nil
}
