// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package typedobject

import "github.com/netwise-go/dctm/wire"

// AttrValue carries one attribute's runtime value(s) within a
// TypedObject: a single value for a non-repeating attribute, or an
// ordered slice for a repeating one.
type AttrValue struct {
	Name      string
	Type      wire.SemanticType
	Length    int
	Repeating bool
	Extended  bool

	// Position is the D6 wire position of a non-extended attribute, or
	// the plain ordinal index under a legacy (ser-version 0) type. It is
	// meaningless for an extended attribute, which carries its own name
	// and type marker in the stream instead.
	Position int

	Values []interface{}
}

// NewAttrValue returns an AttrValue for a scalar or repeating attribute,
// normalizing a nil values slice to empty.
func NewAttrValue(name string, typ wire.SemanticType, repeating bool, length int, values []interface{}) *AttrValue {
	if values == nil {
		values = []interface{}{}
	}
	return &AttrValue{Name: name, Type: typ, Repeating: repeating, Length: length, Values: values}
}

// Count returns the number of values sf carries: len(Values) when
// repeating, 1 otherwise (even when the single slot is empty).
func (sf *AttrValue) Count() int {
	if sf.Repeating {
		return len(sf.Values)
	}
	return 1
}

// At returns the value at index i, or nil for an unset scalar slot.
func (sf *AttrValue) At(i int) interface{} {
	if sf.Repeating {
		if i < 0 || i >= len(sf.Values) {
			return nil
		}
		return sf.Values[i]
	}
	if i != 0 || len(sf.Values) == 0 {
		return nil
	}
	return sf.Values[0]
}

// Value returns the scalar value of a non-repeating attribute.
func (sf *AttrValue) Value() interface{} { return sf.At(0) }
