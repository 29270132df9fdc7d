// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package typedobject implements the TypedObject wire model: Type schema
// descriptors with inheritance flattening, a process-wide TypeCache, and
// the dual legacy-text / D6 codecs used to serialize and parse instances.
package typedobject

import "github.com/netwise-go/dctm/wire"

// AttrInfo is the schema record for one attribute of a Type.
type AttrInfo struct {
	// Position is the D6 pseudo-base64 identifier of this attribute
	// within its Type; -1 when undefined (legacy text mode never sets
	// it, attributes are ordinal there instead).
	Position int

	Name        string
	Type        wire.SemanticType
	Repeating   bool
	Length      int
	Restriction int // D6 only
}

// Clone returns a value copy of sf, used when an attribute is inherited
// from a supertype during Type.Extend.
func (sf AttrInfo) Clone() AttrInfo {
	return sf
}
