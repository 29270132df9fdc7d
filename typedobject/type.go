// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package typedobject

import "github.com/pkg/errors"

// Type is a Documentum object type's schema descriptor: ordered attribute
// list, D6 position map, and pending-supertype-name used by TypeCache to
// flatten a supertype chain in place as each link arrives.
type Type struct {
	Name             string
	ID               string
	Vstamp           int64
	Version          int64
	Cache            int64
	Super            string
	SharedParent     string
	AspectName       string
	AspectShareFlag  bool
	SerVersion       int

	attrs     []AttrInfo
	positions map[int]AttrInfo
	pending   string
}

// NewType builds an empty Type descriptor. super and sharedParent use ""
// for NULL; when super is unset but sharedParent is given, super takes
// its value, matching the supertype-resolution performed on D6 shared
// types.
func NewType(name string, serVersion int, super, sharedParent string) *Type {
	if super == "" && sharedParent != "" {
		super = sharedParent
	}
	return &Type{
		Name:         name,
		SerVersion:   serVersion,
		Super:        super,
		SharedParent: sharedParent,
		positions:    make(map[int]AttrInfo),
		pending:      super,
	}
}

// IsGenerated reports whether sf is the synthetic GeneratedType used for
// RPC result sets that carry no named schema.
func (sf *Type) IsGenerated() bool { return sf.Name == "GeneratedType" }

// Append adds attr to the end of sf's attribute list, and to the D6
// position map when sf.SerVersion calls for one.
func (sf *Type) Append(attr AttrInfo) error {
	sf.attrs = append(sf.attrs, attr)
	return sf.index(attr)
}

// Insert adds attr at position i of sf's attribute list.
func (sf *Type) Insert(i int, attr AttrInfo) error {
	sf.attrs = append(sf.attrs, AttrInfo{})
	copy(sf.attrs[i+1:], sf.attrs[i:])
	sf.attrs[i] = attr
	return sf.index(attr)
}

func (sf *Type) index(attr AttrInfo) error {
	if sf.SerVersion <= 0 {
		return nil
	}
	if attr.Position > -1 {
		sf.positions[attr.Position] = attr
		return nil
	}
	if !sf.IsGenerated() {
		return errors.Errorf("typedobject: attribute %q has no D6 position", attr.Name)
	}
	return nil
}

// Get returns the attribute at ordinal index i. For a D6-shaped,
// non-generated type, the lookup instead goes through the position map,
// since index there names a wire position rather than a list ordinal.
func (sf *Type) Get(index int) (AttrInfo, error) {
	if sf.SerVersion > 0 && !sf.IsGenerated() {
		attr, ok := sf.positions[index]
		if !ok {
			return AttrInfo{}, errors.Errorf("typedobject: no attribute at position %d", index)
		}
		return attr, nil
	}
	if index < 0 || index >= len(sf.attrs) {
		return AttrInfo{}, errors.Errorf("typedobject: attribute index %d out of range", index)
	}
	return sf.attrs[index], nil
}

// Count returns the number of attributes on sf, including any
// supertype attributes already flattened in by Extend.
func (sf *Type) Count() int { return len(sf.attrs) }

// Attrs returns sf's attribute list in declaration order.
func (sf *Type) Attrs() []AttrInfo { return sf.attrs }

// Extend prepends other's attributes to sf when other satisfies sf's
// pending supertype name, then advances sf's pending name to other's own
// pending supertype, continuing the flattening chain.
func (sf *Type) Extend(other *Type) {
	if sf.pending != other.Name {
		return
	}
	for i := len(other.attrs) - 1; i >= 0; i-- {
		_ = sf.Insert(0, other.attrs[i].Clone())
	}
	sf.pending = other.pending
}
