// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package docbroker

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/wire"
)

// Map is a decoded docbroker response: a flat attribute bag keyed by
// name, every value kept as its original string rendering (the broker
// mixes STRING, INT and BOOL attributes in the same object and callers
// only ever need a handful of them by name).
type Map struct {
	attrs map[string][]string
}

// Get returns every value recorded for name.
func (sf *Map) Get(name string) ([]string, bool) {
	v, ok := sf.attrs[name]
	return v, ok
}

// First returns the first value recorded for name.
func (sf *Map) First(name string) (string, bool) {
	v, ok := sf.attrs[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Names lists the names present in the map, in no particular order.
func (sf *Map) Names() []string {
	out := make([]string, 0, len(sf.attrs))
	for k := range sf.attrs {
		out = append(out, k)
	}
	return out
}

// decodeMap parses a docbroker OBJ block. Unlike a content server's
// typed-object stream, a docbroker reply carries no preceding TYPE
// block, and its repeating marker cannot be trusted: every attribute
// except i_host_addr is repeating on the wire regardless of what the
// marker byte says, because the broker omits it. decodeMap overrides
// the marker with that rule rather than trusting it.
func decodeMap(buf []byte) (*Map, error) {
	s := wire.NewTextScanner(buf)

	header, err := s.NextToken()
	if err != nil {
		return nil, errors.Wrap(err, "docbroker: read header")
	}
	if header != "OBJ" {
		return nil, errors.Errorf("docbroker: expected OBJ, got %q", header)
	}
	if _, err := s.ReadTypeName(); err != nil {
		return nil, errors.Wrap(err, "docbroker: read type name")
	}
	if _, err := s.ReadInt(); err != nil {
		return nil, errors.Wrap(err, "docbroker: read instance id")
	}
	count, err := s.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "docbroker: read attribute count")
	}

	m := &Map{attrs: make(map[string][]string, count)}
	for i := int64(0); i < count; i++ {
		name, values, err := decodeAttr(s)
		if err != nil {
			return nil, errors.Wrapf(err, "docbroker: attribute %d", i)
		}
		m.attrs[name] = values
	}
	return m, nil
}

func decodeAttr(s *wire.TextScanner) (string, []string, error) {
	name, err := s.ReadTypeName()
	if err != nil {
		return "", nil, errors.Wrap(err, "name")
	}
	marker, err := s.ReadTypeMarker()
	if err != nil {
		return "", nil, errors.Wrap(err, "type marker")
	}
	// the wire marker is unreliable; every attribute but i_host_addr is
	// repeating regardless of what it says.
	if _, err := s.ReadRepeating(); err != nil {
		return "", nil, errors.Wrap(err, "repeating marker")
	}
	repeating := name != "i_host_addr"
	if _, err := s.ReadInt(); err != nil {
		return "", nil, errors.Wrap(err, "length")
	}

	n := 1
	if repeating {
		count, err := s.ReadInt()
		if err != nil {
			return "", nil, errors.Wrap(err, "value count")
		}
		n = int(count)
	}

	values := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeValue(s, marker)
		if err != nil {
			return "", nil, errors.Wrap(err, "value")
		}
		values = append(values, v)
	}
	return name, values, nil
}

func decodeValue(s *wire.TextScanner, marker wire.SemanticType) (string, error) {
	switch marker {
	case wire.TypeString, wire.TypeID:
		return s.ReadString()
	case wire.TypeInt:
		v, err := s.ReadInt()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(v, 10), nil
	case wire.TypeBool:
		v, err := s.ReadBoolean()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(v), nil
	case wire.TypeTime:
		t, ok, err := s.ReadTime()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}
		return t.String(), nil
	default:
		return s.ReadString()
	}
}
