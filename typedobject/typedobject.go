// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package typedobject

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/wire"
)

const (
	repeatingMarker = "R"
	singleMarker    = "S"
	nullID          = "0000000000000000"
)

// TypedObject is a decoded instance of a Documentum type: its schema
// (Type) plus the attribute values read off the wire, in the order they
// were declared.
type TypedObject struct {
	TypeCache   *TypeCache
	Type        *Type
	SerVersion  int
	ISO8601Time bool

	names []string
	attrs map[string]*AttrValue
}

// NewTypedObject returns an empty instance of typ.
func NewTypedObject(typ *Type, serVersion int, iso8601 bool) *TypedObject {
	return &TypedObject{
		Type:        typ,
		SerVersion:  serVersion,
		ISO8601Time: iso8601,
		attrs:       make(map[string]*AttrValue),
	}
}

// Add stores v, appending its name to the declaration order the first
// time it is seen.
func (sf *TypedObject) Add(v *AttrValue) {
	if _, ok := sf.attrs[v.Name]; !ok {
		sf.names = append(sf.names, v.Name)
	}
	sf.attrs[v.Name] = v
}

// Get returns the named attribute, or nil if unset.
func (sf *TypedObject) Get(name string) *AttrValue { return sf.attrs[name] }

// Names returns the attribute names in declaration order.
func (sf *TypedObject) Names() []string { return sf.names }

// Len reports the number of distinct attributes held by sf.
func (sf *TypedObject) Len() int { return len(sf.names) }

func (sf *TypedObject) set(name string, typ wire.SemanticType, value interface{}) {
	existing := sf.attrs[name]
	if existing == nil {
		existing = &AttrValue{Name: name, Type: typ}
		sf.Add(existing)
	}
	existing.Values = []interface{}{value}
}

// SetString sets a scalar string-valued attribute.
func (sf *TypedObject) SetString(name, value string) { sf.set(name, wire.TypeString, value) }

// SetID sets a scalar id-valued attribute.
func (sf *TypedObject) SetID(name, value string) { sf.set(name, wire.TypeID, value) }

// SetInt sets a scalar integer-valued attribute.
func (sf *TypedObject) SetInt(name string, value int64) { sf.set(name, wire.TypeInt, value) }

// SetBool sets a scalar boolean-valued attribute.
func (sf *TypedObject) SetBool(name string, value bool) { sf.set(name, wire.TypeBool, value) }

func (sf *TypedObject) appendValue(name string, typ wire.SemanticType, value interface{}) {
	existing := sf.attrs[name]
	if existing == nil {
		existing = &AttrValue{Name: name, Type: typ, Repeating: true}
		sf.Add(existing)
	}
	existing.Values = append(existing.Values, value)
}

// AppendString appends a value to a repeating string attribute.
func (sf *TypedObject) AppendString(name, value string) { sf.appendValue(name, wire.TypeString, value) }

// AppendID appends a value to a repeating id attribute.
func (sf *TypedObject) AppendID(name, value string) { sf.appendValue(name, wire.TypeID, value) }

// AppendInt appends a value to a repeating integer attribute.
func (sf *TypedObject) AppendInt(name string, value int64) { sf.appendValue(name, wire.TypeInt, value) }

// Decode parses one typed-object record from buf. cache resolves and
// stores any TYPE descriptor the stream carries; knownType, when
// non-nil, is the schema already known to the caller (so the stream need
// only carry the OBJ header and values, not a repeated TYPE block).
// Decode returns the parsed object and the unread tail of buf, so a
// caller streaming several records back to back (e.g. a collection
// batch) can feed the tail straight back in.
func Decode(buf []byte, cache *TypeCache, serVersion int, iso8601 bool, knownType *Type) (*TypedObject, []byte, error) {
	s := wire.NewTextScanner(buf)

	if serVersion > 0 {
		got, err := s.ReadInt()
		if err != nil {
			return nil, nil, errors.Wrap(err, "typedobject: header")
		}
		if int(got) != serVersion {
			return nil, nil, errors.Errorf("typedobject: invalid serialization version %d, expected %d", got, serVersion)
		}
	}

	obj, err := decodeBody(s, cache, serVersion, iso8601, knownType)
	if err != nil {
		return nil, nil, err
	}
	return obj, s.Remaining(), nil
}

// decodeEntry parses one collection-batch entry from s: unlike a
// top-level Decode, an entry carries no per-record serialization-version
// header (the batch as a whole was already framed by one), but a D6
// batch appends one trailing bookkeeping integer after every entry. A
// legacy (ser-version 0) batch of persistent entries additionally
// prefixes each entry with a bare dispatch tag token that the caller has
// already resolved to knownType, so it is read here and discarded.
func decodeEntry(buf []byte, cache *TypeCache, serVersion int, iso8601 bool, knownType *Type, legacyTagPrefix bool) (*TypedObject, []byte, error) {
	s := wire.NewTextScanner(buf)
	if legacyTagPrefix && serVersion <= 0 {
		if _, err := s.NextToken(); err != nil {
			return nil, nil, errors.Wrap(err, "typedobject: entry tag")
		}
	}
	obj, err := decodeBody(s, cache, serVersion, iso8601, knownType)
	if err != nil {
		return nil, nil, err
	}
	if serVersion > 0 {
		if _, err := s.ReadInt(); err != nil {
			return nil, nil, errors.Wrap(err, "typedobject: entry trailer")
		}
	}
	return obj, s.Remaining(), nil
}

func decodeBody(s *wire.TextScanner, cache *TypeCache, serVersion int, iso8601 bool, knownType *Type) (*TypedObject, error) {
	typ := knownType
	tok, err := s.NextToken()
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: header token")
	}
	if tok == "TYPE" {
		typ, err = decodeType(s, serVersion)
		if err != nil {
			return nil, err
		}
		if cache != nil {
			cache.Insert(typ)
		}
		tok, err = s.NextToken()
		if err != nil {
			return nil, errors.Wrap(err, "typedobject: object header")
		}
	}
	if tok != "OBJ" {
		return nil, errors.Errorf("typedobject: invalid header, expected OBJ, got %q", tok)
	}

	typeName, err := s.ReadTypeName()
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: type name")
	}
	if serVersion > 0 {
		if _, err := s.ReadInt(); err != nil {
			return nil, err
		}
		if _, err := s.ReadInt(); err != nil {
			return nil, err
		}
		if _, err := s.ReadInt(); err != nil {
			return nil, err
		}
	}
	if typ == nil && cache != nil {
		typ = cache.Get(typeName)
	}
	if typ == nil || typ.Name != typeName {
		return nil, errors.Errorf("typedobject: no type info for %q", typeName)
	}

	obj := NewTypedObject(typ, serVersion, iso8601)

	count, err := s.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		if err := decodeAttr(s, obj, i); err != nil {
			return nil, err
		}
	}
	if err := decodeExtendedAttrs(s, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeType(s *wire.TextScanner, serVersion int) (*Type, error) {
	name, err := s.ReadTypeName()
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: type name")
	}
	id, err := s.ReadTypeName()
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: type id")
	}
	var vstamp, version, cache int64
	if serVersion > 0 {
		if vstamp, err = s.ReadInt(); err != nil {
			return nil, err
		}
		if version, err = s.ReadInt(); err != nil {
			return nil, err
		}
		if cache, err = s.ReadInt(); err != nil {
			return nil, err
		}
	}
	super, err := s.ReadTypeName()
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: super type")
	}
	if super == "NULL" {
		super = ""
	}
	var sharedParent, aspectName string
	var aspectShareFlag bool
	if serVersion > 0 {
		if sharedParent, err = s.ReadTypeName(); err != nil {
			return nil, err
		}
		if sharedParent == "NULL" {
			sharedParent = ""
		}
		if aspectName, err = s.ReadTypeName(); err != nil {
			return nil, err
		}
		if aspectName == "NULL" {
			aspectName = ""
		}
		if aspectShareFlag, err = s.ReadBoolean(); err != nil {
			return nil, err
		}
	}

	typ := NewType(name, serVersion, super, sharedParent)
	typ.ID = id
	typ.Vstamp = vstamp
	typ.Version = version
	typ.Cache = cache
	typ.AspectName = aspectName
	typ.AspectShareFlag = aspectShareFlag

	n, err := s.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		attr, err := decodeAttrInfo(s, serVersion)
		if err != nil {
			return nil, err
		}
		if err := typ.Append(attr); err != nil {
			return nil, err
		}
	}
	return typ, nil
}

func decodeAttrInfo(s *wire.TextScanner, serVersion int) (AttrInfo, error) {
	position := -1
	if serVersion > 0 {
		p, err := s.ReadBase64Int()
		if err != nil {
			return AttrInfo{}, err
		}
		position = int(p)
	}
	name, err := s.ReadTypeName()
	if err != nil {
		return AttrInfo{}, err
	}
	typ, err := s.ReadTypeMarker()
	if err != nil {
		return AttrInfo{}, err
	}
	repeating, err := s.ReadRepeating()
	if err != nil {
		return AttrInfo{}, err
	}
	length, err := s.ReadInt()
	if err != nil {
		return AttrInfo{}, err
	}
	restriction := 0
	if serVersion > 0 {
		r, err := s.ReadInt()
		if err != nil {
			return AttrInfo{}, err
		}
		restriction = int(r)
	}
	return AttrInfo{
		Position:    position,
		Name:        name,
		Type:        typ,
		Repeating:   repeating,
		Length:      int(length),
		Restriction: restriction,
	}, nil
}

func decodeAttr(s *wire.TextScanner, obj *TypedObject, index int) error {
	position := index
	if obj.SerVersion > 0 {
		p, err := s.ReadBase64Int()
		if err != nil {
			return err
		}
		position = int(p)
	}
	info, err := obj.Type.Get(position)
	if err != nil {
		return err
	}
	repeating := info.Repeating
	attrType := info.Type

	if obj.SerVersion == 2 {
		repeating, err = s.ReadRepeating()
		if err != nil {
			return err
		}
		entryType, err := s.ReadInt()
		if err != nil {
			return err
		}
		if entryType >= 0 && entryType <= int64(wire.TypeUndefined) {
			attrType = wire.SemanticType(entryType)
		}
	}

	values, err := decodeValues(s, attrType, repeating)
	if err != nil {
		return err
	}
	obj.Add(&AttrValue{
		Name:      info.Name,
		Type:      attrType,
		Length:    info.Length,
		Repeating: repeating,
		Position:  position,
		Values:    values,
	})
	return nil
}

func decodeExtendedAttrs(s *wire.TextScanner, obj *TypedObject) error {
	count, err := s.ReadInt()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		name, err := s.ReadTypeName()
		if err != nil {
			return err
		}
		typ, err := s.ReadTypeMarker()
		if err != nil {
			return err
		}
		repeating, err := s.ReadRepeating()
		if err != nil {
			return err
		}
		length, err := s.ReadInt()
		if err != nil {
			return err
		}
		values, err := decodeValues(s, typ, repeating)
		if err != nil {
			return err
		}
		obj.Add(&AttrValue{
			Name:      name,
			Type:      typ,
			Length:    int(length),
			Repeating: repeating,
			Extended:  true,
			Values:    values,
		})
	}
	return nil
}

func decodeValues(s *wire.TextScanner, attrType wire.SemanticType, repeating bool) ([]interface{}, error) {
	n := 1
	if repeating {
		count, err := s.ReadInt()
		if err != nil {
			return nil, err
		}
		n = int(count)
	}
	values := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeValue(s, attrType)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func decodeValue(s *wire.TextScanner, attrType wire.SemanticType) (interface{}, error) {
	switch attrType {
	case wire.TypeInt:
		return s.ReadInt()
	case wire.TypeString:
		return s.ReadString()
	case wire.TypeTime:
		t, ok, err := s.ReadTime()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return t, nil
	case wire.TypeBool:
		return s.ReadBoolean()
	case wire.TypeID:
		return s.ReadTypeName()
	case wire.TypeDouble:
		tok, err := s.NextToken()
		if err != nil {
			return nil, err
		}
		return strconv.ParseFloat(tok, 64)
	case wire.TypeUndefined:
		return s.NextToken()
	default:
		return nil, errors.Errorf("typedobject: unknown attribute type %v", attrType)
	}
}

// Encode renders sf back to its wire form, a by-construction inverse of
// Decode: the position/entry-type bookkeeping a D6 stream needs is
// reconstructed from the AttrValue metadata captured at decode time
// rather than re-derived from a fresh type descriptor.
func (sf *TypedObject) Encode() []byte {
	w := wire.NewTextWriter()
	if sf.SerVersion > 0 {
		w.Raw(strconv.Itoa(sf.SerVersion)).Raw("\n")
	}
	w.Raw("OBJ ").Raw(sf.Type.Name).Raw(" ")
	if sf.SerVersion > 0 {
		w.Raw("0 0 0\n")
	} else {
		w.Raw("\n")
	}

	var primary, extended []string
	for _, name := range sf.names {
		if sf.attrs[name].Extended {
			extended = append(extended, name)
		} else {
			primary = append(primary, name)
		}
	}

	w.Raw(strconv.Itoa(len(primary))).Raw("\n")
	for _, name := range primary {
		sf.encodeAttr(w, sf.attrs[name])
	}

	w.Raw(strconv.Itoa(len(extended))).Raw("\n")
	for _, name := range extended {
		sf.encodeExtendedAttr(w, sf.attrs[name])
	}
	return w.Bytes()
}

func (sf *TypedObject) encodeAttr(w *wire.TextWriter, av *AttrValue) {
	if sf.SerVersion > 0 {
		w.Raw(wire.IntToPseudoBase64(int64(av.Position))).Raw("\n")
	}
	if sf.SerVersion == 2 {
		w.Repeating(av.Repeating)
		w.Raw(strconv.Itoa(int(av.Type))).Raw("\n")
	}
	sf.encodeValues(w, av)
}

func (sf *TypedObject) encodeExtendedAttr(w *wire.TextWriter, av *AttrValue) {
	w.Raw(av.Name).Raw(" ").Raw(av.Type.String()).Raw(" ")
	if av.Repeating {
		w.Raw(repeatingMarker)
	} else {
		w.Raw(singleMarker)
	}
	w.Raw(" ").Raw(strconv.Itoa(av.Length)).Raw("\n")
	sf.encodeValues(w, av)
}

func (sf *TypedObject) encodeValues(w *wire.TextWriter, av *AttrValue) {
	if av.Repeating {
		w.Raw(strconv.Itoa(len(av.Values))).Raw("\n")
	}
	for _, v := range av.Values {
		sf.encodeValue(w, av.Type, v)
	}
}

func (sf *TypedObject) encodeValue(w *wire.TextWriter, typ wire.SemanticType, v interface{}) {
	switch typ {
	case wire.TypeString:
		s, _ := v.(string)
		w.Raw("A ").Raw(strconv.Itoa(len(s))).Raw(" ").Raw(s).Raw("\n")
	case wire.TypeID:
		s, _ := v.(string)
		if s == "" {
			s = nullID
		}
		w.Raw(s).Raw("\n")
	case wire.TypeBool:
		b, _ := v.(bool)
		if b {
			w.Raw("T\n")
		} else {
			w.Raw("F\n")
		}
	case wire.TypeInt:
		n, _ := v.(int64)
		w.Raw(strconv.FormatInt(n, 10)).Raw("\n")
	case wire.TypeDouble:
		f, _ := v.(float64)
		w.Raw(strconv.FormatFloat(f, 'g', -1, 64)).Raw("\n")
	case wire.TypeTime:
		tm, ok := v.(time.Time)
		if !ok {
			w.Raw("nulldate\n")
			return
		}
		if sf.SerVersion == 2 && sf.ISO8601Time {
			w.Raw(wire.FormatISO8601(tm)).Raw("\n")
		} else {
			w.Raw(wire.FormatLegacy(tm)).Raw("\n")
		}
	default:
		s, _ := v.(string)
		w.Raw(s).Raw("\n")
	}
}
