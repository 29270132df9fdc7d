package typedobject

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwise-go/dctm/wire"
)

func requireDrained(t *testing.T, rest []byte) {
	t.Helper()
	require.Empty(t, bytes.TrimSpace(rest))
}

func buildLegacyType() *Type {
	typ := NewType("dm_document", 0, "", "")
	_ = typ.Append(AttrInfo{Position: -1, Name: "r_object_id", Type: wire.TypeID, Length: 16})
	_ = typ.Append(AttrInfo{Position: -1, Name: "object_name", Type: wire.TypeString, Length: 255})
	return typ
}

func TestDecodeLegacyObject(t *testing.T) {
	raw := "OBJ dm_document 2\n" +
		"0000000000000000\n" +
		"A 5 hello\n" +
		"0\n"
	obj, rest, err := Decode([]byte(raw), nil, 0, false, buildLegacyType())
	require.NoError(t, err)
	requireDrained(t, rest)
	require.Equal(t, "0000000000000000", obj.Get("r_object_id").Values[0])
	require.Equal(t, "hello", obj.Get("object_name").Values[0])
}

func TestEncodeDecodeRoundTripLegacy(t *testing.T) {
	typ := buildLegacyType()
	obj := NewTypedObject(typ, 0, false)
	obj.Add(&AttrValue{Name: "r_object_id", Type: wire.TypeID, Values: []interface{}{"0900019a80001234"}})
	obj.Add(&AttrValue{Name: "object_name", Type: wire.TypeString, Values: []interface{}{"report.docx"}})

	encoded := obj.Encode()
	decoded, rest, err := Decode(encoded, nil, 0, false, typ)
	require.NoError(t, err)
	requireDrained(t, rest)
	require.Equal(t, "0900019a80001234", decoded.Get("r_object_id").Values[0])
	require.Equal(t, "report.docx", decoded.Get("object_name").Values[0])
}

func buildD6Type() *Type {
	typ := NewType("dm_document", 2, "", "")
	_ = typ.Append(AttrInfo{Position: 0, Name: "r_object_id", Type: wire.TypeID, Length: 16})
	_ = typ.Append(AttrInfo{Position: 1, Name: "object_name", Type: wire.TypeString, Length: 255})
	_ = typ.Append(AttrInfo{Position: 2, Name: "keywords", Type: wire.TypeString, Length: 255, Repeating: true})
	return typ
}

func TestEncodeDecodeRoundTripD6(t *testing.T) {
	typ := buildD6Type()
	obj := NewTypedObject(typ, 2, false)
	obj.Add(&AttrValue{Name: "r_object_id", Type: wire.TypeID, Position: 0, Values: []interface{}{"0900019a80001234"}})
	obj.Add(&AttrValue{Name: "object_name", Type: wire.TypeString, Position: 1, Values: []interface{}{"report.docx"}})
	obj.Add(&AttrValue{
		Name: "keywords", Type: wire.TypeString, Position: 2, Repeating: true,
		Values: []interface{}{"q1", "finance"},
	})

	encoded := obj.Encode()
	decoded, rest, err := Decode(encoded, nil, 2, false, typ)
	require.NoError(t, err)
	requireDrained(t, rest)
	require.Equal(t, "0900019a80001234", decoded.Get("r_object_id").Values[0])
	require.Equal(t, "report.docx", decoded.Get("object_name").Values[0])
	require.Equal(t, []interface{}{"q1", "finance"}, decoded.Get("keywords").Values)
}

func TestExtendedAttribute(t *testing.T) {
	typ := buildLegacyType()
	obj := NewTypedObject(typ, 0, false)
	obj.Add(&AttrValue{Name: "r_object_id", Type: wire.TypeID, Values: []interface{}{"0900019a80001234"}})
	obj.Add(&AttrValue{Name: "object_name", Type: wire.TypeString, Values: []interface{}{"x"}})
	obj.Add(&AttrValue{Name: "i_vstamp", Type: wire.TypeInt, Extended: true, Values: []interface{}{int64(3)}})

	encoded := obj.Encode()
	decoded, _, err := Decode(encoded, nil, 0, false, typ)
	require.NoError(t, err)
	require.Equal(t, int64(3), decoded.Get("i_vstamp").Values[0])
	require.True(t, decoded.Get("i_vstamp").Extended)
}

func TestTypeExtendFlattensSupertype(t *testing.T) {
	cache := NewTypeCache()
	base := NewType("dm_sysobject", 2, "", "")
	_ = base.Append(AttrInfo{Position: 0, Name: "r_object_id", Type: wire.TypeID})
	cache.Insert(base)

	child := NewType("dm_document", 2, "dm_sysobject", "")
	_ = child.Append(AttrInfo{Position: 1, Name: "a_content_type", Type: wire.TypeString})
	cache.Insert(child)

	require.Equal(t, 2, child.Count())
	first, err := child.Get(0)
	require.NoError(t, err)
	require.Equal(t, "r_object_id", first.Name)
}
