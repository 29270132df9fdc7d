package typedobject

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwise-go/dctm/wire"
)

func newDocumentObject(t *testing.T, objectID string, pageCount int64) *TypedObject {
	t.Helper()
	typ := NewType("dm_document", 0, "", "")
	require.NoError(t, typ.Append(AttrInfo{Position: -1, Name: "r_object_id", Type: wire.TypeID}))
	require.NoError(t, typ.Append(AttrInfo{Position: -1, Name: "r_page_count", Type: wire.TypeInt}))
	require.NoError(t, typ.Append(AttrInfo{Position: -1, Name: "a_content_type", Type: wire.TypeString}))

	obj := NewTypedObject(typ, 0, false)
	obj.Add(&AttrValue{Name: "r_object_id", Type: wire.TypeID, Values: []interface{}{objectID}})
	obj.Add(&AttrValue{Name: "r_page_count", Type: wire.TypeInt, Values: []interface{}{pageCount}})
	obj.Add(&AttrValue{Name: "a_content_type", Type: wire.TypeString, Values: []interface{}{"crtext"}})
	return obj
}

func TestWrapPersistentKind(t *testing.T) {
	obj := newDocumentObject(t, "0900019a80001234", 1)
	p := WrapPersistent(obj)
	require.Equal(t, KindDocument, p.Kind)
	require.True(t, p.HasContent())
	require.Equal(t, "0900019a80001234", p.ObjectID())
}

func TestWrapPersistentNoContent(t *testing.T) {
	obj := newDocumentObject(t, "0900019a80001234", 0)
	p := WrapPersistent(obj)
	require.False(t, p.HasContent())
}

type fakeResolver struct {
	contentObj *Persistent
}

func (f *fakeResolver) ConvertID(objectID, format string, page int, pageModifier string) (string, error) {
	return "0600019a80009999", nil
}

func (f *fakeResolver) GetObject(objectID string) (*Persistent, error) {
	return f.contentObj, nil
}

type fakePuller struct {
	data []byte
}

func (f *fakePuller) MakePuller(objectID, storageID, contentObjectID, format string, dataTicket int64) (int64, error) {
	return 42, nil
}

func (f *fakePuller) Download(handle int64) (io.Reader, error) {
	return bytes.NewReader(f.data), nil
}

func (f *fakePuller) KillPuller(handle int64) error { return nil }

func TestGetContent(t *testing.T) {
	contentType := NewType("dmr_content", 0, "", "")
	require.NoError(t, contentType.Append(AttrInfo{Position: -1, Name: "r_object_id", Type: wire.TypeID}))
	require.NoError(t, contentType.Append(AttrInfo{Position: -1, Name: "storage_id", Type: wire.TypeID}))
	require.NoError(t, contentType.Append(AttrInfo{Position: -1, Name: "full_format", Type: wire.TypeString}))
	require.NoError(t, contentType.Append(AttrInfo{Position: -1, Name: "data_ticket", Type: wire.TypeInt}))

	contentObj := NewTypedObject(contentType, 0, false)
	contentObj.Add(&AttrValue{Name: "r_object_id", Type: wire.TypeID, Values: []interface{}{"0600019a80009999"}})
	contentObj.Add(&AttrValue{Name: "storage_id", Type: wire.TypeID, Values: []interface{}{"1600019a80000001"}})
	contentObj.Add(&AttrValue{Name: "full_format", Type: wire.TypeString, Values: []interface{}{"crtext"}})
	contentObj.Add(&AttrValue{Name: "data_ticket", Type: wire.TypeInt, Values: []interface{}{int64(555)}})

	doc := WrapPersistent(newDocumentObject(t, "0900019a80001234", 1))
	resolver := &fakeResolver{contentObj: WrapPersistent(contentObj)}
	puller := &fakePuller{data: []byte("hello world")}

	r, err := doc.GetContent(resolver, puller, 0, "", "")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(out))
}
