package typedobject

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwise-go/dctm/wire"
)

type fakeFetcher struct {
	batches []Batch
	closed  bool
	calls   int
}

func (f *fakeFetcher) NextBatch(collectionID int64, batchSize int) (Batch, error) {
	b := f.batches[f.calls]
	f.calls++
	return b, nil
}

func (f *fakeFetcher) CloseCollection(collectionID int64) error {
	f.closed = true
	return nil
}

func buildCollectionType() *Type {
	typ := NewType("dm_document", 0, "", "")
	_ = typ.Append(AttrInfo{Position: -1, Name: "r_object_id", Type: wire.TypeID})
	_ = typ.Append(AttrInfo{Position: -1, Name: "object_name", Type: wire.TypeString})
	return typ
}

func encodeEntryFixture(t *testing.T, typ *Type, id, name string) []byte {
	t.Helper()
	obj := NewTypedObject(typ, 0, false)
	obj.Add(&AttrValue{Name: "r_object_id", Type: wire.TypeID, Values: []interface{}{id}})
	obj.Add(&AttrValue{Name: "object_name", Type: wire.TypeString, Values: []interface{}{name}})
	// Collection entries omit the leading OBJ/TYPE framing's outer header
	// int (none exists at ser-version 0), so a plain Encode is already
	// entry-shaped for this ser-version.
	return obj.Encode()
}

func TestCollectionNextRecordDrainsBatchesAndCloses(t *testing.T) {
	typ := buildCollectionType()
	entry1 := encodeEntryFixture(t, typ, "0900019a80000001", "one")
	entry2 := encodeEntryFixture(t, typ, "0900019a80000002", "two")

	fetcher := &fakeFetcher{batches: []Batch{
		{Data: entry1, RecordCount: 1, MayBeMore: true},
		{Data: entry2, RecordCount: 1, MayBeMore: false},
	}}

	col := NewCollection(fetcher, 7, typ, nil, 0, false, 10, false)

	first, err := col.NextRecord()
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, "one", first.Get("object_name").Values[0])

	second, err := col.NextRecord()
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, "two", second.Get("object_name").Values[0])

	third, err := col.NextRecord()
	require.NoError(t, err)
	require.Nil(t, third)
	require.True(t, fetcher.closed)
}

func TestCollectionCloseIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{}
	col := NewCollection(fetcher, 9, nil, nil, 0, false, 10, false)
	require.NoError(t, col.Close())
	require.True(t, fetcher.closed)
	fetcher.closed = false
	require.NoError(t, col.Close())
	require.False(t, fetcher.closed)
}
