// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"github.com/netwise-go/dctm/netwise"
	"github.com/netwise-go/dctm/typedobject"
)

var _ typedobject.BatchFetcher = (*Session)(nil)

// NextBatch pulls the next page of a server-side cursor. It implements
// typedobject.BatchFetcher, so a Collection calls straight back into the
// owning Session as its buffer drains.
func (sf *Session) NextBatch(collectionID int64, batchSize int) (typedobject.Batch, error) {
	args := netwise.NewArgWriter().Int(collectionID).Int(int64(batchSize)).Bytes()
	result, err := sf.conn.Call(netwise.RPCMultiNext, args)
	if err != nil {
		return typedobject.Batch{}, err
	}
	return typedobject.Batch{
		Data:        result.Message,
		RecordCount: int(result.RecordCount),
		MayBeMore:   result.MayBeMore,
	}, nil
}

// CloseCollection releases a server-side cursor and forgets it from the
// session's live-collection registry.
func (sf *Session) CloseCollection(collectionID int64) error {
	delete(sf.collections, collectionID)
	args := netwise.NewArgWriter().Int(collectionID).Bytes()
	_, err := sf.conn.Call(netwise.RPCCloseCollection, args)
	return err
}

// Query runs a DQL statement through the EXEC entry point and returns
// the resulting collection, forUpdate controlling whether the server
// opens it for update.
func (sf *Session) Query(dql string, forUpdate bool) (*typedobject.Collection, error) {
	req := sf.newRequest()
	req.SetString("QUERY", dql)
	req.SetBool("FOR_UPDATE", forUpdate)
	req.SetInt("BATCH_HINT", int64(sf.cfg.BatchSize))
	req.SetBool("BOF_DQL", true)
	return sf.applyCollection(netwise.RPCApply, nullID, "EXEC", req)
}

// newRequest returns an empty request object generated to match the
// session's negotiated serialization mode, for building APPLY-family
// request bodies by hand.
func (sf *Session) newRequest() *typedobject.TypedObject {
	return typedobject.NewTypedObject(&typedobject.Type{Name: "GeneratedType"}, sf.serVersion, sf.iso8601)
}
