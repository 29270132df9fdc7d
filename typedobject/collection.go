// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package typedobject

import (
	"bytes"

	"github.com/netwise-go/dctm/wire"
)

// Batch is one page of a collection fetch: the raw entry stream plus the
// server's bookkeeping on how many records it holds and whether another
// page remains.
type Batch struct {
	Data        []byte
	RecordCount int
	MayBeMore   bool
}

// BatchFetcher is the narrow surface a Collection needs from its owning
// session: pull the next page of a server-side cursor, and release it.
// A session implements this directly; tests can fake it.
type BatchFetcher interface {
	NextBatch(collectionID int64, batchSize int) (Batch, error)
	CloseCollection(collectionID int64) error
}

// Collection streams TypedObject entries off a server-side query cursor,
// buffering one batch at a time and re-fetching transparently as the
// buffer drains.
type Collection struct {
	Fetcher     BatchFetcher
	ID          int64
	Type        *Type
	Cache       *TypeCache
	SerVersion  int
	ISO8601Time bool
	BatchSize   int
	Persistent  bool

	buffer      []byte
	recordCount int
	haveCount   bool
	mayBeMore   bool
	closed      bool
}

// NewCollection wraps a freshly-opened server cursor. mayBeMore starts
// true so the first NextRecord call always attempts a fetch.
func NewCollection(fetcher BatchFetcher, id int64, typ *Type, cache *TypeCache, serVersion int, iso8601 bool, batchSize int, persistent bool) *Collection {
	return &Collection{
		Fetcher:     fetcher,
		ID:          id,
		Type:        typ,
		Cache:       cache,
		SerVersion:  serVersion,
		ISO8601Time: iso8601,
		BatchSize:   batchSize,
		Persistent:  persistent,
		mayBeMore:   true,
	}
}

// NextRecord returns the next entry, or (nil, nil) once the cursor is
// exhausted. It closes the underlying server cursor automatically on
// exhaustion, matching the server's own cursor lifecycle.
func (sf *Collection) NextRecord() (*TypedObject, error) {
	if sf.closed {
		return nil, nil
	}

	if len(sf.buffer) == 0 && sf.mayBeMore {
		batch, err := sf.Fetcher.NextBatch(sf.ID, sf.BatchSize)
		if err != nil {
			return nil, err
		}
		sf.buffer = batch.Data
		sf.recordCount = batch.RecordCount
		sf.haveCount = true
		sf.mayBeMore = batch.MayBeMore
		sf.buffer = sf.stripBatchHeader(sf.buffer)
	}

	if len(sf.buffer) > 0 && (!sf.haveCount || sf.recordCount > 0) {
		entry, rest, err := decodeEntry(sf.buffer, sf.Cache, sf.SerVersion, sf.ISO8601Time, sf.Type, sf.Persistent)
		// the whitespace after an entry is not data; drop it so an
		// exhausted buffer reads as empty and triggers the next fetch.
		sf.buffer = bytes.TrimLeft(rest, " \t\r\n")
		if sf.haveCount {
			sf.recordCount--
		}
		if err != nil {
			return nil, err
		}
		return entry, nil
	}

	_ = sf.Close()
	return nil, nil
}

// Seed preloads the first batch directly, for a cursor whose opening
// APPLY response already carried its first page of entries inline
// (avoiding a redundant MULTI_NEXT round trip for that page).
func (sf *Collection) Seed(data []byte, recordCount int, mayBeMore bool) {
	sf.buffer = sf.stripBatchHeader(data)
	sf.recordCount = recordCount
	sf.haveCount = true
	sf.mayBeMore = mayBeMore
}

// stripBatchHeader discards the D6 batch-count prefix a ser-version > 0
// stream carries ahead of its entries, if any.
func (sf *Collection) stripBatchHeader(buf []byte) []byte {
	if sf.SerVersion <= 0 || len(buf) == 0 {
		return buf
	}
	s := wire.NewTextScanner(buf)
	if _, err := s.ReadInt(); err == nil {
		return s.Remaining()
	}
	return buf
}

// Close releases the server-side cursor. It is idempotent: a second
// call, or one after NextRecord already closed the cursor on
// exhaustion, is a no-op.
func (sf *Collection) Close() error {
	if sf.closed {
		return nil
	}
	sf.closed = true
	if sf.Fetcher == nil {
		return nil
	}
	return sf.Fetcher.CloseCollection(sf.ID)
}
