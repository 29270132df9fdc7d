// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package typedobject

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Kind identifies which r_object_id type-tag family a Persistent belongs
// to, mirroring the server's own dispatch of an object id's leading byte
// pair to a handler class.
type Kind int

// The type-tag values the server actually hands out for the object
// families this client cares about; anything else decodes as KindPlain.
const (
	KindPlain          Kind = 0
	KindContent        Kind = 6
	KindSysObject      Kind = 8
	KindDocument       Kind = 9
	KindQuery          Kind = 10
	KindFolder         Kind = 11
	KindCabinet        Kind = 12
	KindMethod         Kind = 16
	KindOutputDevice   Kind = 23
	KindRouter         Kind = 24
	KindRegistered     Kind = 25
	KindDocbaseConfig  Kind = 60
	KindServerConfig   Kind = 61
	KindNote           Kind = 65
	KindPolicy         Kind = 70
	KindProcess        Kind = 75
	KindActivity       Kind = 76
	KindExprCode       Kind = 88
	KindPlugin         Kind = 103
)

// sysObjectKinds is the set of tags that carry r_page_count/a_content_type
// style content attributes, i.e. every dm_sysobject descendant.
var sysObjectKinds = map[Kind]bool{
	KindSysObject: true, KindDocument: true, KindQuery: true, KindFolder: true,
	KindCabinet: true, KindMethod: true, KindOutputDevice: true, KindRouter: true,
	KindRegistered: true, KindDocbaseConfig: true, KindServerConfig: true,
	KindNote: true, KindPolicy: true, KindProcess: true, KindActivity: true,
	KindExprCode: true, KindPlugin: true,
}

// Persistent wraps a TypedObject known to carry an r_object_id, and
// tags it with the Kind its id implies so callers can special-case
// content-bearing objects without a type switch over the type name.
type Persistent struct {
	*TypedObject
	Kind Kind
}

// WrapPersistent tags obj with the Kind its r_object_id implies.
func WrapPersistent(obj *TypedObject) *Persistent {
	return &Persistent{TypedObject: obj, Kind: kindOf(obj)}
}

func kindOf(obj *TypedObject) Kind {
	id := stringAttr(obj, "r_object_id")
	if len(id) < 2 {
		return KindPlain
	}
	tag, err := strconv.ParseInt(id[:2], 16, 64)
	if err != nil {
		return KindPlain
	}
	return Kind(tag)
}

func stringAttr(obj *TypedObject, name string) string {
	av := obj.Get(name)
	if av == nil || len(av.Values) == 0 {
		return ""
	}
	s, _ := av.Values[0].(string)
	return s
}

func intAttr(obj *TypedObject, name string) int64 {
	av := obj.Get(name)
	if av == nil || len(av.Values) == 0 {
		return 0
	}
	n, _ := av.Values[0].(int64)
	return n
}

// ObjectID returns the r_object_id attribute, or "" if unset.
func (sf *Persistent) ObjectID() string { return stringAttr(sf.TypedObject, "r_object_id") }

// HasContent reports whether a dm_sysobject-family Persistent has at
// least one content rendition, per its r_page_count attribute.
func (sf *Persistent) HasContent() bool {
	return sysObjectKinds[sf.Kind] && intAttr(sf.TypedObject, "r_page_count") > 0
}

// ContentResolver is the sysobject-side half of content retrieval: turn
// a (dm_sysobject, format, page) triple into the dmr_content object id
// that actually owns the bytes, and fetch that object.
type ContentResolver interface {
	ConvertID(objectID, format string, page int, pageModifier string) (string, error)
	GetObject(objectID string) (*Persistent, error)
}

// PullerSession is the content-side half: open a puller against a
// storage location, stream it, and tear it down.
type PullerSession interface {
	MakePuller(objectID, storageID, contentObjectID, format string, dataTicket int64) (int64, error)
	Download(handle int64) (io.Reader, error)
	KillPuller(handle int64) error
}

// GetContent resolves sf's current rendition to a dmr_content object via
// resolver, then streams it through puller. format and pageModifier
// follow dctm's convert_id conventions; an empty format falls back to
// sf's a_content_type attribute.
func (sf *Persistent) GetContent(resolver ContentResolver, puller PullerSession, page int, format, pageModifier string) (io.Reader, error) {
	if !sysObjectKinds[sf.Kind] {
		return nil, errors.Errorf("typedobject: %v is not a content-bearing object", sf.Kind)
	}
	if format == "" {
		format = stringAttr(sf.TypedObject, "a_content_type")
	}
	contentID, err := resolver.ConvertID(sf.ObjectID(), format, page, pageModifier)
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: convert id")
	}
	content, err := resolver.GetObject(contentID)
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: fetch content object")
	}
	if content.Kind != KindContent {
		return nil, errors.Errorf("typedobject: %q did not resolve to a content object", contentID)
	}
	return content.pull(puller, sf.ObjectID())
}

// pull drives the puller protocol for a dmr_content Persistent: open a
// puller against its storage/format/data-ticket, stream it, and kill the
// puller handle once the caller is done with the reader.
func (sf *Persistent) pull(puller PullerSession, parentObjectID string) (io.Reader, error) {
	storageID := stringAttr(sf.TypedObject, "storage_id")
	format := stringAttr(sf.TypedObject, "full_format")
	dataTicket := intAttr(sf.TypedObject, "data_ticket")

	handle, err := puller.MakePuller(parentObjectID, storageID, sf.ObjectID(), format, dataTicket)
	if err != nil {
		return nil, errors.Wrap(err, "typedobject: make puller")
	}
	if handle == 0 {
		return nil, errors.New("typedobject: unable to make puller")
	}
	r, err := puller.Download(handle)
	if err != nil {
		_ = puller.KillPuller(handle)
		return nil, errors.Wrap(err, "typedobject: download")
	}
	return &pullerReader{r: r, puller: puller, handle: handle}, nil
}

// pullerReader kills its puller handle the first time a read reports
// io.EOF or any other terminal error, so a caller that simply drains the
// reader to completion need not manage the handle itself.
type pullerReader struct {
	r       io.Reader
	puller  PullerSession
	handle  int64
	released bool
}

func (sf *pullerReader) Read(p []byte) (int, error) {
	n, err := sf.r.Read(p)
	if err != nil && !sf.released {
		sf.released = true
		_ = sf.puller.KillPuller(sf.handle)
	}
	return n, err
}
