// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"io"

	"github.com/netwise-go/dctm/typedobject"
)

var (
	_ typedobject.PullerSession  = (*Session)(nil)
	_ typedobject.ContentResolver = (*Session)(nil)
)

// MakePuller opens a server-side puller against a storage location,
// implementing typedobject.PullerSession.
func (sf *Session) MakePuller(objectID, storageID, contentObjectID, format string, dataTicket int64) (int64, error) {
	req := sf.newRequest()
	req.SetID("SYSOBJ_ID", objectID)
	req.SetID("STORE", storageID)
	req.SetID("CONTENT", contentObjectID)
	req.SetID("FORMAT", format)
	req.SetInt("TICKET", dataTicket)
	req.SetBool("IS_OTHER", false)
	req.SetBool("IS_OFFLINE", false)
	req.SetBool("COMPRESSION", false)
	return sf.applyForLong(nullID, "MAKE_PULLER", req)
}

// Download streams a previously opened puller handle, implementing
// typedobject.PullerSession.
func (sf *Session) Download(handle int64) (io.Reader, error) {
	return sf.conn.Download(handle), nil
}

// KillPuller tears down a puller handle, implementing
// typedobject.PullerSession.
func (sf *Session) KillPuller(handle int64) error {
	req := sf.newRequest()
	req.SetInt("HANDLE", handle)
	_, err := sf.applyForBool(nullID, "KILL_PULLER", req)
	return err
}

// ConvertID resolves a sysobject/format/page triple to the dmr_content
// object id that owns those bytes, implementing
// typedobject.ContentResolver.
func (sf *Session) ConvertID(objectID, format string, page int, pageModifier string) (string, error) {
	req := sf.newRequest()
	req.SetID("OBJECT_ID", objectID)
	req.SetString("FORMAT", format)
	req.SetInt("PAGE", int64(page))
	req.SetString("PAGE_MODIFIER", pageModifier)
	return sf.applyForID(nullID, "GET_CONTENT_OBJECT_ID", req)
}

// GetObject fetches a persistent object by id, implementing
// typedobject.ContentResolver.
func (sf *Session) GetObject(objectID string) (*typedobject.Persistent, error) {
	req := sf.newRequest()
	req.SetID("OBJECT_ID", objectID)
	obj, err := sf.applyForObject(objectID, "FETCH", req)
	if err != nil {
		return nil, err
	}
	return typedobject.WrapPersistent(obj), nil
}

// PushContent uploads src as the content for a puller handle opened in
// write mode, draining it through the server's GET_BLOCKn callback
// sequence.
func (sf *Session) PushContent(handle int64, src io.Reader) error {
	return sf.conn.ServeUpload(handle, src)
}
