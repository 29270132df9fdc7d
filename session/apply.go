// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/netwise"
	"github.com/netwise-go/dctm/typedobject"
)

// applyArgs builds the [object_id, method opcode, request] argument list
// common to every APPLY-family opcode.
func (sf *Session) applyArgs(objectID string, opcode int64, encoded []byte) []byte {
	return netwise.NewArgWriter().Str(objectID).Int(opcode).Object(encoded).Bytes()
}

// apply issues rpc against methodName with req encoded as the method's
// single argument, transparently routing through the chunked-push
// sequence when the encoded request exceeds a single frame's capacity.
func (sf *Session) apply(rpc int64, objectID, methodName string, req *typedobject.TypedObject) (netwise.Result, error) {
	opcode, err := sf.entryPoints.opcode(methodName)
	if err != nil {
		return netwise.Result{}, err
	}

	var encoded []byte
	if req != nil {
		encoded = req.Encode()
	}

	if len(encoded) > netwise.MaxChunkSize {
		if err := sf.applyChunked(objectID, opcode, encoded); err != nil {
			return netwise.Result{}, err
		}
		encoded = []byte(netwise.ChunkedArgMarker)
	}

	return sf.conn.Call(rpc, sf.applyArgs(objectID, opcode, encoded))
}

// applyChunked pushes an oversized request body to the server piecewise
// via SET_PUSH_OBJECT_STATUS/APPLY_FOR_LONG, matching the reference
// client's apply_chunks: mark the object as receiving a pushed argument,
// send MaxChunkSize-sized pieces as APPLY_FOR_LONG calls, then clear the
// push flag. The caller follows up with the real APPLY using
// ChunkedArgMarker in place of the oversized argument.
func (sf *Session) applyChunked(objectID string, opcode int64, encoded []byte) error {
	if err := sf.setPushObjectStatus(objectID, true); err != nil {
		return errors.Wrap(err, "session: begin chunked push")
	}

	for len(encoded) > 0 {
		n := netwise.MaxChunkSize
		if n > len(encoded) {
			n = len(encoded)
		}
		chunk := encoded[:n]
		encoded = encoded[n:]

		args := netwise.NewArgWriter().Str(objectID).Int(opcode).Object(chunk).Bytes()
		if _, err := sf.conn.Call(netwise.RPCApplyForLong, args); err != nil {
			_ = sf.setPushObjectStatus(objectID, false)
			return errors.Wrap(err, "session: push chunk")
		}
	}

	return sf.setPushObjectStatus(objectID, false)
}

// applyForObject issues a METHOD_NAME→OBJECT call and decodes the
// result as a TypedObject.
func (sf *Session) applyForObject(objectID, methodName string, req *typedobject.TypedObject) (*typedobject.TypedObject, error) {
	result, err := sf.apply(netwise.RPCApplyForObject, objectID, methodName, req)
	if err != nil {
		return nil, err
	}
	obj, _, err := typedobject.Decode(result.Message, sf.typeCache, sf.serVersion, sf.iso8601, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "session: decode %s result", methodName)
	}
	return obj, nil
}

// applyForLong issues a METHOD_NAME→LONG call.
func (sf *Session) applyForLong(objectID, methodName string, req *typedobject.TypedObject) (int64, error) {
	result, err := sf.apply(netwise.RPCApplyForLong, objectID, methodName, req)
	if err != nil {
		return 0, err
	}
	v, ok := result.RawMessage.(int64)
	if !ok {
		return 0, errors.Errorf("session: %s did not return an integer", methodName)
	}
	return v, nil
}

// applyForBool issues a METHOD_NAME→BOOLEAN call.
func (sf *Session) applyForBool(objectID, methodName string, req *typedobject.TypedObject) (bool, error) {
	result, err := sf.apply(netwise.RPCApplyForBool, objectID, methodName, req)
	if err != nil {
		return false, err
	}
	v, ok := result.RawMessage.(int64)
	if !ok {
		return false, errors.Errorf("session: %s did not return a boolean", methodName)
	}
	return v != 0, nil
}

// applyForID issues a METHOD_NAME→ID call.
func (sf *Session) applyForID(objectID, methodName string, req *typedobject.TypedObject) (string, error) {
	result, err := sf.apply(netwise.RPCApplyForID, objectID, methodName, req)
	if err != nil {
		return "", err
	}
	s, ok := result.RawMessage.(string)
	if !ok {
		return "", errors.Errorf("session: %s did not return an id", methodName)
	}
	return s, nil
}

// applyForString issues a METHOD_NAME→STRING call.
func (sf *Session) applyForString(objectID, methodName string, req *typedobject.TypedObject) (string, error) {
	result, err := sf.apply(netwise.RPCApplyForString, objectID, methodName, req)
	if err != nil {
		return "", err
	}
	s, ok := result.RawMessage.(string)
	if !ok {
		return "", errors.Errorf("session: %s did not return a string", methodName)
	}
	return s, nil
}

// applyCollection issues an APPLY that opens a server-side cursor,
// seeding the returned Collection with whatever first batch of entries
// rode along in the opening response body.
func (sf *Session) applyCollection(rpc int64, objectID, methodName string, req *typedobject.TypedObject) (*typedobject.Collection, error) {
	result, err := sf.apply(rpc, objectID, methodName, req)
	if err != nil {
		return nil, err
	}

	col := typedobject.NewCollection(sf, result.Collection, nil, sf.typeCache, sf.serVersion, sf.iso8601, sf.cfg.BatchSize, result.Persistent)
	col.Seed(result.Message, 0, result.MayBeMore)
	sf.collections[result.Collection] = col
	return col, nil
}
