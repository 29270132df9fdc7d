// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package netwise

// RPC opcodes, numeric values preserved from the wire protocol.
const (
	RPCGetBlock  = 1
	RPCGetBlock1 = 2
	RPCGetBlock2 = 3
	RPCGetBlock3 = 4
	RPCGetBlock4 = 5
	RPCGetBlock5 = 6

	RPCDoPush = 27

	RPCNewSessionByAddr = 51
	RPCCloseSession     = 52
	RPCFetchType        = 53
	RPCApply            = 54
	RPCMultiNext        = 56
	RPCCloseCollection  = 57
	RPCApplyForLong     = 58
	RPCApplyForBool     = 59
	RPCApplyForID       = 60
	RPCApplyForString   = 61
	RPCApplyForObject   = 62
	RPCApplyForTime     = 63
	RPCApplyForDouble   = 64
	RPCGetNextPiece     = 65

	// rpcStopPushing is the callback opcode the server sends instead of a
	// real GET_BLOCKn entry to signal the end of a server-driven upload.
	rpcStopPushing = 17023
)

// ChunkSizes maps a GET_BLOCK/upload-callback opcode to the maximum
// payload it carries per round trip. rpcStopPushing maps to 0: the
// server's way of telling the client to stop pushing.
var ChunkSizes = map[int64]int{
	RPCGetBlock1:   256,
	RPCGetBlock2:   1024,
	RPCGetBlock3:   4096,
	RPCGetBlock4:   16384,
	RPCGetBlock:    16384,
	RPCGetBlock5:   63000,
	rpcStopPushing: 0,
}

// MaxChunkSize is the largest single piece the chunk-size table allows,
// and therefore the threshold above which a request argument must be
// sent as a chunked APPLY_FOR_LONG sequence instead of inline.
const MaxChunkSize = 63000

// ChunkedArgMarker is the literal placeholder argument sent in the real
// APPLY once a chunked argument has been pushed piecewise via
// SET_PUSH_OBJECT_STATUS/APPLY_FOR_LONG.
const ChunkedArgMarker = "_USE_SESSION_CHUNKED_OBJ_STRING_"
