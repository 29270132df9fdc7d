// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

// Charset ids, as registered by the server's locale negotiation; the
// numeric values are part of the wire contract, not an internal choice.
const (
	CharsetUSASCII  = 1
	CharsetLatin1   = 2
	CharsetEUCJP    = 5
	CharsetISO88602 = 7
	CharsetUTF8     = 16
)

var charsetNames = map[int64]string{
	CharsetUSASCII:  "US-ASCII",
	CharsetLatin1:   "ISO-8859-1",
	CharsetEUCJP:    "EUC-JP",
	CharsetISO88602: "ISO_8859-2",
	CharsetUTF8:     "UTF-8",
}

// Platform enum ids sent as PLATFORM_ENUM during locale negotiation.
const (
	PlatformWindows = 4096
	PlatformUnix    = 8192
	PlatformLinux   = 8201
)

// noTranslatorError is the server error code that signals SET_LOCALE
// rejected the requested charset, prompting a single UTF-8 retry.
const noTranslatorError = "[DM_SESSION_E_NO_TRANSLATOR]"
