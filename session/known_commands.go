// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"time"

	"github.com/netwise-go/dctm/netwise"
	"github.com/netwise-go/dctm/typedobject"
	"github.com/netwise-go/dctm/wire"
)

// dispatchKind selects which APPLY-family opcode and result shape a
// known entry point uses, mirroring the reference client's per-command
// dispatch table (as_long/as_bool/as_id/as_string/as_object/as_collection).
type dispatchKind int

const (
	kindObject dispatchKind = iota
	kindCollection
	kindLong
	kindBool
	kindID
	kindString
)

// knownCommand records how a named entry point should be dispatched and
// whether it takes an explicit target object id.
type knownCommand struct {
	Kind         dispatchKind
	NeedObjectID bool
}

var commandTable = map[string]knownCommand{
	"AUTHENTICATE_USER":      {kindObject, false},
	"ENTRY_POINTS":           {kindObject, false},
	"EXEC":                   {kindCollection, false},
	"FETCH_TYPE":             {kindObject, false},
	"GET_ERRORS":             {kindCollection, false},
	"GET_DOCBASE_CONFIG":     {kindObject, false},
	"GET_SERVER_CONFIG":      {kindObject, false},
	"GET_LOGIN":              {kindString, false},
	"KILL_PULLER":            {kindBool, true},
	"MAKE_PULLER":            {kindLong, true},
	"SET_LOCALE":             {kindBool, false},
	"SET_PUSH_OBJECT_STATUS": {kindBool, true},
}

// restrictKnownCommands narrows commandTable down to whatever the server
// actually advertised in its entry-point table, so Call never dispatches
// a method the server does not support.
func restrictKnownCommands(pts entryPoints) map[string]knownCommand {
	out := make(map[string]knownCommand, len(commandTable))
	for name, cmd := range commandTable {
		if _, ok := pts[name]; ok {
			out[name] = cmd
		}
	}
	return out
}

// Call dispatches an arbitrary named method against objectID, using the
// result shape the server's entry-point table and the known-command
// table agree on, and defaulting to a collection-opening APPLY for any
// name this session has no better information about.
func (sf *Session) Call(name, objectID string, req *typedobject.TypedObject) (interface{}, error) {
	cmd, ok := sf.known[name]
	if !ok {
		cmd = knownCommand{Kind: kindCollection}
	}
	switch cmd.Kind {
	case kindLong:
		return sf.applyForLong(objectID, name, req)
	case kindBool:
		return sf.applyForBool(objectID, name, req)
	case kindID:
		return sf.applyForID(objectID, name, req)
	case kindString:
		return sf.applyForString(objectID, name, req)
	case kindObject:
		return sf.applyForObject(objectID, name, req)
	default:
		return sf.applyCollection(netwise.RPCApply, objectID, name, req)
	}
}

// setLocale issues SET_LOCALE with the session's negotiated time and
// date formatting conventions, matching rpccommands.set_locale.
func (sf *Session) setLocale(charset int64) (bool, error) {
	req := sf.newRequest()
	req.SetInt("LANGUAGE", 0)
	req.SetInt("CHARACTER_SET", charset)
	req.SetInt("PLATFORM_ENUM", PlatformLinux)
	req.SetString("PLATFORM_VERSION_IMAGE", "")
	_, offset := time.Now().Zone()
	req.SetInt("UTC_OFFSET", int64(offset))
	req.SetInt("SDF_AN_custom_date_order", 0)
	req.SetInt("SDF_AN_custom_scan_fields", 0)
	req.SetString("SDF_AN_date_separator", "/")
	req.SetInt("SDF_AN_date_order", 2)
	req.SetBool("SDF_AN_day_leading_zero", true)
	req.SetBool("SDF_AN_month_leading_zero", true)
	req.SetBool("SDF_AN_century", true)
	req.SetString("SDF_AN_time_separator", ":")
	req.SetBool("SDF_AN_hours_24", true)
	req.SetBool("SDF_AN_hour_leading_zero", true)
	req.SetBool("SDF_AN_noon_is_zero", false)
	req.SetString("SDF_AN_am", "AM")
	req.SetString("SDF_AN_pm", "PM")
	for i := 0; i < 4; i++ {
		req.AppendInt("PLATFORM_EXTRA", 0)
	}
	req.SetString("APPLICATION_CODE", "")
	return sf.applyForBool(nullID, "SET_LOCALE", req)
}

// authenticateUser issues AUTHENTICATE_USER with password or trusted
// credentials, obfuscating a plaintext password the way the reference
// client's obfuscate() does, and attaching signed CLIENT_AUTH_DATA when
// an Identity is configured.
func (sf *Session) authenticateUser() error {
	var username, password string
	if sf.cfg.Credentials != nil {
		username, password = sf.cfg.Credentials.Username, sf.cfg.Credentials.Password
	}
	trusted := sf.cfg.Identity != nil && sf.cfg.Identity.Trusted

	req := sf.newRequest()
	req.SetBool("CONNECT_POOLING", false)
	if password != "" && !wire.IsObfuscated(password) {
		password = wire.Obfuscate(password)
	}
	req.SetString("USER_PASSWORD", password)
	req.SetBool("AUTHENTICATION_ONLY", false)
	req.SetBool("CHECK_ONLY", false)
	req.SetString("LOGON_NAME", username)
	if trusted {
		req.SetBool("TRUSTED_LOGIN_ALLOWED", true)
		req.SetString("OS_LOGON_NAME", username)
	}
	if sf.cfg.Identity != nil {
		data, err := sf.cfg.Identity.AuthData()
		if err != nil {
			return err
		}
		req.SetString("CLIENT_AUTH_DATA", data)
	}

	_, err := sf.applyForObject(nullID, "AUTHENTICATE_USER", req)
	return err
}

// setPushObjectStatus marks or clears the chunked-argument push state
// for objectID, the step applyChunked brackets a piecewise upload with.
func (sf *Session) setPushObjectStatus(objectID string, status bool) error {
	req := sf.newRequest()
	req.SetID("_PUSHED_ID_", objectID)
	req.SetBool("_PUSH_STATUS_", status)
	_, err := sf.applyForBool(nullID, "SET_PUSH_OBJECT_STATUS", req)
	return err
}

// GetDocbaseConfig fetches the docbase configuration object.
func (sf *Session) GetDocbaseConfig() (*typedobject.TypedObject, error) {
	req := sf.newRequest()
	req.SetString("OBJECT_TYPE", "")
	req.SetBool("FOR_REVERT", false)
	req.SetInt("CACHE_VSTAMP", 0)
	return sf.applyForObject(nullID, "GET_DOCBASE_CONFIG", req)
}

// GetServerConfig fetches the active server configuration object.
func (sf *Session) GetServerConfig() (*typedobject.TypedObject, error) {
	req := sf.newRequest()
	req.SetString("OBJECT_TYPE", "")
	req.SetBool("FOR_REVERT", false)
	req.SetInt("CACHE_VSTAMP", 0)
	return sf.applyForObject(nullID, "GET_SERVER_CONFIG", req)
}

// FetchType fetches a type descriptor by name, populating the session's
// type cache as a side effect.
func (sf *Session) FetchType(typeName string, cacheVstamp int64) (*typedobject.TypedObject, error) {
	req := sf.newRequest()
	req.SetString("TYPE_NAME", typeName)
	req.SetInt("CACHE_VSTAMP", cacheVstamp)
	return sf.applyForObject(nullID, "FETCH_TYPE", req)
}

// GetLogin requests a login ticket for userName, scoped to serverName
// and expiring after timeout seconds; singleUse sets whether the ticket
// can be used only once.
func (sf *Session) GetLogin(userName, serverName string, timeout int64, singleUse bool) (string, error) {
	req := sf.newRequest()
	req.SetString("OPTIONAL_USER_NAME", userName)
	req.SetString("LOGIN_TICKET_SCOPE", "global")
	req.SetString("SERVER_NAME", serverName)
	req.SetInt("LOGIN_TICKET_TIMEOUT", timeout)
	req.SetBool("SINGLE_USE", singleUse)
	return sf.applyForString(nullID, "GET_LOGIN", req)
}
