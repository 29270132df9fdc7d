// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/clog"
	"github.com/netwise-go/dctm/netwise"
	"github.com/netwise-go/dctm/typedobject"
)

const nullID = "0000000000000000"

// clientVersionArray is the CLIENT_VERSION_ARRAY sent on NEW_SESSION_BY_ADDR:
// [reserved, connect-protocol, session-record-hint, serialization-version-hint,
// reserved x5, client capability bitmask]. The serialization version hint
// of 2 is what lets the server opt the session into D6-positional encoding.
var clientVersionArray = []int64{0, 2, -1, 2, 0, 0, 0, 0, 0, 7}

var docbaseIDPattern = regexp.MustCompile(`Wrong docbase id: \(-1\) expecting: \((\d+)\)`)

// Session is one authenticated docbase connection: the underlying
// netwise transport, the negotiated serialization mode, the advertised
// entry-point table, the live collection registry, and the pending
// server message queue. A Session is not safe for concurrent use.
type Session struct {
	conn *netwise.Conn
	cfg  Config

	sessionID  string
	serVersion int
	iso8601    bool

	entryPoints entryPoints
	known       map[string]knownCommand

	messages        *messageQueue
	readingMessages bool

	collections map[int64]*typedobject.Collection
	typeCache   *typedobject.TypeCache

	log clog.Clog
}

// Dial opens the transport, performs the full startup handshake (§4.5
// steps 1-4), and authenticates when credentials are present (step 5).
func Dial(cfg Config) (*Session, error) {
	if err := cfg.valid(); err != nil {
		return nil, err
	}

	sf := &Session{
		cfg:         cfg,
		messages:    newMessageQueue(nil),
		collections: make(map[int64]*typedobject.Collection),
		typeCache:   typedobject.DefaultTypeCache(),
		log:         clog.NewLogger("session"),
	}

	if cfg.DocbaseID < 0 {
		if err := sf.resolveDocbaseID(); err != nil {
			return nil, err
		}
	}

	conn, err := netwise.Dial(cfg.Transport)
	if err != nil {
		return nil, err
	}
	sf.conn = conn
	sf.conn.OnPendingMessages = sf.onPendingMessages

	if err := sf.connect(); err != nil {
		sf.conn.Close()
		return nil, err
	}
	if err := sf.fetchEntryPoints(); err != nil {
		sf.conn.Close()
		return nil, err
	}
	if err := sf.negotiateLocale(); err != nil {
		sf.conn.Close()
		return nil, err
	}
	if sf.canAuthenticate() {
		if err := sf.Authenticate(); err != nil {
			sf.conn.Close()
			return nil, err
		}
	}
	return sf, nil
}

// resolveDocbaseID opens a throwaway connection to learn the real
// docbase id from the server's rejection reason, per §4.5 step 1.
func (sf *Session) resolveDocbaseID() error {
	conn, err := netwise.Dial(sf.cfg.Transport)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := netwise.NewArgWriter().
		Int(-1).Str("").Str(clientVersionString).Str("").IntArray(clientVersionArray).Str(nullID).Bytes()
	body, err := conn.Exchange(netwise.RPCNewSessionByAddr, args)
	if err != nil {
		return errors.Wrap(err, "session: resolve docbase id")
	}
	reason, err := netwise.NewArgReader(body).NextString()
	if err != nil {
		return errors.Wrap(err, "session: decode docbase id rejection")
	}
	m := docbaseIDPattern.FindStringSubmatch(reason)
	if m == nil {
		return errors.Errorf("session: unexpected reply resolving docbase id: %s", reason)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return errors.Wrap(err, "session: parse resolved docbase id")
	}
	sf.cfg.DocbaseID = id
	return nil
}

// connect performs the real NEW_SESSION_BY_ADDR handshake, negotiating
// the serialization version and time-encoding mode off the server's
// version array, per §4.5 step 2.
func (sf *Session) connect() error {
	args := netwise.NewArgWriter().
		Int(sf.cfg.DocbaseID).Str("").Str(clientVersionString).Str("").IntArray(clientVersionArray).Str(nullID).Bytes()
	body, err := sf.conn.Exchange(netwise.RPCNewSessionByAddr, args)
	if err != nil {
		return errors.Wrap(err, "session: connect")
	}

	r := netwise.NewArgReader(body)
	reason, err := r.NextString()
	if err != nil {
		return errors.Wrap(err, "session: decode connect reason")
	}
	serverVersion, err := r.NextIntArray()
	if err != nil {
		return errors.Wrap(err, "session: decode server version")
	}
	sessionID, err := r.NextString()
	if err != nil {
		return errors.Wrap(err, "session: decode session id")
	}
	if sessionID == nullID {
		return errors.New(reason)
	}
	sf.sessionID = sessionID

	if len(serverVersion) > 7 && serverVersion[7] == 2 {
		sf.serVersion = 2
	} else {
		sf.serVersion = 0
	}
	switch sf.serVersion {
	case 0, 1:
		sf.iso8601 = false
	default:
		sf.iso8601 = len(serverVersion) <= 9 || serverVersion[9]&0x01 == 0
	}
	return nil
}

// fetchEntryPoints seeds the bootstrap opcodes for ENTRY_POINTS and
// GET_ERRORS (stable across server versions), uses them to pull the
// server's real NAME/POS table, then restricts the known-command
// registry to whatever the server actually advertised. Called again
// after Authenticate, since re-auth can change the advertised surface.
func (sf *Session) fetchEntryPoints() error {
	sf.entryPoints = entryPoints{"ENTRY_POINTS": 0, "GET_ERRORS": 558}
	obj, err := sf.applyForObject(nullID, "ENTRY_POINTS", nil)
	if err != nil {
		return errors.Wrap(err, "session: fetch entry points")
	}
	pts, err := parseEntryPoints(obj)
	if err != nil {
		return err
	}
	sf.entryPoints = pts
	sf.known = restrictKnownCommands(pts)
	return nil
}

// negotiateLocale calls SET_LOCALE with the configured charset, retrying
// once with UTF-8 if the server rejects the charset as untranslatable,
// per §4.5 step 4.
func (sf *Session) negotiateLocale() error {
	charset := sf.cfg.Charset
	_, err := sf.setLocale(charset)
	if err == nil {
		return nil
	}
	if !strings.HasPrefix(err.Error(), noTranslatorError) {
		return err
	}
	if charset == CharsetUTF8 {
		return err
	}
	sf.log.Warn("charset %d rejected, falling back to UTF-8", charset)
	_, err = sf.setLocale(CharsetUTF8)
	return err
}

func (sf *Session) canAuthenticate() bool {
	if sf.cfg.Credentials == nil || sf.cfg.Credentials.Username == "" {
		return sf.cfg.Identity != nil && sf.cfg.Identity.Trusted
	}
	if sf.cfg.Identity != nil && sf.cfg.Identity.Trusted {
		return true
	}
	return sf.cfg.Credentials.Password != ""
}

// Authenticate performs or re-performs login with the session's
// currently configured credentials/identity, then refreshes the
// entry-point table (re-auth can change what the server advertises).
// The docbase and server configuration objects are not re-fetched.
func (sf *Session) Authenticate() error {
	if !sf.canAuthenticate() {
		return errors.New("session: no credentials to authenticate with")
	}
	if err := sf.authenticateUser(); err != nil {
		return err
	}
	return sf.fetchEntryPoints()
}

// SetCredentials installs new credentials for a subsequent Authenticate
// call, without tearing down the connection, matching the reference
// client's "re-authenticate while keeping the connection open" mode.
func (sf *Session) SetCredentials(username, password string) {
	sf.cfg.Credentials = &Credentials{Username: username, Password: password}
}

// SetIdentity installs a trusted-auth identity for a subsequent
// Authenticate call.
func (sf *Session) SetIdentity(id *Identity) { sf.cfg.Identity = id }

// Close closes every live collection, then tears down the session and
// the underlying connection. Idempotent.
func (sf *Session) Close() error {
	for id, col := range sf.collections {
		_ = col.Close()
		delete(sf.collections, id)
	}
	if sf.sessionID == "" || sf.sessionID == nullID {
		return sf.conn.Close()
	}
	_, _ = sf.conn.Call(netwise.RPCCloseSession, nil)
	sf.sessionID = ""
	return sf.conn.Close()
}

// LogMode enables or disables frame-level and protocol-level tracing.
func (sf *Session) LogMode(enable bool) {
	sf.log.LogMode(enable)
	sf.conn.LogMode(enable)
}

// SetLogProvider overrides the logging backend for both the session and
// its underlying transport.
func (sf *Session) SetLogProvider(p clog.LogProvider) {
	sf.log.SetLogProvider(p)
	sf.conn.SetLogProvider(p)
}

// onPendingMessages is installed as the transport's OnPendingMessages
// hook: it drains GET_ERRORS, and if any drained message was
// error-severity, returns it as the call's error regardless of the
// call's own validity flag, matching the reference client's precedence.
func (sf *Session) onPendingMessages() error {
	if err := sf.fetchErrors(); err != nil {
		return err
	}
	reason := sf.messages.drain(SeverityError)
	if info := sf.messages.drain(SeverityInfo); info != "" {
		sf.log.Info("%s", info)
	}
	if reason != "" {
		return errors.New(reason)
	}
	return nil
}

// fetchErrors drains the server's pending message queue via GET_ERRORS,
// guarded by a re-entrancy latch mirroring the transport-level one: a
// drain triggered from within a drain is a no-op.
func (sf *Session) fetchErrors() error {
	if sf.readingMessages {
		return nil
	}
	sf.readingMessages = true
	defer func() { sf.readingMessages = false }()

	col, err := sf.applyCollection(netwise.RPCApply, nullID, "GET_ERRORS", nil)
	if err != nil {
		return errors.Wrap(err, "session: fetch errors")
	}
	defer col.Close()
	for {
		rec, err := col.NextRecord()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		sf.messages.push(serverMessage{obj: rec})
	}
}
