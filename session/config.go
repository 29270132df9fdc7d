// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package session implements the Documentum docbase client on top of
// netwise: docbase-id resolution, connect/negotiate, entry-point
// discovery, locale negotiation, authentication, the dynamic method
// surface, collection lifecycle and the server message queue.
package session

import (
	"crypto"

	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/netwise"
)

const clientVersionString = "1.0.0 go"

// DefaultBatchSize is the collection batch size used when Config.BatchSize
// is not set; the batch size is what queries send as BATCH_HINT.
const DefaultBatchSize = 20

// Credentials carries the username/password pair used for password
// authentication. Password may be plaintext or already obfuscated;
// Obfuscate is idempotent either way.
type Credentials struct {
	Username string
	Password string
}

// Identity carries the trusted/SSO authentication material: a signer
// (RSA or ECDSA) and the certificate's common name, used to build the
// CLIENT_AUTH_DATA signature over cn\tepoch\thostname\t. internal/keystore
// produces an Identity from a PKCS12 keystore file; tests and callers
// that already hold a crypto.Signer can build one directly.
type Identity struct {
	Trusted    bool
	CommonName string
	Hostname   string
	Signer     crypto.Signer
}

// Config configures a Session: the netwise transport plus docbase
// identity, credentials, and negotiation hints.
type Config struct {
	Transport netwise.Config

	// DocbaseID is the numeric docbase id. A negative value triggers the
	// id-resolution handshake (§4.5 step 1) before the real connect.
	DocbaseID int64

	Credentials *Credentials
	Identity    *Identity

	// Charset is the CHARSETS id requested during locale negotiation.
	// Zero selects CharsetUTF8.
	Charset int64

	BatchSize int
}

func (sf *Config) valid() error {
	if sf.BatchSize <= 0 {
		sf.BatchSize = DefaultBatchSize
	}
	if sf.Charset == 0 {
		sf.Charset = CharsetUTF8
	}
	if _, ok := charsetNames[sf.Charset]; !ok {
		return errors.Errorf("session: unknown charset id %d", sf.Charset)
	}
	return nil
}
