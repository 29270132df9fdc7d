// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package keystore loads the PKCS12 keystore a trusted/SSO login
// identity signs its CLIENT_AUTH_DATA with, producing a session.Identity
// ready to hand to Session.SetIdentity.
package keystore

import (
	"crypto"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pkcs12"

	"github.com/netwise-go/dctm/session"
)

// DefaultKeystorePassword and DefaultKeyPassword match the reference
// client's defaults for a DFC-style keystore. Load applies
// DefaultKeystorePassword when the caller passes an empty password; it
// decodes with that single password and does not use DefaultKeyPassword.
const (
	DefaultKeystorePassword = "dfc"
	DefaultKeyPassword      = "!!dfc!!"
)

// Load decodes PKCS12 keystore bytes and builds a trusted session.Identity
// from the leaf certificate's signer and common name. hostname overrides
// the local hostname when non-empty.
func Load(keystoreBytes []byte, keystorePassword string, hostname string) (*session.Identity, error) {
	if keystorePassword == "" {
		keystorePassword = DefaultKeystorePassword
	}

	signer, cert, _, err := pkcs12.DecodeChain(keystoreBytes, keystorePassword)
	if err != nil {
		return nil, errors.Wrap(err, "keystore: decode pkcs12")
	}
	key, ok := signer.(crypto.Signer)
	if !ok {
		return nil, errors.New("keystore: private key does not implement crypto.Signer")
	}

	if hostname == "" {
		hostname, err = os.Hostname()
		if err != nil {
			return nil, errors.Wrap(err, "keystore: resolve hostname")
		}
	}

	return &session.Identity{
		Trusted:    true,
		CommonName: cert.Subject.CommonName,
		Hostname:   hostname,
		Signer:     key,
	}, nil
}

// LoadFile reads path and decodes it as a PKCS12 keystore, matching
// identity.py's file-based constructor.
func LoadFile(path, keystorePassword, hostname string) (*session.Identity, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "keystore: read file")
	}
	return Load(b, keystorePassword, hostname)
}
