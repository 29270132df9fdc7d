// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"crypto"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// AuthData builds the CLIENT_AUTH_DATA value for trusted login: a
// tab-separated "cn, now, hostname, empty-scope" record, SHA-1-signed
// with the identity's key and tab-appended as base64. The signature
// covers the record exactly as sent, so server and client must agree on
// its layout byte for byte.
func (sf *Identity) AuthData() (string, error) {
	if sf.Signer == nil {
		return "", errors.New("session: identity has no signer")
	}
	data := fmt.Sprintf("%s\t%d\t%s\t", sf.CommonName, time.Now().Unix(), sf.Hostname)
	sum := sha1.Sum([]byte(data))
	sig, err := sf.Signer.Sign(rand.Reader, sum[:], crypto.SHA1)
	if err != nil {
		return "", errors.Wrap(err, "session: sign auth data")
	}
	return data + "\t" + base64.StdEncoding.EncodeToString(sig), nil
}
