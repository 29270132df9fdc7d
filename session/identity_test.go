// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityAuthDataNoSigner(t *testing.T) {
	id := &Identity{CommonName: "cn=test"}
	_, err := id.AuthData()
	require.Error(t, err)
}

func TestIdentityAuthDataShapeAndSignature(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	id := &Identity{Trusted: true, CommonName: "cn=alice", Hostname: "host1", Signer: key}
	data, err := id.AuthData()
	require.NoError(t, err)

	parts := strings.Split(data, "\t")
	require.Len(t, parts, 5)
	require.Equal(t, "cn=alice", parts[0])
	require.Equal(t, "host1", parts[2])
	require.Equal(t, "", parts[3])
	require.NotEmpty(t, parts[4])
}
