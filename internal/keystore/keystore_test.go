// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package keystore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRejectsInvalidKeystoreBytes(t *testing.T) {
	_, err := Load([]byte("not a pkcs12 file"), "", "host1")
	require.Error(t, err)
}

func TestLoadFileRejectsMissingPath(t *testing.T) {
	_, err := LoadFile("/nonexistent/keystore.p12", "", "host1")
	require.Error(t, err)
}
