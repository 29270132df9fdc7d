// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package docbroker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	host, port, err := ParseAddress("INET_ADDR 02 0665 01 00 host.example")
	require.NoError(t, err)
	require.Equal(t, "host.example", host)
	require.Equal(t, 1637, port)
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	_, _, err := ParseAddress("not an address")
	require.Error(t, err)

	_, _, err = ParseAddress("")
	require.Error(t, err)

	_, _, err = ParseAddress("INET_ADDR 02 0665")
	require.Error(t, err)
}
