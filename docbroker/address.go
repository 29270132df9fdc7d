// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package docbroker

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseAddress decodes a connection-address string of the form
// "INET_ADDR <reserved> <hex-port> <reserved> <reserved> <host>",
// returning host and port.
func ParseAddress(value string) (host string, port int, err error) {
	if value == "" || !strings.HasPrefix(value, "INET_ADDR") {
		return "", 0, errors.Errorf("docbroker: invalid address %q", value)
	}
	fields := strings.Fields(value)
	if len(fields) < 6 {
		return "", 0, errors.Errorf("docbroker: invalid address %q", value)
	}
	p, err := strconv.ParseInt(fields[2], 16, 32)
	if err != nil {
		return "", 0, errors.Wrapf(err, "docbroker: invalid port in address %q", value)
	}
	return fields[5], int(p), nil
}
