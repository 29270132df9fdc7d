// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package docbroker

import (
	"time"

	"github.com/pkg/errors"
)

// ProbeResult reports the outcome of a docbroker connectivity check:
// how long GetDocbaseMap took and the docbase names it returned.
type ProbeResult struct {
	OK       bool
	Latency  time.Duration
	Docbases []string
	Err      error
}

// Probe fetches the docbase map from host:port and reports the result,
// the building block behind a docbroker availability check.
func Probe(host string, port int) ProbeResult {
	start := time.Now()
	m, err := Dial(host, port).GetDocbaseMap()
	latency := time.Since(start)
	if err != nil {
		return ProbeResult{OK: false, Latency: latency, Err: err}
	}
	docbases, _ := m.Get("r_docbase_name")
	return ProbeResult{OK: true, Latency: latency, Docbases: docbases}
}

// RegistrationResult reports whether a specific docbase/server pair is
// registered and, when it is, its last known status and connection
// address as reported by the docbroker.
type RegistrationResult struct {
	Registered bool
	Status     string
	Host       string
	Port       int
	Err        error
}

// CheckRegistration verifies that docbase is known to the docbroker at
// host:port and, when server is non-empty, that server is registered
// under it, reporting its last status and connection address.
func CheckRegistration(host string, port int, docbase, server string) RegistrationResult {
	client := Dial(host, port)

	docbaseMap, err := client.GetDocbaseMap()
	if err != nil {
		return RegistrationResult{Err: errors.Wrap(err, "docbroker: fetch docbase map")}
	}
	names, _ := docbaseMap.Get("r_docbase_name")
	if !contains(names, docbase) {
		return RegistrationResult{Registered: false}
	}
	if server == "" {
		return RegistrationResult{Registered: true}
	}

	serverMap, err := client.GetServerMap(docbase)
	if err != nil {
		return RegistrationResult{Registered: true, Err: errors.Wrap(err, "docbroker: fetch server map")}
	}
	serverNames, _ := serverMap.Get("r_server_name")
	index := indexOf(serverNames, server)
	if index < 0 {
		return RegistrationResult{Registered: false}
	}

	result := RegistrationResult{Registered: true}
	if statuses, ok := serverMap.Get("r_last_status"); ok && index < len(statuses) {
		result.Status = statuses[index]
	}
	if addrs, ok := serverMap.Get("i_server_connection_address"); ok && index < len(addrs) {
		if host, port, err := ParseAddress(addrs[index]); err == nil {
			result.Host, result.Port = host, port
		}
	}
	return result
}

func contains(values []string, target string) bool { return indexOf(values, target) >= 0 }

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
