// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import "time"

// ProbeResult reports the outcome of a single health check: whether the
// full startup handshake succeeded, how long it took, and the docbase
// and server configuration observed along the way.
type ProbeResult struct {
	OK       bool
	Latency  time.Duration
	Docbase  string
	Server   string
	Err      error
}

// Probe dials cfg's docbase, runs the full startup handshake (and
// authentication, when credentials are configured), and reports the
// result without leaving a connection open. It is the building block
// behind a periodic availability check.
func Probe(cfg Config) ProbeResult {
	start := time.Now()
	sess, err := Dial(cfg)
	latency := time.Since(start)
	if err != nil {
		return ProbeResult{OK: false, Latency: latency, Err: err}
	}
	defer sess.Close()

	result := ProbeResult{OK: true, Latency: latency}
	if obj, err := sess.GetDocbaseConfig(); err == nil {
		if av := obj.Get("object_name"); av != nil {
			if s, ok := av.Value().(string); ok {
				result.Docbase = s
			}
		}
	}
	if obj, err := sess.GetServerConfig(); err == nil {
		if av := obj.Get("object_name"); av != nil {
			if s, ok := av.Value().(string); ok {
				result.Server = s
			}
		}
	}
	return result
}
