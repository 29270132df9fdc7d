// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package netwise implements the Documentum "netwise" RPC transport: a
// length-prefixed frame codec, a per-connection sequence counter, the
// client/server request classes (standard request/response, raw-binary
// download, server-driven upload) and the puller/pusher content-streaming
// sub-protocols layered on top of them.
package netwise

import (
	"crypto/tls"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// defines a netwise connection configuration range
const (
	ConnectTimeoutMin = 1 * time.Second
	ConnectTimeoutMax = 300 * time.Second

	CallTimeoutMin = 1 * time.Second
	CallTimeoutMax = 24 * time.Hour
)

// Client identity the content server sees on every hello header. These
// are the values the reference client has always advertised; servers key
// feature negotiation off them.
const (
	ClientVersion = 3
	ClientRelease = 5
	ClientInumber = 769

	// DocbrokerVersion, DocbrokerRelease and DocbrokerInumber identify a
	// Docbroker discovery connection instead of a content-server session.
	DocbrokerVersion  = 1
	DocbrokerRelease  = 0
	DocbrokerInumber  = 1094
)

// Config defines a netwise connection.
// The default is applied for each unspecified value.
type Config struct {
	// Host and Port of the content server (or docbroker) to dial.
	Host string
	Port int

	// Secure wraps the TCP leg in TLS once connected.
	Secure bool
	// TLSConfig is used verbatim when Secure is set; nil selects Go's
	// default configuration.
	TLSConfig *tls.Config

	// ProxyURL, if set, dials the TCP leg through a SOCKS5 proxy before
	// the optional TLS wrap, per a schema of "socks5://host:port".
	ProxyURL *url.URL

	// ConnectTimeout bounds the TCP (and proxy) dial.
	// range [1s, 300s], default 30s.
	ConnectTimeout time.Duration

	// CallTimeout bounds a single request/response round trip, including
	// any fragmented-reply continuation. range [1s, 24h], default 60s.
	CallTimeout time.Duration

	// Version, Release and Inumber are the hello-header identity this
	// connection advertises. All three zero selects ClientVersion/
	// ClientRelease/ClientInumber; a Docbroker dial overrides them explicitly.
	Version int64
	Release int64
	Inumber int64
}

// Valid applies the default for each unspecified value.
func (sf *Config) Valid() error {
	if sf == nil {
		return errors.New("netwise: invalid pointer")
	}
	if sf.Host == "" {
		return errors.New("netwise: host is required")
	}
	if sf.Port <= 0 {
		return errors.New("netwise: port is required")
	}

	if sf.ConnectTimeout == 0 {
		sf.ConnectTimeout = 30 * time.Second
	} else if sf.ConnectTimeout < ConnectTimeoutMin || sf.ConnectTimeout > ConnectTimeoutMax {
		return errors.New("netwise: ConnectTimeout not in [1s, 300s]")
	}

	if sf.CallTimeout == 0 {
		sf.CallTimeout = 60 * time.Second
	} else if sf.CallTimeout < CallTimeoutMin || sf.CallTimeout > CallTimeoutMax {
		return errors.New("netwise: CallTimeout not in [1s, 24h]")
	}

	if sf.Version == 0 && sf.Release == 0 && sf.Inumber == 0 {
		sf.Version, sf.Release, sf.Inumber = ClientVersion, ClientRelease, ClientInumber
	}

	return nil
}

// DefaultConfig returns a Config identifying itself as a content-server
// client; DocbrokerConfig is used for discovery dials instead.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		CallTimeout:    60 * time.Second,
		Version:        ClientVersion,
		Release:        ClientRelease,
		Inumber:        ClientInumber,
	}
}

// DocbrokerConfig returns a Config identifying itself as a Docbroker
// discovery client per §4.7.
func DocbrokerConfig() Config {
	cfg := DefaultConfig()
	cfg.Version = DocbrokerVersion
	cfg.Release = DocbrokerRelease
	cfg.Inumber = DocbrokerInumber
	return cfg
}
