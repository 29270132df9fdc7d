// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package docbroker implements the Documentum docbroker discovery
// protocol: a one-shot client that resolves docbase and server
// connection addresses over the same netwise transport a content
// server session uses, identifying itself with the docbroker's own
// hello-header values instead of a content server's.
package docbroker

import (
	"github.com/pkg/errors"

	"github.com/netwise-go/dctm/netwise"
	"github.com/netwise-go/dctm/typedobject"
)

const softwareVersion = "1.0.0 go"
const requestHandle = "localhost"

// Client is a one-shot docbroker connection: every call dials, sends
// exactly one request, reads the reply and closes the socket, matching
// the broker's own "one request/response per connection" contract.
type Client struct {
	cfg netwise.Config
}

// Dial prepares a Client for host:port. No network I/O happens until
// the first query; each query opens and closes its own connection.
func Dial(host string, port int) *Client {
	cfg := netwise.DocbrokerConfig()
	cfg.Host, cfg.Port = host, port
	return &Client{cfg: cfg}
}

// New builds a Client from a caller-supplied transport config, forcing
// the docbroker hello-header identity (version=1, release=0,
// inumber=1094) regardless of whatever the caller set.
func New(transport netwise.Config) *Client {
	transport.Version = netwise.DocbrokerVersion
	transport.Release = netwise.DocbrokerRelease
	transport.Inumber = netwise.DocbrokerInumber
	return &Client{cfg: transport}
}

// GetDocbaseMap issues DBRN_GET_DOCBASE_MAP, returning the map of known
// docbase names to their connection addresses.
func (sf *Client) GetDocbaseMap() (*Map, error) {
	req := newRequest()
	req.SetString("DBR_REQUEST_NAME", "DBRN_GET_DOCBASE_MAP")
	req.SetInt("DBR_REQUEST_VERSION", 1)
	req.SetString("DBR_REQUEST_HANDLE", requestHandle)
	req.SetString("DBR_SOFTWARE_VERSION", softwareVersion)
	return sf.query(req)
}

// GetServerMap issues DBRN_GET_SERVER_MAP for docbase, returning the
// map of server names to their connection addresses and status.
func (sf *Client) GetServerMap(docbase string) (*Map, error) {
	req := newRequest()
	req.SetString("r_docbase_name", docbase)
	req.SetString("r_map_name", "mn_cs_map")
	req.SetString("DBR_REQUEST_NAME", "DBRN_GET_SERVER_MAP")
	req.SetInt("DBR_REQUEST_VERSION", 1)
	req.SetString("DBR_REQUEST_HANDLE", requestHandle)
	req.SetString("DBR_SOFTWARE_VERSION", softwareVersion)

	m, err := sf.query(req)
	if err != nil {
		return nil, err
	}
	if _, ok := m.First("r_server_name"); !ok {
		return nil, errors.Errorf("docbroker: no servers registered for docbase %q", docbase)
	}
	return m, nil
}

// query performs the single dial/request/response/close round trip
// shared by every docbroker query.
func (sf *Client) query(req *typedobject.TypedObject) (*Map, error) {
	conn, err := netwise.Dial(sf.cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	body := netwise.NewArgWriter().Str(string(req.Encode())).Bytes()
	respBody, err := conn.Exchange(netwise.RPCGetBlock, body)
	if err != nil {
		return nil, err
	}

	r := netwise.NewArgReader(respBody)
	item, err := r.Next()
	if err != nil {
		return nil, errors.Wrap(err, "docbroker: decode response")
	}
	text, ok := item.(string)
	if !ok {
		return nil, errors.New("docbroker: response did not carry a typed object")
	}

	return decodeMap([]byte(text))
}

// newRequest builds the ser-version-0 request object every docbroker
// query carries: a flat attribute bag, no TYPE block.
func newRequest() *typedobject.TypedObject {
	return typedobject.NewTypedObject(&typedobject.Type{Name: "docbroker"}, 0, false)
}
