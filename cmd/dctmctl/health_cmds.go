// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/netwise-go/dctm/docbroker"
	"github.com/netwise-go/dctm/session"
)

var healthDocbase string
var healthServer string
var healthUsername string
var healthPassword string
var healthDocbaseID int64

var healthCmd = &cobra.Command{
	Use:   "health <host> <port>",
	Short: "Check docbroker reachability, or a docbase session handshake with --session-docbase-id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dctmctl: invalid port %q: %w", args[1], err)
		}

		if healthDocbaseID != 0 {
			return checkSessionHealth(args[0], port, healthDocbaseID)
		}
		return checkDocbrokerHealth(args[0], port)
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthDocbase, "docbase", "", "docbase name to check registration for")
	healthCmd.Flags().StringVar(&healthServer, "server", "", "server name to check registration for, requires --docbase")
	healthCmd.Flags().Int64Var(&healthDocbaseID, "session-docbase-id", 0, "run a session handshake probe against this docbase id instead of a docbroker check")
	healthCmd.Flags().StringVar(&healthUsername, "username", "", "username for the session handshake probe")
	healthCmd.Flags().StringVar(&healthPassword, "password", "", "password for the session handshake probe")
}

func checkDocbrokerHealth(host string, port int) error {
	if healthDocbase != "" {
		result := docbroker.CheckRegistration(host, port, healthDocbase, healthServer)
		if result.Err != nil {
			return result.Err
		}
		if !result.Registered {
			return fmt.Errorf("dctmctl: %s is not registered on %s:%d", registrationSubject(healthDocbase, healthServer), host, port)
		}
		fmt.Printf("%s is registered on %s:%d, status=%s\n", registrationSubject(healthDocbase, healthServer), host, port, result.Status)
		return nil
	}

	result := docbroker.Probe(host, port)
	if result.Err != nil {
		return result.Err
	}
	fmt.Printf("ok, latency=%s, docbases=%d\n", result.Latency, len(result.Docbases))
	return nil
}

func checkSessionHealth(host string, port int, docbaseID int64) error {
	cfg := session.Config{DocbaseID: docbaseID}
	cfg.Transport.Host, cfg.Transport.Port = host, port
	if healthUsername != "" {
		cfg.Credentials = &session.Credentials{Username: healthUsername, Password: healthPassword}
	}

	result := session.Probe(cfg)
	if result.Err != nil {
		return result.Err
	}
	fmt.Printf("ok, latency=%s, docbase=%s, server=%s\n", result.Latency, result.Docbase, result.Server)
	return nil
}

func registrationSubject(docbase, server string) string {
	if server == "" {
		return docbase
	}
	return docbase + "." + server
}
