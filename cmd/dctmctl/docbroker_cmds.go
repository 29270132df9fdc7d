// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/netwise-go/dctm/docbroker"
)

var getDocbaseMapCmd = &cobra.Command{
	Use:   "get-docbasemap <docbroker-host> <docbroker-port>",
	Short: "List every docbase a docbroker knows about",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dctmctl: invalid port %q: %w", args[1], err)
		}
		m, err := docbroker.Dial(args[0], port).GetDocbaseMap()
		if err != nil {
			return err
		}
		names, _ := m.Get("r_docbase_name")
		addrs, _ := m.Get("i_host_addr")
		for i, name := range names {
			addr := ""
			if i < len(addrs) {
				addr = addrs[i]
			}
			fmt.Printf("%s\t%s\n", name, addr)
		}
		return nil
	},
}

var getServerMapCmd = &cobra.Command{
	Use:   "get-servermap <docbroker-host> <docbroker-port> <docbase>",
	Short: "List the content servers registered for a docbase",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dctmctl: invalid port %q: %w", args[1], err)
		}
		m, err := docbroker.Dial(args[0], port).GetServerMap(args[2])
		if err != nil {
			return err
		}
		names, _ := m.Get("r_server_name")
		statuses, _ := m.Get("r_last_status")
		addrs, _ := m.Get("i_server_connection_address")
		for i, name := range names {
			status, addr := "", ""
			if i < len(statuses) {
				status = statuses[i]
			}
			if i < len(addrs) {
				addr = addrs[i]
			}
			fmt.Printf("%s\t%s\t%s\n", name, status, addr)
		}
		return nil
	},
}
