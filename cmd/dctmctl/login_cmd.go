// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/netwise-go/dctm/session"
)

var loginDocbaseID int64
var loginUsername string
var loginPassword string
var loginTargetUser string
var loginTargetServer string
var loginTimeout int64
var loginSingleUse bool

var loginTicketCmd = &cobra.Command{
	Use:   "login-ticket <host> <port>",
	Short: "Connect to a docbase and print a login ticket for another tool to consume",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dctmctl: invalid port %q: %w", args[1], err)
		}

		cfg := session.Config{DocbaseID: loginDocbaseID}
		cfg.Transport.Host, cfg.Transport.Port = args[0], port
		cfg.Credentials = &session.Credentials{Username: loginUsername, Password: loginPassword}

		sess, err := session.Dial(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		targetUser := loginTargetUser
		if targetUser == "" {
			targetUser = loginUsername
		}
		ticket, err := sess.GetLogin(targetUser, loginTargetServer, loginTimeout, loginSingleUse)
		if err != nil {
			return err
		}
		fmt.Println(ticket)
		return nil
	},
}

func init() {
	loginTicketCmd.Flags().Int64Var(&loginDocbaseID, "docbase-id", -1, "docbase id, -1 to resolve automatically")
	loginTicketCmd.Flags().StringVar(&loginUsername, "username", "", "docbase login username")
	loginTicketCmd.Flags().StringVar(&loginPassword, "password", "", "docbase login password")
	loginTicketCmd.Flags().StringVar(&loginTargetUser, "for-user", "", "user the ticket is issued for, defaults to --username")
	loginTicketCmd.Flags().StringVar(&loginTargetServer, "for-server", "", "server name the ticket is scoped to")
	loginTicketCmd.Flags().Int64Var(&loginTimeout, "timeout", 300, "ticket validity in seconds")
	loginTicketCmd.Flags().BoolVar(&loginSingleUse, "single-use", true, "issue a single-use ticket")
}
