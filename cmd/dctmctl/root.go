// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "dctmctl",
	Short:         "Discovery and session tooling for a Documentum repository",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(getDocbaseMapCmd)
	rootCmd.AddCommand(getServerMapCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginTicketCmd)
	rootCmd.AddCommand(sessionCmd)
}
