// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netwise-go/dctm/session"
)

var replDocbaseID int64
var replUsername string
var replPassword string

var sessionCmd = &cobra.Command{
	Use:   "session <host> <port>",
	Short: "Connect to a docbase and run DQL queries from stdin, one per line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dctmctl: invalid port %q: %w", args[1], err)
		}

		cfg := session.Config{DocbaseID: replDocbaseID}
		cfg.Transport.Host, cfg.Transport.Port = args[0], port
		if replUsername != "" {
			cfg.Credentials = &session.Credentials{Username: replUsername, Password: replPassword}
		}

		sess, err := session.Dial(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		return runRepl(sess, os.Stdin, os.Stdout)
	},
}

func init() {
	sessionCmd.Flags().Int64Var(&replDocbaseID, "docbase-id", -1, "docbase id, -1 to resolve automatically")
	sessionCmd.Flags().StringVar(&replUsername, "username", "", "docbase login username")
	sessionCmd.Flags().StringVar(&replPassword, "password", "", "docbase login password")
}

// runRepl reads one DQL statement per line from in, runs it, and prints
// every returned record as a tab-separated line of name=value pairs.
func runRepl(sess *session.Session, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		dql := strings.TrimSpace(scanner.Text())
		if dql == "" {
			continue
		}
		if err := runQuery(sess, dql, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func runQuery(sess *session.Session, dql string, out *os.File) error {
	col, err := sess.Query(dql, false)
	if err != nil {
		return err
	}
	defer col.Close()

	for {
		rec, err := col.NextRecord()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		fields := make([]string, 0, rec.Len())
		for _, name := range rec.Names() {
			fields = append(fields, fmt.Sprintf("%s=%v", name, rec.Get(name).Value()))
		}
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
}
