// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Command dctmctl is a thin CLI front end over the docbroker and
// session packages: docbase/server discovery, a connectivity health
// check, login-ticket retrieval and a minimal query REPL. It exists to
// exercise the library end to end, not as a supported product surface.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
