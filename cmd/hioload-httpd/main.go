// File: cmd/hioload-httpd/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// hioload-httpd serves static files and the login/register demo endpoints
// from a single epoll event loop.
//
// Usage:
//
//	hioload-httpd [-p port] [-l 0|1] [-m 0..3] [-o 0|1] [-s conns] [-t threads] [-c 0|1] [-a 0|1]
//	hioload-httpd --config httpd.yaml serve
//	hioload-httpd useradd NAME PASSWORD
//	hioload-httpd config dump [--out FILE]

package main

import (
	"fmt"
	"os"
)

// Build information, set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
