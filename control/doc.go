// Package control
// Author: momentics <momentics@gmail.com>
//
// Startup configuration and runtime metrics for hioload-httpd.
//
// Configuration is a plain struct populated once at startup from defaults, an
// optional YAML file, HIOLOAD_* environment variables and command-line flags,
// in that order of precedence. It is never reloaded.
//
// Metrics are prometheus collectors on a private registry; the server exports
// them to a text file on shutdown instead of opening a second listener.
package control
