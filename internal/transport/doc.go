// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw non-blocking TCP listener for the epoll loop: socket setup with
// SO_REUSEADDR and SO_LINGER, accept4, and the fixed busy reply used when the
// connection ceiling is reached.

package transport
