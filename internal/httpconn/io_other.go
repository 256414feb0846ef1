//go:build !linux
// +build !linux

// File: internal/httpconn/io_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"errors"
	"os"
)

var errUnsupported = errors.New("httpconn: socket I/O requires linux")

func (c *Conn) Read() error   { return errUnsupported }
func (c *Conn) Write() Action { return ActionClose }
func (c *Conn) Abort()        {}

func (c *Conn) Close() error {
	c.unmap()
	c.fd = -1
	c.releaseBuffers()
	return nil
}

func mapFile(name string, size int) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func unmapFile([]byte) error { return nil }
