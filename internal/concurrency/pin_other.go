//go:build !linux
// +build !linux

// File: internal/concurrency/pin_other.go
// Author: momentics <momentics@gmail.com>

package concurrency

import "runtime"

// PinCurrentThread only locks the goroutine to its OS thread on this platform.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	return nil
}

// UnpinCurrentThread releases the OS thread.
func UnpinCurrentThread() {
	runtime.UnlockOSThread()
}
