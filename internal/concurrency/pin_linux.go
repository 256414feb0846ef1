//go:build linux
// +build linux

// File: internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
//
// CPU affinity through sched_setaffinity(2).

package concurrency

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its OS thread and binds that
// thread to cpuID modulo the number of CPUs.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	n := runtime.NumCPU()
	if cpuID < 0 {
		cpuID = -cpuID
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID % n)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin to cpu %d: %w", cpuID%n, err)
	}
	return nil
}

// UnpinCurrentThread restores the full CPU mask and releases the OS thread.
func UnpinCurrentThread() {
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < runtime.NumCPU(); i++ {
		set.Set(i)
	}
	_ = unix.SchedSetaffinity(0, &set)
	runtime.UnlockOSThread()
}
