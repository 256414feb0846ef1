// Package pool
// Author: momentics <momentics@gmail.com>
//
// Recycling of per-connection memory. Read and header buffers are taken from
// a BytePool when a connection is created and returned when it is destroyed,
// so connection churn does not translate into allocation churn.
package pool
