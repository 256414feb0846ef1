// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

// BytePool recycles byte slices that start at a fixed size. Slices that grew
// beyond maxRetain are left to the GC.
type BytePool struct {
	sp        *SyncPool[*[]byte]
	size      int
	maxRetain int
}

var _ ObjectPool[*[]byte] = (*BytePool)(nil)

// NewBytePool creates a pool of size-byte slices.
func NewBytePool(size, maxRetain int) *BytePool {
	if maxRetain < size {
		maxRetain = size
	}
	b := &BytePool{size: size, maxRetain: maxRetain}
	b.sp = NewSyncPool(func() *[]byte {
		buf := make([]byte, 0, size)
		return &buf
	}, func(p *[]byte) bool {
		if p == nil || cap(*p) > b.maxRetain {
			return false
		}
		*p = (*p)[:0]
		return true
	})
	return b
}

// Get returns an empty slice with capacity of at least the pool size.
func (b *BytePool) Get() *[]byte { return b.sp.Get() }

// Put recycles p.
func (b *BytePool) Put(p *[]byte) { b.sp.Put(p) }

// Size is the initial capacity of pooled slices.
func (b *BytePool) Size() int { return b.size }
