package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytePool_GetReturnsEmptySized(t *testing.T) {
	bp := NewBytePool(512, 4096)
	p := bp.Get()
	assert.Len(t, *p, 0)
	assert.GreaterOrEqual(t, cap(*p), 512)

	*p = append(*p, "hello"...)
	bp.Put(p)

	q := bp.Get()
	assert.Len(t, *q, 0, "recycled slices come back empty")
	assert.Equal(t, 512, bp.Size())
}

func TestBytePool_DropsOversized(t *testing.T) {
	bp := NewBytePool(16, 32)
	big := make([]byte, 0, 1024)
	bp.Put(&big)
	bp.Put(nil)

	p := bp.Get()
	assert.LessOrEqual(t, cap(*p), 32)
}
