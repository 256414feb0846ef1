package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedQueue_CapacityAndFIFO(t *testing.T) {
	q := NewBoundedQueue[int](3)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	require.True(t, q.Push(3))
	assert.False(t, q.Push(4), "push beyond capacity must fail")
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 3, q.Cap())

	for want := 1; want <= 3; want++ {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.True(t, q.Push(5))
}

func TestBoundedQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewBoundedQueue[string](1)
	got := make(chan string, 1)
	go func() {
		v, _ := q.Pop()
		got <- v
	}()

	select {
	case <-got:
		t.Fatal("pop returned on empty queue")
	case <-time.After(20 * time.Millisecond):
	}
	require.True(t, q.Push("x"))
	select {
	case v := <-got:
		assert.Equal(t, "x", v)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake")
	}
}

func TestBoundedQueue_CloseDrainsThenStops(t *testing.T) {
	q := NewBoundedQueue[int](4)
	q.Push(1)
	q.Push(2)
	q.Close()

	assert.False(t, q.Push(3))
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestBoundedQueue_CloseWakesAllConsumers(t *testing.T) {
	q := NewBoundedQueue[int](1)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Pop()
			assert.False(t, ok)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumers not woken by Close")
	}
}

func TestThreadPool_ProcessesEveryItem(t *testing.T) {
	var sum atomic.Int64
	tp := NewThreadPool(PoolConfig[int]{
		Workers:  4,
		Capacity: 1000,
		Handle:   func(v int) { sum.Add(int64(v)) },
	})
	for i := 1; i <= 100; i++ {
		require.NoError(t, tp.Submit(i))
	}
	tp.Close()

	assert.Equal(t, int64(5050), sum.Load())
	st := tp.Stats()
	assert.Equal(t, int64(100), st.Submitted)
	assert.Equal(t, int64(100), st.Completed)
	assert.Zero(t, st.Pending)
	assert.ErrorIs(t, tp.Submit(1), ErrQueueClosed)
}

func TestThreadPool_FullQueueRejects(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	tp := NewThreadPool(PoolConfig[int]{
		Workers:  1,
		Capacity: 1,
		Handle: func(int) {
			started <- struct{}{}
			<-release
		},
	})
	require.NoError(t, tp.Submit(1))
	<-started
	require.NoError(t, tp.Submit(2))
	assert.ErrorIs(t, tp.Submit(3), ErrQueueFull)
	assert.Equal(t, int64(1), tp.Stats().Rejected)

	close(release)
	tp.Close()
	assert.Equal(t, int64(2), tp.Stats().Completed)
}

func TestThreadPool_RecoversPanics(t *testing.T) {
	var recovered atomic.Int64
	var ok atomic.Int64
	tp := NewThreadPool(PoolConfig[int]{
		Workers:  1,
		Capacity: 10,
		Handle: func(v int) {
			if v%2 == 0 {
				panic("boom")
			}
			ok.Add(1)
		},
		Recovered: func(v int, r any) {
			assert.Equal(t, "boom", r)
			recovered.Add(1)
		},
	})
	for i := 1; i <= 6; i++ {
		require.NoError(t, tp.Submit(i))
	}
	tp.Close()

	assert.Equal(t, int64(3), ok.Load())
	assert.Equal(t, int64(3), recovered.Load())
	assert.Equal(t, int64(3), tp.Stats().Panics)
}
