package server

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-httpd/internal/httpconn"
)

type countingWaker struct{ n atomic.Int32 }

func (w *countingWaker) Wake() { w.n.Add(1) }

func TestCompletionQueue_WakesOnFirstPush(t *testing.T) {
	w := &countingWaker{}
	q := newCompletionQueue(w)

	q.push(Completion{Action: httpconn.ActionRead})
	q.push(Completion{Action: httpconn.ActionWrite})
	q.push(Completion{Action: httpconn.ActionClose})
	assert.Equal(t, int32(1), w.n.Load())
	assert.Equal(t, 3, q.len())

	var got []httpconn.Action
	n := q.drain(func(c Completion) { got = append(got, c.Action) })
	assert.Equal(t, 3, n)
	assert.Equal(t, []httpconn.Action{httpconn.ActionRead, httpconn.ActionWrite, httpconn.ActionClose}, got)
	assert.Zero(t, q.len())

	q.push(Completion{})
	assert.Equal(t, int32(2), w.n.Load())
}

func TestCompletionQueue_PushDuringDrainIsKept(t *testing.T) {
	q := newCompletionQueue(nil)
	q.push(Completion{Action: httpconn.ActionRead})

	n := q.drain(func(Completion) { q.push(Completion{Action: httpconn.ActionProcess}) })
	require.Equal(t, 1, n)
	require.Equal(t, 1, q.len())

	var got httpconn.Action
	q.drain(func(c Completion) { got = c.Action })
	assert.Equal(t, httpconn.ActionProcess, got)
}

func TestCompletionQueue_ConcurrentProducers(t *testing.T) {
	q := newCompletionQueue(&countingWaker{})
	const producers, each = 8, 500

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.push(Completion{Active: true})
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	for {
		total += q.drain(func(c Completion) { require.True(t, c.Active) })
		select {
		case <-done:
			total += q.drain(func(Completion) {})
			assert.Equal(t, producers*each, total)
			return
		default:
		}
	}
}
