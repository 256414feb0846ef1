// File: internal/timer/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import "time"

// IdleSlots is the number of alarm periods a connection may stay idle.
const IdleSlots = 3

const nilIdx int32 = -1

// Handle addresses a timer slot. The zero Handle is never valid.
type Handle struct {
	idx uint32
	gen uint32
}

// Valid reports whether h was ever issued. It does not say the timer is still live.
func (h Handle) Valid() bool { return h.gen != 0 }

// Callback is invoked when a timer expires during Tick. owner is the value given to Add.
type Callback func(owner int)

type slot struct {
	expire time.Time
	cb     Callback
	owner  int
	prev   int32
	next   int32
	gen    uint32
	live   bool
}

// Registry keeps timers sorted by expiry.
type Registry struct {
	now    func() time.Time
	slots  []slot
	free   []uint32
	period time.Duration
	head   int32
	tail   int32
	size   int
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a registry for the given alarm period.
func NewRegistry(period time.Duration, opts ...Option) *Registry {
	r := &Registry{
		now:    time.Now,
		period: period,
		head:   nilIdx,
		tail:   nilIdx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Period returns the alarm period.
func (r *Registry) Period() time.Duration { return r.period }

// IdleTimeout is the inactivity budget granted on every Add and Adjust.
func (r *Registry) IdleTimeout() time.Duration { return IdleSlots * r.period }

// Len returns the number of live timers.
func (r *Registry) Len() int { return r.size }

// Add creates a timer expiring one idle budget from now.
func (r *Registry) Add(owner int, cb Callback) Handle {
	return r.AddAt(owner, r.now().Add(r.IdleTimeout()), cb)
}

// AddAt creates a timer with an explicit expiry. The list is scanned from the head.
func (r *Registry) AddAt(owner int, expire time.Time, cb Callback) Handle {
	idx := r.alloc()
	s := &r.slots[idx]
	s.expire = expire
	s.owner = owner
	s.cb = cb
	r.insertFrom(idx, r.head)
	r.size++
	return Handle{idx: uint32(idx), gen: s.gen}
}

// Adjust pushes the expiry of h to now plus the idle budget. The timer only
// moves towards the tail, starting from where it already sits. Returns false
// for stale handles.
func (r *Registry) Adjust(h Handle) bool {
	idx, ok := r.resolve(h)
	if !ok {
		return false
	}
	s := &r.slots[idx]
	s.expire = r.now().Add(r.IdleTimeout())

	if s.prev != nilIdx && s.expire.Before(r.slots[s.prev].expire) {
		// clock went backwards: fall back to a full rescan
		r.unlink(idx)
		r.insertFrom(idx, r.head)
		return true
	}
	next := s.next
	if next == nilIdx || s.expire.Before(r.slots[next].expire) {
		return true
	}
	r.unlink(idx)
	r.insertFrom(idx, next)
	return true
}

// Delete removes h. Returns false when h is stale.
func (r *Registry) Delete(h Handle) bool {
	idx, ok := r.resolve(h)
	if !ok {
		return false
	}
	r.unlink(idx)
	r.release(idx)
	return true
}

// Expiry returns the expiry instant of a live timer.
func (r *Registry) Expiry(h Handle) (time.Time, bool) {
	idx, ok := r.resolve(h)
	if !ok {
		return time.Time{}, false
	}
	return r.slots[idx].expire, true
}

// Tick evicts every timer whose expiry is not after now, in ascending order,
// and returns how many were evicted. Each timer is unlinked before its
// callback runs, so the callback may safely Delete its own handle.
func (r *Registry) Tick() int {
	if r.head == nilIdx {
		return 0
	}
	now := r.now()
	n := 0
	for r.head != nilIdx {
		idx := r.head
		s := &r.slots[idx]
		if now.Before(s.expire) {
			break
		}
		cb, owner := s.cb, s.owner
		r.unlink(idx)
		r.release(idx)
		n++
		if cb != nil {
			cb(owner)
		}
	}
	return n
}

// Owners returns the owners of all live timers from head to tail.
func (r *Registry) Owners() []int {
	out := make([]int, 0, r.size)
	for i := r.head; i != nilIdx; i = r.slots[i].next {
		out = append(out, r.slots[i].owner)
	}
	return out
}

// Expiries returns all expiry instants from head to tail.
func (r *Registry) Expiries() []time.Time {
	out := make([]time.Time, 0, r.size)
	for i := r.head; i != nilIdx; i = r.slots[i].next {
		out = append(out, r.slots[i].expire)
	}
	return out
}

func (r *Registry) resolve(h Handle) (int32, bool) {
	if !h.Valid() || int(h.idx) >= len(r.slots) {
		return 0, false
	}
	s := &r.slots[h.idx]
	if !s.live || s.gen != h.gen {
		return 0, false
	}
	return int32(h.idx), true
}

func (r *Registry) alloc() int32 {
	var idx int32
	if n := len(r.free); n > 0 {
		idx = int32(r.free[n-1])
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = int32(len(r.slots) - 1)
	}
	s := &r.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.live = true
	s.prev, s.next = nilIdx, nilIdx
	return idx
}

func (r *Registry) release(idx int32) {
	s := &r.slots[idx]
	s.live = false
	s.cb = nil
	s.prev, s.next = nilIdx, nilIdx
	r.free = append(r.free, uint32(idx))
	r.size--
}

// insertFrom links idx before the first timer at or after from that expires
// strictly later, keeping equal expiries in insertion order.
func (r *Registry) insertFrom(idx, from int32) {
	s := &r.slots[idx]
	if from == nilIdx && r.head == nilIdx {
		r.head, r.tail = idx, idx
		s.prev, s.next = nilIdx, nilIdx
		return
	}
	if from == r.head && s.expire.Before(r.slots[r.head].expire) {
		s.prev, s.next = nilIdx, r.head
		r.slots[r.head].prev = idx
		r.head = idx
		return
	}
	cur := from
	for cur != nilIdx && !s.expire.Before(r.slots[cur].expire) {
		cur = r.slots[cur].next
	}
	if cur == nilIdx {
		s.prev, s.next = r.tail, nilIdx
		r.slots[r.tail].next = idx
		r.tail = idx
		return
	}
	prev := r.slots[cur].prev
	s.prev, s.next = prev, cur
	r.slots[cur].prev = idx
	if prev == nilIdx {
		r.head = idx
	} else {
		r.slots[prev].next = idx
	}
}

func (r *Registry) unlink(idx int32) {
	s := &r.slots[idx]
	if s.prev == nilIdx {
		r.head = s.next
	} else {
		r.slots[s.prev].next = s.next
	}
	if s.next == nilIdx {
		r.tail = s.prev
	} else {
		r.slots[s.next].prev = s.prev
	}
	s.prev, s.next = nilIdx, nilIdx
}
