package service

import "sync"

// Ticket identifies one in-flight computation for a parameter set.
type Ticket[K comparable] struct {
	Seq    uint64
	Params K
}

// Tracker keeps the newest committed value and discards results of
// computations started for parameters that have since changed.
type Tracker[K comparable, V any] struct {
	mu        sync.Mutex
	seq       uint64
	params    K
	committed uint64
	value     V
	has       bool
}

// Begin records params as the latest request and returns its ticket.
func (t *Tracker[K, V]) Begin(params K) Ticket[K] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.params = params
	return Ticket[K]{Seq: t.seq, Params: params}
}

// Commit stores value unless the ticket's parameters are stale or a newer
// ticket already committed.
func (t *Tracker[K, V]) Commit(ticket Ticket[K], value V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket.Params != t.params || ticket.Seq <= t.committed {
		return false
	}
	t.committed = ticket.Seq
	t.value = value
	t.has = true
	return true
}

// Latest returns the last committed value.
func (t *Tracker[K, V]) Latest() (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.has
}
