package evque

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"trpc.group/trpc-go/evque/internal/filter"
	"trpc.group/trpc-go/evque/internal/knote"
	"trpc.group/trpc-go/evque/internal/safejob"
)

// Queue is the owning container created by CreateQueue: it holds every
// registered knote keyed by (filter,ident), the pending FIFO, the sleeper
// state, and the lock serializing all of the above. A Queue also
// implements knote.Owner so the activation path and registration state
// machine can move knotes on and off the pending list without this
// package's internals leaking into internal/knote or the filter backends.
type Queue struct {
	mu   sync.Mutex
	cond sync.Cond

	index   *knote.Index
	pending knote.PendingList
	// waiters counts goroutines currently parked in scan's wait; Enqueue
	// Broadcasts only when this is nonzero (and the pending list was
	// empty).
	waiters int

	registry *filter.Registry
	logger   *zap.Logger

	// closeJob guards queue teardown: Begin/End here is "destroy may run
	// exactly once", distinct from mu which guards the registration and
	// pending-list state on every call.
	closeJob safejob.OnceJob
}

// CreateQueue allocates a queue. The returned Queue is a handle in the
// sense ModifyAndWait and Close operate on it directly; there is no
// separate descriptor-table indirection in this port (see DESIGN.md). The
// error return exists to match spec.md §6's signature; nothing in this
// port's CreateQueue path can currently fail.
func CreateQueue(opts ...Option) (*Queue, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt.f(o)
	}
	q := &Queue{
		index:    knote.NewIndex(),
		registry: o.registry,
		logger:   o.logger,
	}
	q.cond.L = &q.mu
	return q, nil
}

// Enqueue implements knote.Owner. It is called by the activation path and
// by the registration state machine whenever a knote transitions to
// active-and-not-disabled.
func (q *Queue) Enqueue(k *knote.Knote) {
	if k.Status().Has(knote.Disabled) {
		return
	}
	if k.Status().Has(knote.Queued) {
		return
	}
	wasEmpty := q.pending.Len() == 0
	q.pending.PushBack(k)
	k.SetStatus(knote.Queued)
	if wasEmpty && q.waiters > 0 {
		q.cond.Broadcast()
	}
}

// Dequeue implements knote.Owner.
func (q *Queue) Dequeue(k *knote.Knote) {
	if q.pending.Remove(k) {
		k.ClearStatus(knote.Queued)
	}
}

// Close destroys the queue: every knote is detached, its filter's Detach
// is invoked, and it is removed from its source's notify list and this
// queue's index. Close is idempotent; only the first call does the work.
func (q *Queue) Close() error {
	if !q.closeJob.Begin() {
		return nil
	}
	defer q.closeJob.End()

	q.mu.Lock()
	var doomed []*knote.Knote
	q.index.Walk(func(k *knote.Knote) { doomed = append(doomed, k) })
	for _, k := range doomed {
		q.index.Delete(k)
		q.pending.Remove(k)
	}
	q.mu.Unlock()

	for _, k := range doomed {
		q.destroyKnote(k)
	}
	return nil
}

func (q *Queue) destroyKnote(k *knote.Knote) {
	k.Lease.Acquire()
	k.SetStatus(knote.Deleting)
	if !k.Status().Has(knote.Detached) {
		k.Ops.Detach(k)
		k.SetStatus(knote.Detached)
	}
	q.registry.DecRef(k.Key.Filter)
	k.Lease.Release()
	knote.MarkFree(k)
	knote.Reclaim()
}

// ModifyAndWait applies every change in order (see the registration state
// machine in change.go), writing per-change failures into events as
// synthetic EV_ERROR records, then — if room remains and maxEvents > 0 —
// runs scan to fill the rest. It returns the number of records written
// into events. A nil deadline blocks indefinitely; a zero deadline polls
// without blocking.
func (q *Queue) ModifyAndWait(changes []Event, events []Event, maxEvents int, deadline *time.Duration) (int, error) {
	if q.closeJob.Closed() {
		return 0, ErrDestroyed
	}
	n := 0
	for _, change := range changes {
		rec, wrote := q.applyChange(change)
		if wrote && n < len(events) {
			events[n] = rec
			n++
		}
	}
	if n >= maxEvents || n >= len(events) {
		return n, nil
	}
	return q.scan(events[:maxEvents], n, deadline)
}
