package evque

import (
	"time"

	"trpc.group/trpc-go/evque/internal/knote"
	"trpc.group/trpc-go/evque/metrics"
)

// scan drains the pending list into events[n:], one pass at a time. Each
// pass stops once events is full or a per-call sentinel is reached,
// whichever comes first. The sentinel is what prevents a knote
// re-enqueued by this very pass (a level-triggered filter still active
// after delivery, or a reprocess racing the copy-out) from being
// delivered twice within one pass: it always lands in the list behind
// the sentinel, so it waits for a later pass instead of being picked
// back up by this one.
//
// A pass that copies out nothing (every popped knote re-evaluated to
// inactive) does not mean there is no more work to do before the
// deadline: scan re-waits and re-drains until it has something to
// return, the output buffer is full, or the deadline elapses, so a
// blocking caller never sees a premature empty result.
func (q *Queue) scan(events []Event, n int, deadline *time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var remaining *time.Duration
	if deadline != nil {
		d := *deadline
		remaining = &d
	}

	first := n
	for {
		if n > first || n >= len(events) {
			return n, nil
		}

		if q.pending.Len() == 0 {
			if n > 0 {
				// Change-list records are already waiting to be returned.
				return n, nil
			}
			start := time.Now()
			woke := q.wait(remaining)
			if remaining != nil {
				*remaining -= time.Since(start)
			}
			if !woke {
				return n, nil
			}
		}

		sentinel := knote.NewSentinel()
		q.pending.PushBack(sentinel)
		metrics.Add(metrics.ScanCalls, 1)

		for n < len(events) {
			k := q.pending.PopFront()
			if k == nil || k == sentinel {
				break
			}
			k.ClearStatus(knote.Queued)
			q.deliver(k, events, &n)
		}
		q.pending.Remove(sentinel)

		if n == first && remaining != nil && *remaining <= 0 {
			return n, nil
		}
	}
}

// deliver re-evaluates one popped knote and, if still active, copies its
// descriptor into events[n] and applies its post-delivery disposition
// (ONESHOT/DISPATCH/CLEAR/level). Caller holds q.mu on entry; deliver may
// release and reacquire it around the filter callback.
func (q *Queue) deliver(k *knote.Knote, events []Event, n *int) {
	if !k.Lease.TryAcquire() {
		// Contended by a concurrent activation; give it back, to the tail,
		// for this or a later pass to pick up once the holder releases.
		q.pending.PushBack(k)
		k.SetStatus(knote.Queued)
		return
	}
	if k.Status().Has(knote.Deleting) || k.Status().Has(knote.Detached) {
		k.Lease.Release()
		return
	}

	q.mu.Unlock()
	active := k.Ops.Event(k, 0)
	q.mu.Lock()

	if k.Status().Has(knote.Deleting) {
		k.Lease.Release()
		return
	}
	if !active {
		k.ClearStatus(knote.Active)
		if reprocess := k.Lease.Release(); reprocess {
			q.reevaluate(k, 0)
		}
		return
	}

	events[*n] = Event(k.Desc)
	*n++
	metrics.Add(metrics.EventsDelivered, 1)

	switch {
	case k.Desc.Flags&Oneshot != 0:
		metrics.Add(metrics.EventsDroppedOneshot, 1)
		q.deleteHeld(k)
	case k.Desc.Flags&Dispatch != 0:
		k.SetStatus(knote.Disabled)
		k.Lease.Release()
	case k.Desc.Flags&Clear != 0:
		k.Desc.Fflags = 0
		k.Desc.Data = 0
		if reprocess := k.Lease.Release(); reprocess {
			q.reevaluate(k, 0)
		}
	default:
		// Level-triggered and still active: redeliver on a future call,
		// never this one (see the sentinel above).
		reprocess := k.Lease.Release()
		q.pending.PushBack(k)
		k.SetStatus(knote.Queued)
		metrics.Add(metrics.EventsRequeuedLevel, 1)
		if reprocess {
			q.reevaluate(k, 0)
		}
	}
}

// wait blocks until the pending list is nonempty or deadline elapses,
// returning whether there is now work to drain. A nil deadline blocks
// indefinitely; *deadline <= 0 polls without blocking at all.
func (q *Queue) wait(deadline *time.Duration) bool {
	if deadline != nil && *deadline <= 0 {
		return q.pending.Len() > 0
	}

	var timer *time.Timer
	woken := false
	if deadline != nil {
		d := *deadline
		timer = time.AfterFunc(d, func() {
			q.mu.Lock()
			woken = true
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer timer.Stop()
	}

	metrics.Add(metrics.ScanWaits, 1)
	q.waiters++
	for q.pending.Len() == 0 && !woken {
		q.cond.Wait()
	}
	q.waiters--
	return q.pending.Len() > 0
}
