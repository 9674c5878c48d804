//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package lease implements the processing lease: a three-state per-object
// lock (held / waiting / reprocess-requested) that lets a party racing the
// current lease holder register "work arrived while you were holding the
// lock" without blocking the holder or losing the notification.
//
// It generalizes an idea already used elsewhere in this codebase: the
// CAS-then-park idiom the poller backends use for their own wakeup
// (poller_kqueue.go's notified/Trigger pair). A Lease adds a state that
// primitive doesn't need: Reprocess, which lets a non-holder leave a note
// for the holder instead of either blocking or silently losing the event.
// held/waiting/reprocess are all guarded by the same mutex so a
// MarkReprocess can never land after the holder has already released.
package lease

import "sync"

// Lease is built once per knote and reused by both the scan engine and the
// activation path; it must never be open-coded per filter.
type Lease struct {
	mu        sync.Mutex
	cond      sync.Cond
	condOnce  sync.Once
	held      bool
	waiting   bool
	reprocess bool
}

func (l *Lease) init() {
	l.condOnce.Do(func() { l.cond.L = &l.mu })
}

// TryAcquire takes the lease only if it is currently free.
func (l *Lease) TryAcquire() bool {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false
	}
	l.held = true
	return true
}

// Acquire blocks until the lease is free, then takes it.
func (l *Lease) Acquire() {
	l.init()
	l.mu.Lock()
	for l.held {
		l.waiting = true
		l.cond.Wait()
	}
	l.held = true
	l.mu.Unlock()
}

// Release drops the lease and wakes one waiter, if any. If Reprocess was
// requested while the lease was held, Release instead clears Reprocess and
// reports true: the caller still holds the lease and must re-evaluate the
// knote before calling Release again. This is the mechanism that guarantees
// an activation racing a scan's copy-out is never lost (see MarkReprocess).
func (l *Lease) Release() (reprocess bool) {
	l.init()
	l.mu.Lock()
	if l.reprocess {
		l.reprocess = false
		l.mu.Unlock()
		return true
	}
	l.held = false
	wake := l.waiting
	l.waiting = false
	l.mu.Unlock()
	if wake {
		l.cond.Signal()
	}
	return false
}

// MarkReprocess asks the current holder to re-check before releasing. It is
// used by a party that observes the lease held and must not block (the
// activation path never suspends). It returns false if the lease was in
// fact free at the instant of the call, in which case the caller should
// Acquire/TryAcquire normally instead of relying on a reprocess that nobody
// will observe.
func (l *Lease) MarkReprocess() bool {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return false
	}
	l.reprocess = true
	return true
}

// Held reports whether the lease is currently taken.
func (l *Lease) Held() bool {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Reset reinitializes the lease to its zero state for reuse from a pool.
// The caller must guarantee no other goroutine still references it.
func (l *Lease) Reset() {
	l.init()
	l.mu.Lock()
	l.held = false
	l.waiting = false
	l.reprocess = false
	l.mu.Unlock()
}
