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

package evque

import (
	"go.uber.org/zap"
	"trpc.group/trpc-go/evque/internal/knote"
	"trpc.group/trpc-go/evque/metrics"
)

// applyChange runs one change through the registration state machine under
// the queue lock. It returns (record, true) when a record must be written
// to the caller's output — either a synthetic EV_ERROR, or a Receipt
// success record — and (zero, false) when nothing needs to be emitted.
func (q *Queue) applyChange(change Event) (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	metrics.Add(metrics.ChangesApplied, 1)

	ops, err := q.registry.Lookup(change.Filter)
	if err != nil {
		metrics.Add(metrics.ChangesErrored, 1)
		return errorRecord(change, NoSuchFilter)
	}

	key := knote.Key{Filter: change.Filter, Ident: change.Ident}
	existing := q.index.Get(key)

	switch {
	case existing == nil && change.Flags&Add != 0:
		return q.create(change, key, ops)
	case existing == nil:
		metrics.Add(metrics.ChangesErrored, 1)
		return errorRecord(change, NoSuchRegistration)
	case change.Flags&Delete != 0:
		q.deleteLocked(existing)
		return receiptRecord(change)
	case change.Flags&Add != 0:
		return q.modify(change, existing)
	case change.Flags&Disable != 0:
		existing.SetStatus(knote.Disabled)
		q.Dequeue(existing)
		return receiptRecord(change)
	case change.Flags&Enable != 0:
		existing.ClearStatus(knote.Disabled)
		q.reevaluate(existing, 0)
		return receiptRecord(change)
	default:
		// Neither ADD nor DELETE nor ENABLE/DISABLE alone: nothing to do
		// beyond an optional receipt.
		return receiptRecord(change)
	}
}

func (q *Queue) create(change Event, key knote.Key, ops knote.Ops) (Event, bool) {
	if ops.Flags().IsFD {
		if err := validateFD(int(change.Ident)); err != nil {
			metrics.Add(metrics.ChangesErrored, 1)
			return errorRecord(change, BadIdent)
		}
	}

	k := knote.Alloc()
	k.Key = key
	k.Desc = knote.Descriptor{
		Ident: change.Ident, Filter: change.Filter, Flags: change.Flags,
		Fflags: change.Fflags, Data: change.Data, Udata: change.Udata,
	}
	k.SavedFflags = change.Fflags
	k.SavedData = change.Data
	k.Ops = ops
	k.Owner = q

	active, err := ops.Attach(k)
	if err != nil {
		q.logger.Debug("filter refused attach",
			zap.Int16("filter", change.Filter), zap.Uint64("ident", change.Ident), zap.Error(err))
		knote.MarkFree(k)
		knote.Reclaim()
		metrics.Add(metrics.ChangesErrored, 1)
		return errorRecord(change, FilterRefusedAttach)
	}
	q.index.Put(k)
	q.registry.IncRef(change.Filter)
	metrics.Add(metrics.KnotesCreated, 1)

	k.SetStatus(knote.Active)
	if !active {
		active = ops.Event(k, 0)
	}
	if active {
		k.SetStatus(knote.Active)
		q.Enqueue(k)
	} else {
		k.ClearStatus(knote.Active)
	}
	return receiptRecord(change)
}

func (q *Queue) modify(change Event, k *knote.Knote) (Event, bool) {
	k.Desc.Udata = change.Udata
	k.Desc.Flags = change.Flags
	k.SavedFflags = change.Fflags
	k.SavedData = change.Data
	k.Desc.Fflags = change.Fflags
	k.Desc.Data = change.Data

	if change.Flags&Enable != 0 {
		k.ClearStatus(knote.Disabled)
	}
	if change.Flags&Disable != 0 {
		k.SetStatus(knote.Disabled)
		q.Dequeue(k)
	}
	if !k.Status().Has(knote.Disabled) {
		q.reevaluate(k, 0)
	}
	return receiptRecord(change)
}

// reevaluate re-checks the filter and enqueues if now active. Caller holds
// the queue lock; the lease protects against a concurrent activation.
func (q *Queue) reevaluate(k *knote.Knote, hint uint32) {
	if !k.Lease.TryAcquire() {
		// Contended by the activation path or a concurrent scan; leave a
		// REPROCESS note so whoever holds it re-checks before releasing.
		// If the lease was actually freed in the window between
		// TryAcquire failing and MarkReprocess running, nobody is left to
		// observe the note, so retry instead of losing the reevaluation.
		if !k.Lease.MarkReprocess() {
			q.reevaluate(k, hint)
		}
		return
	}
	active := k.Ops.Event(k, hint)
	metrics.Add(metrics.ActivationsObserved, 1)
	if active {
		k.SetStatus(knote.Active)
	} else {
		k.ClearStatus(knote.Active)
	}
	reprocess := k.Lease.Release()
	if active && !k.Status().Has(knote.Disabled) {
		q.Enqueue(k)
	}
	if reprocess {
		metrics.Add(metrics.ActivationsReprocessed, 1)
		q.reevaluate(k, 0)
	}
}

// deleteLocked removes k from the registration state machine, acquiring
// its lease first. Callers that already hold the lease (the scan loop,
// after delivering an ONESHOT record) must use deleteHeld instead.
func (q *Queue) deleteLocked(k *knote.Knote) {
	k.SetStatus(knote.Deleting)
	k.Lease.Acquire()
	q.deleteHeld(k)
}

// deleteHeld finishes tearing down k. The caller must already hold k's
// lease and must not touch k again afterward.
func (q *Queue) deleteHeld(k *knote.Knote) {
	k.SetStatus(knote.Deleting)
	q.index.Delete(k)
	q.Dequeue(k)
	if !k.Status().Has(knote.Detached) {
		k.Ops.Detach(k)
		k.SetStatus(knote.Detached)
	}
	q.registry.DecRef(k.Key.Filter)
	k.Lease.Release()
	knote.MarkFree(k)
	knote.Reclaim()
	metrics.Add(metrics.KnotesDestroyed, 1)
}

func errorRecord(change Event, kind Kind) (Event, bool) {
	change.Flags = Error
	change.Data = int64(kind)
	return change, true
}

func receiptRecord(change Event) (Event, bool) {
	if change.Flags&Receipt == 0 {
		return Event{}, false
	}
	change.Flags = 0
	change.Data = 0
	return change, true
}
