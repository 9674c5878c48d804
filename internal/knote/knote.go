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

// Package knote implements the persistent per-registration record described
// by the engine's data model, the pooled allocator that backs it, and the
// two intrusive lists (a source's notify list, a queue's pending FIFO) and
// the chained hash index that thread through it. It deliberately knows
// nothing about queues or filter registries: those live in the evque and
// internal/filter packages, which depend on this one, not the reverse.
package knote

import (
	"unsafe"

	"trpc.group/trpc-go/evque/internal/lease"
)

// Key identifies a registration: two descriptors are the same registration
// iff (Filter, Ident) match within a queue.
type Key struct {
	Filter int16
	Ident  uint64
}

// Descriptor is the boundary event value: what a client writes in to
// register/modify, and what the scan engine copies out on delivery.
type Descriptor struct {
	Ident  uint64
	Filter int16
	Flags  uint16
	Fflags uint32
	Data   int64
	Udata  unsafe.Pointer
}

// OpsFlags reports static properties of a filter.
type OpsFlags struct {
	// IsFD reports that Ident is interpreted as a file descriptor, which
	// affects how Attach resolves it in the owning FD namespace.
	IsFD bool
	// Relaxed reports that this filter is safe under relaxed
	// serialization: the activation path may update knote status with
	// atomics plus the processing lease instead of the queue lock.
	Relaxed bool
}

// Ops is implemented by each filter backend (read-readiness, timer, signal,
// ...). Event/Attach/Detach may not raise: a fault inside a filter must be
// caught by the backend and surfaced as an EV_ERROR record instead.
type Ops interface {
	// Attach is called once when a new knote is created. It validates
	// identity, connects the knote into its source's notify list, and may
	// report the knote as already active.
	Attach(k *Knote) (active bool, err error)
	// Detach is called exactly once before the knote is freed. It removes
	// the knote from its source's notify list and releases private state.
	Detach(k *Knote)
	// Event decides activity given an optional hint (0 means re-evaluate
	// with no hint). It may mutate k.Desc.Data/Fflags to reflect the
	// current reading.
	Event(k *Knote, hint uint32) (active bool)
	// Flags reports static properties of this filter.
	Flags() OpsFlags
}

// Owner is implemented by the event queue that owns a Knote. The activation
// path and the registration state machine use it to move a knote onto (or
// off) the pending list and to wake a blocked scan, without this package or
// the filter backends depending on the queue package.
type Owner interface {
	// Enqueue appends k to the pending list if it is not already linked,
	// setting Queued and waking a sleeping scanner on a 0->positive
	// pending-count transition. No-op if k is Disabled or already Queued.
	Enqueue(k *Knote)
	// Dequeue removes k from the pending list if linked.
	Dequeue(k *Knote)
}

// Knote is the persistent per-registration record.
type Knote struct {
	bits  bits
	Lease lease.Lease

	Key  Key
	Desc Descriptor

	// SavedFflags/SavedData are the filter parameters captured at
	// registration time and preserved across filter re-evaluation,
	// distinct from Desc.Fflags/Desc.Data which filters overwrite on
	// every Event call to report the current reading.
	SavedFflags uint32
	SavedData   int64

	Ops    Ops
	Owner  Owner
	// Source is the filter-owned event source handle (tagged union in
	// spirit: each filter knows the concrete type it stored here).
	Source interface{}
	// Scratch is additional filter-private state distinct from Source,
	// e.g. a cached path for VNODE or a saved child pid for PROC.
	Scratch interface{}

	indexNext *Knote

	listNext, listPrev *Knote
	listLinked         bool

	pendingNext, pendingPrev *Knote
	pendingLinked            bool

	cacheNext  *Knote
	cacheIndex int32

	isSentinel bool
}

// Status returns the current status bitset.
func (k *Knote) Status() Status { return k.bits.Load() }

// SetStatus ORs mask into the status bitset, returning the new value.
func (k *Knote) SetStatus(mask Status) Status { return k.bits.Set(mask) }

// ClearStatus clears mask from the status bitset, returning the new value.
func (k *Knote) ClearStatus(mask Status) Status { return k.bits.Clear(mask) }

// CASStatus performs a compare-and-swap of the full status bitset.
func (k *Knote) CASStatus(old, next Status) bool { return k.bits.CAS(old, next) }

// IsSentinel reports whether k is a scan-loop sentinel rather than a real
// registration (see NewSentinel).
func (k *Knote) IsSentinel() bool { return k.isSentinel }

// NewSentinel allocates a fresh sentinel node for one scan call. Sentinels
// are not pool-allocated: a scan needs exactly one, short-lived, and pool
// knotes carry registration state a sentinel must never be mistaken for.
func NewSentinel() *Knote { return &Knote{isSentinel: true} }

func (k *Knote) reset() {
	k.bits.reset()
	k.Lease.Reset()
	k.Key = Key{}
	k.Desc = Descriptor{}
	k.SavedFflags = 0
	k.SavedData = 0
	k.Ops = nil
	k.Owner = nil
	k.Source = nil
	k.Scratch = nil
	k.indexNext = nil
	k.listNext, k.listPrev, k.listLinked = nil, nil, false
	k.pendingNext, k.pendingPrev, k.pendingLinked = nil, nil, false
	k.isSentinel = false
}
