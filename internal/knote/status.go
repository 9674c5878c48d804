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

package knote

import "go.uber.org/atomic"

// Status bits tracked on every Knote, guarded by the owning queue's lock.
// The tri-state processing lease (held/waiting/reprocess-requested) is a
// separate piece of state manipulated without the queue lock held; it
// lives in internal/lease.Lease, see Knote.Lease, not in this bitset.
const (
	Active Status = 1 << iota
	Queued
	Disabled
	Detached
	Deleting
)

// Status is the knote status bitset described by the engine's data model:
// Queued implies Active and not Disabled, and Detached means no further
// filter callback is permitted.
type Status uint32

// Has reports whether all bits in mask are set.
func (s Status) Has(mask Status) bool { return s&mask == mask }

// Any reports whether any bit in mask is set.
func (s Status) Any(mask Status) bool { return s&mask != 0 }

// bits is an atomic holder for Status, used so the activation path and the
// scan engine can inspect/update a knote's flags without always taking the
// queue lock (filters flagged Relaxed rely on this).
type bits struct {
	v atomic.Uint32
}

// Load returns the current status.
func (b *bits) Load() Status { return Status(b.v.Load()) }

// Set applies mask, returning the new status.
func (b *bits) Set(mask Status) Status {
	for {
		old := b.v.Load()
		next := old | uint32(mask)
		if b.v.CAS(old, next) {
			return Status(next)
		}
	}
}

// Clear removes mask, returning the new status.
func (b *bits) Clear(mask Status) Status {
	for {
		old := b.v.Load()
		next := old &^ uint32(mask)
		if b.v.CAS(old, next) {
			return Status(next)
		}
	}
}

// CAS performs a compare-and-swap of the full bitset.
func (b *bits) CAS(old, next Status) bool {
	return b.v.CAS(uint32(old), uint32(next))
}

// reset clears the bitset for reuse from the pool.
func (b *bits) reset() { b.v.Store(0) }
