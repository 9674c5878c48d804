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

// Package evque implements a unified event notification engine: a client
// registers interest in heterogeneous event sources — file descriptors,
// process state, timers, signals, filesystem objects, user-triggered
// events — once on a Queue, and later retrieves the subset whose sources
// have fired via ModifyAndWait. Delivery is O(1) average regardless of the
// number of registered sources.
package evque

import "unsafe"

// Event is the boundary value: what a caller writes in to register, modify
// or delete a knote, and what the engine writes out on delivery.
type Event struct {
	// Ident is filter-specific: a file descriptor, process id, signal
	// number, timer id, or an arbitrary caller value.
	Ident uint64
	// Filter identifies the filter kind. Negative values are reserved
	// for built-ins (see the Read/Write/... constants).
	Filter int16
	// Flags carries the action bits on input (Add, Delete, ...) and the
	// outbound bits on output (EOF, Error, ...).
	Flags uint16
	// Fflags is filter-specific: an inbound parameter mask on input, an
	// outbound notification mask on output.
	Fflags uint32
	// Data is filter-specific: an inbound parameter (e.g. a timer
	// period) on input, an outbound payload (byte count, exit status,
	// expiration count, error code) on output.
	Data int64
	// Udata is carried through unchanged for caller correlation.
	Udata unsafe.Pointer
}

// Action flags a caller sets on Event.Flags when passed to ModifyAndWait.
const (
	// Add creates a new registration, or modifies an existing one.
	Add uint16 = 1 << iota
	// Delete removes a registration.
	Delete
	// Enable clears Disabled on an existing registration.
	Enable
	// Disable suppresses delivery without removing the registration.
	Disable
	// Oneshot delivers at most once, then removes the registration.
	Oneshot
	// Clear resets transient filter state after delivery (edge-like).
	Clear
	// Dispatch disables the registration after delivery; re-enable with
	// Enable to re-arm it.
	Dispatch
	// Receipt additionally emits a synthetic success record for this
	// change into the output list.
	Receipt
)

// Return flags the engine sets on Event.Flags in delivered records. These
// occupy bits above the action flags so the two spaces never collide.
const (
	// EOF reports the source reached end-of-stream.
	EOF uint16 = 1 << (8 + iota)
	// Error reports Data holds a numeric error code for the
	// corresponding change; see Kind for the taxonomy.
	Error
	// NoData reports the source ended with no more data to deliver.
	NoData
)
