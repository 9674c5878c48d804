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

// Package filter holds the registry of filter backends a queue consults to
// turn a registration's Filter id into the knote.Ops implementing it. The
// nine built-in filters occupy small negative ids and live in a fixed
// array; third-party filters register under a positive id of their
// choosing, the same split the engine's wire format uses for EVFILT_*
// versus a caller-assigned id.
package filter

import (
	"sync"

	"github.com/pkg/errors"
	"trpc.group/trpc-go/evque/internal/knote"
)

// Built-in filter identifiers.
const (
	Read int16 = -(iota + 1)
	Write
	Except
	Vnode
	Proc
	Signal
	Timer
	FS
	User
)

const numBuiltin = 9

// ErrNoSuchFilter is returned by Lookup for an id nothing has registered.
var ErrNoSuchFilter = errors.New("filter: no such filter registered")

// ErrFilterInUse is returned by Register/Deregister when at least one live
// knote still references the id.
var ErrFilterInUse = errors.New("filter: filter is in use by a registered knote")

// ErrInvalidOps is returned by Register for a nil knote.Ops.
var ErrInvalidOps = errors.New("filter: register nil filter ops")

func builtinIndex(id int16) (int, bool) {
	i := int(-id - 1)
	if i < 0 || i >= numBuiltin {
		return 0, false
	}
	return i, true
}

// Registry maps a filter id to the knote.Ops implementing it, plus a
// reference count the queue keeps current on every successful
// Attach/Detach so Register/Deregister can refuse to swap a filter out
// from under live knotes.
type Registry struct {
	mu      sync.RWMutex
	builtin [numBuiltin]knote.Ops
	dynamic map[int16]knote.Ops
	refs    map[int16]int
}

// NewRegistry returns an empty registry. evque keeps one package-level
// instance and registers the nine built-in filters into it at init time;
// tests and embedders needing isolation can create their own.
func NewRegistry() *Registry {
	return &Registry{dynamic: make(map[int16]knote.Ops), refs: make(map[int16]int)}
}

// Lookup resolves id to its knote.Ops.
func (r *Registry) Lookup(id int16) (knote.Ops, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := builtinIndex(id); ok {
		if r.builtin[i] == nil {
			return nil, ErrNoSuchFilter
		}
		return r.builtin[i], nil
	}
	ops, ok := r.dynamic[id]
	if !ok {
		return nil, ErrNoSuchFilter
	}
	return ops, nil
}

// Register installs ops under id, replacing whatever was there. It refuses
// if a live knote still references id.
func (r *Registry) Register(id int16, ops knote.Ops) error {
	if ops == nil {
		return ErrInvalidOps
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs[id] > 0 {
		return ErrFilterInUse
	}
	if i, ok := builtinIndex(id); ok {
		r.builtin[i] = ops
		return nil
	}
	r.dynamic[id] = ops
	return nil
}

// Deregister removes whatever is installed under id. It refuses if a live
// knote still references id.
func (r *Registry) Deregister(id int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs[id] > 0 {
		return ErrFilterInUse
	}
	if i, ok := builtinIndex(id); ok {
		r.builtin[i] = nil
		return nil
	}
	delete(r.dynamic, id)
	return nil
}

// IncRef records one more live knote referencing id. The queue calls this
// after a successful Attach.
func (r *Registry) IncRef(id int16) {
	r.mu.Lock()
	r.refs[id]++
	r.mu.Unlock()
}

// DecRef records one fewer live knote referencing id. The queue calls this
// after Detach.
func (r *Registry) DecRef(id int16) {
	r.mu.Lock()
	if r.refs[id] > 0 {
		r.refs[id]--
	}
	r.mu.Unlock()
}
