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

// Package filters implements the engine's built-in filter backends — the
// knote.Ops plugged into the default registry under the Read/Write/Except/
// Vnode/Proc/Signal/Timer/FS/User ids. One knote.Ops value is shared by
// every knote registered under a given filter id (the registry holds
// exactly one), so every backend here is stateless itself and keeps its
// per-registration state in the knote's own Source field — the same
// division of labor the teacher's netfd.go draws between the shared
// PollMgr and each Desc's own fields.
package filters

import (
	"sync"

	"trpc.group/trpc-go/evque/internal/knote"
	"trpc.group/trpc-go/evque/internal/poller"
)

// eofFlag mirrors evque.EOF's bit position (1 << 8). Duplicated here
// rather than imported to keep filters free of a dependency on the root
// package; both are frozen constants of the wire-visible Event.Flags
// layout, so there is nothing to keep in sync beyond this one comment.
const eofFlag uint16 = 1 << 8

// fdKind distinguishes the three readiness filters, which otherwise share
// every byte of plumbing: only which poller.Event they ask for and which
// callback they wire differs.
type fdKind int

const (
	fdRead fdKind = iota
	fdWrite
	fdExcept
)

// NewRead returns the knote.Ops backing the built-in READ filter: fires
// when Ident (a file descriptor) has data available to read, or has
// reached EOF/hung up.
func NewRead() knote.Ops { return fdSource{kind: fdRead} }

// NewWrite returns the knote.Ops backing the built-in WRITE filter: fires
// when Ident can accept a write without blocking.
func NewWrite() knote.Ops { return fdSource{kind: fdWrite} }

// NewExcept returns the knote.Ops backing the built-in EXCEPT filter: fires
// only on hang-up/error conditions, reported via the EOF bit in Flags with
// the recorded error number in Data.
func NewExcept() knote.Ops { return fdSource{kind: fdExcept} }

// fdSource is the stateless knote.Ops shared by every READ/WRITE/EXCEPT
// registration; fdState (stored in k.Source) carries the per-fd state.
// Unlike the teacher's Conn-oriented Desc user, this one never reads or
// writes a single byte — it exists purely to translate poller readiness
// into an Event() verdict, which is all this engine promises.
type fdSource struct {
	kind fdKind
}

// fdState is the per-registration state for one READ/WRITE/EXCEPT knote.
type fdState struct {
	mu     sync.Mutex
	desc   *poller.Desc
	ready  bool
	hangup bool
	errno  int64
	kind   fdKind
	knote  *knote.Knote
}

// Attach implements knote.Ops.
func (f fdSource) Attach(k *knote.Knote) (bool, error) {
	st := &fdState{kind: f.kind, knote: k}
	st.desc = poller.NewDesc()
	st.desc.FD = int(k.Desc.Ident)
	st.desc.Data = k

	switch f.kind {
	case fdRead, fdExcept:
		st.desc.OnRead = st.onReady
	case fdWrite:
		st.desc.OnWrite = st.onReady
	}
	st.desc.OnHup = st.onHup

	if err := st.desc.PickPoller(); err != nil {
		return false, err
	}
	ev := poller.Readable
	if f.kind == fdWrite {
		ev = poller.Writable
	}
	if err := st.desc.Control(ev); err != nil {
		return false, err
	}
	k.Source = st
	return false, nil
}

// Detach implements knote.Ops.
func (f fdSource) Detach(k *knote.Knote) {
	st := k.Source.(*fdState)
	st.desc.Close()
}

// Event implements knote.Ops. The poller callbacks only flip booleans;
// Event does the actual translation into the descriptor's outbound fields
// under the knote's lease, same division of labor the scan engine expects
// from every filter. On hang-up it sets the EOF bit in Flags and the
// error number in Data; plain readiness leaves Data and Fflags untouched
// (no byte count is reported).
func (f fdSource) Event(k *knote.Knote, hint uint32) bool {
	st := k.Source.(*fdState)
	st.mu.Lock()
	ready, hangup, errno := st.ready, st.hangup, st.errno
	if f.kind != fdExcept {
		st.ready = false
	}
	st.mu.Unlock()

	if hangup {
		k.Desc.Flags |= eofFlag
		k.Desc.Data = errno
		return true
	}
	switch f.kind {
	case fdExcept:
		return false
	default:
		return ready
	}
}

// Flags implements knote.Ops.
func (f fdSource) Flags() knote.OpsFlags { return knote.OpsFlags{IsFD: true} }

func (s *fdState) onReady(_ interface{}) error {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	activate(s.knote)
	return nil
}

func (s *fdState) onHup(_ interface{}) {
	s.mu.Lock()
	s.hangup = true
	s.mu.Unlock()
	activate(s.knote)
}
