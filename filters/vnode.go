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

package filters

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"trpc.group/trpc-go/evque/internal/knote"
)

// VNODE outbound Fflags bits, echoed in Event's k.Desc.Fflags.
const (
	NoteDelete uint32 = 1 << iota
	NoteWrite
	NoteExtend
	NoteAttrib
	NoteLink
	NoteRename
	NoteRevoke
)

// NewVnode returns the knote.Ops backing the built-in VNODE filter. Ident
// is a file descriptor already open on the object of interest; Attach
// resolves it to a path via resolveFDPath (platform-specific) and watches
// that path with fsnotify, translating fsnotify.Op bits into the outbound
// Note* mask on delivery.
func NewVnode() knote.Ops { return vnodeSource{} }

type vnodeSource struct{}

type vnodeState struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	pending uint32
}

// Attach implements knote.Ops.
func (vnodeSource) Attach(k *knote.Knote) (bool, error) {
	path, err := resolveFDPath(int(k.Key.Ident))
	if err != nil {
		return false, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return false, err
	}
	st := &vnodeState{watcher: w, done: make(chan struct{})}
	k.Source = st
	go st.run(k)
	return false, nil
}

// Detach implements knote.Ops.
func (vnodeSource) Detach(k *knote.Knote) {
	st := k.Source.(*vnodeState)
	close(st.done)
	st.watcher.Close()
}

func (st *vnodeState) run(k *knote.Knote) {
	for {
		select {
		case <-st.done:
			return
		case ev, ok := <-st.watcher.Events:
			if !ok {
				return
			}
			st.mu.Lock()
			st.pending |= translateOp(ev.Op)
			st.mu.Unlock()
			activate(k)
		case _, ok := <-st.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Event implements knote.Ops.
func (vnodeSource) Event(k *knote.Knote, hint uint32) bool {
	st := k.Source.(*vnodeState)
	st.mu.Lock()
	mask := st.pending
	st.pending = 0
	st.mu.Unlock()
	if mask == 0 {
		return false
	}
	k.Desc.Fflags = mask
	return true
}

// Flags implements knote.Ops.
func (vnodeSource) Flags() knote.OpsFlags { return knote.OpsFlags{IsFD: true} }

func translateOp(op fsnotify.Op) uint32 {
	var mask uint32
	if op&fsnotify.Remove != 0 {
		mask |= NoteDelete
	}
	if op&fsnotify.Write != 0 {
		mask |= NoteWrite | NoteExtend
	}
	if op&fsnotify.Chmod != 0 {
		mask |= NoteAttrib
	}
	if op&fsnotify.Rename != 0 {
		mask |= NoteRename
	}
	if op&fsnotify.Create != 0 {
		mask |= NoteLink
	}
	return mask
}
