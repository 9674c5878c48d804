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

//go:build linux
// +build linux

package filters

import (
	"sync"

	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/evque/internal/knote"
	"trpc.group/trpc-go/evque/internal/poller"
	"trpc.group/trpc-go/evque/internal/taskpool"
)

// NewProc returns the knote.Ops backing the built-in PROC filter. Ident is
// a pid; Attach opens a pidfd with PidfdOpen and hands it to the same
// poller READ machinery fdsource.go uses, since a pidfd becomes readable
// exactly once, on the child's exit — one poller serving every fd kind,
// the teacher's own pattern.
func NewProc() knote.Ops { return procSource{} }

type procSource struct{}

type procState struct {
	mu       sync.Mutex
	desc     *poller.Desc
	pidfd    int
	pid      int
	exited   bool
	status   int64
	reported bool
}

// Attach implements knote.Ops.
func (procSource) Attach(k *knote.Knote) (bool, error) {
	pid := int(k.Key.Ident)
	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		return false, err
	}
	st := &procState{pid: pid, pidfd: fd}
	st.desc = poller.NewDesc()
	st.desc.FD = fd
	st.desc.Data = k
	st.desc.OnRead = func(_ interface{}) error {
		return taskpool.Do(func() { st.onExit(k) })
	}
	if err := st.desc.PickPoller(); err != nil {
		unix.Close(fd)
		return false, err
	}
	if err := st.desc.Control(poller.Readable); err != nil {
		unix.Close(fd)
		return false, err
	}
	k.Source = st
	return false, nil
}

// Detach implements knote.Ops.
func (procSource) Detach(k *knote.Knote) {
	st := k.Source.(*procState)
	st.desc.Close()
	unix.Close(st.pidfd)
}

func (st *procState) onExit(k *knote.Knote) error {
	var ws unix.WaitStatus
	_, _ = unix.Wait4(st.pid, &ws, unix.WNOHANG, nil)
	st.mu.Lock()
	st.exited = true
	st.status = int64(ws.ExitStatus())
	st.mu.Unlock()
	activate(k)
	return nil
}

// Event implements knote.Ops.
func (procSource) Event(k *knote.Knote, hint uint32) bool {
	st := k.Source.(*procState)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.exited || st.reported {
		return false
	}
	st.reported = true
	k.Desc.Data = st.status
	return true
}

// Flags implements knote.Ops.
func (procSource) Flags() knote.OpsFlags { return knote.OpsFlags{} }
