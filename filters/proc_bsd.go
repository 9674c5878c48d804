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

//go:build darwin || freebsd || dragonfly
// +build darwin freebsd dragonfly

package filters

import (
	"sync"

	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/evque/internal/knote"
	"trpc.group/trpc-go/evque/internal/taskpool"
)

// NewProc returns the knote.Ops backing the built-in PROC filter on
// kqueue platforms: a dedicated kqueue fd watched with EVFILT_PROC/
// NOTE_EXIT, rather than the pidfd+epoll pairing Linux uses, mirroring
// how netfd_bsd.go diverges from netfd_linux.go for the same fd-kind.
func NewProc() knote.Ops { return procSource{} }

type procSource struct{}

type procState struct {
	mu       sync.Mutex
	kq       int
	pid      int
	exited   bool
	status   int64
	reported bool
	done     chan struct{}
}

// Attach implements knote.Ops.
func (procSource) Attach(k *knote.Knote) (bool, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return false, err
	}
	st := &procState{kq: kq, pid: int(k.Key.Ident), done: make(chan struct{})}

	ev := unix.Kevent_t{
		Ident:  uint64(st.pid),
		Filter: unix.EVFILT_PROC,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
		Fflags: unix.NOTE_EXIT,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		unix.Close(kq)
		return false, err
	}
	k.Source = st
	go st.run(k)
	return false, nil
}

// Detach implements knote.Ops.
func (procSource) Detach(k *knote.Knote) {
	st := k.Source.(*procState)
	close(st.done)
	unix.Close(st.kq)
}

func (st *procState) run(k *knote.Knote) {
	events := make([]unix.Kevent_t, 1)
	for {
		n, err := unix.Kevent(st.kq, nil, events, nil)
		select {
		case <-st.done:
			return
		default:
		}
		if err != nil || n == 0 {
			continue
		}
		taskpool.Do(func() {
			var ws unix.WaitStatus
			_, _ = unix.Wait4(st.pid, &ws, unix.WNOHANG, nil)
			st.mu.Lock()
			st.exited = true
			st.status = int64(ws.ExitStatus())
			st.mu.Unlock()
			activate(k)
		})
		return
	}
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
