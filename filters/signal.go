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
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/evque/internal/knote"
)

// NewSignal returns the knote.Ops backing the built-in SIGNAL filter.
// Ident is the signal number (syscall.SIGINT and friends); each
// registration runs its own os/signal.Notify channel and goroutine, so
// distinct signals never contend with one another.
func NewSignal() knote.Ops { return signalSource{} }

type signalSource struct{}

type signalState struct {
	ch    chan os.Signal
	count atomic.Int64
}

// Attach implements knote.Ops.
func (signalSource) Attach(k *knote.Knote) (bool, error) {
	sig := syscall.Signal(k.Key.Ident)
	st := &signalState{ch: make(chan os.Signal, 16)}
	signal.Notify(st.ch, sig)
	k.Source = st
	go st.run(k)
	return false, nil
}

// Detach implements knote.Ops.
func (signalSource) Detach(k *knote.Knote) {
	st := k.Source.(*signalState)
	signal.Stop(st.ch)
	close(st.ch)
}

func (st *signalState) run(k *knote.Knote) {
	for range st.ch {
		st.count.Add(1)
		activate(k)
	}
}

// Event implements knote.Ops. Data reports the number of times the
// signal has been received since the last delivery.
func (signalSource) Event(k *knote.Knote, hint uint32) bool {
	n := k.Source.(*signalState).count.Swap(0)
	if n == 0 {
		return false
	}
	k.Desc.Data = n
	return true
}

// Flags implements knote.Ops.
func (signalSource) Flags() knote.OpsFlags { return knote.OpsFlags{} }
