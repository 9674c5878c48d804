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
	"time"

	"trpc.group/trpc-go/evque/internal/asynctimer"
	"trpc.group/trpc-go/evque/internal/knote"
)

// NewTimer returns the knote.Ops backing the built-in TIMER filter. Data
// at registration time gives the period in milliseconds (SavedData, the
// value captured from the registering change, per spec.md §6's TIMER
// contract), mirroring the asynctimer.Timer this filter is built on.
func NewTimer() knote.Ops { return timerSource{} }

type timerSource struct{}

type timerState struct {
	mu      sync.Mutex
	timer   *asynctimer.Timer
	expired int64
}

// Attach implements knote.Ops.
func (timerSource) Attach(k *knote.Knote) (bool, error) {
	period := time.Duration(k.SavedData) * time.Millisecond
	if period <= 0 {
		period = time.Second
	}
	st := &timerState{}
	st.timer = asynctimer.NewTimer(k, st.onExpire, period)
	if err := asynctimer.Add(st.timer); err != nil {
		return false, err
	}
	k.Source = st
	return false, nil
}

// Detach implements knote.Ops.
func (timerSource) Detach(k *knote.Knote) {
	asynctimer.Del(k.Source.(*timerState).timer)
}

// Event implements knote.Ops. Data reports how many ticks occurred since
// the last delivery, matching the periodic-timer wire semantics: a
// level-triggered registration that keeps counting between deliveries.
func (timerSource) Event(k *knote.Knote, hint uint32) bool {
	st := k.Source.(*timerState)
	st.mu.Lock()
	n := st.expired
	st.expired = 0
	st.mu.Unlock()
	if n == 0 {
		return false
	}
	k.Desc.Data = n
	return true
}

// Flags implements knote.Ops.
func (timerSource) Flags() knote.OpsFlags { return knote.OpsFlags{} }

func (st *timerState) onExpire(data interface{}) {
	k := data.(*knote.Knote)
	st.mu.Lock()
	st.expired++
	st.mu.Unlock()

	if asynctimer.Add(st.timer) != nil {
		return
	}
	activate(k)
}
