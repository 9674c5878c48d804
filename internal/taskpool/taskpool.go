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

// Package taskpool wraps the ants-backed goroutine pools filter backends
// and the root package both need for off-notification-goroutine work
// (PROC's Wait4 reap, and whatever callers pass to evque.Submit). It exists as its own internal package, rather than living in
// the root package as the teacher's equivalent does, purely so
// internal/../filters can reach it without importing the root package
// (which imports filters, for the built-in registrations).
package taskpool

import "github.com/panjf2000/ants/v2"

var (
	maxRoutines = 0 // meaning INT32_MAX.
	sysPool, _  = ants.NewPoolWithFunc(maxRoutines, taskHandler)
	usrPool, _  = ants.NewPool(maxRoutines)
)

func taskHandler(v any) {
	if fn, ok := v.(func()); ok {
		fn()
	}
}

// Do submits a filter-internal task (PROC's blocking reap) to the system
// pool.
func Do(task func()) error {
	return sysPool.Invoke(task)
}

// Submit submits caller-facing async work to the user pool.
func Submit(task func()) error {
	return usrPool.Submit(task)
}
