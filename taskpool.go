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

package evque

import "trpc.group/trpc-go/evque/internal/taskpool"

// Submit submits a task to the pool backing caller-facing async work (work
// the caller wants run off its own goroutine; no built-in filter submits
// here) rather than the filter-internal pool the built-in filters
// themselves use for their own blocking work.
func Submit(task func()) error {
	return taskpool.Submit(task)
}
