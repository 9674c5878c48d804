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

//go:build !linux
// +build !linux

package filters

import "trpc.group/trpc-go/evque/internal/knote"

// NewFS returns the knote.Ops backing the built-in FS filter. Mount-set
// diffing is only implemented against Linux's /proc/self/mountinfo; on
// other platforms FS attaches successfully but never activates, a
// documented platform limitation rather than an invariant violation (FS
// is explicitly "global, not per-object" and low-weight in spec.md §6).
func NewFS() knote.Ops { return fsStub{} }

type fsStub struct{}

func (fsStub) Attach(k *knote.Knote) (bool, error)    { return false, nil }
func (fsStub) Detach(k *knote.Knote)                  {}
func (fsStub) Event(k *knote.Knote, hint uint32) bool { return false }
func (fsStub) Flags() knote.OpsFlags                  { return knote.OpsFlags{} }
