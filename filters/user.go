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

import "trpc.group/trpc-go/evque/internal/knote"

// NoteTrigger is the Fflags bit a caller sets on a Modify (Add without a
// fresh Ident) against a USER registration to request delivery. It is the
// only Fflags bit this filter understands; everything else in Fflags is
// passed straight through to the delivered record for the caller's own
// use, same as the built-in kqueue filter it is modeled on.
const NoteTrigger uint32 = 1 << 31

// NewUser returns the knote.Ops backing the built-in USER filter: a pure
// in-process source with no external state at all, fired only by a
// Modify carrying NoteTrigger in Fflags. Every other filter here
// eventually bottoms out in some OS primitive; USER is the one exception,
// useful for a caller that wants its own wakeup delivered through the same
// queue as everything else.
func NewUser() knote.Ops { return userSource{} }

type userSource struct{}

// Attach implements knote.Ops. A USER registration starts inactive; it is
// armed only by a later trigger.
func (userSource) Attach(k *knote.Knote) (bool, error) { return false, nil }

// Detach implements knote.Ops.
func (userSource) Detach(k *knote.Knote) {}

// Event implements knote.Ops.
func (userSource) Event(k *knote.Knote, hint uint32) bool {
	if k.Desc.Fflags&NoteTrigger == 0 {
		return false
	}
	k.Desc.Fflags &^= NoteTrigger
	return true
}

// Flags implements knote.Ops.
func (userSource) Flags() knote.OpsFlags { return knote.OpsFlags{} }
