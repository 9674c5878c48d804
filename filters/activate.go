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

// activate is the shared out-of-band notification path every push-style
// filter backend here uses: a goroutine outside the queue lock (a poller
// callback, a signal handler, a timer expiry) observed new activity and
// wants the knote reconsidered. It never calls ops.Event itself — every
// filter's Event is destructive (it drains the accumulator it reports:
// signalState.count, timerState.expired, vnodeState.pending, procState.
// reported), so the one call that is allowed to consume it is scan.
// deliver's own Event check at delivery time. activate's job is only to
// take the lease, mark the knote Active, and enqueue it so deliver gets
// a chance to run that check; if the lease is already held — typically
// by a concurrent scan delivering the previous activation — it leaves a
// Reprocess note so the holder re-checks before releasing instead of the
// activity being silently lost.
func activate(k *knote.Knote) {
	if !k.Lease.TryAcquire() {
		if k.Lease.MarkReprocess() {
			return
		}
		// The lease was released between TryAcquire failing and
		// MarkReprocess running: nobody is left to observe the note, so
		// there is nothing to do but retry from the top.
		activate(k)
		return
	}
	k.SetStatus(knote.Active)
	reprocess := k.Lease.Release()
	if !k.Status().Has(knote.Disabled) {
		k.Owner.Enqueue(k)
	}
	if reprocess {
		activate(k)
	}
}
