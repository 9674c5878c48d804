//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"trpc.group/trpc-go/evque/internal/filter"
	"trpc.group/trpc-go/evque/internal/knote"
)

type fakeOps struct{}

func (fakeOps) Attach(k *knote.Knote) (bool, error) { return false, nil }
func (fakeOps) Detach(k *knote.Knote)               {}
func (fakeOps) Event(k *knote.Knote, hint uint32) bool {
	return false
}
func (fakeOps) Flags() knote.OpsFlags { return knote.OpsFlags{} }

func TestRegistryBuiltinLookup(t *testing.T) {
	r := filter.NewRegistry()
	_, err := r.Lookup(filter.Read)
	assert.ErrorIs(t, err, filter.ErrNoSuchFilter)

	assert.NoError(t, r.Register(filter.Read, fakeOps{}))
	ops, err := r.Lookup(filter.Read)
	assert.NoError(t, err)
	assert.Equal(t, fakeOps{}, ops)
}

func TestRegistryDynamicLookup(t *testing.T) {
	r := filter.NewRegistry()
	const custom int16 = 100
	assert.NoError(t, r.Register(custom, fakeOps{}))
	ops, err := r.Lookup(custom)
	assert.NoError(t, err)
	assert.Equal(t, fakeOps{}, ops)

	assert.NoError(t, r.Deregister(custom))
	_, err = r.Lookup(custom)
	assert.ErrorIs(t, err, filter.ErrNoSuchFilter)
}

func TestRegistryRefusesSwapWhileInUse(t *testing.T) {
	r := filter.NewRegistry()
	assert.NoError(t, r.Register(filter.Timer, fakeOps{}))
	r.IncRef(filter.Timer)
	assert.ErrorIs(t, r.Register(filter.Timer, fakeOps{}), filter.ErrFilterInUse)
	assert.ErrorIs(t, r.Deregister(filter.Timer), filter.ErrFilterInUse)
	r.DecRef(filter.Timer)
	assert.NoError(t, r.Deregister(filter.Timer))
}

func TestRegistryRejectsNilOps(t *testing.T) {
	r := filter.NewRegistry()
	assert.ErrorIs(t, r.Register(filter.Read, nil), filter.ErrInvalidOps)
}
