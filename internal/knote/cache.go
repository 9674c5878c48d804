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

package knote

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

const blockSize = 4 * 1024

func init() {
	defaultCache = &cache{cache: make([]*Knote, 0, 1024)}
}

var defaultCache *cache

// Alloc returns a Knote from the pool, allocating a fresh block when it
// runs dry.
func Alloc() *Knote { return defaultCache.alloc() }

// MarkFree marks k as freeable. It is not actually recycled until the next
// Reclaim, a two-phase scheme that mirrors desc_cache.go's markFree/free
// split: a knote still referenced by an in-flight filter callback must
// never be handed back out from under it.
func MarkFree(k *Knote) { defaultCache.markFree(k) }

// Reclaim recycles every knote marked free since the last call.
func Reclaim() { defaultCache.reclaim() }

type cache struct {
	first  *Knote
	cache  []*Knote
	locked int32

	mu       sync.Mutex
	freeList []int32
}

func (c *cache) alloc() *Knote {
	c.lock()
	if c.first == nil {
		const size = unsafe.Sizeof(Knote{})
		n := blockSize / size
		if n == 0 {
			n = 1
		}
		index := int32(len(c.cache))
		for i := uintptr(0); i < n; i++ {
			k := &Knote{cacheIndex: index}
			c.cache = append(c.cache, k)
			k.cacheNext = c.first
			c.first = k
			index++
		}
	}
	k := c.first
	c.first = k.cacheNext
	c.unlock()
	return k
}

func (c *cache) markFree(k *Knote) {
	c.mu.Lock()
	c.freeList = append(c.freeList, k.cacheIndex)
	c.mu.Unlock()
}

func (c *cache) reclaim() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.freeList) == 0 {
		return
	}
	c.lock()
	for _, i := range c.freeList {
		k := c.cache[i]
		k.reset()
		k.cacheNext = c.first
		c.first = k
	}
	c.freeList = c.freeList[:0]
	c.unlock()
}

func (c *cache) lock() {
	for !atomic.CompareAndSwapInt32(&c.locked, 0, 1) {
		runtime.Gosched()
	}
}

func (c *cache) unlock() { atomic.StoreInt32(&c.locked, 0) }
