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

//go:build linux
// +build linux

package filters

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"time"

	"trpc.group/trpc-go/evque/internal/knote"
)

// FS outbound Fflags bits.
const (
	NoteMount uint32 = 1 << iota
	NoteUnmount
)

const mountPollInterval = 2 * time.Second

var (
	fsOnce     sync.Once
	fsWatchers sync.Map // *fsState -> struct{}
	fsLast     map[string]struct{}
)

// NewFS returns the knote.Ops backing the built-in FS filter. Ident is
// unused: FS is a global source, per spec.md §6. A single background
// goroutine, started lazily on the first registration across every FS
// knote, polls /proc/self/mountinfo and activates every registered FS
// knote with the observed mount/unmount bits.
func NewFS() knote.Ops { return fsSource{} }

type fsSource struct{}

type fsState struct {
	mu      sync.Mutex
	pending uint32
}

// Attach implements knote.Ops.
func (fsSource) Attach(k *knote.Knote) (bool, error) {
	st := &fsState{}
	k.Source = st
	fsWatchers.Store(st, k)
	fsOnce.Do(func() { go pollMounts() })
	return false, nil
}

// Detach implements knote.Ops.
func (fsSource) Detach(k *knote.Knote) {
	fsWatchers.Delete(k.Source.(*fsState))
}

// Event implements knote.Ops.
func (fsSource) Event(k *knote.Knote, hint uint32) bool {
	st := k.Source.(*fsState)
	st.mu.Lock()
	mask := st.pending
	st.pending = 0
	st.mu.Unlock()
	if mask == 0 {
		return false
	}
	k.Desc.Fflags = mask
	return true
}

// Flags implements knote.Ops.
func (fsSource) Flags() knote.OpsFlags { return knote.OpsFlags{} }

func pollMounts() {
	for range time.Tick(mountPollInterval) {
		current, err := readMounts()
		if err != nil {
			continue
		}
		first := fsLast == nil
		added, removed := diffMounts(fsLast, current)
		fsLast = current
		if first || (len(added) == 0 && len(removed) == 0) {
			continue
		}
		var mask uint32
		if len(added) > 0 {
			mask |= NoteMount
		}
		if len(removed) > 0 {
			mask |= NoteUnmount
		}
		fsWatchers.Range(func(key, value interface{}) bool {
			st := key.(*fsState)
			k := value.(*knote.Knote)
			st.mu.Lock()
			st.pending |= mask
			st.mu.Unlock()
			activate(k)
			return true
		})
	}
}

func readMounts() (map[string]struct{}, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mounts := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		mounts[fields[4]] = struct{}{}
	}
	return mounts, scanner.Err()
}

func diffMounts(prev, current map[string]struct{}) (added, removed []string) {
	for m := range current {
		if _, ok := prev[m]; !ok {
			added = append(added, m)
		}
	}
	for m := range prev {
		if _, ok := current[m]; !ok {
			removed = append(removed, m)
		}
	}
	return added, removed
}
