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

// Package metrics provides runtime monitoring counters for the event
// engine: registration volume, scan efficiency, and poller activity, a
// good tool for tuning how a queue is used.
package metrics

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// All metrics definitions.
const (
	// Registration metrics.
	ChangesApplied = iota
	ChangesErrored
	KnotesCreated
	KnotesDestroyed

	// Activation metrics.
	ActivationsObserved
	ActivationsReprocessed

	// Scan metrics.
	ScanCalls
	ScanWaits
	EventsDelivered
	EventsRequeuedLevel
	EventsDroppedOneshot

	// Epoll/kqueue metrics.
	EpollWait
	EpollNoWait
	EpollEvents
	TaskAssigned
	Max
)

var (
	metrics [Max]atomic.Uint64
)

// Add metrics counter.
func Add(name int, delta uint64) {
	if name >= Max {
		return
	}
	metrics[name].Add(delta)
}

// Get one metric counter.
func Get(name int) uint64 {
	if name >= Max {
		return 0
	}
	return metrics[name].Load()
}

// GetAll get all metrics.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range metrics {
		m[i] = metrics[i].Load()
	}
	return m
}

// ShowMetricsOfPeriod shows metric info of duration d from now on.
// It will block d duration, and then prints metrics info.
func ShowMetricsOfPeriod(d time.Duration) {
	old := GetAll()
	<-time.After(d)
	latest := GetAll()
	var m [Max]uint64
	for i := range metrics {
		m[i] = latest[i] - old[i]
	}
	showAll(m)
}

// ShowMetrics shows metric info in console.
func ShowMetrics() {
	m := GetAll()
	showAll(m)
}

func showAll(m [Max]uint64) {
	fmt.Println("######### evque metrics (", time.Now().Format("2006-01-02 15:04:05"), ") ###########")
	showRegistrationMetrics(m)
	showScanMetrics(m)
	showEpollMetrics(m)
	fmt.Printf("%-59s: %d\n", "# number of task assigned (doTask)", m[TaskAssigned])
	fmt.Printf("\n")
}

func showRegistrationMetrics(m [Max]uint64) {
	fmt.Printf("%-59s: %d\n", "# registration - number of changes applied", m[ChangesApplied])
	fmt.Printf("%-59s: %d\n", "# registration - number of changes that errored", m[ChangesErrored])
	fmt.Printf("%-59s: %d\n", "# registration - number of knotes created", m[KnotesCreated])
	fmt.Printf("%-59s: %d\n", "# registration - number of knotes destroyed", m[KnotesDestroyed])
	fmt.Printf("%-59s: %d\n", "# activation - number of activations observed", m[ActivationsObserved])
	fmt.Printf("%-59s: %d\n", "# activation - number of activations deferred via REPROCESS", m[ActivationsReprocessed])
}

func showScanMetrics(m [Max]uint64) {
	fmt.Printf("%-59s: %d\n", "# scan - number of scan calls", m[ScanCalls])
	fmt.Printf("%-59s: %d\n", "# scan - number of times a scan blocked waiting", m[ScanWaits])
	fmt.Printf("%-59s: %d\n", "# scan - number of events delivered", m[EventsDelivered])
	fmt.Printf("%-59s: %d\n", "# scan - number of level-triggered re-enqueues", m[EventsRequeuedLevel])
	fmt.Printf("%-59s: %d\n", "# scan - number of oneshot knotes dropped after delivery", m[EventsDroppedOneshot])
}

func showEpollMetrics(m [Max]uint64) {
	fmt.Printf("%-59s: %d\n", "# EPOLL - number of epoll_wait returns (tag:b)", m[EpollWait])
	fmt.Printf("%-59s: %d\n", "# EPOLL - number of epoll_wait called with msc=0 (tag:a)", m[EpollNoWait])
	fmt.Printf("%-59s: %d\n", "# EPOLL - number of total events", m[EpollEvents])
	if (m[EpollWait]) > 0 {
		fmt.Printf("%-59s: %.2f%%\n", "# EPOLL - a/b * 100%", float32(m[EpollNoWait])*100/float32(m[EpollWait]))
		fmt.Printf("%-59s: %.2f\n", "# EPOLL - average events number per epoll_wait",
			float32(m[EpollEvents])/float32(m[EpollWait]))
	}
}
