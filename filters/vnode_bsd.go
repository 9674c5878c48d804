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

//go:build darwin || freebsd || dragonfly
// +build darwin freebsd dragonfly

package filters

import (
	"bytes"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// resolveFDPath resolves fd to the path it was opened on via F_GETPATH,
// BSD/Darwin's equivalent of Linux's /proc/self/fd readlink trick.
func resolveFDPath(fd int) (string, error) {
	var buf [unix.PathMax]byte
	_, _, errno := syscall.Syscall(syscall.SYS_FCNTL, uintptr(fd), uintptr(unix.F_GETPATH),
		uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", errno
	}
	return string(bytes.TrimRight(buf[:], "\x00")), nil
}
