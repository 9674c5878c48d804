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
	"fmt"
	"os"
)

// resolveFDPath resolves fd to the path it was opened on by reading the
// /proc/self/fd symlink, the same trick netfd_linux.go uses to recover a
// socket's local address from a bare fd.
func resolveFDPath(fd int) (string, error) {
	return os.Readlink(fmt.Sprintf("/proc/self/fd/%d", fd))
}
