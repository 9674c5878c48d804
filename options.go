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

import (
	"go.uber.org/zap"
	"trpc.group/trpc-go/evque/internal/filter"
)

// Option configures a Queue at CreateQueue time.
type Option struct {
	f func(*options)
}

type options struct {
	registry *filter.Registry
	logger   *zap.Logger
}

func defaultOptions() *options {
	return &options{
		registry: defaultRegistry,
		logger:   defaultLogger,
	}
}

// WithRegistry overrides the filter registry a queue consults. Mainly for
// tests that need isolation from the process-wide default registry;
// production callers should leave this at its default, which carries the
// nine built-in filters.
func WithRegistry(r *filter.Registry) Option {
	return Option{func(o *options) {
		o.registry = r
	}}
}

// WithLogger overrides the logger a queue uses for internal diagnostics;
// currently the only message is a Debug entry when a filter refuses Attach.
func WithLogger(logger *zap.Logger) Option {
	return Option{func(o *options) {
		o.logger = logger
	}}
}
