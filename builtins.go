package evque

import (
	"go.uber.org/zap"
	"trpc.group/trpc-go/evque/filters"
	"trpc.group/trpc-go/evque/internal/filter"
)

// defaultRegistry is the process-wide filter registry every CreateQueue
// call uses unless overridden with WithRegistry. It carries all nine
// built-in filters, registered once at package init, mirroring the
// teacher's loadbalance.go pattern of registering built-in balancers into
// a package-level registry at init time.
var defaultRegistry = filter.NewRegistry()

// defaultLogger is the zap logger a Queue falls back to absent
// WithLogger, matching the teacher's log package default.
var defaultLogger = zap.NewNop()

func init() {
	must(defaultRegistry.Register(filter.Read, filters.NewRead()))
	must(defaultRegistry.Register(filter.Write, filters.NewWrite()))
	must(defaultRegistry.Register(filter.Except, filters.NewExcept()))
	must(defaultRegistry.Register(filter.Vnode, filters.NewVnode()))
	must(defaultRegistry.Register(filter.Proc, filters.NewProc()))
	must(defaultRegistry.Register(filter.Signal, filters.NewSignal()))
	must(defaultRegistry.Register(filter.Timer, filters.NewTimer()))
	must(defaultRegistry.Register(filter.FS, filters.NewFS()))
	must(defaultRegistry.Register(filter.User, filters.NewUser()))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
