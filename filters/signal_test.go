package filters_test

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/evque/filters"
	"trpc.group/trpc-go/evque/internal/knote"
)

// countingOwner records every Enqueue, standing in for a real Queue.
type countingOwner struct {
	mu  sync.Mutex
	n   int
	hit chan struct{}
}

func newCountingOwner() *countingOwner {
	return &countingOwner{hit: make(chan struct{}, 16)}
}

func (o *countingOwner) Enqueue(k *knote.Knote) {
	o.mu.Lock()
	o.n++
	o.mu.Unlock()
	select {
	case o.hit <- struct{}{}:
	default:
	}
}

func (o *countingOwner) Dequeue(k *knote.Knote) {}

func (o *countingOwner) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.n
}

func TestSignalDeliversOnRealSignal(t *testing.T) {
	owner := newCountingOwner()
	ops := filters.NewSignal()
	k := &knote.Knote{
		Owner: owner,
		Key:   knote.Key{Filter: 0, Ident: uint64(syscall.SIGUSR1)},
	}
	active, err := ops.Attach(k)
	require.NoError(t, err)
	assert.False(t, active)
	defer ops.Detach(k)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-owner.hit:
	case <-time.After(2 * time.Second):
		t.Fatal("signal was never delivered to the queue")
	}

	assert.GreaterOrEqual(t, owner.count(), 1)
	assert.True(t, ops.Event(k, 0))
	assert.GreaterOrEqual(t, k.Desc.Data, int64(1))

	// Count was consumed by the Event call above.
	assert.False(t, ops.Event(k, 0))
}

// TestSignalTwoDeliveriesCoalesceIntoOneCountedEvent guards the bug a
// maintainer review caught: activate must not itself consume the
// accumulator via Event, or a second out-of-band activation racing the
// first one's delivery would find the count already drained back to
// zero and silently drop the signal instead of reporting Data=2.
func TestSignalTwoDeliveriesCoalesceIntoOneCountedEvent(t *testing.T) {
	owner := newCountingOwner()
	ops := filters.NewSignal()
	k := &knote.Knote{
		Owner: owner,
		Key:   knote.Key{Filter: 0, Ident: uint64(syscall.SIGUSR2)},
	}
	active, err := ops.Attach(k)
	require.NoError(t, err)
	assert.False(t, active)
	defer ops.Detach(k)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))

	// Give both signals time to reach the notification goroutine and run
	// their (now side-effect-free) activate calls before the one
	// consuming Event check below.
	deadline := time.After(2 * time.Second)
	for owner.count() < 2 {
		select {
		case <-owner.hit:
		case <-deadline:
			t.Fatalf("only %d of 2 signals were observed", owner.count())
		}
	}

	require.True(t, ops.Event(k, 0))
	assert.EqualValues(t, 2, k.Desc.Data)
	assert.False(t, ops.Event(k, 0))
}
