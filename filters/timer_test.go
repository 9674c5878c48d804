package filters_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/evque/filters"
	"trpc.group/trpc-go/evque/internal/knote"
)

func TestTimerFiresPeriodically(t *testing.T) {
	owner := newCountingOwner()
	ops := filters.NewTimer()
	// The default time wheel ticks at 1s granularity; ask for a bit more
	// than one tick so the first expiry is never missed by rounding.
	k := &knote.Knote{Owner: owner, SavedData: 1200}

	active, err := ops.Attach(k)
	require.NoError(t, err)
	assert.False(t, active)
	defer ops.Detach(k)

	select {
	case <-owner.hit:
	case <-time.After(5 * time.Second):
		t.Fatal("timer never expired")
	}

	assert.True(t, ops.Event(k, 0))
	assert.GreaterOrEqual(t, k.Desc.Data, int64(1))
}

func TestTimerAttachDefaultsShortPeriod(t *testing.T) {
	owner := newCountingOwner()
	ops := filters.NewTimer()
	// SavedData <= 0 falls back to a 1s default period rather than
	// rejecting the registration.
	k := &knote.Knote{Owner: owner, SavedData: 0}

	active, err := ops.Attach(k)
	require.NoError(t, err)
	assert.False(t, active)
	defer ops.Detach(k)

	select {
	case <-owner.hit:
	case <-time.After(5 * time.Second):
		t.Fatal("timer never expired")
	}
}
