package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"trpc.group/trpc-go/evque/internal/knote"
)

// fakeOwner is a minimal knote.Owner recording Enqueue calls, standing in
// for the real Queue so activate can be tested without the root package
// (which filters must not import).
type fakeOwner struct {
	enqueued int
}

func (o *fakeOwner) Enqueue(k *knote.Knote) { o.enqueued++ }
func (o *fakeOwner) Dequeue(k *knote.Knote) {}

// activate never calls ops.Event itself (see activate.go's doc comment),
// so these tests exercise only the lease/enqueue bookkeeping: whether the
// knote is marked Active and handed to the owner, independent of whatever
// a filter's own Event would later report at delivery time.

func TestActivateEnqueuesWhenFree(t *testing.T) {
	owner := &fakeOwner{}
	k := &knote.Knote{Owner: owner}

	activate(k)

	assert.Equal(t, 1, owner.enqueued)
	assert.True(t, k.Status().Has(knote.Active))
	assert.False(t, k.Lease.Held())
}

func TestActivateSkipsEnqueueWhenDisabled(t *testing.T) {
	owner := &fakeOwner{}
	k := &knote.Knote{Owner: owner}
	k.SetStatus(knote.Disabled)

	activate(k)

	assert.Zero(t, owner.enqueued)
}

func TestActivateLeavesReprocessNoteWhenLeaseHeld(t *testing.T) {
	owner := &fakeOwner{}
	k := &knote.Knote{Owner: owner}
	as := assert.New(t)
	as.True(k.Lease.TryAcquire())

	activate(k)

	// Contended: activate must not block or enqueue itself, just leave a
	// reprocess note for the holder.
	as.Zero(owner.enqueued)
	as.True(k.Lease.Held())

	// Release observes the reprocess note and reports it without
	// actually dropping the lease.
	as.True(k.Lease.Release())
	as.False(k.Lease.Release())
}
