package knote

// Index is the per-queue chained hash keyed on ident^filter, the master
// set a queue consults on every registration to find an existing knote
// before creating one.
type Index struct {
	buckets []*Knote
	mask    uint64
	n       int
}

const initialBuckets = 16

// NewIndex returns an empty index sized for a handful of registrations; it
// grows itself as needed.
func NewIndex() *Index {
	return &Index{buckets: make([]*Knote, initialBuckets), mask: initialBuckets - 1}
}

func hash(k Key) uint64 { return k.Ident ^ uint64(uint16(k.Filter)) }

// Get returns the knote registered under k, or nil.
func (ix *Index) Get(k Key) *Knote {
	for n := ix.buckets[hash(k)&ix.mask]; n != nil; n = n.indexNext {
		if n.Key == k {
			return n
		}
	}
	return nil
}

// Put inserts k, which must not already be present under its Key.
func (ix *Index) Put(k *Knote) {
	if ix.n >= len(ix.buckets)*2 {
		ix.grow()
	}
	i := hash(k.Key) & ix.mask
	k.indexNext = ix.buckets[i]
	ix.buckets[i] = k
	ix.n++
}

// Delete removes k from the index. No-op if not present.
func (ix *Index) Delete(k *Knote) {
	i := hash(k.Key) & ix.mask
	cur := ix.buckets[i]
	if cur == nil {
		return
	}
	if cur == k {
		ix.buckets[i] = k.indexNext
		k.indexNext = nil
		ix.n--
		return
	}
	for cur.indexNext != nil {
		if cur.indexNext == k {
			cur.indexNext = k.indexNext
			k.indexNext = nil
			ix.n--
			return
		}
		cur = cur.indexNext
	}
}

// Len reports the number of registered knotes.
func (ix *Index) Len() int { return ix.n }

// Walk invokes fn for every knote in the index, in unspecified order. fn
// must not mutate the index.
func (ix *Index) Walk(fn func(*Knote)) {
	for _, head := range ix.buckets {
		for n := head; n != nil; n = n.indexNext {
			fn(n)
		}
	}
}

func (ix *Index) grow() {
	next := make([]*Knote, len(ix.buckets)*2)
	nextMask := uint64(len(next) - 1)
	for _, head := range ix.buckets {
		for n := head; n != nil; {
			nn := n.indexNext
			i := hash(n.Key) & nextMask
			n.indexNext = next[i]
			next[i] = n
			n = nn
		}
	}
	ix.buckets = next
	ix.mask = nextMask
}
