package resultcache

import "sync"

// scalarEntryBytes is the fixed size_of() contribution of a CACHED scalar
// entry (spec §3 invariant 4 requires some size, but a bare float64 carries
// no natural "footprint" of its own the way a matrix's backing array does;
// this constant approximates bookkeeping overhead plus the boxed value).
const scalarEntryBytes = 64

/*
Entry is a single cache slot (spec §3, C1): either a placeholder waiting to
be filled or a value ready to be handed out, plus its LRU links and its own
monitor.

Each Entry owns exactly the fields spec §5 says are read or written under
the entry's monitor (value slots and status) separately from the fields the
cache-wide mutex owns (prev/next, the key→Entry map itself). prev/next are
only ever touched while the caller also holds the cache mutex, so they need
no protection of their own — they are listed here, on the Entry, per spec
§9's arena note ("an intrusive doubly-linked list... prefer... to avoid
ownership cycles and keep the list and map inside one allocation owner"),
not because the monitor guards them.

The monitor (mu/cond) is deliberately a second, finer-grained lock beneath
the cache mutex (spec §5's lock ordering: cache mutex, then an entry
monitor, never the reverse) so a long-running producer blocks only the
threads waiting on its own key, never the whole cache.
*/
type Entry struct {
	key  Lineage
	kind Kind

	mu     sync.Mutex
	cond   *sync.Cond
	status Status

	matrixValue MatrixBlock
	scalarValue Scalar
	failErr     error

	computeTimeNS int64
	bytes         int64
	waiters       int

	originKey    Lineage
	hasOrigin    bool

	// prev/next thread this Entry through the cache's LRU list. Mutated
	// only under the cache-wide mutex (lru.go).
	prev, next *Entry
}

func newEmptyEntry(key Lineage, kind Kind) *Entry {
	e := &Entry{key: key, kind: kind, status: StatusEmpty}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// setValue fills a placeholder with a computed value, transitions it to CACHED, and wakes every waiter parked in
// getMatrix/getScalar. Per spec §4.2, "The producer's put strictly
// happens-before any waiter's return from get" — that ordering is exactly
// what this lock/unlock + Broadcast gives: no waiter can observe matrixValue
// or scalarValue without first re-acquiring mu after this call released it.
func (e *Entry) setValue(v Value, computeTimeNS int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.kind {
	case MatrixKind:
		e.matrixValue = v.Matrix
		e.bytes = e.matrixValue.InMemoryBytes()
	case ScalarKind:
		e.scalarValue = v.Scalar
		e.bytes = scalarEntryBytes
	}
	e.computeTimeNS = computeTimeNS
	e.status = StatusCached
	e.cond.Broadcast()
	return e.bytes
}

// setValueWithOrigin is setValue plus the origin_key bookkeeping the
// multi-output commit needs (spec §4.7, §9 "move").
func (e *Entry) setValueWithOrigin(v Value, computeTimeNS int64, origin Lineage) int64 {
	bytes := e.setValue(v, computeTimeNS)
	e.mu.Lock()
	e.originKey = origin
	e.hasOrigin = true
	e.mu.Unlock()
	return bytes
}

// setFailed marks a placeholder as unfillable and wakes every waiter with an
// error instead of a value. Spec §9 calls out the reference behavior of
// leaving waiters blocked on a negative admission as a defect; this
// implementation is the corrected one it describes.
func (e *Entry) setFailed(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = err
	e.status = StatusToRemove
	e.cond.Broadcast()
}

// getMatrix blocks while the entry is still a placeholder, then returns the
// cached block (or the error a failed admission left behind). It is the
// only blocking primitive in the system (spec §4.2, §5) and is always
// called with the cache-wide mutex released.
func (e *Entry) getMatrix() (MatrixBlock, error) {
	e.mu.Lock()
	e.waiters++
	for e.status == StatusEmpty {
		e.cond.Wait()
	}
	e.waiters--
	defer e.mu.Unlock()

	if e.failErr != nil {
		return nil, e.failErr
	}
	if e.status == StatusReloaded {
		e.status = StatusCached
	}
	return e.matrixValue, nil
}

// getScalar is getMatrix's scalar twin.
func (e *Entry) getScalar() (Scalar, error) {
	e.mu.Lock()
	e.waiters++
	for e.status == StatusEmpty {
		e.cond.Wait()
	}
	e.waiters--
	defer e.mu.Unlock()

	if e.failErr != nil {
		return 0, e.failErr
	}
	if e.status == StatusReloaded {
		e.status = StatusCached
	}
	return e.scalarValue, nil
}

// canEvict reports whether the eviction walk may remove this entry (spec §3
// invariant 7): only CACHED/RELOADED entries with nobody currently parked on
// their monitor are evictable. A placeholder with waiters is pinned by
// definition — removing it would strand the threads blocked in get().
func (e *Entry) canEvict() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.waiters > 0 {
		return false
	}
	return e.status == StatusCached || e.status == StatusReloaded
}

func (e *Entry) sizeOf() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bytes
}

func (e *Entry) statusSnapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Entry) computeTimeSnapshot() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeTimeNS
}

func (e *Entry) originSnapshot() (Lineage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.originKey, e.hasOrigin
}

// matrixForSpill returns the matrix block and compute time the eviction
// walk needs to decide spill-vs-delete and to write the spill file itself,
// read together under the monitor so a concurrent setValue can't be observed
// half-applied (spec §5: only the entry's value slots are read under mu).
func (e *Entry) matrixForSpill() (MatrixBlock, int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matrixValue, e.computeTimeNS
}

// markReloaded transitions a just-read-back-from-disk entry to RELOADED
// (spec §9: "implementers may... assign it on reload to bias eviction").
func (e *Entry) markReloaded(v Value, computeTimeNS int64, bytes int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.kind {
	case MatrixKind:
		e.matrixValue = v.Matrix
	case ScalarKind:
		e.scalarValue = v.Scalar
	}
	e.bytes = bytes
	e.computeTimeNS = computeTimeNS
	e.status = StatusReloaded
	e.cond.Broadcast()
}
