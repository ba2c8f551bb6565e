package resultcache

import (
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Krishna8167/resultcache/internal/bandwidth"
)

/*
Cache is a lineage-keyed result cache for a matrix dataflow runtime (spec §1,
§3). It owns:

  - entries: the live key→Entry map (spec §3 invariant 1).
  - head/tail: an intrusive LRU list threaded through Entry.prev/next
    (lru.go).
  - spill: the disjoint key→file mapping for values pushed to disk
    (spill.go).
  - cacheBytes/cacheLimit: the admission accounting of C4 (admission.go).
  - removed: the ever-evicted key set, used only to attribute
    would-have-been-a-hit statistics.

A single mutex guards everything above. A second, finer-grained lock lives
on each Entry (entry.go); the lock order is always cache mutex then entry
monitor, never the reverse (spec §5) — no method in this package acquires
c.mu while already holding an Entry's mu.
*/
type Cache struct {
	mu sync.Mutex

	entries    map[Lineage]*Entry
	head, tail *Entry

	spill *spillStore
	bw    *bandwidth.Estimator

	cacheBytes int64
	cacheLimit int64

	removed map[Lineage]struct{}

	outDir       string
	spillBaseDir string

	cfg    Config
	logger *zap.Logger
	stats  *Stats

	registerer prometheus.Registerer

	rewriter      Rewriter
	lineageUtils  LineageUtils
	matrixDecoder MatrixDecoder
}

// New builds a Cache from the given options (spec §4.8/C10). With no
// options it runs FULL reuse mode, spill enabled, CACHE_LIMIT at 5% of the
// process's reported memory, and a no-op logger — DefaultConfig's values.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Lineage]*Entry),
		spill:   newSpillStore(),
		removed: make(map[Lineage]struct{}),
		cfg:     DefaultConfig(),
		logger:  nopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.spillBaseDir == "" {
		c.spillBaseDir = os.TempDir()
	}
	c.cacheLimit = c.cfg.CacheLimitBytes()
	c.bw = bandwidth.New(c.cfg.MinSpillDataMB)
	c.stats = newStats(c.registerer, func() float64 {
		c.mu.Lock()
		defer c.mu.Unlock()
		return float64(c.cacheBytes)
	})
	return c
}

/*
Reset tears the cache down to its freshly-constructed state (spec §3
"Lifecycle"): every entry, every spill record, and the removed-set are
cleared, and CACHE_LIMIT is re-derived from the current config. Reset is a
hard stop, not a graceful drain — any goroutine still parked in an Entry's
getMatrix/getScalar is woken with ErrCacheReset rather than left hanging.
Reset is idempotent: calling it twice in a row, or on a cache that was never
used, leaves the same empty state behind.

Reset does not remove spill files already written to outDir; a cache whose
spill directory has accumulated files across Resets is expected to Close it
and let the host process clean up outDir the way it cleans up any other
temp directory (spec's persistence-across-restarts is an explicit
non-goal).
*/
func (c *Cache) Reset() {
	c.mu.Lock()
	orphaned := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		orphaned = append(orphaned, e)
	}
	c.entries = make(map[Lineage]*Entry)
	c.spill.records = make(map[Lineage]spillRecord)
	c.removed = make(map[Lineage]struct{})
	c.head, c.tail = nil, nil
	c.cacheBytes = 0
	c.cacheLimit = c.cfg.CacheLimitBytes()
	c.mu.Unlock()

	for _, e := range orphaned {
		e.setFailed(ErrCacheReset)
	}
}

// Close unregisters this cache's Prometheus collectors, if any were
// registered. The cache runs no background goroutine of its own — every
// operation here executes synchronously on the caller's goroutine, under
// either c.mu or an Entry's own monitor — so Close has nothing to stop,
// only metrics to detach.
func (c *Cache) Close() {
	if c.stats == nil || c.registerer == nil {
		return
	}
	for _, col := range c.stats.collectors {
		c.registerer.Unregister(col)
	}
}

// Snapshot returns a point-in-time copy of the runtime counters (C9), for
// callers that would rather read them directly than scrape Prometheus.
func (c *Cache) Snapshot() StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot(c.cacheBytes)
}

// Probe is the §6 probe(key) operation: a non-binding membership check against both the
// live map and the spill store. Per spec §9, probe is intentionally
// non-authoritative — a true miss can still resolve to a hit by the time a
// caller follows up with TryReuseSingle, if a racing producer fills the
// placeholder in between. A probe that misses against a key present only in
// the removed-set (evicted, not spilled) counts toward WouldHaveHits.
func (c *Cache) Probe(key Lineage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return true
	}
	if _, ok := c.spill.records[key]; ok {
		return true
	}
	if _, ok := c.removed[key]; ok {
		c.stats.incWouldHaveHits()
	}
	return false
}

// GetMatrix looks up key directly, bypassing the instruction/placeholder
// protocol of TryReuseSingle, for callers (diagnostics, the demo CLI) that
// already know a key is cached and just want its value.
func (c *Cache) GetMatrix(key Lineage) (MatrixBlock, error) {
	c.mu.Lock()
	e := c.probeGrabLocked(key)
	c.mu.Unlock()
	if e == nil {
		return nil, ErrNotFound
	}
	return e.getMatrix()
}

// GetScalar is GetMatrix's scalar twin.
func (c *Cache) GetScalar(key Lineage) (Scalar, error) {
	c.mu.Lock()
	e := c.probeGrabLocked(key)
	c.mu.Unlock()
	if e == nil {
		return 0, ErrNotFound
	}
	return e.getScalar()
}

// probeGrabLocked looks key up in the live map, touching it to the LRU
// front on a hit, or reloads it from the spill store if it was pushed to
// disk. It returns nil on a true miss. Must be called holding c.mu.
func (c *Cache) probeGrabLocked(key Lineage) *Entry {
	if e, ok := c.entries[key]; ok {
		c.touchLocked(e)
		return e
	}
	if _, ok := c.spill.records[key]; ok {
		if e, err := c.reloadLocked(key); err == nil && e != nil {
			return e
		}
	}
	return nil
}
