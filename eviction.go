package resultcache

import "go.uber.org/zap"

/*
evictLocked is C5 (spec §4.5): walk the LRU from tail toward head, evicting
entries until target bytes fit under CACHE_LIMIT or the walk runs off the
head. An entry pinned by waiters is skipped rather than removed (spec §3
invariant 7) — the walk simply moves on to its neighbor.

Per entry the walk reaches, the decision is:
  - scalars: delete if exec_ms < MIN_SPILL_TIME, else leave in place
    (scalars are never spilled; spilling a float64 costs more I/O than it's
    worth).
  - matrices: always removed from memory; the only choice is spill vs.
    delete, based on comparing exec_ms against the estimated spill_ms
    round trip (spec §4.6).

Must be called holding the cache-wide mutex.
*/
func (c *Cache) evictLocked(target int64) {
	for e := c.tail; e != nil; {
		if c.fitsLocked(target) {
			return
		}
		prev := e.prev

		if !e.canEvict() {
			e = prev
			continue
		}

		if !c.cfg.SpillEnabled {
			c.deleteLocked(e)
			e = prev
			continue
		}

		switch e.kind {
		case ScalarKind:
			if float64(e.computeTimeSnapshot())/1e6 < c.cfg.MinSpillTimeMS {
				c.deleteLocked(e)
			}
			// else: leave the scalar in place; it is cheaper to keep than
			// to round-trip through disk.
		case MatrixKind:
			c.evictMatrixLocked(e)
		}
		e = prev
	}
}

// evictMatrixLocked decides spill-vs-delete for one matrix entry (spec
// §4.5/§4.6) and carries it out.
func (c *Cache) evictMatrixLocked(e *Entry) {
	execMS := float64(e.computeTimeSnapshot()) / 1e6
	spillMS := c.roundTripMS(e)

	shouldSpill := execMS > spillMS
	if spillMS < c.cfg.MinSpillTimeMS {
		// The round trip itself is near-instant (tiny payload): only worth
		// the file-table overhead if recomputing would cost real time.
		shouldSpill = execMS >= c.cfg.MinSpillTimeMS
	}

	if !shouldSpill {
		c.deleteLocked(e)
		return
	}

	if err := c.spillEntryLocked(e); err != nil {
		c.logger.Warn("spill failed, deleting entry instead", keyField(e.key), zap.Error(err))
		c.deleteLocked(e)
	}
}

// roundTripMS estimates the spill-write-then-reload-read time for e's
// current matrix, in milliseconds.
func (c *Cache) roundTripMS(e *Entry) float64 {
	m, _ := e.matrixForSpill()
	if m == nil {
		return 0
	}
	rows, cols, nnz := m.Dims()
	sizeMB := float64(m.OnDiskBytes(rows, cols, nnz)) / (1 << 20)
	return c.bw.RoundTripSeconds(sizeMB, m.Sparse()) * 1000
}

// removeEntryLocked unlinks e from the LRU and the live map and deducts its
// bytes, without marking it as ever-evicted. Used by paths where the entry
// simply stops being "live" but isn't gone forever (a spill) or never held
// a real value to begin with (an aborted placeholder).
func (c *Cache) removeEntryLocked(e *Entry) {
	c.unlinkLocked(e)
	delete(c.entries, e.key)
	c.cacheBytes -= e.sizeOf()
}

// deleteLocked is removeEntryLocked plus the bookkeeping that marks a key
// as truly gone (spec §3's removed-set, used only to attribute
// would-have-been-a-hit statistics) and counts it as an eviction.
func (c *Cache) deleteLocked(e *Entry) {
	c.removeEntryLocked(e)
	c.removed[e.key] = struct{}{}
	c.stats.incEvictions()
}
