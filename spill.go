package resultcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/Krishna8167/resultcache/internal/diskio"
)

// spillRecord is the C3 spill record of spec §3: "(key → (file_path,
// compute_time_ns))", plus the shape needed to re-estimate sparsity and
// on-disk size without re-reading the file.
type spillRecord struct {
	path          string
	computeTimeNS int64
	rows, cols, nnz int64
	sparse        bool
}

// spillStore is C3. Disjoint from the live entries map (spec §3 invariant
// 1): a key is never present in both at once. Every method here assumes the
// caller holds the cache-wide mutex.
type spillStore struct {
	records map[Lineage]spillRecord
}

func newSpillStore() *spillStore {
	return &spillStore{records: make(map[Lineage]spillRecord)}
}

func (c *Cache) ensureWorkDirLocked() (string, error) {
	if c.outDir != "" {
		return c.outDir, nil
	}
	dir, err := diskio.NewWorkDir(c.spillBaseDir)
	if err != nil {
		return "", err
	}
	c.outDir = dir
	return dir, nil
}

/*
spillEntryLocked writes e's matrix to the per-process spill directory and
removes e from the live map, leaving a spillRecord behind so a later probe
can reload it (spec §4.6). It must be called holding the cache-wide mutex,
with e already confirmed canEvict() and e.kind == MatrixKind by the caller
(eviction.go); those are the only entries the eviction walk ever decides to
spill (spec §4.5: "scalars are never spilled").
*/
func (c *Cache) spillEntryLocked(e *Entry) error {
	if e.kind != MatrixKind || e.statusSnapshot() == StatusToRemove {
		return ErrSpillInvariant
	}
	m, computeTimeNS := e.matrixForSpill()
	if m == nil {
		return ErrSpillInvariant
	}

	dir, err := c.ensureWorkDirLocked()
	if err != nil {
		return newIOError("mkdir", dir, err)
	}

	rows, cols, nnz := m.Dims()
	sparse := m.Sparse()
	path := diskio.PathFor(dir, e.key.ID())

	data, err := m.MarshalBinary()
	if err != nil {
		return newIOError("marshal", path, err)
	}

	start := time.Now()
	if err := diskio.Write(path, data); err != nil {
		return newIOError("write", path, err)
	}
	c.bw.Observe(true, sparse, float64(len(data))/(1<<20), time.Since(start).Seconds())

	c.spill.records[e.key] = spillRecord{
		path:          path,
		computeTimeNS: computeTimeNS,
		rows:          rows, cols: cols, nnz: nnz,
		sparse: sparse,
	}
	c.removeEntryLocked(e)
	c.stats.incSpillWrites()
	c.logger.Debug("spilled entry to disk", keyField(e.key), zap.String("path", path))
	return nil
}

/*
reloadLocked reads a spilled matrix back into memory, re-inserts it at the
head of the LRU as RELOADED (spec §9's resolved open question), admits its
bytes (running eviction if needed — a reload competes for space exactly
like a fresh admission), and deletes the spill file (spec §4.6: "On reload,
the file is read back... and the spill file is deleted"). It must be called
holding the cache-wide mutex. A nil, nil return means key has no spill
record at all (an ordinary miss, not an error).
*/
func (c *Cache) reloadLocked(key Lineage) (*Entry, error) {
	rec, ok := c.spill.records[key]
	if !ok {
		return nil, nil
	}

	start := time.Now()
	data, err := diskio.Read(rec.path)
	if err != nil {
		delete(c.spill.records, key)
		return nil, newIOError("read", rec.path, err)
	}
	c.bw.Observe(false, rec.sparse, float64(len(data))/(1<<20), time.Since(start).Seconds())

	m, err := c.matrixDecoder(data)
	if err != nil {
		return nil, newIOError("decode", rec.path, err)
	}
	if err := diskio.Remove(rec.path); err != nil {
		c.logger.Warn("failed to remove spill file after reload", zap.String("path", rec.path), zap.Error(err))
	}
	delete(c.spill.records, key)

	e := newEmptyEntry(key, MatrixKind)
	bytes := m.InMemoryBytes()
	if !c.admitLocked(bytes) {
		return nil, ErrNegativeAdmission
	}
	e.markReloaded(Value{Kind: MatrixKind, Matrix: m}, rec.computeTimeNS, bytes)
	c.cacheBytes += bytes
	c.entries[key] = e
	c.pushFrontLocked(e)
	c.stats.incFSHits()
	return e, nil
}
