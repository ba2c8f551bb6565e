package resultcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarEvictedOnlyWhenCheapToRecompute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSpillTimeMS = 50
	c := newTestCache(t, cfg)

	cheap := lineageFor(t, "cheap-scalar")
	cheapInstr := &fakeInstruction{eligible: true, marked: true, kind: ScalarKind, lineage: cheap, output: "o"}
	_, err := c.TryReuseSingle(cheapInstr, newFakeCtx())
	require.NoError(t, err)
	require.NoError(t, c.PutScalarSingle(cheapInstr, 1_000_000 /* 1ms, below threshold */, Scalar(1)))

	expensive := lineageFor(t, "expensive-scalar")
	expensiveInstr := &fakeInstruction{eligible: true, marked: true, kind: ScalarKind, lineage: expensive, output: "o"}
	_, err = c.TryReuseSingle(expensiveInstr, newFakeCtx())
	require.NoError(t, err)
	require.NoError(t, c.PutScalarSingle(expensiveInstr, 1_000_000_000 /* 1s, above threshold */, Scalar(2)))

	c.mu.Lock()
	c.evictLocked(c.cacheLimit) // force a full walk without needing real pressure
	c.mu.Unlock()

	assert.False(t, c.Probe(cheap), "a cheap-to-recompute scalar should be dropped, not kept")
	assert.True(t, c.Probe(expensive), "an expensive scalar is kept in place rather than spilled")
}

func TestMatrixSpilledWhenExpensiveToRecompute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpillEnabled = true
	cfg.MinSpillDataMB = 0
	cfg.CacheFraction = 1.0
	cfg.MaxMemoryBytes = 8 << 20
	c := newTestCache(t, cfg)

	li := lineageFor(t, "expensive-matrix")
	instr := &fakeInstruction{eligible: true, marked: true, kind: MatrixKind, lineage: li, output: "o"}
	_, err := c.TryReuseSingle(instr, newFakeCtx())
	require.NoError(t, err)

	m := newFakeMatrix(1000, 1000, 4<<20)
	require.NoError(t, c.PutMatrixSingle(instr, 10_000_000_000 /* 10s: far pricier than any disk round trip */, m))

	c.mu.Lock()
	e := c.entries[li]
	c.evictMatrixLocked(e)
	_, stillLive := c.entries[li]
	_, spilled := c.spill.records[li]
	c.mu.Unlock()

	assert.False(t, stillLive)
	assert.True(t, spilled, "an expensive matrix should be spilled, not deleted")

	// A subsequent probe+grab reloads it transparently.
	got, err := c.GetMatrix(li)
	require.NoError(t, err)
	assert.Equal(t, m.bytes, got.InMemoryBytes())
}

func TestDeleteLockedTracksRemovedSet(t *testing.T) {
	c := newTestCache(t, DefaultConfig())
	li := lineageFor(t, "to-delete")
	e := newEmptyEntry(li, ScalarKind)
	e.setValue(Value{Kind: ScalarKind, Scalar: 1}, 1)

	c.mu.Lock()
	c.entries[li] = e
	c.pushFrontLocked(e)
	c.deleteLocked(e)
	_, removed := c.removed[li]
	c.mu.Unlock()

	assert.True(t, removed)
	assert.EqualValues(t, 1, c.Snapshot().Evictions)
}
