package resultcache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryGetBlocksUntilSetValue(t *testing.T) {
	e := newEmptyEntry(NewLineage("x"), ScalarKind)
	assert.False(t, e.canEvict(), "an empty placeholder is never evictable")

	var wg sync.WaitGroup
	wg.Add(1)
	var got Scalar
	var getErr error
	go func() {
		defer wg.Done()
		got, getErr = e.getScalar()
	}()

	time.Sleep(5 * time.Millisecond)
	e.setValue(Value{Kind: ScalarKind, Scalar: 99}, 10)
	wg.Wait()

	require.NoError(t, getErr)
	assert.Equal(t, Scalar(99), got)
	assert.True(t, e.canEvict())
}

func TestEntrySetFailedWakesWaiterWithError(t *testing.T) {
	e := newEmptyEntry(NewLineage("y"), MatrixKind)

	var wg sync.WaitGroup
	wg.Add(1)
	var getErr error
	go func() {
		defer wg.Done()
		_, getErr = e.getMatrix()
	}()

	time.Sleep(5 * time.Millisecond)
	e.setFailed(ErrNegativeAdmission)
	wg.Wait()

	assert.ErrorIs(t, getErr, ErrNegativeAdmission)
	assert.False(t, e.canEvict(), "a failed entry must never be considered evictable")
}

func TestEntryCanEvictFalseWhileWaitersParked(t *testing.T) {
	e := newEmptyEntry(NewLineage("z"), ScalarKind)
	e.setValue(Value{Kind: ScalarKind, Scalar: 1}, 1)
	assert.True(t, e.canEvict())

	e.mu.Lock()
	e.waiters = 1
	e.mu.Unlock()
	assert.False(t, e.canEvict(), "an entry with a parked waiter must not be evicted out from under it")
}

func TestEntryMarkReloadedThenPromotedOnRead(t *testing.T) {
	e := newEmptyEntry(NewLineage("w"), ScalarKind)
	e.markReloaded(Value{Kind: ScalarKind, Scalar: 5}, 1, scalarEntryBytes)
	assert.Equal(t, StatusReloaded, e.statusSnapshot())

	v, err := e.getScalar()
	require.NoError(t, err)
	assert.Equal(t, Scalar(5), v)
	assert.Equal(t, StatusCached, e.statusSnapshot(), "a read promotes RELOADED to CACHED")
}
