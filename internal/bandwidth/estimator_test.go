package bandwidth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeds(t *testing.T) {
	e := New(1)
	assert.Equal(t, seedReadDense, e.ReadSpeed(false))
	assert.Equal(t, seedReadSparse, e.ReadSpeed(true))
	assert.Equal(t, seedWriteDense, e.WriteSpeed(false))
	assert.Equal(t, seedWriteSparse, e.WriteSpeed(true))
}

func TestObserveBlendsWithHalfWeight(t *testing.T) {
	e := New(1)
	before := e.ReadSpeed(false)
	observed := before + 100 // MB/s

	// 1 second at `observed` MB/s means sizeMB == observed.
	e.Observe(false, false, observed, 1)

	after := e.ReadSpeed(false)
	require.InDelta(t, before/2+observed/2, after, 1e-9)
	// spec §8: |speed_after - observed| == |speed_before - observed| / 2
	require.InDelta(t, (observed-before)/2, observed-after, 1e-9)
}

func TestObserveIgnoresSamplesBelowMinData(t *testing.T) {
	e := New(10)
	before := e.ReadSpeed(true)
	e.Observe(false, true, 1, 1) // 1MB < minDataMB of 10
	assert.Equal(t, before, e.ReadSpeed(true))
}

func TestObserveIgnoresZeroElapsed(t *testing.T) {
	e := New(1)
	before := e.WriteSpeed(false)
	e.Observe(true, false, 100, 0)
	assert.Equal(t, before, e.WriteSpeed(false))
}

func TestRoundTripSecondsIsLoadPlusWrite(t *testing.T) {
	e := New(1)
	got := e.RoundTripSeconds(450, false)
	want := 450/seedReadDense + 450/seedWriteDense
	require.InDelta(t, want, got, 1e-9)
}
