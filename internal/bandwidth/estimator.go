// Package bandwidth implements the adaptive disk round-trip estimator of
// spec §4.6 (C6): four EMA-blended MB/s constants, one per {read,write} x
// {dense,sparse}, seeded with representative values and drifting toward
// observed hardware speed after every real I/O.
package bandwidth

import "sync"

// Seed values per spec §9: "Initial values for the four constants should be
// representative (e.g., 150/450 MB/s sparse/dense read, 100/300 MB/s
// sparse/dense write)."
const (
	seedReadSparse  = 150.0
	seedReadDense   = 450.0
	seedWriteSparse = 100.0
	seedWriteDense  = 300.0
)

// Estimator tracks the four adaptive speed constants and blends new samples
// in with EMA weight 1/2 (spec §4.6: "new = (old + observed)/2").
type Estimator struct {
	mu sync.Mutex

	readDense, readSparse   float64
	writeDense, writeSparse float64

	// minDataMB is the threshold below which a sample is ignored (spec
	// §4.8's min_spill_data_mb).
	minDataMB float64
}

// New returns an Estimator seeded with representative constants.
func New(minDataMB float64) *Estimator {
	return &Estimator{
		readDense:   seedReadDense,
		readSparse:  seedReadSparse,
		writeDense:  seedWriteDense,
		writeSparse: seedWriteSparse,
		minDataMB:   minDataMB,
	}
}

// ReadSpeed returns the current read-speed estimate, in MB/s, for the given
// sparsity.
func (e *Estimator) ReadSpeed(sparse bool) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sparse {
		return e.readSparse
	}
	return e.readDense
}

// WriteSpeed returns the current write-speed estimate, in MB/s, for the
// given sparsity.
func (e *Estimator) WriteSpeed(sparse bool) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sparse {
		return e.writeSparse
	}
	return e.writeDense
}

// RoundTripSeconds estimates load+write time for a payload of sizeMB at the
// given sparsity (spec §4.6: "round_trip_seconds = load + write").
func (e *Estimator) RoundTripSeconds(sizeMB float64, sparse bool) float64 {
	load := sizeMB / e.ReadSpeed(sparse)
	write := sizeMB / e.WriteSpeed(sparse)
	return load + write
}

// Observe folds one real I/O's measured throughput into the matching
// constant, provided the payload clears minDataMB (spec §4.6: "After every
// real spill write or reload read whose payload exceeds a minimum-size
// threshold, the observed MB/s is blended into the matching constant").
func (e *Estimator) Observe(write, sparse bool, sizeMB, elapsedSeconds float64) {
	if sizeMB < e.minDataMB || elapsedSeconds <= 0 {
		return
	}
	observed := sizeMB / elapsedSeconds

	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case write && sparse:
		e.writeSparse = (e.writeSparse + observed) / 2
	case write && !sparse:
		e.writeDense = (e.writeDense + observed) / 2
	case !write && sparse:
		e.readSparse = (e.readSparse + observed) / 2
	default:
		e.readDense = (e.readDense + observed) / 2
	}
}
