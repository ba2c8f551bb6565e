package resultcache

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the fault kinds of spec §7. Ineligible instructions
// never reach these — they are a silent no-op, not an error (see
// TryReuseSingle).
var (
	// ErrNegativeAdmission is returned (and used to fail waiters) when a
	// value cannot be admitted: it is larger than CACHE_LIMIT, or the
	// eviction walk could not free enough space. Spec §9 flags the
	// reference behavior of leaving waiters blocked forever as a defect;
	// this implementation wakes them with this error instead.
	ErrNegativeAdmission = errors.New("resultcache: value rejected by admission control")

	// ErrSpillInvariant marks a programmer fault: an attempt to spill a
	// nil value, a scalar, or an entry already marked for removal.
	ErrSpillInvariant = errors.New("resultcache: spill invariant violated")

	// ErrMultiOutputAborted is returned by PutValueMulti when the commit
	// phase determines the call's placeholders must be removed rather
	// than filled (a bound variable went missing, or its lineage is
	// tainted by a random-data-generator input).
	ErrMultiOutputAborted = errors.New("resultcache: multi-output commit aborted")

	// ErrCacheReset wakes any waiter still parked on an entry's monitor
	// when Reset tears the cache down from under it.
	ErrCacheReset = errors.New("resultcache: cache was reset")

	// ErrNotFound is returned by GetMatrix/GetScalar when key names
	// neither a live entry nor a spilled one.
	ErrNotFound = errors.New("resultcache: key not present")
)

// IOError wraps a disk fault encountered during spill or reload (spec §7).
// Cache invariants are always restored before it is returned: the affected
// entry is removed from the live map and its bytes are deducted.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("resultcache: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func newIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: errors.Wrapf(err, "resultcache io: %s", op)}
}
