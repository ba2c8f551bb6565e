package resultcache

import (
	"encoding"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Kind distinguishes the two value shapes the cache stores. It is immutable
// once an Entry is constructed.
type Kind int

const (
	MatrixKind Kind = iota
	ScalarKind
)

func (k Kind) String() string {
	if k == ScalarKind {
		return "scalar"
	}
	return "matrix"
}

// Status is an Entry's lifecycle state.
type Status int

const (
	// StatusEmpty marks a placeholder: no value has been produced yet.
	StatusEmpty Status = iota
	// StatusCached marks a value ready to be handed to callers.
	StatusCached
	// StatusReloaded marks an entry just read back from the spill store.
	// It behaves exactly like StatusCached for every purpose except that
	// the eviction walk can use it as a thrash signal; the first
	// subsequent read promotes it to StatusCached (see Entry.getMatrix and
	// Entry.getScalar).
	StatusReloaded
	// StatusToRemove marks an entry that failed to admit; its waiters have
	// been woken with an error and it is no longer reachable from the map.
	StatusToRemove
)

// Lineage is the opaque fingerprint of a deterministic computation: an
// operator identity plus its transitive inputs. Two Lineage values compare
// equal with == iff they denote the same computation, so Lineage is used
// directly as a map key. Construction is the cache's only opinion about how
// a fingerprint is derived; callers outside this package normally obtain a
// Lineage from the runtime's own lineage-item type via an adapter, not by
// calling NewLineage themselves.
type Lineage struct {
	op     uint64
	inputs uint64
	id     int64
}

// NewLineage derives a Lineage from an operator signature string and the
// lineage items of its transitive inputs, in order. The same (op, inputs)
// pair always yields the same Lineage.
func NewLineage(op string, inputs ...Lineage) Lineage {
	opHash := xxhash.Sum64String(op)

	d := xxhash.New()
	for _, in := range inputs {
		var buf [16]byte
		putUint64(buf[0:8], in.op)
		putUint64(buf[8:16], in.inputs)
		_, _ = d.Write(buf[:])
	}
	inputHash := d.Sum64()

	return Lineage{
		op:     opHash,
		inputs: inputHash,
		id:     int64(opHash ^ inputHash),
	}
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// ID returns the integer identity used for spill file naming (spec §4.6,
// §6: "filenames are <lineage_id> under a per-process unique directory").
func (l Lineage) ID() int64 { return l.id }

// Hash returns a hash of the fingerprint, used only for logging and
// sharding hints — never for equality, which is always Go's native ==.
func (l Lineage) Hash() uint64 { return l.op ^ l.inputs }

func (l Lineage) String() string {
	return fmt.Sprintf("lineage(%x)", uint64(l.id))
}

// Scalar is the SCALAR value shape of spec §3.
type Scalar float64

// MatrixBlock is the external collaborator contract of spec §6: "in-memory
// byte size; on-disk byte size given (rows, cols, nnz); sparse-format
// predicate; acquire-read-and-release for zero-copy handoff." Serialization
// for spill piggybacks on encoding.BinaryMarshaler, the idiomatic Go
// interface for "give me your bytes" — the concrete wire format remains the
// host runtime's, entirely out of this package's scope (spec §1).
type MatrixBlock interface {
	encoding.BinaryMarshaler

	// InMemoryBytes is the footprint counted toward cache_bytes.
	InMemoryBytes() int64
	// Dims reports the shape used to estimate on-disk size and sparsity.
	Dims() (rows, cols, nnz int64)
	// OnDiskBytes is the serialized footprint for the given shape.
	OnDiskBytes(rows, cols, nnz int64) int64
	// Sparse reports whether this block uses a sparse on-disk format.
	Sparse() bool
	// AcquireRead returns a handle safe for a reader to hold without
	// racing a concurrent in-place mutation of the original block; it may
	// return the receiver itself for immutable implementations.
	AcquireRead() MatrixBlock
	// ReleaseRead releases a handle obtained from AcquireRead.
	ReleaseRead()
	// Marked reports whether this block's owning object has been
	// externally marked read-write-safe for caching (spec §4.8
	// comp_assume_read_write: "only admit matrix entries whose owning
	// object is externally marked"). Consulted only when Config's
	// CompAssumeReadWrite is set; otherwise every matrix is admissible
	// regardless of what this returns.
	Marked() bool
}

// MatrixDecoder reconstructs a MatrixBlock from bytes written by a prior
// MarshalBinary call, used when reloading a spilled entry (spec §4.6).
type MatrixDecoder func(data []byte) (MatrixBlock, error)

// Value is the payload a placeholder is eventually filled with: at most one
// of Matrix/Scalar is meaningful, selected by Kind (spec §3 invariant 3).
type Value struct {
	Kind   Kind
	Matrix MatrixBlock
	Scalar Scalar
}

// Instruction is the external collaborator contract for the instruction the
// runtime is about to execute (spec §6: "reuse-eligibility predicate;
// lineage-items accessor; output name").
type Instruction interface {
	// Eligible reports whether this instruction may ever be served from,
	// or admitted to, the cache.
	Eligible() bool
	// MarkedForCaching reports whether a miss should install a
	// placeholder (some eligible instructions are probe-only).
	MarkedForCaching() bool
	// Kind reports the output's value shape.
	Kind() Kind
	// Lineage returns this instruction's lineage key.
	Lineage() Lineage
	// OutputName is the execution-context variable name the result binds
	// to on a hit.
	OutputName() string
}

// ExecutionContext is the external collaborator contract of spec §6:
// "get/set/remove named variable; bind matrix and scalar outputs; attach
// lineage to a name; cleanup a replaced data object."
type ExecutionContext interface {
	GetVariable(name string) (Value, bool)
	SetVariable(name string, v Value)
	RemoveVariable(name string)
	// CurrentLineage returns the lineage currently attached to a bound
	// variable, used by the multi-output commit to record origin_key.
	CurrentLineage(name string) (Lineage, bool)
	BindMatrixOutput(name string, m MatrixBlock, lineage Lineage)
	BindScalarOutput(name string, s Scalar, lineage Lineage)
	AttachLineage(name string, l Lineage)
	// CleanupReplaced releases whatever data object a name previously
	// pointed at, called after ownership of its value moves elsewhere.
	CleanupReplaced(name string)
}

// Rewriter is the partial-reuse compensation-plan collaborator of spec §6:
// "execute_rewrites(instr, ctx) -> bool". The cache only consults this
// boolean; it never constructs or inspects the rewritten plan itself.
type Rewriter interface {
	ExecuteRewrites(instr Instruction, ctx ExecutionContext) bool
}

// LineageUtils is the tainting-predicate collaborator of spec §6:
// "contains_rand_data_gen(inputs_set, root)".
type LineageUtils interface {
	ContainsRandDataGen(inputs []Lineage, root Lineage) bool
}
