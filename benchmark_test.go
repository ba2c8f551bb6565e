package resultcache

import (
	"strconv"
	"testing"
)

// BenchmarkSingleReuseHit measures the cost of the hot path: a lineage
// already cached, probed and bound to a fresh output variable on every
// iteration.
func BenchmarkSingleReuseHit(b *testing.B) {
	c := New(WithConfig(DefaultConfig()), WithMatrixDecoder(fakeMatrixDecoder), WithSpillBaseDir(b.TempDir()))
	defer c.Close()

	li := NewLineage("hot-path")
	seed := &fakeInstruction{eligible: true, marked: true, kind: ScalarKind, lineage: li, output: "seed"}
	if _, err := c.TryReuseSingle(seed, newFakeCtx()); err != nil {
		b.Fatal(err)
	}
	if err := c.PutScalarSingle(seed, 1, Scalar(1)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		instr := &fakeInstruction{eligible: true, marked: true, kind: ScalarKind, lineage: li, output: "out"}
		if _, err := c.TryReuseSingle(instr, newFakeCtx()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSingleReuseMiss measures the cost of a fresh lineage every
// iteration: a placeholder install and nothing else.
func BenchmarkSingleReuseMiss(b *testing.B) {
	c := New(WithConfig(DefaultConfig()), WithMatrixDecoder(fakeMatrixDecoder), WithSpillBaseDir(b.TempDir()))
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		li := NewLineage("miss", NewLineage(strconv.Itoa(i)))
		instr := &fakeInstruction{eligible: true, marked: true, kind: ScalarKind, lineage: li, output: "out"}
		if _, err := c.TryReuseSingle(instr, newFakeCtx()); err != nil {
			b.Fatal(err)
		}
	}
}
