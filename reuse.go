package resultcache

/*
TryReuseSingle is C7's try_reuse (spec §4.1): the single-output reuse
coordinator consulted before an instruction executes.

  - Ineligible instructions (instr.Eligible() == false) are a silent no-op:
    they are never probed, never cached.
  - In FULL or MULTILEVEL mode, the exact lineage key is probed first.
  - If that misses and PARTIAL mode is active, the installed Rewriter gets
    a chance to rewrite the plan into one whose lineage does hit; only if
    it reports success is the key probed again.
  - If still a miss and the instruction is MarkedForCaching, a placeholder
    is installed so the instruction's eventual PutValueSingle has somewhere
    to land, and so concurrent producers of the same lineage block on one
    another instead of racing (spec §4.2).

A true hit blocks on the entry's monitor if a concurrent producer is still
filling it (spec §4.2's placeholder protocol), then binds the result into
ctx and reports true. A miss reports false and installs nothing if
MarkedForCaching is false.
*/
func (c *Cache) TryReuseSingle(instr Instruction, ctx ExecutionContext) (bool, error) {
	if c.cfg.ReuseMode == ModeNone || !instr.Eligible() {
		return false, nil
	}

	key := instr.Lineage()

	c.mu.Lock()
	var hit *Entry
	if c.cfg.ReuseMode.allowsFull() {
		hit = c.probeGrabLocked(key)
	}
	if hit == nil && c.cfg.ReuseMode.allowsPartial() && c.rewriter != nil {
		if c.rewriter.ExecuteRewrites(instr, ctx) {
			hit = c.probeGrabLocked(key)
		}
	}
	if hit == nil && instr.MarkedForCaching() {
		if _, exists := c.entries[key]; !exists {
			e := newEmptyEntry(key, instr.Kind())
			c.entries[key] = e
			c.pushFrontLocked(e)
		}
	}
	c.mu.Unlock()

	if hit == nil {
		c.stats.incMisses()
		return false, nil
	}

	if err := c.bindHit(instr.OutputName(), hit, ctx); err != nil {
		c.stats.incMisses()
		return false, err
	}
	c.stats.incHits()
	return true, nil
}

func (c *Cache) bindHit(name string, hit *Entry, ctx ExecutionContext) error {
	switch hit.kind {
	case MatrixKind:
		m, err := hit.getMatrix()
		if err != nil {
			return err
		}
		ctx.BindMatrixOutput(name, m.AcquireRead(), hit.key)
	case ScalarKind:
		s, err := hit.getScalar()
		if err != nil {
			return err
		}
		ctx.BindScalarOutput(name, s, hit.key)
	}
	return nil
}

// PutMatrixSingle fills instr's placeholder with m directly, without
// requiring the caller to have already bound it into ctx. This is the
// "put_matrix_single" sugar of spec §4.1.
func (c *Cache) PutMatrixSingle(instr Instruction, computeTimeNS int64, m MatrixBlock) error {
	return c.putValueSingle(instr.Lineage(), Value{Kind: MatrixKind, Matrix: m}, computeTimeNS)
}

// PutScalarSingle is PutMatrixSingle's scalar twin.
func (c *Cache) PutScalarSingle(instr Instruction, computeTimeNS int64, s Scalar) error {
	return c.putValueSingle(instr.Lineage(), Value{Kind: ScalarKind, Scalar: s}, computeTimeNS)
}

// PutValueSingle is the generic form of put() (spec §4.1): it reads
// instr's output value back out of ctx — where the runtime already bound
// it after actually executing the instruction — and fills the placeholder
// with it. If ctx has nothing bound under that name there is nothing to
// cache and this is a silent no-op.
func (c *Cache) PutValueSingle(instr Instruction, ctx ExecutionContext, computeTimeNS int64) error {
	v, ok := ctx.GetVariable(instr.OutputName())
	if !ok {
		return nil
	}
	return c.putValueSingle(instr.Lineage(), v, computeTimeNS)
}

/*
putValueSingle locates the placeholder installed for key (if any — an
instruction that wasn't MarkedForCaching never had one, so this is a
no-op), admits the value's bytes, and either fills the entry or, on a
failed admission, removes it from the map and wakes any waiters with
ErrNegativeAdmission (spec §9's corrected behavior — the reference
implementation this is grounded on leaves waiters blocked forever, which
spec §9 itself flags as a defect).
*/
func (c *Cache) putValueSingle(key Lineage, value Value, computeTimeNS int64) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.statusSnapshot() != StatusEmpty {
		// No placeholder, or a producer already filled it: nothing to do.
		c.mu.Unlock()
		return nil
	}

	bytes := sizeOfValue(value)
	if !c.admitsValueLocked(value, bytes) {
		c.removeEntryLocked(e)
		c.mu.Unlock()
		c.stats.incNegativeAdmissions()
		e.setFailed(ErrNegativeAdmission)
		return ErrNegativeAdmission
	}

	e.setValue(value, computeTimeNS)
	c.cacheBytes += bytes
	c.mu.Unlock()
	return nil
}

func sizeOfValue(v Value) int64 {
	if v.Kind == ScalarKind {
		return scalarEntryBytes
	}
	if v.Matrix == nil {
		return 0
	}
	return v.Matrix.InMemoryBytes()
}
