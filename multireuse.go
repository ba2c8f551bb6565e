package resultcache

import "fmt"

// deriveOutputLineage derives output i's lineage key from the function
// call's identity and its transitive inputs (spec §4.7): each output of a
// multi-return function gets its own lineage, distinguished from its
// siblings by position.
func deriveOutputLineage(funcName string, index int, liInputs []Lineage) Lineage {
	return NewLineage(fmt.Sprintf("%s#%d", funcName, index+1), liInputs...)
}

/*
TryReuseMulti is C8's try_reuse_multi (spec §4.7): the all-or-nothing
probe/install half of the multi-output reuse protocol for a function call
with k named outputs.

Every output's lineage is probed; any miss installs a placeholder for that
output and the whole call reports false — a multi-output function call
bound together by one computation can't have only some of its outputs
served from cache while the rest are recomputed by running the function
again, since the function would just rederive the same lineage-determined
values for the outputs that already hit. Only when every output hits does
this bind all k results into ctx and report true, letting the runtime skip
executing the call entirely.
*/
func (c *Cache) TryReuseMulti(outNames []string, outKinds []Kind, liInputs []Lineage, funcName string, ctx ExecutionContext) (bool, error) {
	if !c.cfg.ReuseMode.allowsMulti() {
		return false, nil
	}
	k := len(outNames)
	keys := make([]Lineage, k)
	hits := make([]*Entry, k)
	allHit := true

	c.mu.Lock()
	for i := 0; i < k; i++ {
		keys[i] = deriveOutputLineage(funcName, i, liInputs)
		if e := c.probeGrabLocked(keys[i]); e != nil {
			hits[i] = e
			continue
		}
		allHit = false
		if _, exists := c.entries[keys[i]]; !exists {
			e := newEmptyEntry(keys[i], outKinds[i])
			c.entries[keys[i]] = e
			c.pushFrontLocked(e)
		}
	}
	c.mu.Unlock()

	if !allHit {
		c.stats.incMultiMisses()
		return false, nil
	}

	for i := 0; i < k; i++ {
		if err := c.bindHit(outNames[i], hits[i], ctx); err != nil {
			c.stats.incMultiMisses()
			return false, err
		}
		if origin, ok := hits[i].originSnapshot(); ok {
			ctx.AttachLineage(outNames[i], origin)
		} else {
			ctx.AttachLineage(outNames[i], keys[i])
		}
	}
	c.stats.incMultiHits()
	return true, nil
}

/*
PutValueMulti is C8's put_value_multi (spec §4.7): the commit half of the
multi-output protocol, called once the runtime has actually executed the
function and bound its k outputs into ctx under outParams.

For each output it re-derives the same lineage TryReuseMulti would have
used, reads the bound variable's current value and lineage out of ctx, and
checks it isn't tainted by a random-data-generator input (via the
LineageUtils collaborator) — an output derived from nondeterministic input
can never be safely reused, so it must not be committed to the cache. If
any output is missing from ctx or any is tainted, the whole call aborts:
every placeholder this call would have filled is removed and its waiters
are woken with ErrMultiOutputAborted, and entries already CACHED by a
racing caller are left untouched. Otherwise every output is committed
together, all-or-nothing against admission: if any output's value can't be
admitted, every output already committed by this call is rolled back before
reporting the failure, so a half-cached tuple of outputs is never left in
the cache (a goroutine already parked on one of the rolled-back
placeholders still receives the value it was filled with).
*/
func (c *Cache) PutValueMulti(outParams []string, liInputs []Lineage, funcName string, ctx ExecutionContext, computeTimeNS int64) error {
	k := len(outParams)
	keys := make([]Lineage, k)
	for i := range outParams {
		keys[i] = deriveOutputLineage(funcName, i, liInputs)
	}

	values := make([]Value, k)
	origins := make([]Lineage, k)
	commit := true
	for i := 0; i < k; i++ {
		v, ok := ctx.GetVariable(outParams[i])
		if !ok {
			commit = false
			break
		}
		origin, _ := ctx.CurrentLineage(outParams[i])
		if c.lineageUtils != nil && c.lineageUtils.ContainsRandDataGen(liInputs, origin) {
			commit = false
			break
		}
		values[i] = v
		origins[i] = origin
	}

	c.mu.Lock()
	entries := make([]*Entry, k)
	for i := 0; i < k; i++ {
		entries[i] = c.entries[keys[i]]
	}

	if !commit {
		c.abortMultiLocked(entries)
		c.mu.Unlock()
		return ErrMultiOutputAborted
	}

	ok := c.commitMultiLocked(entries, values, origins, computeTimeNS)
	c.mu.Unlock()
	if !ok {
		return ErrNegativeAdmission
	}

	for i := 0; i < k; i++ {
		ctx.CleanupReplaced(outParams[i])
		ctx.RemoveVariable(outParams[i])
	}
	return nil
}

// abortMultiLocked removes every placeholder this call installed (entries
// still StatusEmpty) and wakes their waiters with ErrMultiOutputAborted. An
// entry that already holds a value (CACHED by a racing caller's successful
// commit, or RELOADED from spill) is left alone. Must be called holding c.mu.
func (c *Cache) abortMultiLocked(entries []*Entry) {
	for _, e := range entries {
		if e != nil && e.statusSnapshot() == StatusEmpty {
			c.removeEntryLocked(e)
		}
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		if st := e.statusSnapshot(); st != StatusCached && st != StatusReloaded {
			e.setFailed(ErrMultiOutputAborted)
		}
	}
}

// commitMultiLocked fills every placeholder in entries with its
// corresponding value, all-or-nothing against admission. An entry already
// StatusCached (filled by a racing caller ahead of this one) or
// StatusReloaded (read back from spill) is left as-is — lineage-keyed
// equality guarantees its value is what this call would have produced
// anyway. Must be called holding c.mu.
func (c *Cache) commitMultiLocked(entries []*Entry, values []Value, origins []Lineage, computeTimeNS int64) bool {
	type filled struct {
		e     *Entry
		bytes int64
	}
	var done []filled

	rollback := func() {
		for _, f := range done {
			c.removeEntryLocked(f.e)
		}
		for _, e := range entries {
			if e == nil {
				continue
			}
			if st := e.statusSnapshot(); st != StatusCached && st != StatusReloaded {
				c.removeEntryLocked(e)
				e.setFailed(ErrNegativeAdmission)
			}
		}
	}

	for i, e := range entries {
		if e == nil {
			rollback()
			return false
		}
		if st := e.statusSnapshot(); st == StatusCached || st == StatusReloaded {
			continue
		}
		bytes := sizeOfValue(values[i])
		if !c.admitsValueLocked(values[i], bytes) {
			rollback()
			return false
		}
		e.setValueWithOrigin(values[i], computeTimeNS, origins[i])
		c.cacheBytes += bytes
		done = append(done, filled{e: e, bytes: bytes})
	}
	return true
}
