package main

import "github.com/Krishna8167/resultcache"

// demoInstruction is a minimal resultcache.Instruction: every instruction
// built by this demo is eligible and marked for caching, since the demo's
// only purpose is to exercise the cache's reuse paths end to end.
type demoInstruction struct {
	kind    resultcache.Kind
	lineage resultcache.Lineage
	output  string
}

func (i demoInstruction) Eligible() bool              { return true }
func (i demoInstruction) MarkedForCaching() bool      { return true }
func (i demoInstruction) Kind() resultcache.Kind      { return i.kind }
func (i demoInstruction) Lineage() resultcache.Lineage { return i.lineage }
func (i demoInstruction) OutputName() string          { return i.output }

// demoContext is a minimal resultcache.ExecutionContext backed by plain
// maps, standing in for the variable table a real dataflow runtime would
// already own.
type demoContext struct {
	vars     map[string]resultcache.Value
	lineages map[string]resultcache.Lineage
}

func newDemoContext() *demoContext {
	return &demoContext{
		vars:     make(map[string]resultcache.Value),
		lineages: make(map[string]resultcache.Lineage),
	}
}

func (c *demoContext) GetVariable(name string) (resultcache.Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *demoContext) SetVariable(name string, v resultcache.Value) {
	c.vars[name] = v
}

func (c *demoContext) RemoveVariable(name string) {
	delete(c.vars, name)
}

func (c *demoContext) CurrentLineage(name string) (resultcache.Lineage, bool) {
	l, ok := c.lineages[name]
	return l, ok
}

func (c *demoContext) BindMatrixOutput(name string, m resultcache.MatrixBlock, lineage resultcache.Lineage) {
	c.vars[name] = resultcache.Value{Kind: resultcache.MatrixKind, Matrix: m}
	c.lineages[name] = lineage
}

func (c *demoContext) BindScalarOutput(name string, s resultcache.Scalar, lineage resultcache.Lineage) {
	c.vars[name] = resultcache.Value{Kind: resultcache.ScalarKind, Scalar: s}
	c.lineages[name] = lineage
}

func (c *demoContext) AttachLineage(name string, l resultcache.Lineage) {
	c.lineages[name] = l
}

func (c *demoContext) CleanupReplaced(name string) {}
