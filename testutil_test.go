package resultcache

// fakeMatrix is a minimal MatrixBlock used across this package's tests — a
// stand-in for whatever concrete block type the host runtime actually uses.
type fakeMatrix struct {
	rows, cols, nnz int64
	sparse          bool
	bytes           int64
	payload         []byte
	marked          bool
}

func newFakeMatrix(rows, cols int64, bytes int64) *fakeMatrix {
	return &fakeMatrix{rows: rows, cols: cols, nnz: rows * cols, bytes: bytes, payload: make([]byte, bytes), marked: true}
}

func (m *fakeMatrix) MarshalBinary() ([]byte, error)   { return m.payload, nil }
func (m *fakeMatrix) InMemoryBytes() int64             { return m.bytes }
func (m *fakeMatrix) Dims() (int64, int64, int64)      { return m.rows, m.cols, m.nnz }
func (m *fakeMatrix) OnDiskBytes(r, c, n int64) int64  { return m.bytes }
func (m *fakeMatrix) Sparse() bool                     { return m.sparse }
func (m *fakeMatrix) AcquireRead() MatrixBlock         { return m }
func (m *fakeMatrix) ReleaseRead()                     {}
func (m *fakeMatrix) Marked() bool                     { return m.marked }

func fakeMatrixDecoder(data []byte) (MatrixBlock, error) {
	return &fakeMatrix{bytes: int64(len(data)), payload: data}, nil
}

// fakeInstruction is a minimal Instruction.
type fakeInstruction struct {
	eligible bool
	marked   bool
	kind     Kind
	lineage  Lineage
	output   string
}

func (i *fakeInstruction) Eligible() bool         { return i.eligible }
func (i *fakeInstruction) MarkedForCaching() bool { return i.marked }
func (i *fakeInstruction) Kind() Kind             { return i.kind }
func (i *fakeInstruction) Lineage() Lineage       { return i.lineage }
func (i *fakeInstruction) OutputName() string     { return i.output }

// fakeCtx is a minimal ExecutionContext backed by plain maps.
type fakeCtx struct {
	vars     map[string]Value
	lineages map[string]Lineage
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{vars: make(map[string]Value), lineages: make(map[string]Lineage)}
}

func (c *fakeCtx) GetVariable(name string) (Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *fakeCtx) SetVariable(name string, v Value) {
	c.vars[name] = v
}

func (c *fakeCtx) RemoveVariable(name string) {
	delete(c.vars, name)
}

func (c *fakeCtx) CurrentLineage(name string) (Lineage, bool) {
	l, ok := c.lineages[name]
	return l, ok
}

func (c *fakeCtx) BindMatrixOutput(name string, m MatrixBlock, lineage Lineage) {
	c.vars[name] = Value{Kind: MatrixKind, Matrix: m}
	c.lineages[name] = lineage
}

func (c *fakeCtx) BindScalarOutput(name string, s Scalar, lineage Lineage) {
	c.vars[name] = Value{Kind: ScalarKind, Scalar: s}
	c.lineages[name] = lineage
}

func (c *fakeCtx) AttachLineage(name string, l Lineage) {
	c.lineages[name] = l
}

func (c *fakeCtx) CleanupReplaced(name string) {}

// fakeLineageUtils never flags anything as tainted unless told to.
type fakeLineageUtils struct {
	tainted map[Lineage]bool
}

func (u *fakeLineageUtils) ContainsRandDataGen(inputs []Lineage, root Lineage) bool {
	return u.tainted[root]
}
