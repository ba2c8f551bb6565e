package resultcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

/*
Option configures a Cache at construction time, following the same
functional-options pattern the teacher used for its own cleanup-interval
knob:

    cache := New(
        WithConfig(cfg),
        WithLogger(logger),
        WithRegisterer(prometheus.DefaultRegisterer),
    )

Each Option mutates the Cache before New finishes deriving CACHE_LIMIT and
constructing the bandwidth estimator and stats, so options that affect those
derivations (WithConfig) take effect no matter where they appear in the
argument list.
*/
type Option func(*Cache)

// WithConfig sets the reuse mode, spill policy, and sizing thresholds of
// spec §4.8 (C10). Without it, New uses DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(c *Cache) { c.cfg = cfg }
}

// WithLogger sets the structured logger used for spill faults and other
// diagnostics. Without it, New uses a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithRegisterer enables Prometheus metrics (C9) by registering the
// counters newStats builds against reg. Without it, stats are tracked
// in-process only; every counting method still runs.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) { c.registerer = reg }
}

// WithMatrixDecoder supplies the function used to reconstruct a MatrixBlock
// from spilled bytes on reload (spec §4.6). Required if spill is enabled
// and any matrix is ever evicted; a cache that never spills matrices (e.g.
// SpillEnabled=false, or a workload with no matrix outputs) can omit it.
func WithMatrixDecoder(dec MatrixDecoder) Option {
	return func(c *Cache) { c.matrixDecoder = dec }
}

// WithRewriter installs the partial-reuse compensation-plan collaborator
// (spec §6). Required only when Config.ReuseMode allows partial reuse.
func WithRewriter(r Rewriter) Option {
	return func(c *Cache) { c.rewriter = r }
}

// WithLineageUtils installs the tainting predicate used by the multi-output
// commit (spec §4.7). Required only when Config.ReuseMode allows multi
// reuse.
func WithLineageUtils(u LineageUtils) Option {
	return func(c *Cache) { c.lineageUtils = u }
}

// WithSpillBaseDir overrides the parent directory under which the spill
// store's per-process work directory is created (spec §6). Without it, the
// work directory is created under os.TempDir.
func WithSpillBaseDir(dir string) Option {
	return func(c *Cache) { c.spillBaseDir = dir }
}
