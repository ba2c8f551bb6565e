package resultcache

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Stats holds the runtime counters of spec §4.8 / C9 (hits, misses, writes,
reads — "optional... no effect on correctness"). The atomic counters are the
single source of truth; a non-nil prometheus.Registerer just mirrors them
via CounterFunc/GaugeFunc collectors so an embedding service can scrape them
alongside its own metrics, grounded on the Voskan-arena-cache /
IvanBrykalov-shardcache / FairForge-vaultaire go.mod pairing of a cache
component with prometheus/client_golang. A nil Registerer (the default)
disables registration entirely; every counting method still works.
*/
type Stats struct {
	hits, misses           atomic.Uint64
	evictions, spillWrites atomic.Uint64
	fsHits, fsWrites       atomic.Uint64
	multiHits, multiMisses atomic.Uint64
	negativeAdmissions     atomic.Uint64
	wouldHaveHits          atomic.Uint64
	bytesFn                func() float64
	collectors             []prometheus.Collector
}

// StatsSnapshot is a point-in-time copy returned by Cache.Snapshot, mirroring
// the teacher's own Stats() accessor shape.
type StatsSnapshot struct {
	Hits, Misses           uint64
	Evictions, SpillWrites uint64
	FSHits, FSWrites       uint64
	MultiHits, MultiMisses uint64
	NegativeAdmissions     uint64
	WouldHaveHits          uint64
	CacheBytes             int64
}

func newStats(reg prometheus.Registerer, bytesFn func() float64) *Stats {
	s := &Stats{bytesFn: bytesFn}
	if reg == nil {
		return s
	}

	counter := func(name, help string, load func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, load)
	}

	s.collectors = []prometheus.Collector{
		counter("resultcache_hits_total", "single-output reuse hits", func() float64 { return float64(s.hits.Load()) }),
		counter("resultcache_misses_total", "single-output reuse misses", func() float64 { return float64(s.misses.Load()) }),
		counter("resultcache_evictions_total", "entries deleted by the eviction walk", func() float64 { return float64(s.evictions.Load()) }),
		counter("resultcache_spill_writes_total", "entries spilled to disk", func() float64 { return float64(s.spillWrites.Load()) }),
		counter("resultcache_fs_hits_total", "reloads served from the spill store", func() float64 { return float64(s.fsHits.Load()) }),
		counter("resultcache_fs_writes_total", "spill writes to disk", func() float64 { return float64(s.fsWrites.Load()) }),
		counter("resultcache_multi_hits_total", "multi-output reuse hits", func() float64 { return float64(s.multiHits.Load()) }),
		counter("resultcache_multi_misses_total", "multi-output reuse misses", func() float64 { return float64(s.multiMisses.Load()) }),
		counter("resultcache_negative_admissions_total", "values rejected by admission control", func() float64 { return float64(s.negativeAdmissions.Load()) }),
		counter("resultcache_would_have_hits_total", "probes that missed only because the key was previously evicted (not spilled)", func() float64 { return float64(s.wouldHaveHits.Load()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "resultcache_bytes", Help: "current in-memory footprint"}, bytesFn),
	}
	for _, c := range s.collectors {
		_ = reg.Register(c) // a duplicate registration is not fatal to cache correctness
	}
	return s
}

func (s *Stats) incHits() {
	if s != nil {
		s.hits.Add(1)
	}
}

func (s *Stats) incMisses() {
	if s != nil {
		s.misses.Add(1)
	}
}

func (s *Stats) incEvictions() {
	if s != nil {
		s.evictions.Add(1)
	}
}

func (s *Stats) incSpillWrites() {
	if s != nil {
		s.spillWrites.Add(1)
		s.fsWrites.Add(1)
	}
}

func (s *Stats) incFSHits() {
	if s != nil {
		s.fsHits.Add(1)
	}
}

func (s *Stats) incMultiHits() {
	if s != nil {
		s.multiHits.Add(1)
	}
}

func (s *Stats) incMultiMisses() {
	if s != nil {
		s.multiMisses.Add(1)
	}
}

func (s *Stats) incNegativeAdmissions() {
	if s != nil {
		s.negativeAdmissions.Add(1)
	}
}

func (s *Stats) incWouldHaveHits() {
	if s != nil {
		s.wouldHaveHits.Add(1)
	}
}

func (s *Stats) snapshot(cacheBytes int64) StatsSnapshot {
	if s == nil {
		return StatsSnapshot{CacheBytes: cacheBytes}
	}
	return StatsSnapshot{
		Hits:               s.hits.Load(),
		Misses:             s.misses.Load(),
		Evictions:          s.evictions.Load(),
		SpillWrites:        s.spillWrites.Load(),
		FSHits:             s.fsHits.Load(),
		FSWrites:           s.fsWrites.Load(),
		MultiHits:          s.multiHits.Load(),
		MultiMisses:        s.multiMisses.Load(),
		NegativeAdmissions: s.negativeAdmissions.Load(),
		WouldHaveHits:      s.wouldHaveHits.Load(),
		CacheBytes:         cacheBytes,
	}
}
