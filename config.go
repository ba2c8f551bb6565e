package resultcache

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ReuseMode selects which reuse paths the cache honors (spec §4.8).
type ReuseMode int

const (
	ModeNone ReuseMode = iota
	ModeFull
	ModePartial
	ModeMultilevel
	ModeFullPartial
)

func (m ReuseMode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModePartial:
		return "partial"
	case ModeMultilevel:
		return "multilevel"
	case ModeFullPartial:
		return "full+partial"
	default:
		return "none"
	}
}

func parseReuseMode(s string) (ReuseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "full":
		return ModeFull, nil
	case "partial":
		return ModePartial, nil
	case "multilevel":
		return ModeMultilevel, nil
	case "full+partial", "fullpartial":
		return ModeFullPartial, nil
	default:
		return ModeNone, errors.Errorf("resultcache: unrecognized reuse_mode %q", s)
	}
}

// allowsFull reports whether the exact-lineage hit path of §4.1 is active.
func (m ReuseMode) allowsFull() bool {
	return m == ModeFull || m == ModeMultilevel || m == ModeFullPartial
}

// allowsPartial reports whether the compensation-rewriter hook is active.
func (m ReuseMode) allowsPartial() bool {
	return m == ModePartial || m == ModeFullPartial
}

// allowsMulti reports whether the §4.7 function-output protocol is active.
func (m ReuseMode) allowsMulti() bool {
	return m == ModeMultilevel
}

// Config is the configuration facade of spec §4.8 (C10).
type Config struct {
	ReuseMode ReuseMode
	// SpillEnabled, when false, makes the eviction walk always delete.
	SpillEnabled bool
	// CacheFraction is the fraction of MaxMemoryBytes reserved for
	// CACHE_LIMIT.
	CacheFraction float64
	// MinSpillTimeMS is the threshold of spec §4.5.
	MinSpillTimeMS float64
	// MinSpillDataMB is the minimum payload size before a bandwidth
	// sample is folded into the EMA (spec §4.6).
	MinSpillDataMB float64
	// CompAssumeReadWrite, if true, restricts matrix admission to
	// entries whose owning object is externally marked.
	CompAssumeReadWrite bool
	// MaxMemoryBytes is the basis CacheFraction is taken of. Zero means
	// "use the total bytes the Go runtime has obtained from the OS
	// (runtime.MemStats.Sys)", matching a process
	// that sizes its cache off of its own memory budget.
	MaxMemoryBytes int64
}

// DefaultConfig matches spec §4.8's documented defaults.
func DefaultConfig() Config {
	return Config{
		ReuseMode:      ModeFull,
		SpillEnabled:   true,
		CacheFraction:  0.05,
		MinSpillTimeMS: 100,
		MinSpillDataMB: 1,
	}
}

// CacheLimitBytes computes CACHE_LIMIT (spec §4.4).
func (c Config) CacheLimitBytes() int64 {
	base := c.MaxMemoryBytes
	if base <= 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		base = int64(ms.Sys)
		if base <= 0 {
			base = 1 << 30 // 1 GiB fallback when MemStats looks implausible
		}
	}
	return int64(float64(base) * c.CacheFraction)
}

// LoadConfig builds a Config from environment variables (prefixed
// RESULTCACHE_) and, optionally, a config file, using viper — grounded on
// the thirawat27-wut / Sumatoshi-tech-codefang pairing of viper with a
// small typed-options surface. Programmatic callers that don't need
// environment/file loading should just construct a Config literal or use
// DefaultConfig() with Option overrides instead; LoadConfig exists for the
// cmd/cachedemo CLI and similarly deployed embedders.
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("resultcache")
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("reuse_mode", defaults.ReuseMode.String())
	v.SetDefault("spill_enabled", defaults.SpillEnabled)
	v.SetDefault("cache_fraction", defaults.CacheFraction)
	v.SetDefault("min_spill_time_ms", defaults.MinSpillTimeMS)
	v.SetDefault("min_spill_data_mb", defaults.MinSpillDataMB)
	v.SetDefault("comp_assume_read_write", defaults.CompAssumeReadWrite)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "resultcache: loading config file %s", configFile)
		}
	}

	mode, err := parseReuseMode(v.GetString("reuse_mode"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		ReuseMode:           mode,
		SpillEnabled:        v.GetBool("spill_enabled"),
		CacheFraction:       v.GetFloat64("cache_fraction"),
		MinSpillTimeMS:      v.GetFloat64("min_spill_time_ms"),
		MinSpillDataMB:      v.GetFloat64("min_spill_data_mb"),
		CompAssumeReadWrite: v.GetBool("comp_assume_read_write"),
	}, nil
}

func (c Config) String() string {
	return fmt.Sprintf(
		"reuse_mode=%s spill_enabled=%t cache_fraction=%.3f min_spill_time_ms=%.0f min_spill_data_mb=%.1f",
		c.ReuseMode, c.SpillEnabled, c.CacheFraction, c.MinSpillTimeMS, c.MinSpillDataMB,
	)
}
