// Package config loads the hardware settings that parametrize the
// reuse-distance engine: the six tunables that live in
// configurations/current.conf, plus the fixed hardware constants that are
// compiled in (not re-derived per run, matching the original model).
package config

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sarchlab/fermicache/sethash"
)

// Fixed hardware constants. The distilled model hard-codes these; nothing
// in §6's configuration file overrides them.
const (
	NumCores         = 1
	WarpSize         = 32
	MaxActiveThreads = 1536
	MaxActiveBlocks  = 8
	NonMemLatency    = 0
	StackExtraSize   = 256
)

// Settings holds the cache/GPU hardware parameters threaded through the
// engine. It replaces the original tool's file-scoped globals.
type Settings struct {
	LineSize         uint
	CacheBytes       uint
	CacheLines       uint
	CacheWays        uint
	CacheSets        uint
	NumMSHR          uint
	NumCores         uint
	WarpSize         uint
	MaxActiveThreads uint
	MaxActiveBlocks  uint
	MemLatency       uint
	MemLatencyStddev uint

	// HashMode selects the line-address-to-set mapping. Defaults to Fermi,
	// matching the original tool's compiled-in MAPPING_TYPE.
	HashMode sethash.Mode
}

// Load reads the six-line "identifier value" configuration format from
// path and fills in the fixed hardware constants.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("open settings file %q: %w", path, err)
	}
	defer f.Close()

	fields := map[string]*uint{}
	var lineSize, cacheBytes, cacheWays, numMSHR, memLatency, memLatencyStddev uint
	fields["line_size"] = &lineSize
	fields["cache_bytes"] = &cacheBytes
	fields["cache_ways"] = &cacheWays
	fields["num_mshr"] = &numMSHR
	fields["mem_latency"] = &memLatency
	fields["mem_latency_stddev"] = &memLatencyStddev

	order := []string{"line_size", "cache_bytes", "cache_ways", "num_mshr", "mem_latency", "mem_latency_stddev"}

	scanner := bufio.NewScanner(f)
	for _, want := range order {
		if !scanner.Scan() {
			return Settings{}, fmt.Errorf("settings file %q: missing field %q", path, want)
		}

		var identifier string
		var value uint
		if _, err := fmt.Sscanf(scanner.Text(), "%s %d", &identifier, &value); err != nil {
			return Settings{}, fmt.Errorf("settings file %q: parse field %q: %w", path, want, err)
		}

		*fields[want] = value
	}

	if lineSize == 0 || cacheWays == 0 {
		return Settings{}, fmt.Errorf("settings file %q: line_size and cache_ways must be positive", path)
	}

	s := Settings{
		LineSize:         lineSize,
		CacheBytes:       cacheBytes,
		CacheLines:       cacheBytes / lineSize,
		CacheWays:        cacheWays,
		CacheSets:        cacheBytes / (lineSize * cacheWays),
		NumMSHR:          numMSHR,
		NumCores:         NumCores,
		WarpSize:         WarpSize,
		MaxActiveThreads: MaxActiveThreads,
		MaxActiveBlocks:  MaxActiveBlocks,
		MemLatency:       memLatency,
		MemLatencyStddev: memLatencyStddev,
		HashMode:         sethash.Fermi,
	}

	return s, nil
}
