package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ApplyEnvOverrides loads envPath (if present) with godotenv and overrides
// any of the six tunable Settings fields that have a matching
// FERMICACHE_* environment variable. A missing envPath is not an error;
// benchmark automation that doesn't use a .env file simply gets none.
func ApplyEnvOverrides(s *Settings, envPath string) error {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load env overrides %q: %w", envPath, err)
		}
	}

	fields := map[string]*uint{
		"FERMICACHE_LINE_SIZE":          &s.LineSize,
		"FERMICACHE_CACHE_BYTES":        &s.CacheBytes,
		"FERMICACHE_CACHE_WAYS":         &s.CacheWays,
		"FERMICACHE_NUM_MSHR":           &s.NumMSHR,
		"FERMICACHE_MEM_LATENCY":        &s.MemLatency,
		"FERMICACHE_MEM_LATENCY_STDDEV": &s.MemLatencyStddev,
	}

	for name, field := range fields {
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", name, raw, err)
		}
		*field = uint(value)
	}

	s.CacheLines = s.CacheBytes / s.LineSize
	s.CacheSets = s.CacheBytes / (s.LineSize * s.CacheWays)

	return nil
}
