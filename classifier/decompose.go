package classifier

import (
	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/engine"
)

// Breakdown decomposes a kernel's modeled misses into the five causes the
// four classifier runs distinguish, plus the headline hit/miss totals.
type Breakdown struct {
	TotalAccesses uint32
	Hits          uint32

	Compulsory    uint32
	Capacity      uint32
	Associativity uint32
	Latency       uint32
	MSHR          uint32

	// TotalAssociativityMisses, TotalLatencyMisses and TotalMSHRMisses are
	// the raw per-case miss totals (cases 1-3) the decomposition above was
	// derived from.
	TotalAssociativityMisses uint32
	TotalLatencyMisses       uint32
	TotalMSHRMisses          uint32

	MissRate float64 // percent
}

// Decompose turns the four per-case histograms into a Breakdown. A
// distance exactly equal to cache_ways is, deliberately, not counted as a
// capacity miss here even though the engine that produced these
// histograms treated it as a miss when simulating: the engine's
// admission test is distance >= cache_ways, but this classification step
// tests distance > cache_ways, so that boundary access is simulated as a
// miss and reported as a hit. This mirrors the original model's
// output_miss_rate exactly and is not a bug to fix.
func Decompose(histograms [NumCases]engine.Histogram, hw config.Settings) Breakdown {
	var missCompulsory, missCapacity, miss [NumCases]int64
	var hits int64

	for i := 0; i < NumCases; i++ {
		cacheWays := hw.CacheWays
		if Case(i) == CaseFullAssociativity {
			cacheWays = hw.CacheWays * hw.CacheSets
		}

		for distance, count := range histograms[i] {
			switch {
			case distance == uint32(engine.Infinite):
				missCompulsory[i] += int64(count)
			case distance > uint32(cacheWays):
				missCapacity[i] += int64(count)
			case i == int(CaseNormal):
				hits += int64(count)
			}
		}

		miss[i] = missCompulsory[i] + missCapacity[i]
	}

	normal, fullAssoc, noLatency, unlimitedMSHR := CaseNormal, CaseFullAssociativity, CaseNoLatency, CaseUnlimitedMSHR

	missAssociativity := miss[normal] - miss[fullAssoc]
	missLatency := missCompulsory[normal] - missCompulsory[noLatency]
	missMSHR := miss[normal] - miss[unlimitedMSHR]
	compulsoryFinal := missCompulsory[noLatency]

	rest := miss[normal] - (compulsoryFinal + max0(missLatency) + max0(missAssociativity) + max0(missMSHR))
	capacityFinal := max0(rest)

	if rest < 0 {
		switch {
		case missMSHR > -rest:
			missMSHR -= rest
		case missLatency > -rest:
			missLatency -= rest
		default:
			missAssociativity -= rest
		}
	}

	totalMisses := miss[normal]
	totalAccesses := totalMisses + hits
	var missRate float64
	if totalAccesses > 0 {
		missRate = 100 * float64(totalMisses) / float64(totalAccesses)
	}

	return Breakdown{
		TotalAccesses:            uint32(totalAccesses),
		Hits:                     uint32(hits),
		Compulsory:               uint32(compulsoryFinal),
		Capacity:                 uint32(capacityFinal),
		Associativity:            uint32(max0(missAssociativity)),
		Latency:                  uint32(max0(missLatency)),
		MSHR:                     uint32(max0(missMSHR)),
		TotalAssociativityMisses: uint32(miss[fullAssoc]),
		TotalLatencyMisses:       uint32(miss[noLatency]),
		TotalMSHRMisses:          uint32(miss[unlimitedMSHR]),
		MissRate:                 missRate,
	}
}

func max0(x int64) int64 {
	if x > 0 {
		return x
	}
	return 0
}
