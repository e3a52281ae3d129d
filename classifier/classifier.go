// Package classifier runs the reuse-distance engine under four hardware
// configurations and decomposes the resulting miss counts into compulsory,
// capacity, associativity, latency and MSHR components (C8). Grounded in
// model.cpp's four-case driving loop and io.cpp's output_miss_rate.
package classifier

import (
	"math/rand"
	"sync"

	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/engine"
	"github.com/sarchlab/fermicache/trace"
)

// NumCases is the number of hardware configurations the classifier runs:
// normal, fully-associative, latency-free, unlimited-MSHR.
const NumCases = 4

// Case identifies one of the four classifier configurations.
type Case int

const (
	CaseNormal            Case = 0
	CaseFullAssociativity Case = 1
	CaseNoLatency         Case = 2
	CaseUnlimitedMSHR     Case = 3
)

// infiniteMSHR stands in for "no MSHR limit": large enough that the
// backpressure check in the engine never triggers.
const infiniteMSHR = 1 << 30

// RunCases simulates all four configurations and returns one histogram per
// case, indexed by Case. The four runs touch only immutable inputs (the
// scheduled warp/block/core hierarchy) plus a private clone of the thread
// program counters, so they run concurrently; seed makes the concurrent
// run reproducible by deriving one independent sub-seed per case up front.
func RunCases(
	core []uint,
	blocks, warps [][]uint,
	threads []*trace.Thread,
	activeBlocks uint,
	hw config.Settings,
	seed int64,
) [NumCases]engine.Histogram {
	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, NumCases)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	var results [NumCases]engine.Histogram
	var wg sync.WaitGroup
	for i := 0; i < NumCases; i++ {
		wg.Add(1)
		go func(c Case) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seeds[c]))
			results[c] = runCase(c, core, blocks, warps, threads, activeBlocks, hw, rng)
		}(Case(i))
	}
	wg.Wait()

	return results
}

// runCase clones the thread set so this case's scheduling cursor doesn't
// race with the other three, then simulates it under the given case's
// settings variant.
func runCase(
	c Case,
	core []uint,
	blocks, warps [][]uint,
	threads []*trace.Thread,
	activeBlocks uint,
	hw config.Settings,
	rng *rand.Rand,
) engine.Histogram {
	cloned := make([]*trace.Thread, len(threads))
	for i, th := range threads {
		cloned[i] = th.Clone()
	}

	p := engine.FromSettings(hw)

	switch c {
	case CaseFullAssociativity:
		p.CacheSets = 1
		p.CacheWays = hw.CacheWays * hw.CacheSets
	case CaseNoLatency:
		p.MemLatency = 0
		hw.MemLatencyStddev = 0
	case CaseUnlimitedMSHR:
		p.NumMSHR = infiniteMSHR
	}

	return engine.Run(core, blocks, warps, cloned, activeBlocks, hw, p, rng)
}
