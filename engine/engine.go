// Package engine implements the reuse-distance simulation loop (C7): an
// extended version of Bennett and Kruskal's reuse distance algorithm as
// refined by Almasi, Cascaval and Padua's partial sum-hierarchy tree,
// layered with the GPU's thread/warp/block hierarchy, non-uniform memory
// latency, cache associativity, and finite MSHRs. Grounded in
// reusedistance.cpp; keeps that file's P/B naming for the hash table and
// tree vector it inherits from the Almasi et al. paper.
package engine

import (
	"log"
	"math"
	"math/rand"

	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/reqbook"
	"github.com/sarchlab/fermicache/sethash"
	"github.com/sarchlab/fermicache/stacktree"
	"github.com/sarchlab/fermicache/trace"
	"github.com/sarchlab/fermicache/warppool"
)

// Infinite marks a reuse distance for an address seen for the first time:
// there is no previous occurrence to measure a distance against.
const Infinite = trace.Infinite

// stackExtraSize pads each set's stack-tree beyond its measured access
// count, giving room for the tree to grow as later warps add accesses the
// first coalescing-aware pass did not yet know about.
const stackExtraSize = 256

// Histogram maps a reuse distance to the number of accesses observed at
// that distance. Infinite is used as the key for compulsory misses.
type Histogram map[uint32]uint32

// Params bundles the knobs that vary between the four classifier
// configurations (set-associative, fully-associative, latency-free,
// unlimited MSHRs) on top of the fixed hardware settings.
type Params struct {
	CacheSets  uint
	CacheWays  uint
	MemLatency uint
	NumMSHR    uint
	HashMode   sethash.Mode
}

// FromSettings builds the default simulation parameters for a normal
// (non-classifier-variant) run.
func FromSettings(hw config.Settings) Params {
	return Params{
		CacheSets:  hw.CacheSets,
		CacheWays:  hw.CacheWays,
		MemLatency: hw.MemLatency,
		NumMSHR:    hw.NumMSHR,
		HashMode:   hw.HashMode,
	}
}

// Run simulates one core's worth of warps and returns the reuse-distance
// histogram accumulated across every set of active thread-blocks. core
// lists the ids of the blocks assigned to this core; blocks maps a block id
// to the warp ids it owns; warps maps a warp id to the thread ids it owns.
// activeBlocks bounds how many blocks are resident at once, round-robin.
func Run(
	core []uint,
	blocks [][]uint,
	warps [][]uint,
	threads []*trace.Thread,
	activeBlocks uint,
	hw config.Settings,
	p Params,
	rng *rand.Rand,
) Histogram {
	numTotalAccesses := countAccessesPerSet(threads, hw, p)

	grandTotal := uint32(0)
	for _, n := range numTotalAccesses {
		grandTotal += n
	}

	b := make([]*stacktree.Tree, p.CacheSets)
	for set := uint(0); set < p.CacheSets; set++ {
		b[set] = stacktree.New(numTotalAccesses[set] + stackExtraSize)
	}

	bigP := make(map[uint64]uint32) // P in the Almasi et al. paper
	distances := Histogram{}
	var timestamp uint32

	setCounters := make([]uint32, p.CacheSets)
	for set := range setCounters {
		setCounters[set] = 1
	}

	numSnums := ceilDiv(uint(len(core)), activeBlocks)
	for snum := uint(0); snum < numSnums; snum++ {
		pool := buildPool(core, blocks, snum, activeBlocks)
		pool.SetSize()

		requestsHit := newBookSet(p.CacheSets)
		requestsMiss := newBookSet(p.CacheSets)

		for !pool.IsDone() {
			numMissRequests := 0
			for _, book := range requestsMiss {
				numMissRequests += book.NumOutstanding()
			}

			if pool.HasWork() {
				runWarp(
					pool, warps, threads, hw, p, rng,
					requestsHit, requestsMiss, bigP, b, setCounters,
					distances, timestamp, numMissRequests,
				)
			}

			for set := uint(0); set < p.CacheSets; set++ {
				processRequests(requestsHit[set], timestamp, set, bigP, b, setCounters)
				processRequests(requestsMiss[set], timestamp, set, bigP, b, setCounters)
			}

			pool.Tick()
			timestamp++
		}
	}

	for _, th := range threads {
		th.Reset()
	}

	distancesTotal := uint32(0)
	for _, n := range distances {
		distancesTotal += n
	}
	if grandTotal != distancesTotal {
		log.Printf("engine: %d accesses scheduled but %d distances recorded", grandTotal, distancesTotal)
	}

	return distances
}

// runWarp pulls a single warp from the pool, issues its threads' next
// accesses (respecting coalescing and any MSHR backpressure), and either
// retires the warp or returns it to the pool with a computed delay.
func runWarp(
	pool *warppool.Pool,
	warps [][]uint,
	threads []*trace.Thread,
	hw config.Settings,
	p Params,
	rng *rand.Rand,
	requestsHit, requestsMiss []*reqbook.Book,
	bigP map[uint64]uint32,
	b []*stacktree.Tree,
	setCounters []uint32,
	distances Histogram,
	timestamp uint32,
	numMissRequests int,
) {
	wnum := pool.Take()
	warpThreads := warps[wnum]

	if len(warpThreads) == 0 {
		pool.Done++
		return
	}

	var maxFutureTime uint32
	threadsDone := 0

	bytes := threads[warpThreads[0]].NextBytes()
	portions := bytes / 4
	if portions < 1 {
		portions = 1
	}

	for warpPortion := uint(0); warpPortion < portions; warpPortion++ {
		tnumStart := warpPortion * (hw.WarpSize / portions)
		tnumStop := (warpPortion + 1) * (hw.WarpSize / portions)

		for tnum := tnumStart; tnum < tnumStop && tnum < uint(len(warpThreads)); tnum++ {
			tid := warpThreads[tnum]
			th := threads[tid]

			if th.IsDone() {
				threadsDone++
				continue
			}

			access := th.Schedule()
			if access.Width == 0 {
				continue
			}

			lineAddr := access.LineIndex(hw.LineSize)
			set := sethash.LineAddrToSet(p.HashMode, lineAddr, uint32(p.CacheSets))

			previousTime, found := bigP[lineAddr]
			distance := uint32(Infinite)
			if found {
				distance = b[set].Count(previousTime)
			}

			var arrivalTime uint32
			if distance >= uint32(p.CacheWays) {
				memoryLatency := sampleLatency(rng, p.MemLatency, hw.MemLatencyStddev)
				arrivalTime = timestamp + memoryLatency

				if memoryLatency > maxFutureTime {
					maxFutureTime = memoryLatency
				}

				if numMissRequests >= int(p.NumMSHR) && tnum == 0 {
					th.Unschedule()
					maxFutureTime = 0
					break
				}

				requestsMiss[set].Add(lineAddr, arrivalTime, uint32(set))
			} else {
				arrivalTime = timestamp + config.NonMemLatency
				requestsHit[set].Add(lineAddr, arrivalTime, uint32(set))
			}

			distances[distance]++
		}

		for set := uint(0); set < p.CacheSets; set++ {
			processRequests(requestsHit[set], timestamp, set, bigP, b, setCounters)
			processRequests(requestsMiss[set], timestamp, set, bigP, b, setCounters)
		}
	}

	if threadsDone == len(warpThreads) {
		pool.Done++
	} else {
		pool.Add(wnum, uint(maxFutureTime))
	}
}

// processRequests applies every request due at timestamp to the shared
// P/B reuse-distance structures for one set, in request order.
func processRequests(
	book *reqbook.Book,
	timestamp uint32,
	set uint,
	bigP map[uint64]uint32,
	b []*stacktree.Tree,
	setCounters []uint32,
) {
	if !book.HasRequests(timestamp) {
		return
	}

	for _, req := range book.Take(timestamp) {
		if previousTime, ok := bigP[req.Addr]; ok {
			b[set].Unset(previousTime)
		}

		bigP[req.Addr] = setCounters[set]
		b[set].Set(setCounters[set])
		setCounters[set]++
	}
}

// countAccessesPerSet replays every thread's (already coalesced) accesses
// once to size each set's stack-tree, then rewinds every thread's program
// counter so the real simulation pass starts fresh.
func countAccessesPerSet(threads []*trace.Thread, hw config.Settings, p Params) []uint32 {
	counts := make([]uint32, p.CacheSets)

	for _, th := range threads {
		for !th.IsDone() {
			access := th.Schedule()
			if access.Width == 0 {
				continue
			}

			lineAddr := access.LineIndex(hw.LineSize)
			set := sethash.LineAddrToSet(p.HashMode, lineAddr, uint32(p.CacheSets))
			counts[set]++

			lineAddr2 := access.EndLineIndex(hw.LineSize)
			if lineAddr2 != lineAddr {
				set2 := sethash.LineAddrToSet(p.HashMode, lineAddr2, uint32(p.CacheSets))
				counts[set2]++
			}
		}
		th.Reset()
	}

	return counts
}

// sampleLatency draws a non-uniform memory latency from a half-normal
// distribution: the best-case latency plus the absolute value of a
// zero-mean Gaussian sample, rounded to the nearest cycle.
func sampleLatency(rng *rand.Rand, memLatency, stddev uint) uint32 {
	sample := rng.NormFloat64() * float64(stddev)
	return uint32(memLatency) + uint32(math.Abs(math.Round(sample)))
}

func ceilDiv(a, b uint) uint {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// buildPool fills a fresh warp pool with every warp belonging to the
// blocks active in round snum, activeBlocks at a time, round-robin over
// the blocks assigned to this core.
func buildPool(core []uint, blocks [][]uint, snum, activeBlocks uint) *warppool.Pool {
	pool := warppool.New()

	start := snum * activeBlocks
	stop := (snum + 1) * activeBlocks
	for bnum := start; bnum < stop && bnum < uint(len(core)); bnum++ {
		bid := core[bnum]
		for _, wnum := range blocks[bid] {
			pool.Add(wnum, 0)
		}
	}

	return pool
}

// newBookSet allocates one empty request book per cache set.
func newBookSet(numSets uint) []*reqbook.Book {
	books := make([]*reqbook.Book, numSets)
	for i := range books {
		books[i] = reqbook.New()
	}
	return books
}
