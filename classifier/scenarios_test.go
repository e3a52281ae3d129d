package classifier_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fermicache/classifier"
	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/sethash"
	"github.com/sarchlab/fermicache/trace"
)

// S6 — full-associativity parity: collapsing a direct-mapped cache's sets
// into one fully-associative set (same total capacity) can only remove
// conflict misses, never add them, so the normal case's miss count must
// be at least the full-associativity case's. The gap is miss_associativity.
var _ = Describe("full-associativity parity", func() {
	It("never has fewer misses than the fully-associative case, for a set-colliding access pattern", func() {
		th := trace.NewThread()
		th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3})   // line 0 -> set 0
		th.Append(trace.Access{Address: 8, Bytes: 4, Width: 1, EndAddress: 11})  // line 2 -> set 0 (collides)
		th.Append(trace.Access{Address: 16, Bytes: 4, Width: 1, EndAddress: 19}) // line 4 -> set 0 (collides)
		// line 0 again at distance 2: a capacity miss with 1 way per set, but
		// a hit in the 2-way fully-associative case.
		th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3})

		core := []uint{0}
		blocks := [][]uint{{0}}
		warps := [][]uint{{0}}
		threads := []*trace.Thread{th}
		hw := config.Settings{
			LineSize: 4, WarpSize: 1, NumCores: 1,
			CacheSets: 2, CacheWays: 1, NumMSHR: 1000,
			HashMode: sethash.Linear,
		}

		histograms := classifier.RunCases(core, blocks, warps, threads, 1, hw, 3)
		breakdown := classifier.Decompose(histograms, hw)

		normalMisses := breakdown.TotalAccesses - breakdown.Hits
		Expect(normalMisses).To(BeNumerically(">=", breakdown.TotalAssociativityMisses))
		Expect(breakdown.Associativity).To(BeNumerically(">", 0))
	})
})
