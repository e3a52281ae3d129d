package classifier_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fermicache/classifier"
	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/engine"
	"github.com/sarchlab/fermicache/trace"
)

func capacityMissScenario() ([]uint, [][]uint, [][]uint, []*trace.Thread, config.Settings) {
	th := trace.NewThread()
	th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3}) // line 0
	th.Append(trace.Access{Address: 4, Bytes: 4, Width: 1, EndAddress: 7}) // line 1
	th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3}) // line 0 again

	core := []uint{0}
	blocks := [][]uint{{0}}
	warps := [][]uint{{0}}
	threads := []*trace.Thread{th}
	hw := config.Settings{
		LineSize: 4, WarpSize: 1, NumCores: 1,
		CacheSets: 1, CacheWays: 1, NumMSHR: 1000,
	}
	return core, blocks, warps, threads, hw
}

var _ = Describe("RunCases", func() {
	It("produces one histogram per classifier case, every case accounting for all accesses", func() {
		core, blocks, warps, threads, hw := capacityMissScenario()
		results := classifier.RunCases(core, blocks, warps, threads, 1, hw, 42)

		for _, hist := range results {
			total := uint32(0)
			for _, count := range hist {
				total += count
			}
			Expect(total).To(BeEquivalentTo(3))
		}
	})

	It("is reproducible given the same seed", func() {
		core, blocks, warps, threads, hw := capacityMissScenario()
		a := classifier.RunCases(core, blocks, warps, threads, 1, hw, 7)

		th := trace.NewThread()
		th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3})
		th.Append(trace.Access{Address: 4, Bytes: 4, Width: 1, EndAddress: 7})
		th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3})
		b := classifier.RunCases(core, blocks, warps, []*trace.Thread{th}, 1, hw, 7)

		Expect(a).To(Equal(b))
	})
})

var _ = Describe("Decompose", func() {
	It("reports the boundary access (distance == cache_ways) as a hit, not a capacity miss", func() {
		core, blocks, warps, threads, hw := capacityMissScenario()
		results := classifier.RunCases(core, blocks, warps, threads, 1, hw, 1)

		breakdown := classifier.Decompose(results, hw)
		Expect(breakdown.TotalAccesses).To(BeEquivalentTo(3))
		Expect(breakdown.Hits).To(BeEquivalentTo(1))
		Expect(breakdown.Compulsory).To(BeEquivalentTo(2))
		Expect(breakdown.Capacity).To(BeEquivalentTo(0))
	})

	It("never reports a negative miss rate or count", func() {
		core, blocks, warps, threads, hw := capacityMissScenario()
		results := classifier.RunCases(core, blocks, warps, threads, 1, hw, 2)
		breakdown := classifier.Decompose(results, hw)

		Expect(breakdown.MissRate).To(BeNumerically(">=", 0))
		Expect(breakdown.MissRate).To(BeNumerically("<=", 100))
	})
})

var _ = Describe("engine.Infinite", func() {
	It("is the sentinel used for compulsory misses", func() {
		Expect(engine.Infinite).To(BeEquivalentTo(99999999))
	})
})
