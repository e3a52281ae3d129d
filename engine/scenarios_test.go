package engine_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/engine"
	"github.com/sarchlab/fermicache/schedule"
	"github.com/sarchlab/fermicache/sethash"
	"github.com/sarchlab/fermicache/trace"
)

// These acceptance scenarios exercise the full warp-scheduling plus
// reuse-distance pipeline end to end, matching distilled-spec scenarios
// for a coalesced warp, two warps touching the same line, and MSHR
// saturation across two concurrently-issued misses.

var _ = Describe("a coalesced warp of 32 threads touching one line", func() {
	It("produces exactly one compulsory miss, since only the representative access survives coalescing", func() {
		hw := config.Settings{LineSize: 128, WarpSize: 32, NumCores: 1}

		threads := make([]*trace.Thread, 32)
		for tid := range threads {
			addr := uint64(tid) * 4
			th := trace.NewThread()
			th.Append(trace.Access{Address: addr, Bytes: 4, Width: 1, EndAddress: addr + 3})
			threads[tid] = th
		}

		result := schedule.Threads(threads, hw, 32)

		p := engine.Params{CacheSets: 1, CacheWays: 1, NumMSHR: 1000, HashMode: sethash.Linear}
		hist := engine.Run(result.Cores[0], result.Blocks, result.Warps, threads, 1, hw, p, rand.New(rand.NewSource(1)))

		Expect(hist).To(HaveLen(1))
		Expect(hist[engine.Infinite]).To(BeEquivalentTo(1))
	})
})

var _ = Describe("two warps whose representatives touch the same line", func() {
	It("reports the first warp's access as a compulsory miss and the second's as a zero-distance hit", func() {
		hw := config.Settings{LineSize: 4, WarpSize: 32, NumCores: 1}

		threads := make([]*trace.Thread, 64)
		for tid := range threads {
			th := trace.NewThread()
			th.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3})
			threads[tid] = th
		}

		result := schedule.Threads(threads, hw, 64)

		p := engine.Params{CacheSets: 1, CacheWays: 1000, MemLatency: 0, NumMSHR: 1000, HashMode: sethash.Linear}
		hist := engine.Run(result.Cores[0], result.Blocks, result.Warps, threads, 1, hw, p, rand.New(rand.NewSource(1)))

		Expect(hist[engine.Infinite]).To(BeEquivalentTo(1))
		Expect(hist[0]).To(BeEquivalentTo(1))
	})
})

var _ = Describe("a single MSHR shared by two independently-issued misses", func() {
	It("stalls the second miss until the first resolves, without losing or double-counting either access", func() {
		hw := config.Settings{LineSize: 4, WarpSize: 1, NumCores: 1}

		threadA := trace.NewThread()
		threadA.Append(trace.Access{Address: 0, Bytes: 4, Width: 1, EndAddress: 3})
		threadB := trace.NewThread()
		threadB.Append(trace.Access{Address: 128, Bytes: 4, Width: 1, EndAddress: 131})

		core := []uint{0}
		blocks := [][]uint{{0, 1}}
		warps := [][]uint{{0}, {1}}
		threads := []*trace.Thread{threadA, threadB}

		p := engine.Params{CacheSets: 1, CacheWays: 1000, MemLatency: 5, NumMSHR: 1, HashMode: sethash.Linear}
		hist := engine.Run(core, blocks, warps, threads, 1, hw, p, rand.New(rand.NewSource(1)))

		Expect(hist).To(HaveLen(1))
		Expect(hist[engine.Infinite]).To(BeEquivalentTo(2))
	})
})

var _ = Describe("a partial final block leaving its trailing warp empty", func() {
	It("retires the empty warp instead of panicking, and still accounts for every real access", func() {
		hw := config.Settings{LineSize: 4, WarpSize: 32, NumCores: 1}

		threads := make([]*trace.Thread, 65)
		for tid := range threads {
			addr := uint64(tid) * 4
			th := trace.NewThread()
			th.Append(trace.Access{Address: addr, Bytes: 4, Width: 1, EndAddress: addr + 3})
			threads[tid] = th
		}

		result := schedule.Threads(threads, hw, 64)

		p := engine.Params{CacheSets: 1, CacheWays: 1000, NumMSHR: 1000, HashMode: sethash.Linear}
		hist := engine.Run(result.Cores[0], result.Blocks, result.Warps, threads, 2, hw, p, rand.New(rand.NewSource(1)))

		total := uint32(0)
		for _, n := range hist {
			total += n
		}
		Expect(total).To(BeEquivalentTo(65))
	})
})
