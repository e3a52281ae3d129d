package schedule_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/schedule"
	"github.com/sarchlab/fermicache/trace"
)

func hw() config.Settings {
	return config.Settings{
		LineSize: 32,
		WarpSize: 4,
		NumCores: 2,
	}
}

func threadsWithAddrs(addrs ...uint64) []*trace.Thread {
	threads := make([]*trace.Thread, len(addrs))
	for i, addr := range addrs {
		th := trace.NewThread()
		th.Append(trace.Access{Address: addr, Bytes: 4, Width: 1, EndAddress: addr + 3})
		threads[i] = th
	}
	return threads
}

var _ = Describe("Threads", func() {
	It("assigns threads to warps, blocks and cores in order", func() {
		threads := threadsWithAddrs(0, 0, 0, 0, 0, 0, 0, 0)
		result := schedule.Threads(threads, hw(), 4)

		Expect(result.Warps).To(HaveLen(2))
		Expect(result.Warps[0]).To(Equal([]uint{0, 1, 2, 3}))
		Expect(result.Warps[1]).To(Equal([]uint{4, 5, 6, 7}))

		Expect(threads[0].WarpID()).To(BeEquivalentTo(0))
		Expect(threads[4].WarpID()).To(BeEquivalentTo(1))
	})

	It("sizes warps and blocks from the block count, not the warp count, for sub-warp blocks", func() {
		// blocksize 1 1 1, 2 threads: a block smaller than a warp must not
		// make Threads derive numWarps from ceil(numThreads/WarpSize), or a
		// thread in the second block maps to a warp id past that count.
		settings := hw()
		settings.WarpSize = 32
		threads := threadsWithAddrs(0, 64)

		result := schedule.Threads(threads, settings, 1)

		Expect(result.Warps).To(HaveLen(2))
		Expect(result.Blocks).To(HaveLen(2))
		Expect(threads[0].WarpID()).To(BeEquivalentTo(0))
		Expect(threads[1].WarpID()).To(BeEquivalentTo(1))
	})

	It("leaves the trailing warp of a partial final block empty rather than panicking", func() {
		settings := hw()
		settings.WarpSize = 32
		threads := threadsWithAddrs(make([]uint64, 65)...)
		for i, th := range threads {
			th.Accesses[0].Address = uint64(i) * 4
			th.Accesses[0].EndAddress = th.Accesses[0].Address + 3
		}

		result := schedule.Threads(threads, settings, 64)

		Expect(result.Warps).To(HaveLen(4))
		Expect(result.Warps[2]).To(Equal([]uint{64}))
		Expect(result.Warps[3]).To(BeEmpty())
	})

	It("coalesces accesses that hit the same cache line", func() {
		// All four threads in the single warp touch the same 32-byte line.
		threads := threadsWithAddrs(0, 4, 8, 12)
		schedule.Threads(threads, hw(), 4)

		Expect(threads[0].Accesses[0].Width).To(BeEquivalentTo(4))
		Expect(threads[1].Accesses[0].Width).To(BeEquivalentTo(0))
		Expect(threads[2].Accesses[0].Width).To(BeEquivalentTo(0))
		Expect(threads[3].Accesses[0].Width).To(BeEquivalentTo(0))
		Expect(threads[0].Accesses[0].EndAddress).To(BeEquivalentTo(15))
	})

	It("does not coalesce accesses on different cache lines", func() {
		threads := threadsWithAddrs(0, 64, 128, 192)
		schedule.Threads(threads, hw(), 4)

		for _, th := range threads {
			Expect(th.Accesses[0].Width).To(BeEquivalentTo(1))
		}
	})

	It("splits 8-byte accesses into half-warp coalescing groups", func() {
		settings := hw()
		settings.WarpSize = 8
		threads := make([]*trace.Thread, 8)
		for i := range threads {
			th := trace.NewThread()
			// Threads 0-3 share one address, threads 4-7 share an address on a
			// different line. An absorbed access at the representative's own
			// address does not raise the representative's width.
			addr := uint64(0)
			if i >= 4 {
				addr = 256
			}
			th.Append(trace.Access{Address: addr, Bytes: 8, Width: 1, EndAddress: addr + 7})
			threads[i] = th
		}

		schedule.Threads(threads, settings, 8)

		Expect(threads[0].Accesses[0].Width).To(BeEquivalentTo(1))
		Expect(threads[1].Accesses[0].Width).To(BeEquivalentTo(0))
		Expect(threads[4].Accesses[0].Width).To(BeEquivalentTo(1))
		Expect(threads[5].Accesses[0].Width).To(BeEquivalentTo(0))
	})
})
