// Package schedule assigns threads to warps, thread-blocks and cores, and
// performs intra-warp memory coalescing (C4). Coalescing follows the Fermi
// rules for full/half/quarter-warp scheduling described in section
// "G.4.2. Global Memory" of the CUDA programming guide.
package schedule

import (
	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/trace"
)

// Result holds the hierarchy produced by Threads: each slice maps an id at
// its level to the ids of its children at the level below.
type Result struct {
	Warps  [][]uint // warp id -> thread ids
	Blocks [][]uint // block id -> warp ids
	Cores  [][]uint // core id -> block ids
}

// Threads assigns every thread in threads to a warp, thread-block and core,
// then coalesces same-line accesses within each warp. blockSize is the
// number of threads per thread-block, taken from the trace's Dim3 header.
func Threads(threads []*trace.Thread, hw config.Settings, blockSize uint) Result {
	numWarpsPerBlock := ceilDiv(blockSize, hw.WarpSize)
	numBlocks := ceilDiv(uint(len(threads)), blockSize)
	numWarps := numWarpsPerBlock * numBlocks

	warps := make([][]uint, numWarps)
	blocks := make([][]uint, numBlocks)
	cores := make([][]uint, hw.NumCores)

	for tid, th := range threads {
		wid := uint(tid)%blockSize/hw.WarpSize + uint(tid)/blockSize*numWarpsPerBlock
		th.SetWarp(wid)
		warps[wid] = append(warps[wid], uint(tid))
	}

	for wnum := range warps {
		bnum := uint(wnum) / numWarpsPerBlock
		blocks[bnum] = append(blocks[bnum], uint(wnum))
		for _, tid := range warps[wnum] {
			threads[tid].SetBlock(bnum)
		}
	}

	for bnum := range blocks {
		cnum := uint(bnum) % hw.NumCores
		cores[cnum] = append(cores[cnum], uint(bnum))
	}

	for wnum := range warps {
		if len(warps[wnum]) == 0 {
			continue
		}
		coalesceWarp(threads, warps[wnum], hw)
	}

	return Result{Warps: warps, Blocks: blocks, Cores: cores}
}

// coalesceWarp walks the accesses of a single warp column by column,
// absorbing accesses that target the same cache line into an earlier
// thread's access within the same full/half/quarter-warp schedule group.
func coalesceWarp(threads []*trace.Thread, warpThreads []uint, hw config.Settings) {
	done := 0
	for access := 0; done < len(warpThreads); access++ {
		for tnum, tid := range warpThreads {
			th := threads[tid]

			if access == len(th.Accesses) {
				done++
				continue
			}
			if access > len(th.Accesses) {
				continue
			}

			scheduleLength := scheduleLength(th.Accesses[access].Bytes, hw.WarpSize)
			thisLine := th.AccessAt(uint(access)).LineIndex(hw.LineSize)

			groupStart := scheduleLength * (uint(tnum) / scheduleLength)
			for oldTnum := groupStart; oldTnum < uint(tnum); oldTnum++ {
				oldTid := warpThreads[oldTnum]
				oldAccess := threads[oldTid].AccessAt(uint(access))
				oldLine := oldAccess.LineIndex(hw.LineSize)

				if thisLine != oldLine {
					continue
				}

				a := th.AccessAt(uint(access))
				a.Width = 0
				if a.Address != oldAccess.Address {
					if a.EndAddress > oldAccess.EndAddress {
						oldAccess.EndAddress = a.EndAddress
					}
					oldAccess.Width++
				}
				break
			}
		}
	}
}

// scheduleLength returns the number of threads per coalescing group for an
// access of the given byte width: full, half or quarter warp.
func scheduleLength(bytes, warpSize uint) uint {
	switch bytes {
	case 8:
		return warpSize / 2
	case 16:
		return warpSize / 4
	default:
		return warpSize
	}
}

func ceilDiv(a, b uint) uint {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
