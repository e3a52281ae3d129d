// Package warppool models the pool of warps a core round-robins through:
// warps ready to issue, warps stalled in flight until a future cycle, and a
// completion counter (C5). Grounded in model.h's Pool class.
package warppool

import (
	"sort"

	"github.com/sarchlab/fermicache/internal/invariant"
)

// Pool is a FIFO of ready warp ids plus a delayed set of warps that become
// ready at a future simulated time.
type Pool struct {
	ready    []uint
	inFlight map[uint]uint // warp id -> cycles remaining
	size     uint
	Done     uint // number of warps that have finished all their work
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{inFlight: make(map[uint]uint)}
}

// Add places a warp into the pool. A futureTime of zero makes it
// immediately ready; any other value keeps it in flight until the
// (futureTime+1)-th call to Tick, since Tick counts a warp down to zero
// before it releases it.
func (p *Pool) Add(warpID uint, futureTime uint) {
	if futureTime == 0 {
		p.ready = append(p.ready, warpID)
		return
	}
	p.inFlight[warpID] = futureTime
}

// Tick advances every in-flight warp by one cycle, moving any that reach
// zero into the ready queue. Warp ids are visited in ascending order, like
// model.h's Pool::process_warps_in_flight walking its ordered std::map, so
// that a fixed seed reproduces the same ready-queue order and timestamps
// run to run.
func (p *Pool) Tick() {
	ids := make([]uint, 0, len(p.inFlight))
	for warpID := range p.inFlight {
		ids = append(ids, warpID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, warpID := range ids {
		remaining := p.inFlight[warpID]
		if remaining == 0 {
			p.ready = append(p.ready, warpID)
			delete(p.inFlight, warpID)
			continue
		}
		p.inFlight[warpID] = remaining - 1
	}
}

// Take removes and returns the warp at the front of the ready queue.
func (p *Pool) Take() uint {
	warp := p.ready[0]
	p.ready = p.ready[1:]
	return warp
}

// SetSize freezes the pool's size at its current ready-queue length. Called
// once, after every warp belonging to this pool has been added.
func (p *Pool) SetSize() {
	p.size = uint(len(p.ready))
}

// HasWork reports whether the ready queue currently holds a warp.
func (p *Pool) HasWork() bool {
	return len(p.ready) > 0
}

// IsDone reports whether every warp in the pool has finished. SetSize must
// have been called first.
func (p *Pool) IsDone() bool {
	invariant.Check(p.size != 0, "IsDone called before SetSize")
	return p.Done == p.size
}
