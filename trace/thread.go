package trace

import "github.com/sarchlab/fermicache/internal/invariant"

// unassigned marks a Thread's WarpID/BlockID as not yet set.
const unassigned = ^uint(0)

// Thread is one GPU thread's ordered list of memory accesses plus a
// program-counter cursor over them. WarpID and BlockID are each assigned
// exactly once by the scheduler.
type Thread struct {
	Accesses []Access

	pc      uint
	warpID  uint
	blockID uint
}

// NewThread returns a Thread with an empty access list and unassigned
// warp/block ids.
func NewThread() *Thread {
	return &Thread{warpID: unassigned, blockID: unassigned}
}

// Append adds an access to the end of the thread's access list.
func (t *Thread) Append(a Access) {
	t.Accesses = append(t.Accesses, a)
}

// Schedule returns the next access and advances the program counter.
func (t *Thread) Schedule() Access {
	invariant.Check(t.pc < uint(len(t.Accesses)), "schedule() called on exhausted thread")
	a := t.Accesses[t.pc]
	t.pc++
	return a
}

// Unschedule rewinds the program counter by exactly one step. Used by MSHR
// backpressure to undo a Schedule() that could not be admitted.
func (t *Thread) Unschedule() {
	invariant.Check(t.pc > 0, "unschedule() called with pc == 0")
	t.pc--
}

// NextBytes returns the byte count of the next access to be scheduled, or
// 1 if the thread is already exhausted (mirrors the original model, which
// reads this even when it will never be scheduled).
func (t *Thread) NextBytes() uint {
	if t.pc == uint(len(t.Accesses)) {
		return 1
	}

	return t.Accesses[t.pc].Bytes
}

// IsDone reports whether the thread has no more accesses to schedule.
func (t *Thread) IsDone() bool {
	return t.pc == uint(len(t.Accesses))
}

// Reset rewinds the program counter to zero, ready for another pass over
// the same access list (used between the classifier's four runs).
func (t *Thread) Reset() {
	t.pc = 0
}

// SetWarp assigns the thread's warp id. May only be called once.
func (t *Thread) SetWarp(warpID uint) {
	invariant.Check(t.warpID == unassigned, "warp id assigned twice")
	t.warpID = warpID
}

// SetBlock assigns the thread's block id. May only be called once.
func (t *Thread) SetBlock(blockID uint) {
	invariant.Check(t.blockID == unassigned, "block id assigned twice")
	t.blockID = blockID
}

// WarpID returns the thread's assigned warp id.
func (t *Thread) WarpID() uint {
	return t.warpID
}

// BlockID returns the thread's assigned block id.
func (t *Thread) BlockID() uint {
	return t.blockID
}

// AccessAt returns a pointer to the access at the given program-counter
// position, for in-place mutation during coalescing.
func (t *Thread) AccessAt(pc uint) *Access {
	return &t.Accesses[pc]
}

// Clone returns an independent Thread sharing this one's (already
// coalesced, already warp/block-assigned) access list but with its own
// program counter, reset to zero. Used to give concurrent engine runs
// their own scheduling cursor over otherwise-identical thread state.
func (t *Thread) Clone() *Thread {
	return &Thread{
		Accesses: t.Accesses,
		warpID:   t.warpID,
		blockID:  t.blockID,
	}
}
