// Package reqbook tracks outstanding memory requests that are waiting on
// off-chip latency before they can be serviced: a time-indexed queue of
// pending requests plus a set of addresses currently in flight, so the
// engine can tell whether a line already has a request outstanding before
// issuing a duplicate one (C6). Grounded in model.h's Requests class.
package reqbook

// Request describes one outstanding memory request: the line address it
// targets and the cache set it maps to.
type Request struct {
	Addr uint64
	Set  uint32
}

// Book is the set of requests currently waiting on memory latency, indexed
// by the future cycle at which each becomes ready.
type Book struct {
	byTime   map[uint32][]Request
	inFlight map[uint64]struct{}
}

// New returns an empty request book.
func New() *Book {
	return &Book{
		byTime:   make(map[uint32][]Request),
		inFlight: make(map[uint64]struct{}),
	}
}

// Add registers a new outstanding request for addr, to be returned by Take
// once the simulation reaches futureTime.
func (b *Book) Add(addr uint64, futureTime uint32, set uint32) {
	b.byTime[futureTime] = append(b.byTime[futureTime], Request{Addr: addr, Set: set})
	b.inFlight[addr] = struct{}{}
}

// NumOutstanding returns the number of distinct addresses with a request
// currently in flight.
func (b *Book) NumOutstanding() int {
	return len(b.inFlight)
}

// HasRequests reports whether any request is due at currentTime.
func (b *Book) HasRequests(currentTime uint32) bool {
	return len(b.byTime[currentTime]) > 0
}

// IsInFlight reports whether addr already has an outstanding request.
func (b *Book) IsInFlight(addr uint64) bool {
	_, ok := b.inFlight[addr]
	return ok
}

// Take removes and returns every request due at currentTime, clearing each
// of their addresses from the in-flight set.
func (b *Book) Take(currentTime uint32) []Request {
	current := b.byTime[currentTime]
	for _, req := range current {
		delete(b.inFlight, req.Addr)
	}
	delete(b.byTime, currentTime)
	return current
}
