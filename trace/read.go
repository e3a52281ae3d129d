package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// MaxThreads caps the number of threads a single trace may describe.
const MaxThreads = 32 * 1024

// ReadFile parses a .trc trace file: a "blocksize: X Y Z" header line
// followed by "tid dir addr bytes" access lines. Only read accesses
// (dir==0) are retained; writes are discarded because Fermi's modeled L1
// is load-only. The largest tid+1 observed (capped at MaxThreads) sizes the
// returned thread slice.
//
// A missing file is reported as an *os.PathError-wrapping error so callers
// can distinguish "end of the kernel stream" from a genuinely malformed
// trace; ReadFile never treats a missing file as a parse failure on its
// own.
func ReadFile(path string) (Dim3, []*Thread, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dim3{}, nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a trace in the format documented for ReadFile from an
// already-open reader.
func Read(r io.Reader) (Dim3, []*Thread, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return Dim3{}, nil, fmt.Errorf("trace file is empty")
	}

	var header string
	var dim Dim3
	if _, err := fmt.Sscanf(scanner.Text(), "%s %d %d %d", &header, &dim.X, &dim.Y, &dim.Z); err != nil {
		return Dim3{}, nil, fmt.Errorf("parse blocksize header: %w", err)
	}

	threads := make(map[uint]*Thread)
	var maxTid uint
	var numAccesses uint

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var tid, direction, bytes uint
		var address uint64
		if _, err := fmt.Sscanf(line, "%d %d %d %d", &tid, &direction, &address, &bytes); err != nil {
			continue // tolerate trailing blank/garbage lines the tracer sometimes emits
		}

		if direction != DirectionRead {
			continue
		}

		if tid >= MaxThreads {
			continue
		}

		th, ok := threads[tid]
		if !ok {
			th = NewThread()
			threads[tid] = th
		}
		th.Append(Access{
			Direction:  direction,
			Address:    address,
			Bytes:      bytes,
			Width:      1,
			EndAddress: address + uint64(bytes) - 1,
		})

		numAccesses++
		if tid+1 > maxTid {
			maxTid = tid + 1
		}
	}

	if err := scanner.Err(); err != nil {
		return Dim3{}, nil, fmt.Errorf("read trace file: %w", err)
	}

	if numAccesses == 0 || maxTid == 0 {
		return Dim3{}, nil, fmt.Errorf("trace contains no memory accesses: not a valid trace")
	}

	result := make([]*Thread, maxTid)
	for tid := uint(0); tid < maxTid; tid++ {
		if th, ok := threads[tid]; ok {
			result[tid] = th
		} else {
			result[tid] = NewThread()
		}
	}

	return dim, result, nil
}
