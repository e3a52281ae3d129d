package report

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/process"
)

// Usage is a snapshot of this process's resource consumption, served by
// Server at /api/resource; it is not written into .out files or the
// results database. Grounded in akita's monitoring.Monitor.listResources.
type Usage struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

// HostUsage reads the current process's CPU and resident memory usage.
func HostUsage() (Usage, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Usage{}, fmt.Errorf("inspect process: %w", err)
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return Usage{}, fmt.Errorf("read cpu percent: %w", err)
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return Usage{}, fmt.Errorf("read memory info: %w", err)
	}

	return Usage{CPUPercent: cpuPercent, MemoryRSS: mem.RSS}, nil
}
