// Command fermicache drives the reuse-distance GPU cache model: it reads
// a kernel's memory access trace, schedules it onto the modeled warp/
// block/core hierarchy, runs the four classifier configurations, and
// reports the resulting miss-rate breakdown. Grounded in model.cpp's
// main(), split into cobra subcommands instead of one argv-driven loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fermicache",
	Short: "Reuse-distance based cache miss-rate model for Fermi-class GPU L1 caches.",
	Long: `fermicache models a GPU kernel's L1 cache miss rate using reuse distance
theory, extended to account for warp scheduling, intra-warp memory
coalescing, cache associativity, finite MSHRs and non-uniform memory
latency.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
