package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fermicache/classifier"
	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/report"
	"github.com/sarchlab/fermicache/schedule"
	"github.com/sarchlab/fermicache/trace"
)

var (
	runSettingsPath string
	runOutputDir    string
	runSeed         int64
)

func init() {
	runCmd.Flags().StringVar(&runSettingsPath, "settings", "configurations/current.conf",
		"path to the hardware settings file")
	runCmd.Flags().StringVar(&runOutputDir, "output", "",
		"directory to write <kernel>.out files to (defaults to the benchmark directory)")
	runCmd.Flags().Int64Var(&runSeed, "seed", time.Now().UnixNano(),
		"seed for the memory latency distribution's random draws")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <benchmark-dir>",
	Short: "Run every kernel trace found in a benchmark directory.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		benchDir := args[0]
		benchname := filepath.Base(filepath.Clean(benchDir))

		hw, err := config.Load(runSettingsPath)
		if err != nil {
			return err
		}
		if err := config.ApplyEnvOverrides(&hw, ""); err != nil {
			return err
		}

		outputDir := runOutputDir
		if outputDir == "" {
			outputDir = benchDir
		}

		log.Printf("cache configuration: ~%dKB, %d-byte lines, %d ways x %d sets",
			hw.CacheBytes/1024, hw.LineSize, hw.CacheWays, hw.CacheSets)

		ran := 0
		for kernelID := 0; ; kernelID++ {
			kernelName := fmt.Sprintf("%s_%02d", benchname, kernelID)
			tracePath := filepath.Join(benchDir, kernelName+".trc")

			if _, err := os.Stat(tracePath); err != nil {
				if kernelID == 0 {
					return fmt.Errorf("no trace files found under %q (expected %s)", benchDir, tracePath)
				}
				break
			}

			if _, err := runKernel(benchDir, outputDir, kernelName, hw, runSeed+int64(kernelID)); err != nil {
				return fmt.Errorf("kernel %q: %w", kernelName, err)
			}
			ran++
		}

		log.Printf("ran %d kernel(s)", ran)
		return nil
	},
}

// runKernel reads one kernel's trace, schedules it, classifies its
// misses, and writes its .out report (plus any available .prof
// verification data). It returns the breakdown so callers that aggregate
// across kernels (the "suite" command) don't need to re-derive it.
func runKernel(
	benchDir, outputDir, kernelName string,
	hw config.Settings,
	seed int64,
) (classifier.Breakdown, error) {
	return runKernelFromTrace(filepath.Join(benchDir, kernelName+".trc"), filepath.Join(benchDir, kernelName+".prof"),
		filepath.Join(outputDir, kernelName+".out"), hw, seed)
}

func runKernelFromTrace(
	tracePath, profPath, outPath string,
	hw config.Settings,
	seed int64,
) (classifier.Breakdown, error) {
	dim, threads, err := trace.ReadFile(tracePath)
	if err != nil {
		return classifier.Breakdown{}, fmt.Errorf("read trace: %w", err)
	}

	blockSize := dim.Size()
	if blockSize == 0 {
		return classifier.Breakdown{}, fmt.Errorf("trace declares an empty thread block")
	}

	result := schedule.Threads(threads, hw, blockSize)

	hardwareMaxActiveBlocks := minUint(hw.MaxActiveThreads/blockSize, hw.MaxActiveBlocks)
	activeBlocks := minUint(uint(len(result.Cores[0])), hardwareMaxActiveBlocks)

	histograms := classifier.RunCases(result.Cores[0], result.Blocks, result.Warps, threads, activeBlocks, hw, seed)
	breakdown := classifier.Decompose(histograms, hw)

	report.PrintSummary(histograms[classifier.CaseNormal], breakdown)

	if err := report.WriteTextFile(outPath, histograms[classifier.CaseNormal], breakdown, hw); err != nil {
		return classifier.Breakdown{}, fmt.Errorf("write report: %w", err)
	}

	if v, ok, err := report.ReadVerification(profPath); err != nil {
		return classifier.Breakdown{}, fmt.Errorf("read verification data: %w", err)
	} else if ok {
		if err := report.AppendVerification(outPath, v); err != nil {
			return classifier.Breakdown{}, fmt.Errorf("append verification data: %w", err)
		}
	}

	return breakdown, nil
}

func minUint(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}
