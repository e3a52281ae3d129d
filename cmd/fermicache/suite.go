package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/report"
)

var (
	suiteSeed      int64
	suiteResultsDB string
)

func init() {
	suiteCmd.Flags().Int64Var(&suiteSeed, "seed", time.Now().UnixNano(),
		"seed for the memory latency distribution's random draws")
	suiteCmd.Flags().StringVar(&suiteResultsDB, "results-db", "",
		"optional path to a SQLite database to record every kernel's breakdown into")
	rootCmd.AddCommand(suiteCmd)
}

var suiteCmd = &cobra.Command{
	Use:   "suite <suite.yaml>",
	Short: "Run every kernel listed in a benchmark suite file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suite, err := config.LoadSuite(args[0])
		if err != nil {
			return err
		}

		hw, err := config.Load(suite.Settings)
		if err != nil {
			return err
		}

		var store *report.Store
		if suiteResultsDB != "" {
			store = report.NewStore(suiteResultsDB)
			if err := store.Init(); err != nil {
				return err
			}
			defer store.Close()
		}

		for i, kernel := range suite.Kernels {
			outputDir := kernel.OutputDir
			if outputDir == "" {
				outputDir = filepath.Dir(kernel.Trace)
			}
			outPath := filepath.Join(outputDir, kernel.Name+".out")
			profPath := kernel.Trace[:len(kernel.Trace)-len(filepath.Ext(kernel.Trace))] + ".prof"

			log.Printf("running kernel %q (%d/%d)", kernel.Name, i+1, len(suite.Kernels))

			breakdown, err := runKernelFromTrace(kernel.Trace, profPath, outPath, hw, suiteSeed+int64(i))
			if err != nil {
				return fmt.Errorf("kernel %q: %w", kernel.Name, err)
			}

			if store != nil {
				store.Record(suite.Settings, kernel.Name, breakdown)
			}
		}

		return nil
	},
}
