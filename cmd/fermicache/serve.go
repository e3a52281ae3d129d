package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/report"
)

var (
	servePort int
	serveSeed int64
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to serve results on (0 picks a free port)")
	serveCmd.Flags().Int64Var(&serveSeed, "seed", time.Now().UnixNano(),
		"seed for the memory latency distribution's random draws")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <suite.yaml>",
	Short: "Run a benchmark suite and keep its results available over HTTP.",
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

		server := report.NewServer()
		listener, err := server.Start(servePort)
		if err != nil {
			return err
		}
		defer listener.Close()

		for i, kernel := range suite.Kernels {
			outputDir := kernel.OutputDir
			if outputDir == "" {
				outputDir = filepath.Dir(kernel.Trace)
			}
			outPath := filepath.Join(outputDir, kernel.Name+".out")
			profPath := kernel.Trace[:len(kernel.Trace)-len(filepath.Ext(kernel.Trace))] + ".prof"

			breakdown, err := runKernelFromTrace(kernel.Trace, profPath, outPath, hw, serveSeed+int64(i))
			if err != nil {
				return fmt.Errorf("kernel %q: %w", kernel.Name, err)
			}

			server.RegisterResult(kernel.Name, report.KernelResult{
				Breakdown: breakdown,
			})
		}

		log.Printf("all kernels run, serving results until interrupted")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig

		return nil
	},
}
