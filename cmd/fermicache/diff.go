package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <a.out> <b.out>",
	Short: "Compare two .out reports field by field.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := readReportFields(args[0])
		if err != nil {
			return err
		}
		b, err := readReportFields(args[1])
		if err != nil {
			return err
		}

		if diff := cmp.Diff(a, b); diff != "" {
			fmt.Printf("%s and %s differ:\n%s", args[0], args[1], diff)
			return fmt.Errorf("reports differ")
		}

		fmt.Printf("%s and %s are equivalent\n", args[0], args[1])
		return nil
	},
}

// readReportFields parses a .out file's "key: value" lines into a map,
// skipping the histogram section (whose line count varies run to run and
// isn't meaningful to diff field-by-field).
func readReportFields(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report %q: %w", path, err)
	}
	defer f.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(f)
	inHistogram := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "histogram:":
			inHistogram = true
			continue
		case line == "":
			inHistogram = false
			continue
		case inHistogram:
			continue
		}

		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		fields[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read report %q: %w", path, err)
	}

	return fields, nil
}
