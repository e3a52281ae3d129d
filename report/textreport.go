// Package report writes the classifier's output in the forms downstream
// tooling consumes: a plain-text .out file kept byte-for-byte compatible
// with the original model's output_miss_rate, a SQLite results store, an
// HTTP endpoint for live kernels, and host diagnostics served by that
// endpoint. Grounded in io.cpp's output_miss_rate and verify_miss_rate.
package report

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/sarchlab/fermicache/classifier"
	"github.com/sarchlab/fermicache/config"
	"github.com/sarchlab/fermicache/engine"
)

// printMaxDistances caps how many distinct [distance] => frequency lines
// are printed to stdout, most frequent first.
const printMaxDistances = 10

// WriteText writes the kernel's normal-case histogram and miss-rate
// breakdown to w in the original tool's .out format: hardware settings,
// a sorted [distance frequency] histogram, then the modelled_* summary
// lines. The caller is responsible for opening/closing w (typically a
// kernel's "<name>.out" file).
func WriteText(w io.Writer, hist engine.Histogram, breakdown classifier.Breakdown, hw config.Settings) error {
	if _, err := fmt.Fprintf(w, "line_size: %d\n", hw.LineSize); err != nil {
		return err
	}
	fmt.Fprintf(w, "cache_bytes: %d\n", hw.CacheBytes)
	fmt.Fprintf(w, "cache_lines: %d\n", hw.CacheLines)
	fmt.Fprintf(w, "cache_ways: %d\n", hw.CacheWays)
	fmt.Fprintf(w, "cache_sets: %d\n", hw.CacheSets)

	fmt.Fprintf(w, "\nhistogram:\n")
	for _, distance := range sortedDistances(hist) {
		fmt.Fprintf(w, "%d %d\n", distance, hist[distance])
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "modelled_accesses: %d\n", breakdown.TotalAccesses)
	fmt.Fprintf(w, "modelled_misses(compulsory): %d\n", breakdown.Compulsory)
	fmt.Fprintf(w, "modelled_misses(capacity): %d\n", breakdown.Capacity)
	fmt.Fprintf(w, "modelled_misses(associativity): %d\n", breakdown.Associativity)
	fmt.Fprintf(w, "modelled_misses(latency): %d\n", breakdown.Latency)
	fmt.Fprintf(w, "modelled_misses(mshr): %d\n", breakdown.MSHR)
	fmt.Fprintf(w, "modelled_misses(tot_associativity): %d\n", breakdown.TotalAssociativityMisses)
	fmt.Fprintf(w, "modelled_misses(tot_latency): %d\n", breakdown.TotalLatencyMisses)
	fmt.Fprintf(w, "modelled_misses(tot_mshr): %d\n", breakdown.TotalMSHRMisses)
	fmt.Fprintf(w, "modelled_hits: %d\n", breakdown.Hits)
	_, err := fmt.Fprintf(w, "modelled_miss_rate: %g\n", breakdown.MissRate)
	return err
}

// WriteTextFile opens path for writing and calls WriteText on it.
func WriteTextFile(path string, hist engine.Histogram, breakdown classifier.Breakdown, hw config.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	return WriteText(f, hist, breakdown, hw)
}

// PrintSummary logs the same headline numbers output_miss_rate sent to
// stdout, via the standard logger rather than direct fmt.Println so that
// batch "suite" runs interleave cleanly with the rest of the run's
// diagnostics.
func PrintSummary(hist engine.Histogram, breakdown classifier.Breakdown) {
	log.Printf("printing results as [reuse_distance] => frequency:")
	for _, f := range topFrequencies(hist, printMaxDistances) {
		if f.distance == engine.Infinite {
			log.Printf("[inf] => %d", f.count)
		} else {
			log.Printf("[%d] => %d", f.distance, f.count)
		}
	}

	log.Printf("total accesses: %d", breakdown.TotalAccesses)
	log.Printf("of which are misses: %d + %d + %d + %d + %d = %d (compulsory + capacity + associativity + latency + mshr = total)",
		breakdown.Compulsory, breakdown.Capacity, breakdown.Associativity, breakdown.Latency, breakdown.MSHR,
		breakdown.Compulsory+breakdown.Capacity+breakdown.Associativity+breakdown.Latency+breakdown.MSHR)
	log.Printf("of which are hits: %d", breakdown.Hits)
	log.Printf("miss rate: %g%%", breakdown.MissRate)
}

// sortedDistances returns hist's keys in ascending order, for a
// deterministic, diffable histogram section.
func sortedDistances(hist engine.Histogram) []uint32 {
	distances := make([]uint32, 0, len(hist))
	for d := range hist {
		distances = append(distances, d)
	}
	sort.Slice(distances, func(i, j int) bool { return distances[i] < distances[j] })
	return distances
}

type frequency struct{ distance, count uint32 }

// topFrequencies returns up to n (distance, frequency) pairs, most
// frequent first. Keyed internally by count exactly like the original's
// std::map<count,distance>, so two distances sharing a count collapse to
// one entry — a quirk inherited rather than fixed.
func topFrequencies(hist engine.Histogram, n int) []frequency {
	byCount := make(map[uint32]uint32, len(hist))
	for distance, count := range hist {
		byCount[count] = distance
	}

	pairs := make([]frequency, 0, len(byCount))
	for count, distance := range byCount {
		pairs = append(pairs, frequency{distance: distance, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].count > pairs[j].count })

	if n > len(pairs) {
		n = len(pairs)
	}
	return pairs[:n]
}
