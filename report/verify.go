package report

import (
	"bufio"
	"fmt"
	"log"
	"os"
)

// Verification is the hit/miss counts recorded by an out-of-band hardware
// run (a .prof file), used to sanity-check the modeled miss rate.
type Verification struct {
	Hits, Misses uint64
}

// MissRate returns the verified miss rate as a percentage.
func (v Verification) MissRate() float64 {
	total := v.Hits + v.Misses
	if total == 0 {
		return 0
	}
	return 100 * float64(v.Misses) / float64(total)
}

// ReadVerification parses a .prof file: its first number is the hit
// count, its second the miss count, everything after ignored. A missing
// file is not an error — hardware verification data is optional — and is
// reported back via ok=false so the caller can skip appending to the
// report.
func ReadVerification(path string) (v Verification, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("no verifier data available at %s, skipping verification", path)
			return Verification{}, false, nil
		}
		return Verification{}, false, fmt.Errorf("open verifier file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)

	var counter int
	for scanner.Scan() {
		var value uint64
		if _, scanErr := fmt.Sscanf(scanner.Text(), "%d", &value); scanErr != nil {
			continue
		}
		switch counter {
		case 0:
			v.Hits = value
		case 1:
			v.Misses = value
		}
		counter++
	}
	if err := scanner.Err(); err != nil {
		return Verification{}, false, fmt.Errorf("read verifier file: %w", err)
	}

	return v, true, nil
}

// AppendVerification appends the verified_* summary lines to an already
// written .out report, mirroring verify_miss_rate's append-mode write.
func AppendVerification(path string, v Verification) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report file for append: %w", err)
	}
	defer f.Close()

	log.Printf("cache miss rate according to verification data:")
	log.Printf("total accesses: %d", v.Hits+v.Misses)
	log.Printf("misses: %d", v.Misses)
	log.Printf("hits: %d", v.Hits)
	log.Printf("miss rate: %g%%", v.MissRate())

	_, err = fmt.Fprintf(f, "\nverified_misses: %d\nverified_hits: %d\nverified_miss_rate: %g\n",
		v.Misses, v.Hits, v.MissRate())
	return err
}
