// Package sample writes synthetic employee CSV files for exercising the
// validator by hand or in load tests.
package sample

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
)

// Header is the column layout of every generated file.
var Header = []string{"id", "name", "email", "age", "department"}

const firstID = 1001

var (
	departments = []string{"Engineering", "Sales", "Marketing", "HR"}
	firstNames  = []string{"John", "Jane", "Michael", "Emily", "David", "Sarah", "Chris", "Anna", "Robert", "Jessica"}
	lastNames   = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}

	// values an invalid row may carry in its age column
	badAges = []string{"", "abc", "17", "101", "-5", "0x20"}
)

// Options controls generation.
type Options struct {
	Rows         int
	Seed         uint64
	InvalidRatio float64 // fraction of rows given an empty email or an out-of-range age
}

// Stats describes what was written.
type Stats struct {
	Rows    int
	Invalid int
}

// Generate writes a header plus opts.Rows data rows to w. The same seed
// always produces the same file.
func Generate(w io.Writer, opts Options) (Stats, error) {
	if opts.Rows < 0 {
		return Stats{}, errors.New("rows must not be negative")
	}
	if opts.InvalidRatio < 0 || opts.InvalidRatio > 1 {
		return Stats{}, fmt.Errorf("invalid ratio %v out of range [0,1]", opts.InvalidRatio)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return Stats{}, fmt.Errorf("write header: %w", err)
	}

	var stats Stats
	record := make([]string, len(Header))
	for i := 0; i < opts.Rows; i++ {
		id := firstID + i
		record[0] = strconv.Itoa(id)
		record[1] = firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		record[2] = fmt.Sprintf("user.%d@example.com", i+1)
		record[3] = strconv.Itoa(18 + rng.IntN(48))
		record[4] = departments[rng.IntN(len(departments))]

		if opts.InvalidRatio > 0 && rng.Float64() < opts.InvalidRatio {
			if rng.IntN(2) == 0 {
				record[2] = ""
			} else {
				record[3] = badAges[rng.IntN(len(badAges))]
			}
			stats.Invalid++
		}

		if err := cw.Write(record); err != nil {
			return stats, fmt.Errorf("write row %d: %w", i+1, err)
		}
		stats.Rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}
	return stats, nil
}
