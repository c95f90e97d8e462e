// Command validate compares simulator output against reference daily files.
// Each reference .dat file is matched by name with a produced file, and every
// row and column is compared within a tolerance.
//
// Usage:
//
//	go run ./cmd/validate -got output -want testdata/reference -tol 0.001
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/crop-et-sim/internal/adapter/datfile"
	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// maxReported caps the mismatches listed per file.
const maxReported = 20

// phase tracks pass/fail for one compared file.
type phase struct {
	name   string
	rows   int
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	got := flag.String("got", "", "produced .dat file or directory")
	want := flag.String("want", "", "reference .dat file or directory")
	tol := flag.Float64("tol", 0.001, "absolute tolerance per value")
	flag.Parse()

	if *got == "" || *want == "" || *tol < 0 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*got, *want, *tol); code != 0 {
		os.Exit(code)
	}
}

func run(gotPath, wantPath string, tol float64) int {
	pairs, err := filePairs(gotPath, wantPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(pairs) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no reference .dat files in %s\n", wantPath)
		return 1
	}

	fmt.Println("=== Daily Crop ET Validation ===")
	fmt.Println()

	phases := make([]*phase, 0, len(pairs))
	for _, fp := range pairs {
		phases = append(phases, compareFiles(fp[0], fp[1], tol))
	}

	allPassed := true
	rows := 0
	for _, p := range phases {
		rows += p.rows
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	fmt.Println()
	fmt.Printf("Compared %d files, %d rows, tolerance %g\n", len(phases), rows, tol)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// filePairs returns (got, want) path pairs. Directories are matched by file name.
func filePairs(gotPath, wantPath string) ([][2]string, error) {
	info, err := os.Stat(wantPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return [][2]string{{gotPath, wantPath}}, nil
	}
	matches, err := filepath.Glob(filepath.Join(wantPath, "*.dat"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	out := make([][2]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, [2]string{filepath.Join(gotPath, filepath.Base(m)), m})
	}
	return out, nil
}

func compareFiles(gotPath, wantPath string, tol float64) *phase {
	p := &phase{name: filepath.Base(wantPath)}
	want, err := load(wantPath)
	if err != nil {
		p.errorf("reference: %v", err)
		return p
	}
	got, err := load(gotPath)
	if err != nil {
		p.errorf("produced: %v", err)
		return p
	}
	p.rows = len(want)
	if len(got) != len(want) {
		p.errorf("row count: got %d, want %d", len(got), len(want))
	}

	for i := range min(len(got), len(want)) {
		g, w := got[i], want[i]
		date := w.Date.Format("2006-01-02")
		if !g.Date.Equal(w.Date) {
			p.errorf("row %d: date got %s, want %s", i+1, g.Date.Format("2006-01-02"), date)
			continue
		}
		gv, wv := datfile.Values(g), datfile.Values(w)
		for c, name := range datfile.Columns {
			if math.Abs(gv[c]-wv[c]) > tol {
				p.errorf("%s %s: got %.3f, want %.3f", date, name, gv[c], wv[c])
			}
		}
	}
	return p
}

func load(path string) ([]domain.DailyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return datfile.ReadRecords(f)
}
