// Command validate performs offline integrity checks on an extracted dataset
// tree without rendering anything: it locates both tensor files, loads and
// reconciles them, verifies the register geometry, and prints a spot RMSE
// per model for the first feature and hour. Exits non-zero on any failure.
//
// Usage:
//
//	go run ./cmd/validate -dir /tmp/extracted [-lat 18 -lon 36]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/loader"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/reduce"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (p *phase) report() {
	if p.passed() {
		fmt.Printf("PASS %s\n", p.name)
		return
	}
	fmt.Printf("FAIL %s\n", p.name)
	for _, e := range p.errors {
		fmt.Printf("  - %s\n", e)
	}
}

func main() {
	dir := flag.String("dir", "", "extracted dataset tree to validate")
	lat := flag.Int("lat", 0, "override expected latitude cells (0 = production geometry)")
	lon := flag.Int("lon", 0, "override expected longitude cells (0 = production geometry)")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *lat, *lon); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, lat, lon int) int {
	ds := domain.DefaultDataset()
	if lat > 0 {
		ds.Lat = lat
	}
	if lon > 0 {
		ds.Lon = lon
	}

	fmt.Println("=== Forecast Dataset Integrity Validation ===")
	fmt.Println()

	load := &phase{name: "load and reconcile"}
	pair, err := loader.New(ds, slog.Default()).Load(dir)
	if err != nil {
		load.errorf("%v", err)
		load.report()
		return 1
	}
	load.report()

	shapes := &phase{name: "register geometry"}
	fmt.Printf("  prediction shape: %v\n", pair.Pred.Shape())
	fmt.Printf("  truth shape:      %v\n", pair.Truth.Shape())
	if pair.Pred.Size(0) != len(ds.Models) {
		shapes.errorf("model axis %d, register has %d models", pair.Pred.Size(0), len(ds.Models))
	}
	shapes.report()

	sanity := &phase{name: fmt.Sprintf("spot RMSE (feature %s, hour 1)", ds.Features[0].Name)}
	grid := reduce.HourGrid(ds, pair, 1)
	for mi, m := range ds.Models {
		kind := "relative"
		if mi == ds.Reference {
			kind = "absolute"
		}
		fmt.Printf("  %-12s %-8s %+.6f\n", m.Name, kind, grid.Values[0][mi])
	}
	sanity.report()

	if !load.passed() || !shapes.passed() || !sanity.passed() {
		return 1
	}
	fmt.Println()
	fmt.Println("all checks passed")
	return 0
}
