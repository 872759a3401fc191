/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math/rand"
	"time"

	perf "github.com/hodgesds/perf-utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/govis/datasets"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

type ModelBench struct {
	Count    int
	Walk     float64 // step between traced points, in average cells
	Seed     int64
	Counters bool
}

// BenchCmd represents the bench command
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time point location in the grid of a YAML job file",
	Long: `
Locates random points cold, then along a random walk with tracing enabled,
and reports the rates and locator counters of both.

govis bench -I job.yaml -n 100000`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		mb := &ModelBench{}
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		mb.Count, _ = cmd.Flags().GetInt("count")
		mb.Walk, _ = cmd.Flags().GetFloat64("walk")
		mb.Seed, _ = cmd.Flags().GetInt64("seed")
		mb.Counters, _ = cmd.Flags().GetBool("counters")
		ip, err := processInput(icFile)
		if err != nil {
			return
		}
		sets, err := datasets.FromParameters(ip)
		if err != nil {
			return
		}
		for _, d := range sets {
			for _, r := range RunBench(mb, d.Grid) {
				fmt.Printf("%s\n", r)
			}
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	BenchCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML job file describing the grid")
	BenchCmd.Flags().IntP("count", "n", 10000, "number of points per run")
	BenchCmd.Flags().Float64P("walk", "w", 0.5, "random walk step in average cells")
	BenchCmd.Flags().Int64P("seed", "s", 1, "random seed")
	BenchCmd.Flags().BoolP("counters", "c", false, "read hardware instruction and cycle counters")
}

type BenchResult struct {
	Name         string
	Points       int
	Found        int
	Elapsed      time.Duration
	Stats        *grid.Stats
	Instructions uint64
	Cycles       uint64
}

func (r BenchResult) String() string {
	rate := float64(r.Points) / r.Elapsed.Seconds()
	s := fmt.Sprintf("%-8s %d/%d found, %v, %.0f locates/s, %s",
		r.Name, r.Found, r.Points, r.Elapsed, rate, r.Stats)
	if r.Instructions > 0 {
		s += fmt.Sprintf(", %.1f instructions and %.1f cycles per locate",
			float64(r.Instructions)/float64(r.Points), float64(r.Cycles)/float64(r.Points))
	}
	return s
}

// BenchPoints draws the random points of both runs: uniform in the domain
// box, and a walk of steps of the given length.
func BenchPoints(g grid.Grid, n int, step float64, seed int64) (cold, walk []types.Point) {
	var (
		rng = rand.New(rand.NewSource(seed))
		box = g.DomainBox()
		dim = g.Dimension()
	)
	uniform := func() (p types.Point) {
		for k := 0; k < dim; k++ {
			p[k] = box.Min[k] + rng.Float64()*(box.Max[k]-box.Min[k])
		}
		return
	}
	cold = make([]types.Point, n)
	walk = make([]types.Point, n)
	p := box.Center()
	for i := range cold {
		cold[i] = uniform()
		var d types.Vector
		for k := 0; k < dim; k++ {
			d[k] = rng.NormFloat64()
		}
		next := p.Add(d.Normalize().Scale(step * g.AverageCellSize()))
		if !box.Contains(next, dim) {
			next = uniform()
		}
		walk[i], p = next, next
	}
	return
}

func countHardware(r *BenchResult, run func() error) error {
	instr, err := perf.CPUInstructions(run)
	if err != nil {
		return err
	}
	cycles, err := perf.CPUCycles(run)
	if err != nil {
		return err
	}
	r.Instructions, r.Cycles = instr.Value, cycles.Value
	return nil
}

// RunBench locates the cold points with one locator per worker and the walk
// with a single tracing locator.
func RunBench(mb *ModelBench, g grid.Grid) []BenchResult {
	cold, walk := BenchPoints(g, mb.Count, mb.Walk, mb.Seed)
	results := []BenchResult{
		{Name: "cold", Points: len(cold), Stats: &grid.Stats{}},
		{Name: "traced", Points: len(walk), Stats: &grid.Stats{}},
	}
	runs := []func(r *BenchResult) error{
		func(r *BenchResult) error {
			found := make([]int, len(cold))
			utils.ParallelFor(len(cold), func(kMin, kMax int) {
				loc := g.NewLocator()
				loc.SetStats(r.Stats)
				for i := kMin; i < kMax; i++ {
					if loc.Locate(cold[i], false) {
						found[i] = 1
					}
				}
			})
			for _, f := range found {
				r.Found += f
			}
			return nil
		},
		func(r *BenchResult) error {
			loc := g.NewLocator()
			loc.SetStats(r.Stats)
			for _, p := range walk {
				if loc.Locate(p, true) {
					r.Found++
				}
			}
			return nil
		},
	}
	for i, run := range runs {
		r := &results[i]
		start := time.Now()
		_ = run(r)
		r.Elapsed = time.Since(start)
		// hardware counters measure the single threaded traced walk
		if !mb.Counters || i == 0 {
			continue
		}
		if err := countHardware(r, func() error {
			return run(&BenchResult{Stats: &grid.Stats{}})
		}); err != nil {
			log.WithError(err).Warn("hardware counters unavailable")
		}
	}
	return results
}
