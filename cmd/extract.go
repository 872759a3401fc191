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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/govis/InputParameters"
	"github.com/notargets/govis/datasets"
	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/extract/isosurface"
	"github.com/notargets/govis/extract/slice"
	"github.com/notargets/govis/extract/streamline"
	"github.com/notargets/govis/extract/streamsurface"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

type ModelExtract struct {
	ICFile    string
	OutputDir string
	Graph     bool
	Delay     time.Duration
}

// ExtractCmd represents the extract command
var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the extraction jobs of a YAML job file",
	Long: `
Builds the grid and fields of a job file and runs its isosurface, slice,
streamline and streamsurface jobs, writing each result to the job's Output.

govis extract -I job.yaml -o out`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		me := &ModelExtract{}
		if me.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		me.OutputDir, _ = cmd.Flags().GetString("outputDir")
		me.Graph, _ = cmd.Flags().GetBool("graph")
		dr, _ := cmd.Flags().GetInt("delay")
		me.Delay = time.Duration(dr) * time.Millisecond
		ip, err := processInput(me.ICFile)
		if err != nil {
			return
		}
		return RunExtract(me, ip)
	},
}

const exampleFile = `
########################################
Title: "Sphere"
Grid:
  Kind: cartesian  # curvilinear, annulus, simplex, hexahedral, delaunay or su2
  Dim: 3
  Size: [33, 33, 33]
  Min: [0, 0, 0]
  Max: [2, 2, 2]
Fields:
  r2: (x-1)**2 + (y-1)**2 + (z-1)**2
  u: -(y-1)
  v: x-1
  w: "0.1"
Jobs:
  - Kind: isosurface
    Field: r2
    Isovalue: 0.5
    Global: true
    Output: sphere.vtk
  - Kind: streamline
    Vector: [u, v, w]
    Seed: [1.5, 1, 0.2]
    Output: helix.frag
########################################
`

func processInput(icFile string) (ip *InputParameters.InputParameters, err error) {
	if len(icFile) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
	}
	var data []byte
	if data, err = os.ReadFile(icFile); err != nil {
		return
	}
	ip = &InputParameters.InputParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", icFile, err)
	}
	return
}

func init() {
	rootCmd.AddCommand(ExtractCmd)
	ExtractCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML job file describing the grid, fields and jobs")
	ExtractCmd.Flags().StringP("outputDir", "o", ".", "directory for the job outputs")
	ExtractCmd.Flags().BoolP("graph", "g", false, "display two dimensional results in a chart")
	ExtractCmd.Flags().IntP("delay", "d", 5000, "milliseconds to keep the chart up")
}

func RunExtract(me *ModelExtract, ip *InputParameters.InputParameters) error {
	if log.IsLevelEnabled(log.DebugLevel) {
		ip.Print()
	}
	sets, err := datasets.FromParameters(ip)
	if err != nil {
		return err
	}
	for s, d := range sets {
		logger := log.WithFields(log.Fields{
			"dataset":  s,
			"vertices": d.Grid.NumVertices(),
			"cells":    d.Grid.NumCells(),
		})
		logger.Debug(utils.GetMemUsage())
		logger.Info("grid ready")
		for i := range ip.Jobs {
			job := &ip.Jobs[i]
			stats := &grid.Stats{}
			start := time.Now()
			f, calls, err := RunJob(d, job, stats)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			logger.WithFields(log.Fields{
				"job":      i,
				"kind":     job.Kind,
				"calls":    calls,
				"size":     f.Size(),
				"elapsed":  time.Since(start),
				"locators": stats.String(),
			}).Info("extracted")
			if job.Output != "" {
				name := job.Output
				if len(sets) > 1 {
					ext := filepath.Ext(name)
					name = fmt.Sprintf("%s.%d%s", strings.TrimSuffix(name, ext), s, ext)
				}
				if err = writeFragment(filepath.Join(me.OutputDir, name), f); err != nil {
					return err
				}
			}
			if me.Graph && d.Grid.Dimension() == 2 {
				PlotFragment(f, d.Grid.DomainBox(), me.Delay)
			}
		}
	}
	return nil
}

func writeFragment(path string, f *extract.Fragment) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	var w io.Writer = file
	if strings.EqualFold(filepath.Ext(path), ".vtk") {
		return f.WriteVTK(w)
	}
	_, err = f.WriteTo(w)
	return
}

func jobBudget(job *InputParameters.JobParameters) (b extract.Budget, err error) {
	if b.MaxTime, err = job.MaxDuration(); err != nil {
		return
	}
	b.MaxSize = job.MaxSize
	return
}

// RunJob starts the job's extraction on d and continues it to completion
// within the job's per call budget. Locators created by streamline jobs count
// into stats.
func RunJob(d *datasets.Dataset, job *InputParameters.JobParameters, stats *grid.Stats) (f *extract.Fragment, calls int, err error) {
	var (
		x     extract.Extraction
		ok    = true
		seed  = types.Point(job.Seed)
		color grid.ScalarExtractor
	)
	b, err := jobBudget(job)
	if err != nil {
		return
	}
	if job.Color != "" {
		if color, err = d.Scalar(job.Color); err != nil {
			return
		}
	}
	switch job.Kind {
	case "isosurface":
		var field grid.ScalarExtractor
		if field, err = d.Scalar(job.Field); err != nil {
			return
		}
		iso := isosurface.New(d.Grid, field)
		iso.Color, iso.Smooth = color, job.Smooth
		switch {
		case job.Global && job.Isovalue == nil:
			return nil, 0, fmt.Errorf("a global isosurface needs an Isovalue")
		case job.Global:
			x = iso.StartGlobal(*job.Isovalue)
		case job.Isovalue != nil:
			x, ok = iso.StartSeededAt(seed, *job.Isovalue)
		default:
			x, ok = iso.StartSeeded(seed)
		}
	case "slice":
		sx := slice.New(d.Grid, color)
		normal := types.Vector(job.Normal)
		if job.Global {
			var pl slice.Plane
			if pl, err = slice.NewPlane(seed, normal); err != nil {
				return
			}
			x = sx.StartGlobal(pl)
		} else if x, ok, err = sx.StartSeeded(seed, normal); err != nil {
			return
		}
	case "streamline", "streamsurface":
		var vec grid.VectorExtractor
		if vec, err = d.Vector(job.Vector...); err != nil {
			return
		}
		if job.Kind == "streamline" {
			sx := streamline.New(d.Grid, vec)
			configure(sx, job, color, stats)
			x, ok = sx.Start(seed)
			break
		}
		sx := streamsurface.New(d.Grid, vec)
		configure(&sx.Extractor, job, color, stats)
		rake := make([]types.Point, len(job.Rake))
		for i, p := range job.Rake {
			rake[i] = types.Point(p)
		}
		x = sx.Start(rake)
	default:
		return nil, 0, fmt.Errorf("unknown job kind %q", job.Kind)
	}
	if !ok {
		return nil, 0, fmt.Errorf("seed %v is outside the grid", seed)
	}
	f, calls = extract.Run(x, b)
	return
}

func configure(sx *streamline.Extractor, job *InputParameters.JobParameters, color grid.ScalarExtractor, stats *grid.Stats) {
	sx.Color = color
	sx.Stats = stats
	sx.Params.MaxSteps = job.MaxSteps
	sx.Params.Backward = job.Backward
}
