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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notargets/govis/datasets"
	"github.com/notargets/govis/types"
)

// LocateCmd represents the locate command
var LocateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate points in the grid of a YAML job file",
	Long: `
Prints the containing cell, local coordinates and the interpolated value and
gradient of every field at each point.

govis locate -I job.yaml -p 0.5,0.5,0.5 -p 1,1,1`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		pts, _ := cmd.Flags().GetStringArray("point")
		points := make([]types.Point, len(pts))
		for i, s := range pts {
			if points[i], err = ParsePoint(s); err != nil {
				return
			}
		}
		ip, err := processInput(icFile)
		if err != nil {
			return
		}
		sets, err := datasets.FromParameters(ip)
		if err != nil {
			return
		}
		for _, d := range sets {
			if err = LocatePoints(os.Stdout, d, points); err != nil {
				return
			}
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(LocateCmd)
	LocateCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML job file describing the grid and fields")
	LocateCmd.Flags().StringArrayP("point", "p", nil, "comma separated coordinates of a point to locate, repeatable")
}

// ParsePoint reads "x,y[,z]".
func ParsePoint(s string) (p types.Point, err error) {
	parts := strings.Split(s, ",")
	if len(parts) < 1 || len(parts) > types.MaxDim {
		return p, fmt.Errorf("point %q needs 1 to %d coordinates", s, types.MaxDim)
	}
	for i, part := range parts {
		if p[i], err = strconv.ParseFloat(strings.TrimSpace(part), 64); err != nil {
			return p, fmt.Errorf("point %q: %w", s, err)
		}
	}
	return
}

// LocatePoints writes one report per point, tracing from each point to the
// next.
func LocatePoints(w io.Writer, d *datasets.Dataset, points []types.Point) error {
	loc := d.Grid.NewLocator()
	dim := d.Grid.Dimension()
	for _, p := range points {
		if !loc.Locate(p, true) {
			fmt.Fprintf(w, "%v: outside the grid\n", p[:dim])
			continue
		}
		local := loc.LocalCoords()
		fmt.Fprintf(w, "%v: cell %d, local %v, %s\n", p[:dim], loc.Cell(), local[:dim], loc.State())
		for _, name := range d.Fields {
			e, err := d.Scalar(name)
			if err != nil {
				return err
			}
			grad := loc.CalcGradient(e)
			fmt.Fprintf(w, "\t%s = %8.5f, gradient = %8.5f\n", name, loc.CalcScalar(e), grad[:dim])
		}
	}
	return nil
}
