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
	"time"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/types"
)

// FragmentLines flattens the 2D geometry of f into x1,y1,x2,y2 segment
// coordinates: surface segments first, then consecutive polyline points.
func FragmentLines(f *extract.Fragment) (segs []float32) {
	if s := f.Surface; s != nil && s.Arity == 2 {
		for i := 0; i < s.NumPrimitives(); i++ {
			pr := s.Primitive(i)
			segs = appendSegment(segs, s.Positions[pr[0]], s.Positions[pr[1]])
		}
	}
	for _, pl := range f.Polylines {
		for i := 1; i < pl.Len(); i++ {
			segs = appendSegment(segs, pl.Points[i-1], pl.Points[i])
		}
	}
	return
}

func appendSegment(segs []float32, a, b types.Point) []float32 {
	return append(segs, float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]))
}

// PlotFragment draws the 2D geometry of f over box and holds the chart up
// for delay.
func PlotFragment(f *extract.Fragment, box types.Box, delay time.Duration) {
	segs := FragmentLines(f)
	if len(segs) == 0 {
		return
	}
	ch := chart2d.NewChart2D(float32(box.Min[0]), float32(box.Max[0]),
		float32(box.Min[1]), float32(box.Max[1]),
		1024, 1024, utils2.WHITE, utils2.BLACK)
	outline := []float32{
		float32(box.Min[0]), float32(box.Min[1]), float32(box.Max[0]), float32(box.Min[1]),
		float32(box.Max[0]), float32(box.Min[1]), float32(box.Max[0]), float32(box.Max[1]),
		float32(box.Max[0]), float32(box.Max[1]), float32(box.Min[0]), float32(box.Max[1]),
		float32(box.Min[0]), float32(box.Max[1]), float32(box.Min[0]), float32(box.Min[1]),
	}
	ch.AddLine(outline, utils2.WHITE)
	ch.AddLine(segs, utils2.RED)
	time.Sleep(delay)
}
