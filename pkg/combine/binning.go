// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package combine

import (
	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// DummyBin is the bin id assigned to out-of-range rows when a binning policy
// ignores overflow.  It is the conventional outsider bin for block
// combinations.
const DummyBin = -1

// Binning assigns each row of a source a bin id.  Assignment runs once per
// slice, before block combinations are generated.
type Binning interface {
	// Assign computes the bin id of every row of the source.
	Assign(src table.Source) ([]int, error)
}

// Axis defines the bin edges of one binning dimension over a named column.
type Axis struct {
	// Column supplying the binned value.
	Column string
	// Edges in ascending order; len(Edges)-1 in-range bins of arbitrary
	// widths.
	Edges []float64
}

// NewAxis constructs an axis from explicit bin edges.
func NewAxis(column string, edges []float64) Axis {
	return Axis{column, edges}
}

// EqualWidthAxis constructs an axis of n equal-width bins spanning
// [min, max).
func EqualWidthAxis(column string, n uint, min float64, max float64) Axis {
	edges := make([]float64, n+1)
	width := (max - min) / float64(n)
	//
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	// Avoid rounding drift on the final edge.
	edges[n] = max
	//
	return Axis{column, edges}
}

// bins returns the number of in-range bins on this axis.
func (a Axis) bins() int {
	return len(a.Edges) - 1
}

// locate classifies a value on this axis: the in-range bin index, or -1
// below the first edge, or bins() at or above the last edge.
func (a Axis) locate(v float64) int {
	if v < a.Edges[0] {
		return -1
	}
	//
	for i := 1; i < len(a.Edges); i++ {
		if v < a.Edges[i] {
			return i - 1
		}
	}
	//
	return a.bins()
}

// axisBinning is the built-in 1-3 dimensional policy.
type axisBinning struct {
	axes []Axis
	// With ignoreOverflow set, out-of-range rows collapse into DummyBin;
	// otherwise they fold into low-numbered reserved bins, with bin 0
	// reserved for all-dimensions-underflow.
	ignoreOverflow bool
}

// NewBinning constructs a binning policy over one, two or three axes.
// Higher dimensionality requires a custom assignment function and fails with
// InvalidBinningDimension here.
func NewBinning(ignoreOverflow bool, axes ...Axis) (Binning, error) {
	if len(axes) == 0 || len(axes) > 3 {
		return nil, errs.Newf(errs.InvalidBinningDimension,
			"%d dimensions requested, only 1-3 are built in", len(axes))
	}
	//
	for _, a := range axes {
		if a.bins() < 1 {
			return nil, errs.Newf(errs.InvalidBinningDimension,
				"axis %q needs at least two edges", a.Column)
		}
	}
	//
	return &axisBinning{axes, ignoreOverflow}, nil
}

// Assign computes the bin id of every row.
//
//nolint:revive
func (p *axisBinning) Assign(src table.Source) ([]int, error) {
	bins := make([]int, src.Height())
	//
	for row := uint(0); row < src.Height(); row++ {
		located := make([]int, len(p.axes))
		//
		for d, a := range p.axes {
			v, err := src.Cell(a.Column, row)
			if err != nil {
				return nil, err
			}
			//
			located[d] = a.locate(v.Float())
		}
		//
		bins[row] = p.fold(located)
	}
	//
	return bins, nil
}

// fold combines per-axis locations into a single bin id.
func (p *axisBinning) fold(located []int) int {
	inRange := true
	//
	for d, a := range p.axes {
		if located[d] < 0 || located[d] >= a.bins() {
			inRange = false
		}
	}
	//
	if p.ignoreOverflow && !inRange {
		return DummyBin
	}
	// Reserved escape bins precede the in-range bins: every out-of-range
	// pattern gets its own low bin, with all-dimensions-underflow first.
	reserved := pow3(len(p.axes)) - 1
	//
	if !inRange {
		return p.escapeRank(located)
	}
	//
	if p.ignoreOverflow {
		reserved = 0
	}
	//
	id, stride := reserved, 1
	//
	for d, a := range p.axes {
		id += located[d] * stride
		stride *= a.bins()
	}
	//
	return id
}

// escapeRank orders out-of-range patterns by their base-3 code (underflow 0,
// in-range 1, overflow 2 per dimension), so the all-underflow pattern lands
// in bin 0 and partial overflows take the subsequent low bins.
func (p *axisBinning) escapeRank(located []int) int {
	code, allInCode, stride := 0, 0, 1
	//
	for d, a := range p.axes {
		digit := 1
		if located[d] < 0 {
			digit = 0
		} else if located[d] >= a.bins() {
			digit = 2
		}
		//
		code += digit * stride
		allInCode += stride
		stride *= 3
	}
	// The all-in-range code is excluded from the escape ordering.
	if code > allInCode {
		return code - 1
	}
	//
	return code
}

func pow3(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 3
	}
	//
	return p
}

// ===================================================================
// Custom and pass-through policies
// ===================================================================

// customBinning delegates assignment to a caller-supplied function, the only
// route to more than three dimensions.
type customBinning struct {
	fn func(row table.RowView) (int, error)
}

// CustomBinning constructs a policy from a caller-supplied bin-assignment
// function.
func CustomBinning(fn func(row table.RowView) (int, error)) Binning {
	return &customBinning{fn}
}

// Assign computes the bin id of every row via the supplied function.
//
//nolint:revive
func (p *customBinning) Assign(src table.Source) ([]int, error) {
	bins := make([]int, src.Height())
	//
	for row := uint(0); row < src.Height(); row++ {
		b, err := p.fn(src.Row(row))
		if err != nil {
			return nil, err
		}
		//
		bins[row] = b
	}
	//
	return bins, nil
}

// noBinning takes pre-existing bin ids directly from a designated column,
// performing no computation.
type noBinning struct {
	column string
}

// NoBinning constructs the pass-through policy reading bin ids from the
// named column.
func NoBinning(column string) Binning {
	return &noBinning{column}
}

// Assign reads the bin id of every row from the designated column.
//
//nolint:revive
func (p *noBinning) Assign(src table.Source) ([]int, error) {
	bins := make([]int, src.Height())
	//
	for row := uint(0); row < src.Height(); row++ {
		v, err := src.Cell(p.column, row)
		if err != nil {
			return nil, err
		}
		//
		bins[row] = int(v.Int())
	}
	//
	return bins, nil
}
