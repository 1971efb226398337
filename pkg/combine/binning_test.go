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
	"testing"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vertexTable(t *testing.T, zvtx ...float64) *table.Table {
	t.Helper()
	//
	schema, err := table.NewSchema(
		table.NewColumn("zvtx", "fPosZ", table.Float64),
		table.NewColumn("mult", "fMult", table.Float64),
	)
	require.NoError(t, err)
	//
	zs := make([]table.Value, len(zvtx))
	ms := make([]table.Value, len(zvtx))
	//
	for i, z := range zvtx {
		zs[i] = table.Float(z)
		ms[i] = table.Float(float64(10 * i))
	}
	//
	tbl, err := table.New(schema, table.Origin{}, map[string][]table.Value{"zvtx": zs, "mult": ms})
	require.NoError(t, err)
	//
	return tbl
}

func Test_Binning_OneDim_IgnoreOverflow(t *testing.T) {
	binning, err := NewBinning(true, NewAxis("zvtx", []float64{0, 1, 2}))
	require.NoError(t, err)
	//
	bins, err := binning.Assign(vertexTable(t, 0.5, 1.5, -1.0, 2.5, 0.0))
	require.NoError(t, err)
	// Out-of-range rows collapse into the dummy bin.
	assert.Equal(t, []int{0, 1, DummyBin, DummyBin, 0}, bins)
}

func Test_Binning_OneDim_FoldedOverflow(t *testing.T) {
	binning, err := NewBinning(false, NewAxis("zvtx", []float64{0, 1, 2}))
	require.NoError(t, err)
	//
	bins, err := binning.Assign(vertexTable(t, -1.0, 2.5, 0.5, 1.5))
	require.NoError(t, err)
	// Bin 0 is reserved for underflow, bin 1 for overflow; in-range bins
	// follow.
	assert.Equal(t, []int{0, 1, 2, 3}, bins)
}

func Test_Binning_EqualWidthAxis(t *testing.T) {
	axis := EqualWidthAxis("zvtx", 4, -10, 10)
	//
	assert.Equal(t, []float64{-10, -5, 0, 5, 10}, axis.Edges)
	assert.Equal(t, 1, axis.locate(-2.5))
	assert.Equal(t, 3, axis.locate(9.9))
	assert.Equal(t, -1, axis.locate(-10.1))
	assert.Equal(t, 4, axis.locate(10.0))
}

func Test_Binning_TwoDim(t *testing.T) {
	binning, err := NewBinning(true,
		NewAxis("zvtx", []float64{0, 1, 2}),
		NewAxis("mult", []float64{0, 15, 30}),
	)
	require.NoError(t, err)
	// Rows: (0.5, 0) -> (0,0); (1.5, 10) -> (1,0); (0.5, 20) -> (0,1).
	bins, err := binning.Assign(vertexTable(t, 0.5, 1.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, bins)
}

func Test_Binning_TwoDim_AllUnderflowIsBinZero(t *testing.T) {
	binning, err := NewBinning(false,
		NewAxis("zvtx", []float64{0, 1}),
		NewAxis("mult", []float64{5, 15}),
	)
	require.NoError(t, err)
	// Row 0: zvtx -2 under, mult 0 under -> all-dimensions-underflow.
	bins, err := binning.Assign(vertexTable(t, -2.0))
	require.NoError(t, err)
	assert.Equal(t, 0, bins[0])
	// In-range bins start after the 3^2-1 reserved escape bins.  Row 1 has
	// zvtx 0.5 and mult 10, in range on both axes.
	bins, err = binning.Assign(vertexTable(t, 0.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, 8, bins[1])
}

func Test_Binning_TooManyDimensions(t *testing.T) {
	axis := NewAxis("zvtx", []float64{0, 1})
	//
	_, err := NewBinning(true, axis, axis, axis, axis)
	assert.True(t, errs.IsKind(err, errs.InvalidBinningDimension))
}

func Test_Binning_Custom(t *testing.T) {
	binning := CustomBinning(func(row table.RowView) (int, error) {
		v, err := row.Float64("mult")
		return int(v) / 25, err
	})
	//
	bins, err := binning.Assign(vertexTable(t, 0, 0, 0, 0))
	require.NoError(t, err)
	// mult runs 0, 10, 20, 30 across rows.
	assert.Equal(t, []int{0, 0, 0, 1}, bins)
}

func Test_Binning_PassThrough(t *testing.T) {
	schema, err := table.NewSchema(table.NewColumn("bin", "fBin", table.Int64))
	require.NoError(t, err)
	//
	tbl, err := table.New(schema, table.Origin{}, map[string][]table.Value{
		"bin": {table.Int(3), table.Int(-1), table.Int(0)},
	})
	require.NoError(t, err)
	//
	bins, err := NoBinning("bin").Assign(tbl)
	require.NoError(t, err)
	assert.Equal(t, []int{3, -1, 0}, bins)
}
