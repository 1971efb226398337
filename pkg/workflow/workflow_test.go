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
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/expr"
	"github.com/ctolon/analysis-framework/pkg/filter"
	"github.com/ctolon/analysis-framework/pkg/table"
	"github.com/ctolon/analysis-framework/pkg/tableio"
	"github.com/stretchr/testify/require"
)

// trackSchema declares the table used throughout: two persistent columns
// whose on-disk labels differ from their engine names.
func trackSchema(t *testing.T) table.Schema {
	schema, err := table.NewSchema(
		table.NewColumn("pt", "fPt", table.Float64),
		table.NewColumn("sign", "fSign", table.Int64),
	)
	require.NoError(t, err)
	//
	return schema
}

// writeTracks writes one input file holding a "tracks" tree.
func writeTracks(t *testing.T, path string, pt []float64, sign []int64) {
	columns := []tableio.RawColumn{
		{Name: "fPt", Type: table.Float64},
		{Name: "fSign", Type: table.Int64},
	}
	//
	for i := range pt {
		columns[0].Values = append(columns[0].Values, table.Float(pt[i]))
		columns[1].Values = append(columns[1].Values, table.Int(sign[i]))
	}
	//
	err := tableio.WriteFile(path, map[string]tableio.RawTable{
		"tracks": {Name: "tracks", Columns: columns},
	})
	require.NoError(t, err)
}

// fixture builds a two-slice reader over temporary input files.
func fixture(t *testing.T) (*Reader, string) {
	dir := t.TempDir()
	//
	writeTracks(t, filepath.Join(dir, "in0.json"), []float64{0.5, 1.5, 2.5}, []int64{1, -1, 1})
	writeTracks(t, filepath.Join(dir, "in1.json"), []float64{3.0, 0.2}, []int64{-1, 1})
	//
	schemas := map[string]table.Schema{"tracks": trackSchema(t)}
	//
	reader, err := NewReader(schemas, []InputDescriptor{{
		Table:   "tracks",
		Sources: []string{filepath.Join(dir, "in0.json"), filepath.Join(dir, "in1.json")},
		Tree:    "tracks",
	}})
	require.NoError(t, err)
	//
	return reader, dir
}

// selectStep copies rows with pt above the threshold into a fresh table
// named "selected".
func selectStep(t *testing.T, threshold float64) Step {
	return Step{
		Name: "select",
		Needs: CapabilitySet{{
			Table:   "tracks",
			Columns: []ColumnRequirement{{"pt", table.Float64}, {"sign", table.Int64}},
		}},
		Run: func(_ context.Context, slice *Slice) error {
			tracks, _ := slice.Table("tracks")
			//
			f := filter.New(expr.Gt(expr.Col("pt"), expr.ConstF(threshold)))
			if err := f.Compile(tracks.Schema(), nil); err != nil {
				return err
			}
			//
			builder := table.NewBuilder(trackSchema(t), table.Origin{Description: "selected"})
			rows := f.Rows(tracks)
			//
			for rows.HasNext() {
				row := rows.Next()
				pt, _ := row.Float64("pt")
				sign, _ := row.Int64("sign")
				//
				if err := builder.Append(table.Float(pt), table.Int(sign)); err != nil {
					return err
				}
			}
			//
			if err := rows.Err(); err != nil {
				return err
			}
			//
			slice.Add("selected", builder.Seal())
			//
			return nil
		},
	}
}

func Test_Workflow_EndToEnd(t *testing.T) {
	reader, dir := fixture(t)
	out := filepath.Join(dir, "out.json")
	//
	writer, err := NewWriter([]OutputDescriptor{{Table: "selected", Tree: "seltracks", File: out}})
	require.NoError(t, err)
	//
	runner := NewRunner(reader, writer).Register(selectStep(t, 1.0))
	processed, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, processed)
	// First slice keeps rows 1 and 2, second keeps row 0.
	for i, want := range [][]float64{{1.5, 2.5}, {3.0}} {
		contents, err := tableio.ReadFile(sliceFileName(out, i))
		require.NoError(t, err)
		//
		raw, ok := contents["seltracks"]
		require.True(t, ok)
		require.Equal(t, uint(len(want)), raw.Height())
		//
		col, ok := raw.Column("fPt")
		require.True(t, ok)
		//
		for j, pt := range want {
			require.Equal(t, pt, col.Values[j].Float())
		}
	}
}

func Test_Reader_MismatchedInputFileCounts(t *testing.T) {
	schemas := map[string]table.Schema{"tracks": trackSchema(t), "muons": trackSchema(t)}
	//
	_, err := NewReader(schemas, []InputDescriptor{
		{Table: "tracks", Sources: []string{"a.json", "b.json"}, Tree: "tracks"},
		{Table: "muons", Sources: []string{"a.json"}, Tree: "muons"},
	})
	require.True(t, errs.IsKind(err, errs.MismatchedInputFileCounts))
	require.True(t, errs.IsFatal(err))
}

func Test_Reader_UndeclaredTable(t *testing.T) {
	_, err := NewReader(map[string]table.Schema{}, []InputDescriptor{
		{Table: "tracks", Sources: []string{"a.json"}, Tree: "tracks"},
	})
	require.True(t, errs.IsKind(err, errs.SchemaMismatch))
}

func Test_Reader_ColumnSubset(t *testing.T) {
	reader, _ := fixture(t)
	reader.inputs[0].Columns = []string{"pt"}
	//
	slice, err := reader.Read(context.Background(), 0)
	require.NoError(t, err)
	//
	tracks, ok := slice.Table("tracks")
	require.True(t, ok)
	require.True(t, tracks.Schema().HasColumn("pt"))
	require.False(t, tracks.Schema().HasColumn("sign"))
}

func Test_Writer_DuplicateOutputTarget(t *testing.T) {
	_, err := NewWriter([]OutputDescriptor{
		{Table: "a", Tree: "t", File: "out.json"},
		{Table: "b", Tree: "t", File: "out.json"},
	})
	require.True(t, errs.IsKind(err, errs.DuplicateOutputTarget))
	require.True(t, errs.IsFatal(err))
}

func Test_Writer_DistinctTreesShareFile(t *testing.T) {
	_, err := NewWriter([]OutputDescriptor{
		{Table: "a", Tree: "t1", File: "out.json"},
		{Table: "b", Tree: "t2", File: "out.json"},
	})
	require.NoError(t, err)
}

func Test_Runner_SkipsFailingSlice(t *testing.T) {
	reader, dir := fixture(t)
	out := filepath.Join(dir, "out.json")
	//
	writer, err := NewWriter([]OutputDescriptor{{Table: "selected", Tree: "seltracks", File: out}})
	require.NoError(t, err)
	//
	failing := Step{
		Name: "flaky",
		Run: func(_ context.Context, slice *Slice) error {
			if slice.Index == 0 {
				return fmt.Errorf("transient failure")
			}
			//
			return nil
		},
	}
	//
	runner := NewRunner(reader, writer).Register(failing, selectStep(t, 1.0))
	processed, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	// Slice 0 committed nothing.
	_, err = os.Stat(sliceFileName(out, 0))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(sliceFileName(out, 1))
	require.NoError(t, err)
}

func Test_Runner_StructuralErrorAborts(t *testing.T) {
	reader, _ := fixture(t)
	//
	writer, err := NewWriter(nil)
	require.NoError(t, err)
	//
	demanding := Step{
		Name:  "demanding",
		Needs: CapabilitySet{{Table: "tracks", Columns: []ColumnRequirement{{"eta", table.Float64}}}},
		Run:   func(context.Context, *Slice) error { return nil },
	}
	//
	processed, err := NewRunner(reader, writer).Register(demanding).Run(context.Background())
	require.True(t, errs.IsKind(err, errs.SchemaMismatch))
	require.Equal(t, 0, processed)
}

func Test_Capability_TypeMismatch(t *testing.T) {
	c := Capability{Table: "tracks", Columns: []ColumnRequirement{{"pt", table.Int64}}}
	err := c.Match(trackSchema(t))
	require.True(t, errs.IsKind(err, errs.SchemaMismatch))
}

func Test_Registry_Bind(t *testing.T) {
	registry := NewRegistry().Set("ptCut", table.Float(0.5))
	//
	v, err := registry.Bind("ptCut")
	require.NoError(t, err)
	require.Equal(t, 0.5, v.Float())
	//
	_, err = registry.Bind("etaCut")
	require.True(t, errs.IsKind(err, errs.UnresolvedConfigurable))
}

func Test_Registry_NamesFoldCase(t *testing.T) {
	// Configuration loaders fold key case, so a value declared as "ptCut"
	// arrives lowercased while predicates keep the declared spelling.
	registry := NewRegistry().Set("ptcut", table.Float(0.5))
	//
	v, err := registry.Bind("ptCut")
	require.NoError(t, err)
	require.Equal(t, 0.5, v.Float())
	//
	v, ok := registry.Lookup("PTCUT")
	require.True(t, ok)
	require.Equal(t, 0.5, v.Float())
}

func Test_FillFromTable(t *testing.T) {
	reader, _ := fixture(t)
	//
	slice, err := reader.Read(context.Background(), 0)
	require.NoError(t, err)
	tracks, _ := slice.Table("tracks")
	//
	f := filter.New(expr.Gt(expr.Col("pt"), expr.ConstF(1.0)))
	require.NoError(t, f.Compile(tracks.Schema(), nil))
	//
	var filled []float64
	err = FillFromTable(tracks, []*filter.Filter{f}, nil, []string{"pt"},
		func(values []table.Value) error {
			filled = append(filled, values[0].Float())
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5}, filled)
}

func Test_SkimStep(t *testing.T) {
	reader, _ := fixture(t)
	//
	slice, err := reader.Read(context.Background(), 0)
	require.NoError(t, err)
	tracks, _ := slice.Table("tracks")
	//
	f := filter.New(expr.Eq(expr.Col("sign"), expr.ConstI(1)))
	require.NoError(t, f.Compile(tracks.Schema(), nil))
	//
	step := SkimStep(map[string][]*filter.Filter{"tracks": {f}})
	require.NoError(t, step.Run(context.Background(), slice))
	//
	skimmed, _ := slice.Table("tracks")
	require.Equal(t, uint(2), skimmed.Height())
	//
	pt, err := skimmed.Cell("pt", 1)
	require.NoError(t, err)
	require.Equal(t, 2.5, pt.Float())
}

func Test_Config_CompiledFilters(t *testing.T) {
	cfg := &Config{
		Tables: []TableConfig{{
			Name: "tracks",
			Columns: []ColumnConfig{
				{Name: "pt", Label: "fPt", Type: "float64"},
				{Name: "sign", Label: "fSign", Type: "int64"},
			},
		}},
		Filters: []FilterConfig{
			{Table: "tracks", Column: "pt", Op: ">", Configurable: "ptCut"},
			{Table: "tracks", Column: "sign", Op: "==", Value: 1},
		},
	}
	//
	schemas, err := cfg.Schemas()
	require.NoError(t, err)
	//
	registry := NewRegistry().Set("ptCut", table.Float(1.0))
	filters, err := cfg.CompiledFilters(schemas, registry)
	require.NoError(t, err)
	require.Len(t, filters["tracks"], 2)
	// Unresolved configurable is caught at compile time.
	_, err = cfg.CompiledFilters(schemas, NewRegistry())
	require.True(t, errs.IsKind(err, errs.UnresolvedConfigurable))
}

func Test_Config_FilterUnknownOperator(t *testing.T) {
	fc := FilterConfig{Table: "tracks", Column: "pt", Op: "~", Value: 1}
	//
	_, err := fc.predicate()
	require.True(t, errs.IsKind(err, errs.SchemaMismatch))
}

func Test_Config_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.yaml")
	//
	contents := `
tables:
  - name: tracks
    columns:
      - {name: pt, label: fPt, type: float64}
      - {name: sign, label: fSign, type: int64}
inputs:
  - table: tracks
    tree: tracks
    sources: [in0.json, in1.json]
outputs:
  - table: tracks
    tree: tracks
    file: out.json
configurables:
  ptCut: 0.5
  nsigma: 3
  period: LHC22o
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	//
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Inputs, 1)
	require.Equal(t, []string{"in0.json", "in1.json"}, cfg.Inputs[0].Sources)
	require.Len(t, cfg.Outputs, 1)
	//
	schemas, err := cfg.Schemas()
	require.NoError(t, err)
	//
	col, _, ok := schemas["tracks"].Column("pt")
	require.True(t, ok)
	require.Equal(t, "fPt", col.Label())
	require.Equal(t, table.Float64, col.Type())
	//
	registry, err := cfg.Registry()
	require.NoError(t, err)
	//
	v, err := registry.Bind("ptCut")
	require.NoError(t, err)
	require.Equal(t, 0.5, v.Float())
	//
	v, err = registry.Bind("period")
	require.NoError(t, err)
	require.Equal(t, "LHC22o", v.Str())
}

func Test_Config_UnknownColumnType(t *testing.T) {
	cfg := &Config{Tables: []TableConfig{{
		Name:    "tracks",
		Columns: []ColumnConfig{{Name: "pt", Type: "decimal"}},
	}}}
	//
	_, err := cfg.Schemas()
	require.True(t, errs.IsKind(err, errs.SchemaMismatch))
}
