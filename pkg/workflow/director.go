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
	"path/filepath"
	"strings"
	"sync"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
	"github.com/ctolon/analysis-framework/pkg/tableio"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// InputDescriptor is one resolved input mapping: which backing files and
// on-disk tree populate which engine table, restricted to a column subset.
// The engine consumes these already resolved; it does not parse
// configuration syntax.
type InputDescriptor struct {
	// Engine table name.
	Table string `mapstructure:"table"`
	// Backing files, one per slice.
	Sources []string `mapstructure:"sources"`
	// On-disk tree (table) name within each file.
	Tree string `mapstructure:"tree"`
	// Column subset to populate; empty selects every persistent column.
	Columns []string `mapstructure:"columns"`
}

// OutputDescriptor is one resolved output mapping: which engine table is
// written to which destination tree and file, restricted to a column subset.
type OutputDescriptor struct {
	Table string `mapstructure:"table"`
	// Destination tree (table) name.
	Tree string `mapstructure:"tree"`
	// Destination file; the slice index is injected before the extension.
	File string `mapstructure:"file"`
	// Column subset to write; empty selects every persistent and expression
	// column.
	Columns []string `mapstructure:"columns"`
}

// Reader is the director materialising engine tables from input
// descriptors.  One backing file per descriptor forms one slice.
type Reader struct {
	schemas map[string]table.Schema
	inputs  []InputDescriptor
	slices  int
}

// NewReader validates input descriptors against the declared schemas.  All
// descriptors must agree on the number of matched files; disagreement is a
// configuration defect which aborts the whole workflow.
func NewReader(schemas map[string]table.Schema, inputs []InputDescriptor) (*Reader, error) {
	if len(inputs) == 0 {
		return &Reader{schemas: schemas}, nil
	}
	//
	slices := len(inputs[0].Sources)
	//
	for _, in := range inputs {
		if _, ok := schemas[in.Table]; !ok {
			return nil, errs.Newf(errs.SchemaMismatch, "input names undeclared table %q", in.Table)
		}
		//
		if len(in.Sources) != slices {
			return nil, errs.Newf(errs.MismatchedInputFileCounts,
				"input %q matched %d files, input %q matched %d",
				inputs[0].Table, slices, in.Table, len(in.Sources)).
				WithDetail("table", in.Table)
		}
	}
	//
	return &Reader{schemas, inputs, slices}, nil
}

// Slices returns the number of slices the inputs resolve to.
func (r *Reader) Slices() int {
	return r.slices
}

// Read materialises one slice, loading every input's backing file
// concurrently.
func (r *Reader) Read(ctx context.Context, index int) (*Slice, error) {
	var (
		group, _ = errgroup.WithContext(ctx)
		mutex    sync.Mutex
		slice    = NewSlice(index)
	)
	//
	for _, in := range r.inputs {
		group.Go(func() error {
			t, err := r.load(in, index)
			if err != nil {
				return err
			}
			//
			mutex.Lock()
			defer mutex.Unlock()
			slice.Add(in.Table, t)
			//
			return nil
		})
	}
	//
	if err := group.Wait(); err != nil {
		return nil, err
	}
	//
	return slice, nil
}

// load materialises one input's table for one slice.
func (r *Reader) load(in InputDescriptor, index int) (*table.Table, error) {
	source := in.Sources[index]
	log.Debugf("loading table %q from %s (tree %q)", in.Table, source, in.Tree)
	//
	contents, err := tableio.ReadFile(source)
	if err != nil {
		return nil, err
	}
	//
	raw, ok := contents[in.Tree]
	if !ok {
		return nil, errs.Newf(errs.SchemaMismatch, "%s holds no tree %q", source, in.Tree)
	}
	//
	schema, err := r.subset(in)
	if err != nil {
		return nil, err
	}
	//
	data := make(map[string][]table.Value)
	//
	for _, c := range schema.Columns() {
		if c.Kind() != table.Persistent || !selected(in.Columns, c.Name()) {
			continue
		}
		// The column label is the on-disk name.
		col, ok := raw.Column(label(c))
		if !ok {
			return nil, errs.Newf(errs.SchemaMismatch,
				"%s tree %q lacks column %q", source, in.Tree, label(c)).
				WithDetail("table", in.Table)
		}
		//
		data[c.Name()] = col.Values
	}
	//
	return table.New(schema, table.Origin{Source: source, Description: in.Tree}, data)
}

// subset narrows an input's declared schema to the selected persistent
// columns, keeping all derived columns.  Narrowing fails when a derived
// column depends on a deselected one.
func (r *Reader) subset(in InputDescriptor) (table.Schema, error) {
	schema := r.schemas[in.Table]
	//
	if len(in.Columns) == 0 {
		return schema, nil
	}
	//
	var cols []table.Column
	//
	for _, c := range schema.Columns() {
		if c.Kind() != table.Persistent || selected(in.Columns, c.Name()) {
			cols = append(cols, c)
		}
	}
	//
	return table.NewSchema(cols...)
}

// ===================================================================
// Writer
// ===================================================================

// Writer is the director committing produced tables to output descriptors.
// Nothing is written for a slice whose processing failed.
type Writer struct {
	outputs []OutputDescriptor
}

// NewWriter validates output descriptors.  Two descriptors mapping onto the
// same destination tree and file is a configuration defect which aborts the
// whole workflow.
func NewWriter(outputs []OutputDescriptor) (*Writer, error) {
	targets := make(map[string]string)
	//
	for _, out := range outputs {
		target := out.File + ":" + out.Tree
		//
		if prev, ok := targets[target]; ok {
			return nil, errs.Newf(errs.DuplicateOutputTarget,
				"tables %q and %q both map onto tree %q in %s", prev, out.Table, out.Tree, out.File).
				WithDetail("tree", out.Tree).
				WithDetail("file", out.File)
		}
		//
		targets[target] = out.Table
	}
	//
	return &Writer{outputs}, nil
}

// Schema reports, per output, the destination tree and the on-disk column
// names which will be written for the given table schema, letting the
// surrounding I/O subsystem select and rename branches.
func (w *Writer) Schema(out OutputDescriptor, schema table.Schema) (string, []string) {
	var names []string
	//
	for _, c := range schema.Columns() {
		if exportable(c) && selected(out.Columns, c.Name()) {
			names = append(names, label(c))
		}
	}
	//
	return out.Tree, names
}

// Commit writes every output's table of a processed slice.  All destination
// files are assembled in memory first, so a failing table materialisation
// commits no partial rows.
func (w *Writer) Commit(slice *Slice) error {
	files := make(map[string]map[string]tableio.RawTable)
	//
	for _, out := range w.outputs {
		t, ok := slice.Table(out.Table)
		if !ok {
			return errs.Newf(errs.SchemaMismatch, "slice %d carries no table %q", slice.Index, out.Table)
		}
		//
		raw, err := export(t, out)
		if err != nil {
			return err
		}
		//
		path := sliceFileName(out.File, slice.Index)
		if files[path] == nil {
			files[path] = make(map[string]tableio.RawTable)
		}
		//
		files[path][out.Tree] = raw
	}
	//
	for path, tables := range files {
		log.Debugf("writing %d tree(s) to %s", len(tables), path)
		//
		if err := tableio.WriteFile(path, tables); err != nil {
			return err
		}
	}
	//
	return nil
}

// export materialises the selected columns of a table, evaluating expression
// columns row by row.  Dynamic columns are never exported.
func export(t *table.Table, out OutputDescriptor) (tableio.RawTable, error) {
	raw := tableio.RawTable{Name: out.Tree}
	//
	for _, c := range t.Schema().Columns() {
		if !exportable(c) || !selected(out.Columns, c.Name()) {
			continue
		}
		//
		values := make([]table.Value, t.Height())
		//
		for row := uint(0); row < t.Height(); row++ {
			v, err := t.Cell(c.Name(), row)
			if err != nil {
				return tableio.RawTable{}, err
			}
			//
			values[row] = v
		}
		//
		raw.Columns = append(raw.Columns, tableio.RawColumn{
			Name:   label(c),
			Type:   c.Type(),
			Values: values,
		})
	}
	//
	return raw, nil
}

// sliceFileName injects the slice index before the file extension, so each
// slice commits to its own file.
func sliceFileName(path string, index int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s.%03d%s", strings.TrimSuffix(path, ext), index, ext)
}

// label returns the on-disk name of a column: its label when set, its name
// otherwise.
func label(c table.Column) string {
	if c.Label() != "" {
		return c.Label()
	}
	//
	return c.Name()
}

// selected checks whether a column subset includes the given column; an
// empty subset selects everything.
func selected(subset []string, name string) bool {
	if len(subset) == 0 {
		return true
	}
	//
	for _, s := range subset {
		if s == name {
			return true
		}
	}
	//
	return false
}

// exportable checks whether a column kind can be written out.
func exportable(c table.Column) bool {
	return c.Kind() != table.Dynamic
}
