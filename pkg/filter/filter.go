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

// Package filter compiles predicates over table columns into row-selection
// evaluators.  A Filter is compiled once and then evaluated lazily, row by
// row; matching row indices can also be materialised as roaring bitmaps for
// cheap set algebra between filters and partitions.
package filter

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ctolon/analysis-framework/pkg/expr"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// Filter is a compiled predicate over one table's columns.  Filters may
// reference persistent and expression columns only; aggregates over an
// associated table require the association to be attached before
// compilation.
type Filter struct {
	pred  expr.Node
	assoc *Association
}

// New declares a filter from a predicate expression.
func New(pred expr.Node) *Filter {
	return &Filter{pred: pred}
}

// WithAssociation attaches the association used by aggregate nodes of the
// predicate.
func (f *Filter) WithAssociation(assoc *Association) *Filter {
	f.assoc = assoc
	return f
}

// Predicate returns the underlying expression tree.
func (f *Filter) Predicate() expr.Node {
	return f.pred
}

// Compile validates the predicate against the given schema and resolves the
// configurables it references.  This happens once; referencing a dynamic or
// unknown column fails with SchemaMismatch, an unknown configurable with
// UnresolvedConfigurable.
func (f *Filter) Compile(schema table.Schema, lookup expr.Lookup) error {
	var child *table.Schema
	//
	if f.assoc != nil {
		s := f.assoc.child.Schema()
		child = &s
	}
	//
	if err := expr.CheckFilterable(f.pred, schema, child); err != nil {
		return err
	}
	//
	if lookup == nil {
		lookup = func(string) (table.Value, bool) { return table.Value{}, false }
	}
	//
	return expr.BindConfigurables(f.pred, lookup)
}

// Match evaluates the predicate against a single row.
func (f *Filter) Match(row table.RowView) (bool, error) {
	v, err := f.pred.Eval(f.env(row))
	if err != nil {
		return false, err
	}
	//
	return v.IsTrue(), nil
}

// Rows returns a lazy stream over the rows of a source matching this filter.
func (f *Filter) Rows(src table.Source) *RowStream {
	return NewRowStream(src, f.Match)
}

// Mask materialises the matching row indices of a source as a bitmap.
func (f *Filter) Mask(src table.Source) (*roaring.Bitmap, error) {
	mask := roaring.New()
	//
	for row := uint(0); row < src.Height(); row++ {
		ok, err := f.Match(src.Row(row))
		if err != nil {
			return nil, err
		} else if ok {
			mask.Add(uint32(row))
		}
	}
	//
	return mask, nil
}

// env wraps a row view with the association (when present) so that aggregate
// nodes can reach the associated rows.
func (f *Filter) env(row table.RowView) table.RowEnv {
	if f.assoc == nil {
		return row
	}
	//
	return &assocEnv{row, f.assoc}
}

// ===================================================================
// Combined application
// ===================================================================

// Apply computes the row selection of a source under the combined semantics
// of the engine: the conjunction of all filters intersected with the
// disjunction of all partitions.  Filters narrow universally; partitions are
// alternatives.  With no partitions declared the result is the filter
// intersection alone; with nothing declared at all, every row is selected.
func Apply(src table.Source, filters []*Filter, partitions []*Partition) (*roaring.Bitmap, error) {
	mask := roaring.New()
	mask.AddRange(0, uint64(src.Height()))
	// Filters combine by intersection.
	for _, f := range filters {
		m, err := f.Mask(src)
		if err != nil {
			return nil, err
		}
		//
		mask.And(m)
	}
	// Partitions combine by union.
	if len(partitions) > 0 {
		union := roaring.New()
		//
		for _, p := range partitions {
			m, err := p.Indices(src)
			if err != nil {
				return nil, err
			}
			//
			union.Or(m)
		}
		//
		mask.And(union)
	}
	//
	return mask, nil
}

// ===================================================================
// Row stream
// ===================================================================

// RowStream is a lazy, non-restartable sequence of matching rows.  Any
// evaluation failure terminates the stream; the failure is reported by Err
// and aborts processing of the current slice.
type RowStream struct {
	source   table.Source
	match    func(table.RowView) (bool, error)
	next     uint
	ahead    table.RowView
	buffered bool
	err      error
}

// NewRowStream constructs a stream over the rows of a source matching the
// given predicate.
func NewRowStream(src table.Source, match func(table.RowView) (bool, error)) *RowStream {
	return &RowStream{source: src, match: match}
}

// HasNext checks whether another matching row remains.  It returns false
// after an evaluation failure; callers must check Err once iteration stops.
func (s *RowStream) HasNext() bool {
	if s.buffered {
		return true
	} else if s.err != nil {
		return false
	}
	//
	for s.next < s.source.Height() {
		row := s.source.Row(s.next)
		s.next++
		//
		ok, err := s.match(row)
		if err != nil {
			s.err = err
			return false
		} else if ok {
			s.ahead = row
			s.buffered = true
			//
			return true
		}
	}
	//
	return false
}

// Next returns the next matching row, and advances the stream.
func (s *RowStream) Next() table.RowView {
	if !s.buffered && !s.HasNext() {
		panic("row stream exhausted")
	}

	s.buffered = false

	return s.ahead
}

// Err returns the evaluation failure which terminated the stream, if any.
func (s *RowStream) Err() error {
	return s.err
}
