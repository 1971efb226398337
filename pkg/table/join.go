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
package table

import (
	"github.com/ctolon/analysis-framework/pkg/errs"
)

// Join is a virtual table composing the columns of several source tables
// sharing one row-index space.  Reads are delegated transparently to the
// owning source's storage; no data is copied.  The row count is that of the
// first (driving) operand.
type Join struct {
	sources []*Table
	schema  Schema
	// Maps each column name to the source table owning it.
	owners map[string]*Table
}

// NewJoin composes a virtual schema union over the given tables.  It fails
// with SchemaMismatch if the tables have incompatible row counts or declare
// overlapping column names.
func NewJoin(tables ...*Table) (*Join, error) {
	if len(tables) == 0 {
		return nil, errs.New(errs.SchemaMismatch, "join of no tables")
	}
	//
	var (
		schema = tables[0].Schema()
		height = tables[0].Height()
		err    error
	)
	//
	for _, t := range tables[1:] {
		if t.Height() != height {
			return nil, errs.Newf(errs.SchemaMismatch,
				"join operand has %d rows, driving table has %d", t.Height(), height)
		}
		//
		if schema, err = schema.union(t.Schema()); err != nil {
			return nil, err
		}
	}
	//
	owners := make(map[string]*Table)
	//
	for _, t := range tables {
		for _, c := range t.Schema().Columns() {
			owners[c.Name()] = t
		}
	}
	//
	return &Join{tables, schema, owners}, nil
}

// Schema returns the combined schema of this join.
func (j *Join) Schema() Schema {
	return j.schema
}

// Height returns the row count of the driving table.
func (j *Join) Height() uint {
	return j.sources[0].Height()
}

// Cell delegates the read to the source table owning the named column.
// Dynamic and expression columns are evaluated against the join, so they may
// reference columns from any operand.
func (j *Join) Cell(name string, row uint) (Value, error) {
	c, _, ok := j.schema.Column(name)
	//
	if !ok {
		return Value{}, errs.Newf(errs.SchemaMismatch, "unknown column %q", name)
	} else if row >= j.Height() {
		return Value{}, errs.Newf(errs.IndexOutOfRange, "row %d of %d in column %q", row, j.Height(), name)
	}
	//
	switch c.Kind() {
	case Persistent:
		return j.owners[name].Cell(name, row)
	case Dynamic:
		return evalDynamic(c, j.Row(row))
	default:
		return c.expr.Eval(j.Row(row))
	}
}

// Row returns a view of the given row of this join.
func (j *Join) Row(row uint) RowView {
	return RowView{j, row}
}

// ===================================================================
// Concatenation
// ===================================================================

// Concat is a virtual table stacking the rows of several tables sharing an
// identical column layout.  No data is copied; reads are routed to the
// operand owning the requested row.
type Concat struct {
	sources []*Table
	schema  Schema
	// offsets[i] is the first global row index of sources[i]; the final entry
	// is the total height.
	offsets []uint
}

// NewConcat composes a virtual row-space concatenation of the given tables.
// It fails with SchemaMismatch unless all operands declare the same columns
// in the same order.
func NewConcat(tables ...*Table) (*Concat, error) {
	if len(tables) == 0 {
		return nil, errs.New(errs.SchemaMismatch, "concat of no tables")
	}
	//
	schema := tables[0].Schema()
	//
	for _, t := range tables[1:] {
		if !sameLayout(schema, t.Schema()) {
			return nil, errs.New(errs.SchemaMismatch, "concat operands have differing schemas")
		}
	}
	//
	offsets := make([]uint, len(tables)+1)
	//
	for i, t := range tables {
		offsets[i+1] = offsets[i] + t.Height()
	}
	//
	return &Concat{tables, schema, offsets}, nil
}

// Schema returns the shared schema of the operands.
func (c *Concat) Schema() Schema {
	return c.schema
}

// Height returns the summed row count of all operands.
func (c *Concat) Height() uint {
	return c.offsets[len(c.offsets)-1]
}

// Cell routes the read to the operand owning the given global row.
func (c *Concat) Cell(name string, row uint) (Value, error) {
	if row >= c.Height() {
		return Value{}, errs.Newf(errs.IndexOutOfRange, "row %d of %d in column %q", row, c.Height(), name)
	}
	// Locate the owning operand.
	i := 0
	for row >= c.offsets[i+1] {
		i++
	}
	//
	return c.sources[i].Cell(name, row-c.offsets[i])
}

// Row returns a view of the given global row.
func (c *Concat) Row(row uint) RowView {
	return RowView{c, row}
}

func sameLayout(a Schema, b Schema) bool {
	if a.Width() != b.Width() {
		return false
	}
	//
	for i, c := range a.Columns() {
		d := b.Columns()[i]
		if c.Name() != d.Name() || c.Type() != d.Type() || c.Kind() != d.Kind() {
			return false
		}
	}
	//
	return true
}
