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
	"github.com/ctolon/analysis-framework/pkg/util/collection/iter"
)

// Origin is the two-part tag identifying where a table's data comes from.  It
// is used to route tables through I/O and scheduling.
type Origin struct {
	// Source names the producing subsystem or file family.
	Source string
	// Description distinguishes tables from the same source.
	Description string
}

// Source is anything exposing columnar rows: a concrete table or a virtual
// composition of tables.  A sealed source is read-only and therefore safely
// shared by any number of concurrently executing readers.
type Source interface {
	// Schema returns the (possibly virtual) schema of this source.
	Schema() Schema
	// Height returns the number of rows.
	Height() uint
	// Cell returns the value of the named column at the given row, evaluating
	// dynamic and expression columns on demand.
	Cell(name string, row uint) (Value, error)
	// Row returns a lightweight view of the given row.
	Row(row uint) RowView
}

// Table is an immutable-once-sealed ordered set of columns sharing one row
// count, tagged with an origin identifying its data source.  Tables are born
// from an external reader or a Builder at the start of a processing slice and
// die with the slice.
type Table struct {
	schema Schema
	origin Origin
	height uint
	// Columnar storage for persistent columns, indexed like the schema.
	// Slots for dynamic and expression columns are nil.
	storage [][]Value
}

// New constructs a sealed table from a schema, origin and the backing data
// for every persistent column.  Construction fails with SchemaMismatch if a
// persistent column is missing, an unknown column is supplied, or the
// supplied arrays differ in length.
func New(schema Schema, origin Origin, data map[string][]Value) (*Table, error) {
	var (
		height uint
		first  = true
	)
	//
	storage := make([][]Value, schema.Width())
	//
	for name := range data {
		if !schema.HasColumn(name) {
			return nil, errs.Newf(errs.SchemaMismatch, "unknown column %q supplied", name)
		}
	}
	//
	for i, c := range schema.Columns() {
		if c.Kind() != Persistent {
			continue
		}
		//
		values, ok := data[c.Name()]
		if !ok {
			return nil, errs.Newf(errs.SchemaMismatch, "missing data for persistent column %q", c.Name())
		}
		// All persistent columns must share one row count.
		if first {
			height = uint(len(values))
			first = false
		} else if uint(len(values)) != height {
			return nil, errs.Newf(errs.SchemaMismatch,
				"column %q has %d rows, expected %d", c.Name(), len(values), height)
		}
		//
		storage[i] = values
	}
	//
	return &Table{schema, origin, height, storage}, nil
}

// Schema returns the schema of this table.
func (t *Table) Schema() Schema {
	return t.schema
}

// Origin returns the origin tag of this table.
func (t *Table) Origin() Origin {
	return t.origin
}

// Height returns the number of rows in this table.
func (t *Table) Height() uint {
	return t.height
}

// Cell returns the value of the named column at the given row.  Dynamic and
// expression columns store nothing; each access recomputes them from the
// row's current persistent and expression column values.
func (t *Table) Cell(name string, row uint) (Value, error) {
	c, i, ok := t.schema.Column(name)
	//
	if !ok {
		return Value{}, errs.Newf(errs.SchemaMismatch, "unknown column %q", name)
	} else if row >= t.height {
		return Value{}, errs.Newf(errs.IndexOutOfRange, "row %d of %d in column %q", row, t.height, name)
	}
	//
	switch c.Kind() {
	case Persistent:
		return t.storage[i][row], nil
	case Dynamic:
		return evalDynamic(c, t.Row(row))
	default:
		return c.expr.Eval(t.Row(row))
	}
}

// Row returns a view of the given row.
func (t *Table) Row(row uint) RowView {
	return RowView{t, row}
}

// Rows returns an enumerator visiting each row exactly once, in source order.
func (t *Table) Rows() iter.Enumerator[RowView] {
	return &rowEnumerator{t, 0}
}

// evalDynamic gathers the bound dependency values of a dynamic column and
// invokes its compute function.
func evalDynamic(c Column, env RowEnv) (Value, error) {
	args := make([]Value, len(c.deps))
	//
	for i, dep := range c.deps {
		v, err := env.Value(dep)
		if err != nil {
			return Value{}, err
		}
		//
		args[i] = v
	}
	//
	return c.fn(args), nil
}

// ===================================================================
// Row enumeration
// ===================================================================

type rowEnumerator struct {
	source Source
	row    uint
}

// NewRowEnumerator constructs an enumerator over all rows of a source.
func NewRowEnumerator(source Source) iter.Enumerator[RowView] {
	return &rowEnumerator{source, 0}
}

// HasNext checks whether or not there are any rows remaining to visit.
//
//nolint:revive
func (p *rowEnumerator) HasNext() bool {
	return p.row < p.source.Height()
}

// Next returns a view of the next row, and advances the enumerator.
//
//nolint:revive
func (p *rowEnumerator) Next() RowView {
	next := p.source.Row(p.row)
	p.row++

	return next
}
