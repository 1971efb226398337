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

// Builder is an append-only producer cursor creating rows of a new table.
// Values are supplied either positionally (one per persistent column, in
// declared order) or by name (any order).  Exclusion of concurrent producers
// for one table identity is guaranteed by the surrounding scheduler, not by
// this type.
type Builder struct {
	schema Schema
	origin Origin
	// Persistent column descriptors in declared order.
	persistent []Column
	// Accumulated column data, keyed like persistent.
	data   [][]Value
	height uint
	sealed bool
}

// NewBuilder constructs a builder for a table with the given schema and
// origin.
func NewBuilder(schema Schema, origin Origin) *Builder {
	persistent := schema.PersistentColumns()
	//
	data := make([][]Value, len(persistent))
	for i := range data {
		data[i] = make([]Value, 0)
	}
	//
	return &Builder{schema: schema, origin: origin, persistent: persistent, data: data}
}

// Append adds exactly one row from positional values, one per persistent
// column in declared order.  It fails with SchemaMismatch if the number or
// type of values does not match the schema, and with TableSealed after
// sealing.
func (b *Builder) Append(values ...Value) error {
	if b.sealed {
		return errs.New(errs.TableSealed, "append after seal")
	} else if len(values) != len(b.persistent) {
		return errs.Newf(errs.SchemaMismatch,
			"%d values supplied for %d persistent columns", len(values), len(b.persistent))
	}
	//
	for i, v := range values {
		if !v.AssignableTo(b.persistent[i].Type()) {
			return errs.Newf(errs.SchemaMismatch,
				"column %q expects %s, got %s", b.persistent[i].Name(), b.persistent[i].Type(), v.Type())
		}
	}
	//
	for i, v := range values {
		b.data[i] = append(b.data[i], v)
	}
	//
	b.height++
	//
	return nil
}

// AppendNamed adds exactly one row from named values, in any order.  Every
// persistent column must be given exactly once.
func (b *Builder) AppendNamed(values map[string]Value) error {
	if b.sealed {
		return errs.New(errs.TableSealed, "append after seal")
	} else if len(values) != len(b.persistent) {
		return errs.Newf(errs.SchemaMismatch,
			"%d values supplied for %d persistent columns", len(values), len(b.persistent))
	}
	//
	row := make([]Value, len(b.persistent))
	//
	for i, c := range b.persistent {
		v, ok := values[c.Name()]
		if !ok {
			return errs.Newf(errs.SchemaMismatch, "missing value for column %q", c.Name())
		} else if !v.AssignableTo(c.Type()) {
			return errs.Newf(errs.SchemaMismatch,
				"column %q expects %s, got %s", c.Name(), c.Type(), v.Type())
		}
		//
		row[i] = v
	}
	//
	for i, v := range row {
		b.data[i] = append(b.data[i], v)
	}
	//
	b.height++
	//
	return nil
}

// Height returns the number of rows appended so far.
func (b *Builder) Height() uint {
	return b.height
}

// Seal finishes production, returning the sealed table.  Subsequent appends
// fail with TableSealed.  Sealing twice returns the same table.
func (b *Builder) Seal() *Table {
	b.sealed = true
	//
	storage := make([][]Value, b.schema.Width())
	//
	for i, c := range b.persistent {
		_, j, _ := b.schema.Column(c.Name())
		storage[j] = b.data[i]
	}
	//
	return &Table{b.schema, b.origin, b.height, storage}
}
