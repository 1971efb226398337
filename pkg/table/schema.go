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

// Schema is an ordered set of column descriptors with unique names.  Dynamic
// and expression columns may only depend on columns declared before them,
// which rules out dependency cycles by construction.
type Schema struct {
	columns []Column
	// Maps column names to their index in the columns array.
	index map[string]uint
}

// NewSchema constructs a schema from an ordered list of column descriptors.
// Duplicate column names, dependencies on undeclared columns and forward
// dependencies are all declaration-time errors.
func NewSchema(columns ...Column) (Schema, error) {
	index := make(map[string]uint, len(columns))
	//
	for i, c := range columns {
		if _, ok := index[c.Name()]; ok {
			return Schema{}, errs.Newf(errs.SchemaMismatch, "duplicate column %q", c.Name())
		}
		// Check all dependencies are declared before this column.
		for _, dep := range c.Deps() {
			if _, ok := index[dep]; !ok {
				return Schema{}, errs.Newf(errs.SchemaMismatch,
					"column %q depends on undeclared column %q", c.Name(), dep)
			}
		}
		//
		index[c.Name()] = uint(i)
	}
	//
	return Schema{columns, index}, nil
}

// Width returns the number of columns in this schema.
func (s Schema) Width() uint {
	return uint(len(s.columns))
}

// Columns returns the ordered column descriptors of this schema.
func (s Schema) Columns() []Column {
	return s.columns
}

// Column looks up a column descriptor and its index by name.
func (s Schema) Column(name string) (Column, uint, bool) {
	if i, ok := s.index[name]; ok {
		return s.columns[i], i, true
	}
	//
	return Column{}, 0, false
}

// HasColumn checks whether the schema declares a column with the given name.
func (s Schema) HasColumn(name string) bool {
	_, ok := s.index[name]
	return ok
}

// PersistentColumns returns the persistent column descriptors in declared
// order.  This is the order positional builder appends must follow.
func (s Schema) PersistentColumns() []Column {
	cols := make([]Column, 0, len(s.columns))
	//
	for _, c := range s.columns {
		if c.Kind() == Persistent {
			cols = append(cols, c)
		}
	}
	//
	return cols
}

// union merges two schemas, failing on name collisions.  Used by joins.
func (s Schema) union(other Schema) (Schema, error) {
	cols := make([]Column, 0, len(s.columns)+len(other.columns))
	cols = append(cols, s.columns...)
	//
	for _, c := range other.columns {
		if s.HasColumn(c.Name()) {
			return Schema{}, errs.Newf(errs.SchemaMismatch,
				"column %q declared by multiple join operands", c.Name())
		}
		//
		cols = append(cols, c)
	}
	//
	return NewSchema(cols...)
}
