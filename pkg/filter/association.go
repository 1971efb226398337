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
package filter

import (
	"github.com/ctolon/analysis-framework/pkg/table"
)

// Association relates each parent row to the child rows sharing its grouping
// key, enabling aggregate predicates such as "max of column X over
// associated rows".  The child index is built lazily, once per association.
type Association struct {
	child table.Source
	// Grouping key column in the child table.
	childKey string
	// Grouping key column in the parent table.
	parentKey string
	// Lazily built key index: key value to child row indices in source order.
	index map[int64][]uint
}

// NewAssociation declares an association from parent rows to the rows of
// child whose childKey column equals the parent's parentKey column.
func NewAssociation(child table.Source, childKey string, parentKey string) *Association {
	return &Association{child: child, childKey: childKey, parentKey: parentKey}
}

// rowsFor returns environments for the child rows associated with a parent
// row.
func (a *Association) rowsFor(parent table.RowView) ([]table.RowEnv, error) {
	if a.index == nil {
		if err := a.build(); err != nil {
			return nil, err
		}
	}
	//
	key, err := parent.Int64(a.parentKey)
	if err != nil {
		return nil, err
	}
	//
	indices := a.index[key]
	rows := make([]table.RowEnv, len(indices))
	//
	for i, row := range indices {
		rows[i] = a.child.Row(row)
	}
	//
	return rows, nil
}

func (a *Association) build() error {
	a.index = make(map[int64][]uint)
	//
	for row := uint(0); row < a.child.Height(); row++ {
		key, err := a.child.Row(row).Int64(a.childKey)
		if err != nil {
			return err
		}
		//
		a.index[key] = append(a.index[key], row)
	}
	//
	return nil
}

// assocEnv adapts a parent row view and an association to the environment
// aggregate nodes evaluate against.
type assocEnv struct {
	row   table.RowView
	assoc *Association
}

// Value returns the named column of the parent row.
//
//nolint:revive
func (e *assocEnv) Value(name string) (table.Value, error) {
	return e.row.Value(name)
}

// AssociatedRows returns the child rows sharing the parent row's key.
//
//nolint:revive
func (e *assocEnv) AssociatedRows() ([]table.RowEnv, error) {
	return e.assoc.rowsFor(e.row)
}
