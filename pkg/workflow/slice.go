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

// Package workflow ties the engine to its surroundings: it materialises
// tables from resolved input descriptors, hands them slice by slice to
// registered processing steps, and commits produced tables to resolved
// output descriptors.  Structural configuration defects abort the whole
// workflow before any slice executes; runtime defects abort only the slice
// they occur in.
package workflow

import (
	"sort"

	"github.com/ctolon/analysis-framework/pkg/table"
)

// Slice is one discrete unit of incoming data processed end-to-end.  All
// tables of a slice are sealed before any step sees them, and the slice is
// discarded once processed.
type Slice struct {
	// Index of this slice within the workflow run.
	Index  int
	tables map[string]*table.Table
}

// NewSlice constructs an empty slice.
func NewSlice(index int) *Slice {
	return &Slice{Index: index, tables: make(map[string]*table.Table)}
}

// Add attaches a sealed table under the given name.
func (s *Slice) Add(name string, t *table.Table) {
	s.tables[name] = t
}

// Table looks a table up by name.
func (s *Slice) Table(name string) (*table.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the names of all tables in this slice, sorted.
func (s *Slice) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	//
	sort.Strings(names)
	//
	return names
}
