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

// RowView is a lightweight cursor bound to a (source, row index) pair.  It
// never owns data and must not outlive the iteration that produced it.
type RowView struct {
	source Source
	row    uint
}

// NewRowView constructs a view of the given row of a source.
func NewRowView(source Source, row uint) RowView {
	return RowView{source, row}
}

// Source returns the source this view is bound to.
func (r RowView) Source() Source {
	return r.source
}

// Index returns the row index this view is bound to.
func (r RowView) Index() uint {
	return r.row
}

// Value returns the value of the named column at this row.  Dynamic and
// expression columns are evaluated on demand.
func (r RowView) Value(name string) (Value, error) {
	return r.source.Cell(name, r.row)
}

// Float64 returns the named column at this row as a float64.
func (r RowView) Float64(name string) (float64, error) {
	v, err := r.Value(name)
	return v.Float(), err
}

// Int64 returns the named column at this row as an int64.
func (r RowView) Int64(name string) (int64, error) {
	v, err := r.Value(name)
	return v.Int(), err
}

// Str returns the named column at this row as a string.
func (r RowView) Str(name string) (string, error) {
	v, err := r.Value(name)
	return v.Str(), err
}
