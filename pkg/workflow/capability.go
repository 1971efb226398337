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
	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// ColumnRequirement names one column a processing step needs, with its
// expected semantic type.
type ColumnRequirement struct {
	Name string
	Type table.Type
}

// Capability declares a processing step's requirement on one table: the
// table name and the typed columns the step reads.  Steps declare their
// capability sets explicitly, and the scheduler matches them against
// available schemas before invocation.
type Capability struct {
	Table   string
	Columns []ColumnRequirement
}

// Match checks a capability against a schema, failing with SchemaMismatch
// when a required column is absent or carries the wrong type.
func (c Capability) Match(schema table.Schema) error {
	for _, req := range c.Columns {
		col, _, ok := schema.Column(req.Name)
		//
		if !ok {
			return errs.Newf(errs.SchemaMismatch,
				"table %q lacks required column %q", c.Table, req.Name)
		} else if col.Type() != req.Type {
			return errs.Newf(errs.SchemaMismatch,
				"table %q column %q is %s, step requires %s", c.Table, req.Name, col.Type(), req.Type)
		}
	}
	//
	return nil
}

// CapabilitySet is the ordered list of table requirements a step declares.
type CapabilitySet []Capability

// Tables returns the names of all required tables, in declaration order.
func (cs CapabilitySet) Tables() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Table
	}
	//
	return names
}

// Match checks every requirement of the set against the tables of a slice.
func (cs CapabilitySet) Match(slice *Slice) error {
	for _, c := range cs {
		t, ok := slice.Table(c.Table)
		if !ok {
			return errs.Newf(errs.SchemaMismatch, "slice %d carries no table %q", slice.Index, c.Table)
		}
		//
		if err := c.Match(t.Schema()); err != nil {
			return err
		}
	}
	//
	return nil
}
