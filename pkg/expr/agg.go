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
package expr

import (
	"fmt"
	"math"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// AssocEnv is a row environment which additionally exposes the rows
// associated with the evaluated (parent) row, as related by an explicit
// grouping key.  Aggregate nodes require it.
type AssocEnv interface {
	table.RowEnv
	// AssociatedRows returns one environment per associated row.
	AssociatedRows() ([]table.RowEnv, error)
}

// AggKind identifies the reduction applied by an aggregate node.
type AggKind uint

const (
	// AggMax reduces to the maximum value over associated rows.
	AggMax AggKind = iota
	// AggMin reduces to the minimum value over associated rows.
	AggMin
	// AggSum reduces to the sum over associated rows.
	AggSum
	// AggCount reduces to the number of associated rows.
	AggCount
)

func (k AggKind) String() string {
	switch k {
	case AggMax:
		return "max"
	case AggMin:
		return "min"
	case AggSum:
		return "sum"
	default:
		return "count"
	}
}

// aggregate applies a reduction of its operand over the rows associated with
// the parent row.
type aggregate struct {
	kind AggKind
	arg  Node
}

// Max reduces an expression to its maximum over associated rows.
func Max(arg Node) Node { return &aggregate{AggMax, arg} }

// Min reduces an expression to its minimum over associated rows.
func Min(arg Node) Node { return &aggregate{AggMin, arg} }

// Sum reduces an expression to its sum over associated rows.
func Sum(arg Node) Node { return &aggregate{AggSum, arg} }

// CountRows counts the associated rows of the parent row.
func CountRows() Node { return &aggregate{AggCount, ConstI(1)} }

// Eval applies the reduction over the associated rows of the parent row.
// Evaluating an aggregate against an environment without an association is a
// declaration defect.
//
//nolint:revive
func (p *aggregate) Eval(env table.RowEnv) (table.Value, error) {
	assoc, ok := env.(AssocEnv)
	if !ok {
		return table.Value{}, errs.Newf(errs.SchemaMismatch,
			"aggregate %s used without an associated table", p.kind)
	}
	//
	rows, err := assoc.AssociatedRows()
	if err != nil {
		return table.Value{}, err
	}
	//
	if p.kind == AggCount {
		return table.Int(int64(len(rows))), nil
	}
	//
	acc := math.Inf(-1)
	if p.kind == AggMin {
		acc = math.Inf(1)
	} else if p.kind == AggSum {
		acc = 0
	}
	//
	for _, row := range rows {
		v, err := p.arg.Eval(row)
		if err != nil {
			return table.Value{}, err
		}
		//
		switch p.kind {
		case AggMax:
			acc = math.Max(acc, v.Float())
		case AggMin:
			acc = math.Min(acc, v.Float())
		default:
			acc += v.Float()
		}
	}
	//
	return table.Float(acc), nil
}

// Columns returns no columns: the operand references columns of the
// associated table, not of the parent schema.
//
//nolint:revive
func (p *aggregate) Columns() []string {
	return nil
}

func (p *aggregate) String() string {
	return fmt.Sprintf("%s(%s)", p.kind, p.arg)
}

// ===================================================================
// Declaration-time validation
// ===================================================================

// CheckFilterable validates an expression for use in a filter or partition
// over the given schema: every referenced column must exist and must not be
// dynamic, since filters may reference only persistent and expression
// columns.  Columns inside aggregate subtrees are checked against the
// associated (child) schema instead; child may be nil when no association is
// declared.
func CheckFilterable(n Node, parent table.Schema, child *table.Schema) error {
	return checkRefs(n, parent, child, false)
}

func checkRefs(n Node, parent table.Schema, child *table.Schema, inAgg bool) error {
	switch t := n.(type) {
	case *column:
		schema := parent
		//
		if inAgg {
			if child == nil {
				return errs.Newf(errs.SchemaMismatch,
					"aggregate references column %q but no association is declared", t.name)
			}
			//
			schema = *child
		}
		//
		c, _, ok := schema.Column(t.name)
		if !ok {
			return errs.Newf(errs.SchemaMismatch, "filter references unknown column %q", t.name)
		} else if c.Kind() == table.Dynamic {
			return errs.Newf(errs.SchemaMismatch, "filter references dynamic column %q", t.name)
		}
	case *unary:
		return checkRefs(t.arg, parent, child, inAgg)
	case *binary:
		if err := checkRefs(t.lhs, parent, child, inAgg); err != nil {
			return err
		}
		//
		return checkRefs(t.rhs, parent, child, inAgg)
	case *aggregate:
		return checkRefs(t.arg, parent, child, true)
	}
	//
	return nil
}
