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

// Package expr provides the expression trees shared by filters, partitions
// and expression columns.  Trees are built once at declaration time and
// evaluated row-by-row against a table.RowEnv.
package expr

import (
	"fmt"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// Node is an expression tree evaluable against a row environment.  It is an
// alias for the interface the table package accepts, so any node can serve
// as the body of an expression column.
type Node = table.Expr

// ===================================================================
// Leaves
// ===================================================================

// column references a named column of the evaluated row.
type column struct {
	name string
}

// Col constructs a reference to the named column.
func Col(name string) Node {
	return &column{name}
}

// Eval looks the referenced column up in the row environment.
//
//nolint:revive
func (p *column) Eval(env table.RowEnv) (table.Value, error) {
	return env.Value(p.name)
}

// Columns returns the single referenced column.
//
//nolint:revive
func (p *column) Columns() []string {
	return []string{p.name}
}

func (p *column) String() string {
	return p.name
}

// constant is a literal value.
type constant struct {
	value table.Value
}

// Const constructs a literal node from an arbitrary value.
func Const(v table.Value) Node {
	return &constant{v}
}

// ConstF constructs a float literal.
func ConstF(v float64) Node {
	return &constant{table.Float(v)}
}

// ConstI constructs an integer literal.
func ConstI(v int64) Node {
	return &constant{table.Int(v)}
}

// ConstS constructs a string literal.
func ConstS(v string) Node {
	return &constant{table.Str(v)}
}

// Eval returns the literal value.
//
//nolint:revive
func (p *constant) Eval(table.RowEnv) (table.Value, error) {
	return p.value, nil
}

// Columns returns no columns, since literals reference none.
//
//nolint:revive
func (p *constant) Columns() []string {
	return nil
}

func (p *constant) String() string {
	return p.value.String()
}

// configurable references a named configuration value resolved once before
// the first evaluation of a slice.  Afterwards it behaves as an opaque bound
// constant.
type configurable struct {
	name  string
	value table.Value
	bound bool
}

// Cfg constructs a reference to a named configurable.  The reference must be
// bound via BindConfigurables before the expression is first evaluated.
func Cfg(name string) Node {
	return &configurable{name: name}
}

// Eval returns the bound constant, or fails if the configurable was never
// resolved.
//
//nolint:revive
func (p *configurable) Eval(table.RowEnv) (table.Value, error) {
	if !p.bound {
		return table.Value{}, errs.Newf(errs.UnresolvedConfigurable, "%q referenced before binding", p.name)
	}
	//
	return p.value, nil
}

// Columns returns no columns, since configurables are external constants.
//
//nolint:revive
func (p *configurable) Columns() []string {
	return nil
}

func (p *configurable) String() string {
	return fmt.Sprintf("cfg(%s)", p.name)
}

// ===================================================================
// Traversal and binding
// ===================================================================

// Walk visits every node of an expression tree in prefix order.
func Walk(n Node, visit func(Node)) {
	visit(n)
	//
	switch t := n.(type) {
	case *unary:
		Walk(t.arg, visit)
	case *binary:
		Walk(t.lhs, visit)
		Walk(t.rhs, visit)
	case *aggregate:
		Walk(t.arg, visit)
	}
}

// Lookup resolves a configurable name to its value, reporting whether the
// name is known.
type Lookup func(name string) (table.Value, bool)

// BindConfigurables resolves every configurable referenced by an expression
// tree, failing with UnresolvedConfigurable for any name the lookup does not
// know.  Binding happens once per tree; rebinding overwrites prior values.
func BindConfigurables(n Node, lookup Lookup) error {
	var err error
	//
	Walk(n, func(m Node) {
		if cfg, ok := m.(*configurable); ok {
			if v, ok := lookup(cfg.name); ok {
				cfg.value = v
				cfg.bound = true
			} else if err == nil {
				err = errs.Newf(errs.UnresolvedConfigurable, "%q not bound", cfg.name)
			}
		}
	})
	//
	return err
}
