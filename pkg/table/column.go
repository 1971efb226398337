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

// Kind distinguishes how a column obtains its values.
type Kind uint

const (
	// Persistent columns are backed by stored data.
	Persistent Kind = iota
	// Dynamic columns are computed on access from other columns of the same
	// row via a bound compute function.
	Dynamic
	// Expression columns are computed declaratively from other columns via an
	// expression tree, resolved once per table.
	Expression
)

func (k Kind) String() string {
	switch k {
	case Persistent:
		return "persistent"
	case Dynamic:
		return "dynamic"
	case Expression:
		return "expression"
	default:
		return "unknown"
	}
}

// ComputeFn computes a dynamic column value from the bound argument values,
// supplied in the order the dependency columns were declared.
type ComputeFn func(args []Value) Value

// RowEnv provides named column values for a single row.  It is the
// environment against which expression trees evaluate.
type RowEnv interface {
	// Value returns the value of the named column at this row.
	Value(name string) (Value, error)
}

// Expr is an expression tree evaluable against a row environment.  It is
// implemented by the expr package; this package only depends on the
// interface.
type Expr interface {
	// Eval computes the value of this expression for the given row.
	Eval(env RowEnv) (Value, error)
	// Columns returns the names of all columns referenced by this expression.
	Columns() []string
	// String returns a rendering of this expression.
	String() string
}

// Column describes a single named value slot: its name, the label used for
// on-disk mapping, its semantic type and its kind.  Descriptors are stateless
// and reusable across tables.
type Column struct {
	name  string
	label string
	typ   Type
	kind  Kind
	// Bound compute function and its dependency columns (dynamic only).
	fn   ComputeFn
	deps []string
	// Expression tree (expression only).
	expr Expr
}

// NewColumn constructs a persistent column descriptor.
func NewColumn(name string, label string, typ Type) Column {
	return Column{name: name, label: label, typ: typ, kind: Persistent}
}

// NewDynamic constructs a dynamic column descriptor whose values are computed
// on access by fn from the named dependency columns.
func NewDynamic(name string, label string, typ Type, fn ComputeFn, deps ...string) Column {
	return Column{name: name, label: label, typ: typ, kind: Dynamic, fn: fn, deps: deps}
}

// NewExpression constructs an expression column descriptor whose values are
// derived from the given expression tree.
func NewExpression(name string, label string, typ Type, expr Expr) Column {
	return Column{name: name, label: label, typ: typ, kind: Expression, expr: expr}
}

// Name returns the unique name of this column.
func (c Column) Name() string {
	return c.name
}

// Label returns the label used to map this column onto backing storage.
func (c Column) Label() string {
	return c.label
}

// Type returns the semantic type of this column.
func (c Column) Type() Type {
	return c.typ
}

// Kind returns the kind of this column.
func (c Column) Kind() Kind {
	return c.kind
}

// Deps returns the names of the columns this column is computed from.  For
// persistent columns this is empty.
func (c Column) Deps() []string {
	if c.kind == Expression {
		return c.expr.Columns()
	}

	return c.deps
}
