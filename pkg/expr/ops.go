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

	"github.com/ctolon/analysis-framework/pkg/table"
)

type unaryOp uint

const (
	opNeg unaryOp = iota
	opAbs
	opNot
)

type unary struct {
	op  unaryOp
	arg Node
}

// Neg negates a numeric expression.
func Neg(arg Node) Node { return &unary{opNeg, arg} }

// Abs takes the absolute value of a numeric expression.
func Abs(arg Node) Node { return &unary{opAbs, arg} }

// Not logically negates a boolean expression.
func Not(arg Node) Node { return &unary{opNot, arg} }

// Eval computes the operand and applies the unary operator.
//
//nolint:revive
func (p *unary) Eval(env table.RowEnv) (table.Value, error) {
	v, err := p.arg.Eval(env)
	if err != nil {
		return table.Value{}, err
	}
	//
	switch p.op {
	case opNeg:
		return table.Float(-v.Float()), nil
	case opAbs:
		return table.Float(math.Abs(v.Float())), nil
	default:
		return table.Bool(!v.IsTrue()), nil
	}
}

// Columns returns the columns referenced by the operand.
//
//nolint:revive
func (p *unary) Columns() []string {
	return p.arg.Columns()
}

func (p *unary) String() string {
	switch p.op {
	case opNeg:
		return fmt.Sprintf("-(%s)", p.arg)
	case opAbs:
		return fmt.Sprintf("abs(%s)", p.arg)
	default:
		return fmt.Sprintf("!(%s)", p.arg)
	}
}

type binaryOp uint

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opLt
	opLe
	opGt
	opGe
	opEq
	opNe
	opAnd
	opOr
)

var binaryOpNames = []string{"+", "-", "*", "/", "<", "<=", ">", ">=", "==", "!=", "&&", "||"}

type binary struct {
	op  binaryOp
	lhs Node
	rhs Node
}

// Add sums two numeric expressions.
func Add(lhs Node, rhs Node) Node { return &binary{opAdd, lhs, rhs} }

// Sub subtracts two numeric expressions.
func Sub(lhs Node, rhs Node) Node { return &binary{opSub, lhs, rhs} }

// Mul multiplies two numeric expressions.
func Mul(lhs Node, rhs Node) Node { return &binary{opMul, lhs, rhs} }

// Div divides two numeric expressions.
func Div(lhs Node, rhs Node) Node { return &binary{opDiv, lhs, rhs} }

// Lt compares two numeric expressions for strict ascending order.
func Lt(lhs Node, rhs Node) Node { return &binary{opLt, lhs, rhs} }

// Le compares two numeric expressions for ascending order.
func Le(lhs Node, rhs Node) Node { return &binary{opLe, lhs, rhs} }

// Gt compares two numeric expressions for strict descending order.
func Gt(lhs Node, rhs Node) Node { return &binary{opGt, lhs, rhs} }

// Ge compares two numeric expressions for descending order.
func Ge(lhs Node, rhs Node) Node { return &binary{opGe, lhs, rhs} }

// Eq compares two expressions for equality.  Strings compare as strings,
// anything else compares numerically.
func Eq(lhs Node, rhs Node) Node { return &binary{opEq, lhs, rhs} }

// Ne compares two expressions for inequality.
func Ne(lhs Node, rhs Node) Node { return &binary{opNe, lhs, rhs} }

// And is the logical conjunction of two boolean expressions.
func And(lhs Node, rhs Node) Node { return &binary{opAnd, lhs, rhs} }

// Or is the logical disjunction of two boolean expressions.
func Or(lhs Node, rhs Node) Node { return &binary{opOr, lhs, rhs} }

// AndAll folds a list of boolean expressions into one conjunction.
func AndAll(nodes ...Node) Node {
	return foldBool(opAnd, true, nodes)
}

// OrAll folds a list of boolean expressions into one disjunction.
func OrAll(nodes ...Node) Node {
	return foldBool(opOr, false, nodes)
}

func foldBool(op binaryOp, empty bool, nodes []Node) Node {
	if len(nodes) == 0 {
		return Const(table.Bool(empty))
	}
	//
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = &binary{op, acc, n}
	}
	//
	return acc
}

// Eval computes both operands and applies the binary operator.  Logical
// operators short-circuit on the left operand.
//
//nolint:revive
func (p *binary) Eval(env table.RowEnv) (table.Value, error) {
	lhs, err := p.lhs.Eval(env)
	if err != nil {
		return table.Value{}, err
	}
	// Short-circuit logical operators.
	switch p.op {
	case opAnd:
		if !lhs.IsTrue() {
			return table.Bool(false), nil
		}
	case opOr:
		if lhs.IsTrue() {
			return table.Bool(true), nil
		}
	}
	//
	rhs, err := p.rhs.Eval(env)
	if err != nil {
		return table.Value{}, err
	}
	//
	switch p.op {
	case opAdd:
		return table.Float(lhs.Float() + rhs.Float()), nil
	case opSub:
		return table.Float(lhs.Float() - rhs.Float()), nil
	case opMul:
		return table.Float(lhs.Float() * rhs.Float()), nil
	case opDiv:
		return table.Float(lhs.Float() / rhs.Float()), nil
	case opLt:
		return table.Bool(lhs.Float() < rhs.Float()), nil
	case opLe:
		return table.Bool(lhs.Float() <= rhs.Float()), nil
	case opGt:
		return table.Bool(lhs.Float() > rhs.Float()), nil
	case opGe:
		return table.Bool(lhs.Float() >= rhs.Float()), nil
	case opEq:
		return table.Bool(equals(lhs, rhs)), nil
	case opNe:
		return table.Bool(!equals(lhs, rhs)), nil
	default:
		return table.Bool(rhs.IsTrue()), nil
	}
}

// Columns returns the columns referenced by either operand.
//
//nolint:revive
func (p *binary) Columns() []string {
	return append(p.lhs.Columns(), p.rhs.Columns()...)
}

func (p *binary) String() string {
	return fmt.Sprintf("(%s %s %s)", p.lhs, binaryOpNames[p.op], p.rhs)
}

func equals(lhs table.Value, rhs table.Value) bool {
	if lhs.Type() == table.String || rhs.Type() == table.String {
		return lhs.Str() == rhs.Str()
	}
	//
	return lhs.Float() == rhs.Float()
}
