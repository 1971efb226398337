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
	"fmt"
	"strings"
)

// Type identifies the semantic type of a column or value.
type Type uint

const (
	// Float64 is a numeric scalar stored as a double-precision float.
	Float64 Type = iota
	// Int64 is a numeric scalar stored as a signed 64-bit integer.
	Int64
	// String is a variable-length text value.
	String
	// Record is a small fixed-size record of numeric fields.
	Record
)

func (t Type) String() string {
	switch t {
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case String:
		return "string"
	case Record:
		return "record"
	default:
		return "unknown"
	}
}

// Value is a single cell value of one of the supported semantic types.
// Boolean results (e.g. from predicate evaluation) are represented as Int64
// values zero and one.
type Value struct {
	typ  Type
	num  float64
	word int64
	str  string
	rec  []float64
}

// Float constructs a Float64 value.
func Float(v float64) Value {
	return Value{typ: Float64, num: v}
}

// Int constructs an Int64 value.
func Int(v int64) Value {
	return Value{typ: Int64, word: v}
}

// Str constructs a String value.
func Str(v string) Value {
	return Value{typ: String, str: v}
}

// Rec constructs a Record value from the given fields.
func Rec(fields ...float64) Value {
	return Value{typ: Record, rec: fields}
}

// Bool constructs a boolean value, encoded as Int64 zero or one.
func Bool(v bool) Value {
	if v {
		return Int(1)
	}

	return Int(0)
}

// Type returns the semantic type of this value.
func (v Value) Type() Type {
	return v.typ
}

// Float returns this value as a float64, converting integers as needed.
func (v Value) Float() float64 {
	if v.typ == Int64 {
		return float64(v.word)
	}

	return v.num
}

// Int returns this value as an int64, truncating floats as needed.
func (v Value) Int() int64 {
	if v.typ == Float64 {
		return int64(v.num)
	}

	return v.word
}

// Str returns this value as a string.  For non-string values this is a
// rendering of the underlying number.
func (v Value) Str() string {
	if v.typ == String {
		return v.str
	}

	return v.String()
}

// Record returns the fields of a Record value.
func (v Value) Record() []float64 {
	return v.rec
}

// IsTrue interprets this value as a boolean, where any non-zero numeric value
// and any non-empty string counts as true.
func (v Value) IsTrue() bool {
	switch v.typ {
	case String:
		return v.str != ""
	case Float64:
		return v.num != 0
	default:
		return v.word != 0
	}
}

// IsNumeric checks whether this value is a numeric scalar.
func (v Value) IsNumeric() bool {
	return v.typ == Float64 || v.typ == Int64
}

// AssignableTo checks whether this value can be stored in a column of the
// given type.  Integers are assignable to float columns.
func (v Value) AssignableTo(t Type) bool {
	if v.typ == t {
		return true
	}

	return t == Float64 && v.typ == Int64
}

func (v Value) String() string {
	switch v.typ {
	case Float64:
		return fmt.Sprintf("%g", v.num)
	case Int64:
		return fmt.Sprintf("%d", v.word)
	case String:
		return v.str
	default:
		var builder strings.Builder
		//
		builder.WriteString("{")

		for i, f := range v.rec {
			if i > 0 {
				builder.WriteString(",")
			}

			builder.WriteString(fmt.Sprintf("%g", f))
		}

		builder.WriteString("}")
		//
		return builder.String()
	}
}
