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
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies the failure conditions the engine reports.  Structural
// kinds indicate a configuration defect and abort the whole workflow before
// any slice executes; the remaining kinds abort only the current slice.
type Kind uint

const (
	// SchemaMismatch indicates incompatible row counts or columns during a
	// join, a builder write, or table assembly.
	SchemaMismatch Kind = iota
	// TableSealed indicates a write attempted after a table was sealed.
	TableSealed
	// DuplicateOutputTarget indicates two output descriptors mapping distinct
	// column sets onto the same destination tree and file.
	DuplicateOutputTarget
	// UnresolvedConfigurable indicates a predicate referencing a configuration
	// value which was never bound.
	UnresolvedConfigurable
	// InvalidBinningDimension indicates binning requested for more than three
	// dimensions without a custom assignment function.
	InvalidBinningDimension
	// MismatchedInputFileCounts indicates multiple input descriptors within
	// one slice disagreeing on the number of matched files.
	MismatchedInputFileCounts
	// IndexOutOfRange indicates a row view or combination index beyond the
	// bounds of its table.
	IndexOutOfRange
)

func (k Kind) String() string {
	switch k {
	case SchemaMismatch:
		return "SchemaMismatch"
	case TableSealed:
		return "TableSealed"
	case DuplicateOutputTarget:
		return "DuplicateOutputTarget"
	case UnresolvedConfigurable:
		return "UnresolvedConfigurable"
	case InvalidBinningDimension:
		return "InvalidBinningDimension"
	case MismatchedInputFileCounts:
		return "MismatchedInputFileCounts"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	default:
		return "Unknown"
	}
}

// Error is a classified engine error carrying structured detail fields.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// New constructs a fresh error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf constructs a fresh error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// WithDetail attaches a named detail field, returning the receiver for
// chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}

	e.details[key] = value

	return e
}

// Kind returns the classification of this error.
func (e *Error) Kind() Kind {
	return e.kind
}

// Detail returns a previously attached detail field.
func (e *Error) Detail(key string) (any, bool) {
	v, ok := e.details[key]
	return v, ok
}

// Unwrap returns the underlying cause (if any).
func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Error() string {
	var builder strings.Builder
	//
	builder.WriteString(e.kind.String())
	builder.WriteString(": ")
	builder.WriteString(e.message)
	// Render details in a stable order
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			builder.WriteString(fmt.Sprintf(" %s=%v", k, e.details[k]))
		}
	}
	//
	if e.cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.cause.Error())
	}
	//
	return builder.String()
}

// Is matches errors of the same kind, so errors.Is treats any two errors of
// one kind as equal.  Call sites normally go through IsKind instead.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.kind == t.kind
	}

	return false
}

// IsKind checks whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	//
	if errors.As(err, &e) {
		return e.kind == kind
	}
	//
	return false
}

// IsFatal reports whether an error is structural, i.e. indicates a
// configuration defect which must abort the whole workflow rather than a
// single slice.
func IsFatal(err error) bool {
	var e *Error
	//
	if !errors.As(err, &e) {
		return false
	}
	//
	switch e.kind {
	case SchemaMismatch, DuplicateOutputTarget, InvalidBinningDimension, MismatchedInputFileCounts:
		return true
	default:
		return false
	}
}
