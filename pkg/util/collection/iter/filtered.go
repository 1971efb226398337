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
package iter

// filteredEnumerator wraps an enumerator and yields only those items matching
// a given predicate.  It maintains a one-item lookahead so that HasNext can
// answer without losing elements.
type filteredEnumerator[T any] struct {
	source    Enumerator[T]
	predicate Predicate[T]
	lookahead T
	buffered  bool
}

// NewFilteredEnumerator constructs an enumerator whose elements are those of a
// source enumerator matching the given predicate.
func NewFilteredEnumerator[T any](source Enumerator[T], predicate Predicate[T]) Enumerator[T] {
	return &filteredEnumerator[T]{source: source, predicate: predicate}
}

// HasNext checks whether or not there are any items remaining to visit.
//
//nolint:revive
func (p *filteredEnumerator[T]) HasNext() bool {
	if p.buffered {
		return true
	}
	// Advance source until a match is found.
	for p.source.HasNext() {
		next := p.source.Next()
		if p.predicate(next) {
			p.lookahead = next
			p.buffered = true
			//
			return true
		}
	}
	//
	return false
}

// Next returns the next item, and advances the enumerator.
//
//nolint:revive
func (p *filteredEnumerator[T]) Next() T {
	if !p.buffered && !p.HasNext() {
		panic("enumerator exhausted")
	}

	p.buffered = false

	return p.lookahead
}
