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

// Predicate abstracts the notion of a function which identifies something.
type Predicate[T any] func(T) bool

// Enumerator abstracts the process of iterating over a sequence of elements.
// Enumerators are single-shot: once an element has been visited it cannot be
// revisited.
type Enumerator[T any] interface {
	// HasNext checks whether or not there are any items remaining to visit.
	HasNext() bool

	// Next returns the next item, and advances the enumerator.
	Next() T
}

// Collect allocates a new array containing all remaining items of an
// enumerator.  This drains the enumerator.
func Collect[T any](enum Enumerator[T]) []T {
	items := make([]T, 0)
	//
	for enum.HasNext() {
		items = append(items, enum.Next())
	}
	//
	return items
}

// Count returns the number of items remaining in an enumerator.  This drains
// the enumerator.
func Count[T any](enum Enumerator[T]) uint {
	count := uint(0)
	//
	for enum.HasNext() {
		enum.Next()
		count++
	}
	//
	return count
}
