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

import (
	"testing"
)

func Test_ArrayEnumerator(t *testing.T) {
	enum := NewArrayEnumerator([]uint{0, 1, 2, 3})
	checkEnumerator(t, enum, []uint{0, 1, 2, 3})
}

func Test_ArrayEnumerator_Empty(t *testing.T) {
	enum := NewArrayEnumerator([]uint{})
	checkEnumerator(t, enum, []uint{})
}

func Test_FilteredEnumerator_Evens(t *testing.T) {
	enum := NewFilteredEnumerator(
		NewArrayEnumerator([]uint{0, 1, 2, 3, 4, 5}),
		func(n uint) bool { return n%2 == 0 })
	checkEnumerator(t, enum, []uint{0, 2, 4})
}

func Test_FilteredEnumerator_None(t *testing.T) {
	enum := NewFilteredEnumerator(
		NewArrayEnumerator([]uint{1, 3, 5}),
		func(n uint) bool { return n%2 == 0 })
	checkEnumerator(t, enum, []uint{})
}

func Test_FilteredEnumerator_RepeatedHasNext(t *testing.T) {
	enum := NewFilteredEnumerator(
		NewArrayEnumerator([]uint{1, 2, 3}),
		func(n uint) bool { return n == 2 })
	// Repeated calls to HasNext must not consume elements.
	for i := 0; i < 3; i++ {
		if !enum.HasNext() {
			t.Fatalf("expected element after %d HasNext calls", i)
		}
	}
	//
	if n := enum.Next(); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	//
	if enum.HasNext() {
		t.Fatalf("expected exhausted enumerator")
	}
}

func Test_Enumerator_Count(t *testing.T) {
	enum := NewArrayEnumerator([]uint{7, 8, 9})
	//
	if n := Count[uint](enum); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

// ===================================================================
// Helpers
// ===================================================================

func checkEnumerator[T comparable](t *testing.T, enum Enumerator[T], expected []T) {
	actual := Collect(enum)
	//
	if len(actual) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(actual))
	}
	//
	for i := range expected {
		if actual[i] != expected[i] {
			t.Fatalf("item %d: expected %v, got %v", i, expected[i], actual[i])
		}
	}
}
