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
package combine

import (
	"testing"

	"github.com/ctolon/analysis-framework/pkg/table"
	"github.com/stretchr/testify/require"
)

// numbered constructs a table of the given height with a single column "v"
// holding the row index.
func numbered(t *testing.T, height int) *table.Table {
	t.Helper()
	//
	schema, err := table.NewSchema(table.NewColumn("v", "fV", table.Float64))
	require.NoError(t, err)
	//
	values := make([]table.Value, height)
	for i := range values {
		values[i] = table.Float(float64(i))
	}
	//
	tbl, err := table.New(schema, table.Origin{}, map[string][]table.Value{"v": values})
	require.NoError(t, err)
	//
	return tbl
}

func Test_Combinations_Full_5x6(t *testing.T) {
	tuples := drain(NewStream(Full, numbered(t, 5), numbered(t, 6)))
	// Every pair (i, j), i in [0,5), j in [0,6).
	if len(tuples) != 30 {
		t.Fatalf("expected 30 tuples, got %d", len(tuples))
	}
	//
	checkDistinctTuples(t, tuples)
}

func Test_Combinations_Upper_5x6(t *testing.T) {
	tuples := drain(NewStream(Upper, numbered(t, 5), numbered(t, 6)))
	//
	if len(tuples) != 21 {
		t.Fatalf("expected 21 tuples, got %d", len(tuples))
	}
	// Tuples are non-decreasing: diagonal allowed, reordering not.
	for _, tuple := range tuples {
		if tuple[1] < tuple[0] {
			t.Fatalf("decreasing tuple %v", tuple)
		}
	}
	//
	checkDistinctTuples(t, tuples)
}

func Test_Combinations_StrictlyUpper_5x6(t *testing.T) {
	tuples := drain(NewStream(StrictlyUpper, numbered(t, 5), numbered(t, 6)))
	//
	if len(tuples) != 15 {
		t.Fatalf("expected 15 tuples, got %d", len(tuples))
	}
	//
	seen := make(map[[2]uint]bool)
	//
	for _, tuple := range tuples {
		// No repeated row index within a tuple.
		if tuple[1] <= tuple[0] {
			t.Fatalf("non-increasing tuple %v", tuple)
		}
		//
		seen[[2]uint{tuple[0], tuple[1]}] = true
	}
	// No tuple's reverse also appears.
	for pair := range seen {
		if seen[[2]uint{pair[1], pair[0]}] {
			t.Fatalf("both orders of %v generated", pair)
		}
	}
}

func Test_Combinations_Full_RowOrder(t *testing.T) {
	tuples := drain(NewStream(Full, numbered(t, 2), numbered(t, 2)))
	//
	expected := [][]uint{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	checkTuples(t, tuples, expected)
}

func Test_Combinations_StrictlyUpper_Triples(t *testing.T) {
	tbl := numbered(t, 5)
	tuples := drain(NewStream(StrictlyUpper, tbl, tbl, tbl))
	// C(5,3) distinct unordered triples.
	if len(tuples) != 10 {
		t.Fatalf("expected 10 tuples, got %d", len(tuples))
	}
	//
	checkTuples(t, tuples[:3], [][]uint{{0, 1, 2}, {0, 1, 3}, {0, 1, 4}})
}

func Test_Combinations_AutoPolicy(t *testing.T) {
	tbl := numbered(t, 5)
	other := numbered(t, 5)
	// Identical tables select strictly-upper.
	if n := len(drain(Combinations(tbl, tbl))); n != 10 {
		t.Fatalf("expected 10 self tuples, got %d", n)
	}
	// Distinct tables select upper.
	if n := len(drain(Combinations(tbl, other))); n != 15 {
		t.Fatalf("expected 15 cross tuples, got %d", n)
	}
}

func Test_Combinations_EmptyTable(t *testing.T) {
	tuples := drain(NewStream(Full, numbered(t, 0), numbered(t, 6)))
	//
	if len(tuples) != 0 {
		t.Fatalf("expected no tuples, got %d", len(tuples))
	}
}

func Test_Combinations_SingleTable(t *testing.T) {
	tuples := drain(NewStream(Full, numbered(t, 4)))
	//
	checkTuples(t, tuples, [][]uint{{0}, {1}, {2}, {3}})
}

func Test_Combinations_Filtered(t *testing.T) {
	tbl := numbered(t, 5)
	// Keep only pairs whose values sum to an even number.
	stream := NewFilteredStream(func(rows []table.RowView) (bool, error) {
		a, err := rows[0].Float64("v")
		if err != nil {
			return false, err
		}
		//
		b, err := rows[1].Float64("v")
		if err != nil {
			return false, err
		}
		//
		return int(a+b)%2 == 0, nil
	}, StrictlyUpper, tbl, tbl)
	//
	var tuples [][]uint
	for stream.HasNext() {
		tuples = append(tuples, stream.Next())
	}
	//
	require.NoError(t, stream.Err())
	checkTuples(t, tuples, [][]uint{{0, 2}, {0, 4}, {1, 3}, {2, 4}})
}

func Test_Combinations_RowMaterialisation(t *testing.T) {
	stream := NewStream(Full, numbered(t, 3), numbered(t, 3))
	//
	tuple := stream.Next()
	rows := stream.Rows(tuple)
	//
	for i, row := range rows {
		if row.Index() != tuple[i] {
			t.Fatalf("row view %d bound to %d, expected %d", i, row.Index(), tuple[i])
		}
	}
}

// ===================================================================
// Helpers
// ===================================================================

func drain(s *Stream) [][]uint {
	var tuples [][]uint
	//
	for s.HasNext() {
		tuples = append(tuples, s.Next())
	}
	//
	return tuples
}

func checkTuples(t *testing.T, actual [][]uint, expected [][]uint) {
	t.Helper()
	//
	if len(actual) != len(expected) {
		t.Fatalf("expected %d tuples, got %d", len(expected), len(actual))
	}
	//
	for i := range expected {
		if !sameTuple(actual[i], expected[i]) {
			t.Fatalf("tuple %d: expected %v, got %v", i, expected[i], actual[i])
		}
	}
}

func checkDistinctTuples(t *testing.T, tuples [][]uint) {
	t.Helper()
	//
	seen := make(map[string]bool)
	//
	for _, tuple := range tuples {
		key := ""
		for _, v := range tuple {
			key += string(rune('a' + v))
		}
		//
		if seen[key] {
			t.Fatalf("tuple %v generated twice", tuple)
		}
		//
		seen[key] = true
	}
}

func sameTuple(a []uint, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	//
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	//
	return true
}
