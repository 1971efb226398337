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

// Package combine enumerates row-index tuples across one or more tables
// under a combination policy, optionally restricted per-bin via a binning
// policy.  All sequences are lazy, pull-based and non-restartable: the next
// tuple is computed on demand and nothing is buffered.
package combine

import (
	stditer "iter"

	"github.com/ctolon/analysis-framework/pkg/table"
)

// Policy is the iteration contract over the participating tables.
type Policy uint

const (
	// Full generates every tuple in the cartesian product of the index
	// domains.
	Full Policy = iota
	// Upper generates non-decreasing tuples: a later position never holds a
	// smaller index than an earlier one, so no unordered index set appears
	// twice, but the diagonal (repeated indices) is included.  Index domains
	// are aligned to the last table, which is meaningful when the tables
	// coincide in role.
	Upper
	// StrictlyUpper generates strictly increasing tuples: no repeated index
	// and no reordering of the same index set.  Position k is bounded by the
	// last table's size minus its distance from the right.
	StrictlyUpper
)

func (p Policy) String() string {
	switch p {
	case Full:
		return "full"
	case Upper:
		return "upper"
	default:
		return "strictly-upper"
	}
}

// limits computes the per-position exclusive upper bounds of the index
// domains under this policy.
func (p Policy) limits(sizes []uint) []uint {
	arity := len(sizes)
	limits := make([]uint, arity)
	//
	for k := range limits {
		switch p {
		case Full:
			limits[k] = sizes[k]
		case Upper:
			limits[k] = sizes[arity-1]
		default:
			// The rightmost iterator never runs past the table size minus the
			// distance from the right.
			dist := uint(arity - 1 - k)
			if sizes[arity-1] < dist {
				limits[k] = 0
			} else {
				limits[k] = sizes[arity-1] - dist
			}
		}
	}
	//
	return limits
}

// Stream is a lazy, non-restartable sequence of row-index tuples.  Arity is
// the number of participating tables.
type Stream struct {
	tables []table.Source
	inner  indexStream
}

// NewStream constructs the tuple sequence over the given tables under an
// explicit policy.
func NewStream(policy Policy, tables ...table.Source) *Stream {
	sizes := make([]uint, len(tables))
	for i, t := range tables {
		sizes[i] = t.Height()
	}
	//
	return &Stream{tables, newIndexStream(policy, policy.limits(sizes))}
}

// Combinations constructs the tuple sequence over the given tables,
// auto-selecting the policy: strictly-upper when all tables are identical,
// upper otherwise.
func Combinations(tables ...table.Source) *Stream {
	identical := true
	//
	for _, t := range tables[1:] {
		if t != tables[0] {
			identical = false
			break
		}
	}
	//
	if identical {
		return NewStream(StrictlyUpper, tables...)
	}
	//
	return NewStream(Upper, tables...)
}

// HasNext checks whether another tuple remains.
func (s *Stream) HasNext() bool {
	return s.inner.HasNext()
}

// Next returns the next tuple.  The returned slice is freshly allocated and
// owned by the caller.
func (s *Stream) Next() []uint {
	return s.inner.Next()
}

// Rows materialises a tuple as one row view per participating table.
func (s *Stream) Rows(tuple []uint) []table.RowView {
	return Rows(s.tables, tuple)
}

// All adapts the remainder of this stream to a range-over-func sequence.
func (s *Stream) All() stditer.Seq[[]uint] {
	return func(yield func([]uint) bool) {
		for s.HasNext() {
			if !yield(s.Next()) {
				return
			}
		}
	}
}

// Rows materialises a row-index tuple as one row view per table.
func Rows(tables []table.Source, tuple []uint) []table.RowView {
	views := make([]table.RowView, len(tuple))
	//
	for i, row := range tuple {
		views[i] = tables[i].Row(row)
	}
	//
	return views
}

// ===================================================================
// Filtered variant
// ===================================================================

// TuplePredicate decides whether a materialised tuple is yielded.
type TuplePredicate func(rows []table.RowView) (bool, error)

// FilteredStream evaluates a predicate per generated tuple and yields only
// matching ones.  This is strictly slower than filtering the input rows
// beforehand, since the predicate runs once per combination rather than once
// per row; prefer pre-filtering where possible.
type FilteredStream struct {
	stream *Stream
	pred   TuplePredicate
	ahead  []uint
	err    error
}

// NewFilteredStream constructs the per-tuple filtered variant of a
// combination stream.
func NewFilteredStream(pred TuplePredicate, policy Policy, tables ...table.Source) *FilteredStream {
	return &FilteredStream{stream: NewStream(policy, tables...), pred: pred}
}

// HasNext checks whether another matching tuple remains.  It returns false
// after a predicate failure; callers must check Err once iteration stops.
func (s *FilteredStream) HasNext() bool {
	if s.ahead != nil {
		return true
	} else if s.err != nil {
		return false
	}
	//
	for s.stream.HasNext() {
		tuple := s.stream.Next()
		//
		ok, err := s.pred(s.stream.Rows(tuple))
		if err != nil {
			s.err = err
			return false
		} else if ok {
			s.ahead = tuple
			return true
		}
	}
	//
	return false
}

// Next returns the next matching tuple.
func (s *FilteredStream) Next() []uint {
	if s.ahead == nil && !s.HasNext() {
		panic("combination stream exhausted")
	}
	//
	next := s.ahead
	s.ahead = nil
	//
	return next
}

// Rows materialises a tuple as one row view per participating table.
func (s *FilteredStream) Rows(tuple []uint) []table.RowView {
	return s.stream.Rows(tuple)
}

// Err returns the predicate failure which terminated the stream, if any.
func (s *FilteredStream) Err() error {
	return s.err
}

// ===================================================================
// Index stream
// ===================================================================

// indexStream enumerates tuples over abstract index domains.  It underpins
// both plain and block combination streams.
type indexStream struct {
	policy Policy
	// Exclusive per-position bounds.
	limits []uint
	// Current tuple; holds the next tuple to return once primed.
	idx    []uint
	primed bool
	done   bool
}

func newIndexStream(policy Policy, limits []uint) indexStream {
	return indexStream{policy: policy, limits: limits}
}

// HasNext checks whether another tuple remains, priming the first tuple on
// initial use.
func (s *indexStream) HasNext() bool {
	if s.done {
		return false
	} else if !s.primed {
		return s.prime()
	}
	//
	return true
}

// Next returns the next tuple and advances.  The returned slice is freshly
// allocated.
func (s *indexStream) Next() []uint {
	if !s.HasNext() {
		panic("combination stream exhausted")
	}
	//
	tuple := make([]uint, len(s.idx))
	copy(tuple, s.idx)
	//
	s.advance()
	//
	return tuple
}

// prime initialises the first tuple, or marks the stream done when the
// domains admit none.
func (s *indexStream) prime() bool {
	if len(s.limits) == 0 {
		s.done = true
		return false
	}
	//
	s.idx = make([]uint, len(s.limits))
	//
	if s.policy == StrictlyUpper {
		for k := range s.idx {
			s.idx[k] = uint(k)
		}
	}
	//
	for k := range s.idx {
		if s.idx[k] >= s.limits[k] {
			s.done = true
			return false
		}
	}
	//
	s.primed = true
	//
	return true
}

// advance moves to the next tuple, odometer style: the rightmost position
// which can still increment does, and everything to its right resets
// according to the policy.
func (s *indexStream) advance() {
	arity := len(s.idx)
	//
	for k := arity - 1; k >= 0; k-- {
		if s.idx[k]+1 >= s.limits[k] {
			continue
		}
		//
		s.idx[k]++
		// Rebuild the suffix.
		rebuilt := true
		//
		for j := k + 1; j < arity; j++ {
			switch s.policy {
			case Full:
				s.idx[j] = 0
			case Upper:
				s.idx[j] = s.idx[k]
			default:
				s.idx[j] = s.idx[j-1] + 1
			}
			// A suffix which cannot be rebuilt exhausts this position.
			if s.idx[j] >= s.limits[j] {
				rebuilt = false
				break
			}
		}
		//
		if rebuilt {
			return
		}
	}
	//
	s.done = true
}
