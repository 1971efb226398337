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
	"math"
	"sort"

	"github.com/ctolon/analysis-framework/pkg/table"
)

// BlockOption configures a block combination stream.
type BlockOption func(*blockConfig)

type blockConfig struct {
	// Bin id excluded entirely from tuple generation.
	outsider    int
	hasOutsider bool
	// Sliding-window size bound: two rows more than neighbours positions
	// apart in bin order are never combined.
	neighbours uint
}

// Outsider excludes a bin id entirely from tuple generation.  Typically used
// as Outsider(DummyBin) together with an overflow-ignoring binning policy.
func Outsider(bin int) BlockOption {
	return func(c *blockConfig) {
		c.outsider = bin
		c.hasOutsider = true
	}
}

// CategoryNeighbours bounds per-bin cost: tuples are generated only within
// sliding windows of k+1 consecutive rows of the bin's member list, advanced
// one row at a time.  A very large k degenerates to exhaustive within-bin
// combinations.
func CategoryNeighbours(k uint) BlockOption {
	return func(c *blockConfig) {
		c.neighbours = k
	}
}

// BlockStream is a lazy sequence of row-index tuples generated only from
// rows sharing a bin.  Bin assignment runs once, at construction.
type BlockStream struct {
	tables []table.Source
	policy Policy
	config blockConfig
	// Per table: bin id to member rows in source order.
	groups []map[int][]uint
	// Bin ids shared by all tables, ascending.
	bins []int
	// Iteration state: current bin, window anchor, within-window stream.
	binIdx int
	anchor uint
	window indexStream
	opened bool
	ahead  []uint
}

// BlockCombinations constructs tuples under the given policy, restricted to
// rows sharing a bin under the given binning policy.  The binning policy is
// evaluated once, here, for every participating table.
func BlockCombinations(policy Policy, binning Binning, tables []table.Source, opts ...BlockOption) (*BlockStream, error) {
	config := blockConfig{neighbours: math.MaxUint32}
	//
	for _, opt := range opts {
		opt(&config)
	}
	//
	groups := make([]map[int][]uint, len(tables))
	//
	for i, t := range tables {
		// Identical tables share one assignment.
		if i > 0 && t == tables[0] {
			groups[i] = groups[0]
			continue
		}
		//
		bins, err := binning.Assign(t)
		if err != nil {
			return nil, err
		}
		//
		group := make(map[int][]uint)
		for row, bin := range bins {
			group[bin] = append(group[bin], uint(row))
		}
		//
		groups[i] = group
	}
	//
	return &BlockStream{
		tables: tables,
		policy: policy,
		config: config,
		groups: groups,
		bins:   sharedBins(groups, config),
	}, nil
}

// SelfCombinations constructs strictly-upper block combinations of the given
// arity over a single table.
func SelfCombinations(binning Binning, t table.Source, arity uint, opts ...BlockOption) (*BlockStream, error) {
	tables := make([]table.Source, arity)
	for i := range tables {
		tables[i] = t
	}
	//
	return BlockCombinations(StrictlyUpper, binning, tables, opts...)
}

// SelfPairCombinations constructs strictly-upper block pairs over a single
// table.
func SelfPairCombinations(binning Binning, t table.Source, opts ...BlockOption) (*BlockStream, error) {
	return SelfCombinations(binning, t, 2, opts...)
}

// SelfTripleCombinations constructs strictly-upper block triples over a
// single table.
func SelfTripleCombinations(binning Binning, t table.Source, opts ...BlockOption) (*BlockStream, error) {
	return SelfCombinations(binning, t, 3, opts...)
}

// HasNext checks whether another tuple remains.
func (s *BlockStream) HasNext() bool {
	if s.ahead != nil {
		return true
	}
	//
	for {
		if !s.opened {
			if s.binIdx >= len(s.bins) {
				return false
			}
			//
			s.openWindow()
		}
		// Drain the current window, keeping only tuples anchored at it so
		// that overlapping windows never repeat a tuple.
		for s.window.HasNext() {
			rel := s.window.Next()
			if !anchored(rel) {
				continue
			}
			//
			s.ahead = s.materialise(rel)
			//
			return true
		}
		//
		s.slide()
	}
}

// Next returns the next tuple.  The returned slice is freshly allocated and
// owned by the caller.
func (s *BlockStream) Next() []uint {
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
func (s *BlockStream) Rows(tuple []uint) []table.RowView {
	return Rows(s.tables, tuple)
}

// openWindow starts the window at the current anchor of the current bin.
func (s *BlockStream) openWindow() {
	var (
		bin   = s.bins[s.binIdx]
		width = uint64(s.config.neighbours) + 1
		sizes = make([]uint, len(s.tables))
	)
	//
	for i := range s.tables {
		members := s.groups[i][bin]
		// Window extent within this table's member list.
		remaining := uint64(len(members)) - uint64(s.anchor)
		if width < remaining {
			sizes[i] = uint(width)
		} else {
			sizes[i] = uint(remaining)
		}
	}
	//
	s.window = newIndexStream(s.policy, s.policy.limits(sizes))
	s.opened = true
}

// slide advances the window anchor by one row, moving to the next bin once
// every member list is exhausted.
func (s *BlockStream) slide() {
	s.anchor++
	s.opened = false
	//
	bin := s.bins[s.binIdx]
	//
	for i := range s.tables {
		if s.anchor >= uint(len(s.groups[i][bin])) {
			s.binIdx++
			s.anchor = 0
			//
			return
		}
	}
}

// materialise converts window-relative positions into absolute row indices
// via the bin member lists.
func (s *BlockStream) materialise(rel []uint) []uint {
	bin := s.bins[s.binIdx]
	tuple := make([]uint, len(rel))
	//
	for i, p := range rel {
		tuple[i] = s.groups[i][bin][s.anchor+p]
	}
	//
	return tuple
}

// anchored checks that a window-relative tuple includes position zero, i.e.
// it belongs to this window and not a later one.
func anchored(rel []uint) bool {
	for _, p := range rel {
		if p == 0 {
			return true
		}
	}
	//
	return false
}

// sharedBins collects the bin ids present in every table's grouping, minus
// the configured outsider, in ascending order.
func sharedBins(groups []map[int][]uint, config blockConfig) []int {
	var bins []int
	//
	if len(groups) == 0 {
		return nil
	}
	//
	for bin := range groups[0] {
		if config.hasOutsider && bin == config.outsider {
			continue
		}
		//
		shared := true
		//
		for _, g := range groups[1:] {
			if len(g[bin]) == 0 {
				shared = false
				break
			}
		}
		//
		if shared {
			bins = append(bins, bin)
		}
	}
	//
	sort.Ints(bins)
	//
	return bins
}
