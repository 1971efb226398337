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
package filter

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ctolon/analysis-framework/pkg/expr"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// Partition is a named, reusable predicate-selected row subset.  Unlike a
// bare filter its selection is cached, so multiple consumers within one
// slice share a single evaluation; the cache is invalidated when a new slice
// begins (via Reset) or when the partition is applied to a different source.
type Partition struct {
	name   string
	filter *Filter
	// Cached selection, valid for cachedSrc only.
	cached    *roaring.Bitmap
	cachedSrc table.Source
}

// NewPartition declares a named partition from a predicate expression.
func NewPartition(name string, pred expr.Node) *Partition {
	return &Partition{name: name, filter: New(pred)}
}

// Name returns the declared name of this partition.
func (p *Partition) Name() string {
	return p.name
}

// WithAssociation attaches the association used by aggregate nodes of the
// predicate.
func (p *Partition) WithAssociation(assoc *Association) *Partition {
	p.filter.WithAssociation(assoc)
	return p
}

// Compile validates the predicate and resolves its configurables, exactly as
// for a filter.
func (p *Partition) Compile(schema table.Schema, lookup expr.Lookup) error {
	return p.filter.Compile(schema, lookup)
}

// Indices returns the selected row indices of a source, computing them on
// first access and serving subsequent accesses from the cache.  Every index
// is within [0, height) of the source.
func (p *Partition) Indices(src table.Source) (*roaring.Bitmap, error) {
	if p.cached == nil || p.cachedSrc != src {
		mask, err := p.filter.Mask(src)
		if err != nil {
			return nil, err
		}
		//
		p.cached = mask
		p.cachedSrc = src
	}
	//
	return p.cached, nil
}

// Rows returns a lazy stream over the selected rows of a source, in source
// order.
func (p *Partition) Rows(src table.Source) *RowStream {
	return NewRowStream(src, func(row table.RowView) (bool, error) {
		indices, err := p.Indices(src)
		if err != nil {
			return false, err
		}
		//
		return indices.Contains(uint32(row.Index())), nil
	})
}

// Reset invalidates the cached selection.  Called when a new slice begins.
func (p *Partition) Reset() {
	p.cached = nil
	p.cachedSrc = nil
}
