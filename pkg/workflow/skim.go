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
package workflow

import (
	"context"

	"github.com/ctolon/analysis-framework/pkg/filter"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// SkimStep builds a step replacing each filtered table of the slice by a
// copy holding only its surviving rows.  Tables without filters pass through
// untouched, so a run with no filters is a pure format conversion.
func SkimStep(filters map[string][]*filter.Filter) Step {
	return Step{
		Name: "skim",
		Run: func(_ context.Context, slice *Slice) error {
			for name, fs := range filters {
				src, ok := slice.Table(name)
				if !ok {
					continue
				}
				//
				skimmed, err := skim(src, fs)
				if err != nil {
					return err
				}
				//
				slice.Add(name, skimmed)
			}
			//
			return nil
		},
	}
}

// skim copies the surviving rows of a table into a fresh one with the same
// schema.
func skim(src *table.Table, filters []*filter.Filter) (*table.Table, error) {
	mask, err := filter.Apply(src, filters, nil)
	if err != nil {
		return nil, err
	}
	//
	var (
		persistent = src.Schema().PersistentColumns()
		builder    = table.NewBuilder(src.Schema(), src.Origin())
		values     = make([]table.Value, len(persistent))
		it         = mask.Iterator()
	)
	//
	for it.HasNext() {
		row := uint(it.Next())
		//
		for i, c := range persistent {
			if values[i], err = src.Cell(c.Name(), row); err != nil {
				return nil, err
			}
		}
		//
		if err := builder.Append(values...); err != nil {
			return nil, err
		}
	}
	//
	return builder.Seal(), nil
}
