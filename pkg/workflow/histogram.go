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
	"github.com/ctolon/analysis-framework/pkg/filter"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// FillFunc consumes one post-filter value tuple.  The slice it receives is
// reused between invocations and must not be retained.
type FillFunc func(values []table.Value) error

// FillFromTable streams the named columns of every row surviving the given
// filters and partitions into the fill callback, in row order.  Derived
// columns are evaluated on demand, so only surviving rows pay their cost.
func FillFromTable(src table.Source, filters []*filter.Filter, partitions []*filter.Partition,
	columns []string, fill FillFunc) error {
	mask, err := filter.Apply(src, filters, partitions)
	if err != nil {
		return err
	}
	//
	values := make([]table.Value, len(columns))
	it := mask.Iterator()
	//
	for it.HasNext() {
		row := uint(it.Next())
		//
		for i, name := range columns {
			if values[i], err = src.Cell(name, row); err != nil {
				return err
			}
		}
		//
		if err := fill(values); err != nil {
			return err
		}
	}
	//
	return nil
}
