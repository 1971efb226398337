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
package tableio

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctolon/analysis-framework/pkg/table"
	json "github.com/goccy/go-json"
)

// FromJSONBytes parses table files expressed in JSON notation.  For example,
// {"tracks": {"pt": [0.5, 1.2], "sign": [1, -1]}} is a file holding one
// two-row table "tracks" with columns "pt" and "sign".  Column types are
// inferred: all-integral number columns become Int64, other number columns
// Float64, string columns String.
func FromJSONBytes(data []byte) (map[string]RawTable, error) {
	var rawData map[string]map[string][]any
	//
	if err := json.Unmarshal(data, &rawData); err != nil {
		return nil, err
	}
	//
	tables := make(map[string]RawTable, len(rawData))
	//
	for name, rawCols := range rawData {
		raw := RawTable{Name: name}
		// Deterministic column order
		colNames := make([]string, 0, len(rawCols))
		for col := range rawCols {
			colNames = append(colNames, col)
		}
		//
		sort.Strings(colNames)
		//
		for _, col := range colNames {
			parsed, err := parseColumn(name, col, rawCols[col])
			if err != nil {
				return nil, err
			}
			//
			raw.Columns = append(raw.Columns, parsed)
		}
		//
		tables[name] = raw
	}
	//
	return tables, nil
}

func parseColumn(tbl string, col string, raw []any) (RawColumn, error) {
	var (
		integral = true
		numeric  = true
	)
	//
	for _, v := range raw {
		switch v := v.(type) {
		case float64:
			if v != math.Trunc(v) {
				integral = false
			}
		case string:
			numeric = false
		default:
			return RawColumn{}, fmt.Errorf("table %q column %q: unsupported value %v", tbl, col, v)
		}
	}
	//
	values := make([]table.Value, len(raw))
	//
	for i, v := range raw {
		switch v := v.(type) {
		case float64:
			if !numeric {
				return RawColumn{}, fmt.Errorf("table %q column %q mixes numbers and strings", tbl, col)
			} else if integral {
				values[i] = table.Int(int64(v))
			} else {
				values[i] = table.Float(v)
			}
		case string:
			values[i] = table.Str(v)
		}
	}
	//
	typ := table.Float64
	if !numeric {
		typ = table.String
	} else if integral {
		typ = table.Int64
	}
	//
	return RawColumn{Name: col, Type: typ, Values: values}, nil
}

// ToJSONBytes renders tables in the JSON notation accepted by
// FromJSONBytes.
func ToJSONBytes(tables map[string]RawTable) ([]byte, error) {
	rawData := make(map[string]map[string][]any, len(tables))
	//
	for name, raw := range tables {
		cols := make(map[string][]any, len(raw.Columns))
		//
		for _, c := range raw.Columns {
			values := make([]any, len(c.Values))
			//
			for i, v := range c.Values {
				switch c.Type {
				case table.String:
					values[i] = v.Str()
				case table.Int64:
					values[i] = v.Int()
				default:
					values[i] = v.Float()
				}
			}
			//
			cols[c.Name] = values
		}
		//
		rawData[name] = cols
	}
	//
	return json.MarshalIndent(rawData, "", " ")
}
