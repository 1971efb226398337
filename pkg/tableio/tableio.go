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

// Package tableio reads and writes table files at the engine boundary.  Two
// formats are supported, selected by file extension: human-readable JSON
// (".json") and a zstd-compressed binary column format (".colz").  The
// package deals in raw named columns; mapping them onto schemas is the
// business of the workflow directors.
package tableio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctolon/analysis-framework/pkg/table"
)

// RawColumn is an untyped named column as stored on disk.
type RawColumn struct {
	// Name as stored in the file (i.e. the on-disk label).
	Name string
	// Inferred or declared value type.
	Type table.Type
	// Column data, one value per row.
	Values []table.Value
}

// RawTable is one named table as stored on disk.
type RawTable struct {
	Name    string
	Columns []RawColumn
}

// Height returns the row count of this raw table, defined by its first
// column.
func (t RawTable) Height() uint {
	if len(t.Columns) == 0 {
		return 0
	}
	//
	return uint(len(t.Columns[0].Values))
}

// Column looks a raw column up by its on-disk name.
func (t RawTable) Column(name string) (RawColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	//
	return RawColumn{}, false
}

// ReadFile reads all tables from a file, dispatching on its extension.
func ReadFile(path string) (map[string]RawTable, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	//
	switch ext := filepath.Ext(path); ext {
	case ".json":
		return FromJSONBytes(bytes)
	case ".colz":
		return FromColzBytes(bytes)
	default:
		return nil, fmt.Errorf("unknown table file extension %q", ext)
	}
}

// WriteFile writes tables to a file, dispatching on its extension.
func WriteFile(path string, tables map[string]RawTable) error {
	var (
		bytes []byte
		err   error
	)
	//
	switch ext := filepath.Ext(path); ext {
	case ".json":
		bytes, err = ToJSONBytes(tables)
	case ".colz":
		bytes, err = ToColzBytes(tables)
	default:
		return fmt.Errorf("unknown table file extension %q", ext)
	}
	//
	if err != nil {
		return err
	}
	//
	return os.WriteFile(path, bytes, 0644)
}
