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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ctolon/analysis-framework/pkg/table"
	"github.com/klauspost/compress/zstd"
)

// colzMagic identifies a compressed column file.
var colzMagic = []byte("COLZ")

// colzVersion is the current layout version.
const colzVersion uint32 = 1

// FromColzBytes parses a zstd-compressed binary column file.  The layout
// after the four-byte magic is a zstd frame holding, in little-endian order:
// version, table count, then per table its name, row count and columns.
func FromColzBytes(data []byte) (map[string]RawTable, error) {
	if len(data) < len(colzMagic) || !bytes.Equal(data[:len(colzMagic)], colzMagic) {
		return nil, fmt.Errorf("not a colz file")
	}
	//
	decoder, err := zstd.NewReader(bytes.NewReader(data[len(colzMagic):]))
	if err != nil {
		return nil, err
	}
	//
	defer decoder.Close()
	//
	r := &leReader{reader: decoder}
	//
	if version := r.uint32(); version != colzVersion {
		return nil, fmt.Errorf("unsupported colz version %d", version)
	}
	//
	tables := make(map[string]RawTable)
	//
	for n := r.uint32(); n > 0; n-- {
		raw, err := readTable(r)
		if err != nil {
			return nil, err
		}
		//
		tables[raw.Name] = raw
	}
	//
	return tables, r.err
}

func readTable(r *leReader) (RawTable, error) {
	var raw RawTable
	//
	raw.Name = r.str()
	rows := r.uint64()
	//
	for n := r.uint32(); n > 0; n-- {
		col := RawColumn{Name: r.str(), Type: table.Type(r.uint32())}
		col.Values = make([]table.Value, rows)
		//
		for i := range col.Values {
			switch col.Type {
			case table.Float64:
				col.Values[i] = table.Float(math.Float64frombits(r.uint64()))
			case table.Int64:
				col.Values[i] = table.Int(int64(r.uint64()))
			case table.String:
				col.Values[i] = table.Str(r.str())
			case table.Record:
				fields := make([]float64, r.uint32())
				for j := range fields {
					fields[j] = math.Float64frombits(r.uint64())
				}
				//
				col.Values[i] = table.Rec(fields...)
			default:
				return raw, fmt.Errorf("column %q has unknown type tag", col.Name)
			}
		}
		//
		raw.Columns = append(raw.Columns, col)
		//
		if r.err != nil {
			return raw, r.err
		}
	}
	//
	return raw, r.err
}

// ToColzBytes renders tables in the compressed binary layout accepted by
// FromColzBytes.
func ToColzBytes(tables map[string]RawTable) ([]byte, error) {
	var buf bytes.Buffer
	//
	buf.Write(colzMagic)
	//
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	//
	w := &leWriter{writer: encoder}
	w.uint32(colzVersion)
	w.uint32(uint32(len(tables)))
	//
	for _, name := range sortedNames(tables) {
		writeTable(w, tables[name])
	}
	//
	if w.err != nil {
		return nil, w.err
	} else if err := encoder.Close(); err != nil {
		return nil, err
	}
	//
	return buf.Bytes(), nil
}

func writeTable(w *leWriter, raw RawTable) {
	w.str(raw.Name)
	w.uint64(uint64(raw.Height()))
	w.uint32(uint32(len(raw.Columns)))
	//
	for _, col := range raw.Columns {
		w.str(col.Name)
		w.uint32(uint32(col.Type))
		//
		for _, v := range col.Values {
			switch col.Type {
			case table.Float64:
				w.uint64(math.Float64bits(v.Float()))
			case table.Int64:
				w.uint64(uint64(v.Int()))
			case table.String:
				w.str(v.Str())
			default:
				fields := v.Record()
				w.uint32(uint32(len(fields)))
				//
				for _, f := range fields {
					w.uint64(math.Float64bits(f))
				}
			}
		}
	}
}

func sortedNames(tables map[string]RawTable) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	//
	sort.Strings(names)
	//
	return names
}

// ===================================================================
// Little-endian primitives
// ===================================================================

// leReader reads little-endian primitives, latching the first failure.
type leReader struct {
	reader io.Reader
	err    error
}

func (r *leReader) uint32() uint32 {
	var v uint32
	r.read(&v)
	//
	return v
}

func (r *leReader) uint64() uint64 {
	var v uint64
	r.read(&v)
	//
	return v
}

func (r *leReader) str() string {
	n := r.uint32()
	if r.err != nil {
		return ""
	}
	//
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.reader, buf); err != nil {
		r.err = err
		return ""
	}
	//
	return string(buf)
}

func (r *leReader) read(v any) {
	if r.err == nil {
		r.err = binary.Read(r.reader, binary.LittleEndian, v)
	}
}

// leWriter writes little-endian primitives, latching the first failure.
type leWriter struct {
	writer io.Writer
	err    error
}

func (w *leWriter) uint32(v uint32) {
	w.write(v)
}

func (w *leWriter) uint64(v uint64) {
	w.write(v)
}

func (w *leWriter) str(s string) {
	w.uint32(uint32(len(s)))
	//
	if w.err == nil {
		_, w.err = w.writer.Write([]byte(s))
	}
}

func (w *leWriter) write(v any) {
	if w.err == nil {
		w.err = binary.Write(w.writer, binary.LittleEndian, v)
	}
}
