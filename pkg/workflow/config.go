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
	"fmt"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/expr"
	"github.com/ctolon/analysis-framework/pkg/filter"
	"github.com/ctolon/analysis-framework/pkg/table"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ColumnConfig declares one persistent column of a configured table.
// Derived columns are registered in code, not configuration, since they
// carry compute functions.
type ColumnConfig struct {
	Name string `mapstructure:"name"`
	// On-disk name; defaults to the column name.
	Label string `mapstructure:"label"`
	// One of "float64", "int64" or "string".
	Type string `mapstructure:"type"`
}

// TableConfig declares one engine table and its persistent columns.
type TableConfig struct {
	Name    string         `mapstructure:"name"`
	Columns []ColumnConfig `mapstructure:"columns"`
}

// FilterConfig declares one row selection as a comparison between a column
// and a threshold.  Predicates too rich for configuration syntax are built
// in code instead.
type FilterConfig struct {
	Table  string `mapstructure:"table"`
	Column string `mapstructure:"column"`
	// One of "<", "<=", ">", ">=", "==" or "!=".
	Op string `mapstructure:"op"`
	// Literal threshold.
	Value any `mapstructure:"value"`
	// Named configurable supplying the threshold; takes precedence over
	// Value when set.
	Configurable string `mapstructure:"configurable"`
}

// Config is the resolved workflow configuration: declared tables, input and
// output mappings, row selections, and configurable values.
type Config struct {
	Tables        []TableConfig      `mapstructure:"tables"`
	Inputs        []InputDescriptor  `mapstructure:"inputs"`
	Outputs       []OutputDescriptor `mapstructure:"outputs"`
	Filters       []FilterConfig     `mapstructure:"filters"`
	Configurables map[string]any     `mapstructure:"configurables"`
}

// LoadConfig reads and decodes a workflow configuration file.  The format
// follows from the file extension (yaml, json or toml).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	//
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading workflow configuration %s", path)
	}
	//
	var cfg Config
	//
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding workflow configuration %s", path)
	}
	//
	return &cfg, nil
}

// Schemas constructs engine schemas for every declared table.
func (c *Config) Schemas() (map[string]table.Schema, error) {
	schemas := make(map[string]table.Schema, len(c.Tables))
	//
	for _, tc := range c.Tables {
		columns := make([]table.Column, len(tc.Columns))
		//
		for i, cc := range tc.Columns {
			typ, err := parseType(cc.Type)
			if err != nil {
				return nil, errs.Newf(errs.SchemaMismatch,
					"table %q column %q: %v", tc.Name, cc.Name, err)
			}
			//
			columns[i] = table.NewColumn(cc.Name, cc.Label, typ)
		}
		//
		schema, err := table.NewSchema(columns...)
		if err != nil {
			return nil, err
		}
		//
		schemas[tc.Name] = schema
	}
	//
	return schemas, nil
}

// Registry resolves the configured configurable values into a registry.
func (c *Config) Registry() (*Registry, error) {
	registry := NewRegistry()
	//
	for name, raw := range c.Configurables {
		v, err := scalar(raw)
		if err != nil {
			return nil, errs.Newf(errs.UnresolvedConfigurable, "configurable %q: %v", name, err)
		}
		//
		registry.Set(name, v)
	}
	//
	return registry, nil
}

// CompiledFilters builds and compiles the configured row selections, keyed
// by table name.  Filters of the same table conjoin when applied.
func (c *Config) CompiledFilters(schemas map[string]table.Schema,
	registry *Registry) (map[string][]*filter.Filter, error) {
	filters := make(map[string][]*filter.Filter)
	//
	for _, fc := range c.Filters {
		schema, ok := schemas[fc.Table]
		if !ok {
			return nil, errs.Newf(errs.SchemaMismatch, "filter names undeclared table %q", fc.Table)
		}
		//
		pred, err := fc.predicate()
		if err != nil {
			return nil, err
		}
		//
		f := filter.New(pred)
		if err := f.Compile(schema, registry.Lookup); err != nil {
			return nil, err
		}
		//
		filters[fc.Table] = append(filters[fc.Table], f)
	}
	//
	return filters, nil
}

// predicate builds the comparison node of one configured filter.
func (fc FilterConfig) predicate() (expr.Node, error) {
	var rhs expr.Node
	//
	if fc.Configurable != "" {
		rhs = expr.Cfg(fc.Configurable)
	} else {
		v, err := scalar(fc.Value)
		if err != nil {
			return nil, errs.Newf(errs.UnresolvedConfigurable,
				"filter on %q.%q: %v", fc.Table, fc.Column, err)
		}
		//
		rhs = expr.Const(v)
	}
	//
	lhs := expr.Col(fc.Column)
	//
	switch fc.Op {
	case "<":
		return expr.Lt(lhs, rhs), nil
	case "<=":
		return expr.Le(lhs, rhs), nil
	case ">":
		return expr.Gt(lhs, rhs), nil
	case ">=":
		return expr.Ge(lhs, rhs), nil
	case "==":
		return expr.Eq(lhs, rhs), nil
	case "!=":
		return expr.Ne(lhs, rhs), nil
	default:
		return nil, errs.Newf(errs.SchemaMismatch,
			"filter on %q.%q: unknown operator %q", fc.Table, fc.Column, fc.Op)
	}
}

// parseType maps a configured type name onto an engine type.
func parseType(name string) (table.Type, error) {
	switch name {
	case "float64", "float":
		return table.Float64, nil
	case "int64", "int":
		return table.Int64, nil
	case "string":
		return table.String, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", name)
	}
}

// scalar converts a decoded configuration scalar into an engine value.
func scalar(raw any) (table.Value, error) {
	switch v := raw.(type) {
	case float64:
		return table.Float(v), nil
	case float32:
		return table.Float(float64(v)), nil
	case int:
		return table.Int(int64(v)), nil
	case int64:
		return table.Int(v), nil
	case uint64:
		return table.Int(int64(v)), nil
	case string:
		return table.Str(v), nil
	case bool:
		return table.Bool(v), nil
	default:
		return table.Value{}, fmt.Errorf("unsupported scalar %T", raw)
	}
}
