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
	"strings"

	"github.com/ctolon/analysis-framework/pkg/errs"
	"github.com/ctolon/analysis-framework/pkg/table"
)

// Registry holds the named scalar configuration values referenced inside
// filter and partition predicates.  Values are resolved once, at startup;
// the engine treats them as opaque bound constants afterwards.  Names match
// case-insensitively, since configuration loaders fold key case.
type Registry struct {
	values map[string]table.Value
}

// NewRegistry constructs an empty configurable registry.
func NewRegistry() *Registry {
	return &Registry{values: make(map[string]table.Value)}
}

// Set resolves a named configurable.  Later calls overwrite earlier ones.
func (r *Registry) Set(name string, v table.Value) *Registry {
	r.values[strings.ToLower(name)] = v
	return r
}

// Lookup returns the resolved value of a configurable.  Its signature
// matches expr.Lookup, so a registry can be passed directly to filter and
// partition compilation.
func (r *Registry) Lookup(name string) (table.Value, bool) {
	v, ok := r.values[strings.ToLower(name)]
	return v, ok
}

// Bind returns the resolved value of a configurable, failing with
// UnresolvedConfigurable for unknown names.
func (r *Registry) Bind(name string) (table.Value, error) {
	if v, ok := r.values[strings.ToLower(name)]; ok {
		return v, nil
	}
	//
	return table.Value{}, errs.Newf(errs.UnresolvedConfigurable, "%q not resolved", name)
}
