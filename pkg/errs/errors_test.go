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
package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Errs_KindMatching(t *testing.T) {
	err := Newf(SchemaMismatch, "column %s has %d rows, expected %d", "pt", 4, 5)
	//
	assert.True(t, IsKind(err, SchemaMismatch))
	assert.False(t, IsKind(err, TableSealed))
	assert.Contains(t, err.Error(), "SchemaMismatch")
}

func Test_Errs_KindSurvivesWrapping(t *testing.T) {
	inner := New(UnresolvedConfigurable, "cfgPtCut")
	wrapped := errors.Wrap(inner, "compiling filter")
	//
	assert.True(t, IsKind(wrapped, UnresolvedConfigurable))
	assert.False(t, IsFatal(wrapped))
}

func Test_Errs_FatalClassification(t *testing.T) {
	fatal := []Kind{SchemaMismatch, DuplicateOutputTarget, InvalidBinningDimension, MismatchedInputFileCounts}
	perSlice := []Kind{TableSealed, UnresolvedConfigurable, IndexOutOfRange}
	//
	for _, k := range fatal {
		assert.True(t, IsFatal(New(k, "x")), k.String())
	}
	//
	for _, k := range perSlice {
		assert.False(t, IsFatal(New(k, "x")), k.String())
	}
}

func Test_Errs_Details(t *testing.T) {
	err := New(DuplicateOutputTarget, "output collision").
		WithDetail("tree", "O2dileptons").
		WithDetail("file", "AnalysisResults.root")
	//
	tree, ok := err.Detail("tree")
	assert.True(t, ok)
	assert.Equal(t, "O2dileptons", tree)
	assert.Contains(t, err.Error(), "file=AnalysisResults.root")
}
