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

	"github.com/ctolon/analysis-framework/pkg/errs"
	log "github.com/sirupsen/logrus"
)

// StepFn is the body of one processing step.  It reads tables of the slice
// and may attach produced tables back onto it.
type StepFn func(ctx context.Context, slice *Slice) error

// Step is one registered processing unit: a name, the declared table
// requirements, and a body.  Steps of a workflow run in registration order
// over each slice.
type Step struct {
	Name string
	// Tables and typed columns the body reads.
	Needs CapabilitySet
	Run   StepFn
}

// Runner drives a workflow: it materialises each slice via the reader,
// runs every registered step over it, and commits the results via the
// writer.  A structural defect aborts the whole run; any other error aborts
// only the slice it occurred in.
type Runner struct {
	reader *Reader
	writer *Writer
	steps  []Step
}

// NewRunner constructs a runner from validated directors.
func NewRunner(reader *Reader, writer *Writer) *Runner {
	return &Runner{reader: reader, writer: writer}
}

// Register appends a processing step.  Steps execute in registration order.
func (r *Runner) Register(steps ...Step) *Runner {
	r.steps = append(r.steps, steps...)
	return r
}

// Run processes every slice end-to-end.  It returns the number of slices
// processed successfully, and the first fatal error encountered (if any).
func (r *Runner) Run(ctx context.Context) (int, error) {
	processed := 0
	//
	for index := 0; index < r.reader.Slices(); index++ {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		//
		if err := r.runSlice(ctx, index); err != nil {
			if errs.IsFatal(err) {
				log.Errorf("slice %d: %v (aborting run)", index, err)
				return processed, err
			}
			//
			log.Warnf("slice %d: %v (skipped)", index, err)
			//
			continue
		}
		//
		processed++
	}
	//
	log.Infof("processed %d / %d slice(s)", processed, r.reader.Slices())
	//
	return processed, nil
}

// runSlice materialises one slice, runs every step over it and commits the
// outputs.  Nothing is committed when any step fails.
func (r *Runner) runSlice(ctx context.Context, index int) error {
	slice, err := r.reader.Read(ctx, index)
	if err != nil {
		return err
	}
	//
	for _, step := range r.steps {
		if err := step.Needs.Match(slice); err != nil {
			return err
		}
		//
		log.Debugf("slice %d: running step %q", index, step.Name)
		//
		if err := step.Run(ctx, slice); err != nil {
			return err
		}
	}
	//
	return r.writer.Commit(slice)
}
