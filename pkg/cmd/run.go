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
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ctolon/analysis-framework/pkg/workflow"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] workflow_file",
	Short: "run a configured workflow over its input slices.",
	Long: `Run a configured workflow: load each input slice, apply the configured
	row selections, and commit the surviving rows to the configured outputs.
	A run with no selections converts inputs to outputs unchanged.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		runner := buildRunner(args[0])
		//
		processed, err := runner.Run(context.Background())
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		fmt.Printf("processed %d slice(s)\n", processed)
	},
}

// buildRunner assembles a runner from a workflow configuration file,
// exiting on any structural defect.
func buildRunner(path string) *workflow.Runner {
	cfg, err := workflow.LoadConfig(path)
	if err != nil {
		bail(err)
	}
	//
	schemas, err := cfg.Schemas()
	if err != nil {
		bail(err)
	}
	//
	registry, err := cfg.Registry()
	if err != nil {
		bail(err)
	}
	//
	filters, err := cfg.CompiledFilters(schemas, registry)
	if err != nil {
		bail(err)
	}
	//
	reader, err := workflow.NewReader(schemas, cfg.Inputs)
	if err != nil {
		bail(err)
	}
	//
	writer, err := workflow.NewWriter(cfg.Outputs)
	if err != nil {
		bail(err)
	}
	//
	return workflow.NewRunner(reader, writer).Register(workflow.SkimStep(filters))
}

func bail(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
