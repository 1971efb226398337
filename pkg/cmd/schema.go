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
	"fmt"
	"os"
	"sort"

	"github.com/ctolon/analysis-framework/pkg/workflow"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [flags] workflow_file",
	Short: "print the table schemas declared by a workflow.",
	Long: `Print each table schema declared by a given workflow configuration,
	including the on-disk label of every column.  Useful for checking a
	configuration before running it.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		cfg, err := workflow.LoadConfig(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		schemas, err := cfg.Schemas()
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		names := make([]string, 0, len(schemas))
		for name := range schemas {
			names = append(names, name)
		}
		//
		sort.Strings(names)
		//
		for _, name := range names {
			fmt.Println(name)
			//
			for _, col := range schemas[name].Columns() {
				if col.Label() != col.Name() && col.Label() != "" {
					fmt.Printf("  %s (%s) %s\n", col.Name(), col.Label(), col.Type())
				} else {
					fmt.Printf("  %s %s\n", col.Name(), col.Type())
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
