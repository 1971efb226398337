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

	"github.com/ctolon/analysis-framework/pkg/tableio"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] data_file",
	Short: "print the tables stored in a data file.",
	Long: `Print each table stored in a given data file along with its columns,
	their types and the row count.  Data files can be given either as JSON
	or compressed binary colz files.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		contents, err := tableio.ReadFile(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		names := make([]string, 0, len(contents))
		for name := range contents {
			names = append(names, name)
		}
		//
		sort.Strings(names)
		//
		for _, name := range names {
			raw := contents[name]
			fmt.Printf("%s (%d rows)\n", name, raw.Height())
			//
			for _, col := range raw.Columns {
				fmt.Printf("  %s %s\n", col.Name, col.Type)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
