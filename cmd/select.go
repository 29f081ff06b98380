/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var optTexelSize float64

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the level for a texel size",
	Long: `Prints the coarsest level whose texels are no larger than --texel degrees.
Targets finer than the last level get the last level.

Examples:

  catglobe select --texel 0.001
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ls := mustLevelSet()
		l, err := ls.LevelForTexelSize(optTexelSize)
		cobra.CheckErr(err)
		fmt.Fprintln(os.Stdout, l)
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().Float64Var(&optTexelSize, "texel", 0, "target texel size in degrees")
	_ = selectCmd.MarkFlagRequired("texel")
}
