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
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/types/sector"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var optLevelsFormat string

// levelRow is one level as printed by the levels command.
type levelRow struct {
	Level      int             `yaml:"level"`
	TileDelta  sector.Location `yaml:"tileDelta"`
	TexelSize  sector.Location `yaml:"texelSize"`
	Resolution float64         `yaml:"resolution"`
	SlippyZoom int             `yaml:"slippyZoom"`
	Rows       int             `yaml:"rows"`
	Columns    int             `yaml:"columns"`
	Tiles      int64           `yaml:"tiles"`
}

func levelRows(ls *levels.LevelSet) []levelRow {
	var out []levelRow
	for _, l := range ls.Levels() {
		rows, _ := ls.RowCount(l.LevelNumber)
		cols, _ := ls.ColumnCount(l.LevelNumber)
		out = append(out, levelRow{
			Level:      l.LevelNumber,
			TileDelta:  l.TileDelta,
			TexelSize:  l.TexelSize(),
			Resolution: l.Resolution(),
			SlippyZoom: int(l.SlippyZoom()),
			Rows:       rows,
			Columns:    cols,
			Tiles:      int64(rows) * int64(cols),
		})
	}
	return out
}

func writeLevels(w io.Writer, ls *levels.LevelSet, format string) error {
	rows := levelRows(ls)
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(struct {
			Sector      sector.Sector `yaml:"sector"`
			Fingerprint string        `yaml:"fingerprint"`
			Levels      []levelRow    `yaml:"levels"`
		}{ls.Sector(), fmt.Sprintf("%016x", ls.Fingerprint()), rows})
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "LEVEL\tDELTA\tTEXEL\tZOOM\tGRID\tTILES\n")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%v\t%.3g\t%d\t%dx%d\t%s\n",
				r.Level, r.TileDelta, r.Resolution, r.SlippyZoom, r.Rows, r.Columns, humanize.Comma(r.Tiles))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q, want table or yaml", format)
	}
}

// levelsCmd represents the levels command
var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the levels of the configured pyramid",
	Long: `Prints each level's tile delta, texel size, nearest web map zoom and grid size.

Examples:

  catglobe levels
  catglobe levels --format yaml
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		cobra.CheckErr(writeLevels(os.Stdout, mustLevelSet(), optLevelsFormat))
	},
}

func init() {
	rootCmd.AddCommand(levelsCmd)
	levelsCmd.Flags().StringVar(&optLevelsFormat, "format", "table", "output format: table or yaml")
}
