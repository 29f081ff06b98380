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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/types/sector"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var optBBox string
var optLevel int
var optFootprints bool

// tilesQuery resolves the --bbox and --level flags against the level set.
func tilesQuery(ls *levels.LevelSet) (sector.Sector, levels.Level, error) {
	region, err := sector.ParseBBox(optBBox, ls.Sector())
	if err != nil {
		return sector.Sector{}, levels.Level{}, err
	}
	l, err := ls.Level(optLevel)
	if err != nil {
		return sector.Sector{}, levels.Level{}, err
	}
	return region, l, nil
}

// regionFlags are the flags shared by the tiles subcommands.
func regionFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("region", pflag.ExitOnError)
	fs.StringVar(&optBBox, "bbox", "", "region as minLon,minLat,maxLon,maxLat (default: the whole pyramid)")
	fs.IntVar(&optLevel, "level", 0, "level number")
	return fs
}

// writeTiles writes one line per tile, the address or, with footprints, the address and its sector.
func writeTiles(w io.Writer, ls *levels.LevelSet, it *levels.TileIterator, footprints bool) error {
	bw := bufio.NewWriter(w)
	for a, ok := it.Next(); ok; a, ok = it.Next() {
		if !footprints {
			fmt.Fprintln(bw, a)
			continue
		}
		fp, err := ls.TileSector(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%v\t%v\n", a, fp)
	}
	return bw.Flush()
}

// tilesCmd represents the tiles command
var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Count or list the tiles covering a region",
	Long: `Regions are given as --bbox minLon,minLat,maxLon,maxLat and default to the whole pyramid sector.
Regions must lie within the pyramid sector and may not cross the antimeridian.`,
}

var tilesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the tiles at a level covering a region",
	Long: `Examples:

  catglobe tiles count --level 6 --bbox -93.5,44.8,-93.0,45.1
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ls := mustLevelSet()
		region, l, err := tilesQuery(ls)
		cobra.CheckErr(err)
		n, err := ls.TileCountForSector(region, l)
		cobra.CheckErr(err)
		fmt.Fprintln(os.Stdout, humanize.Comma(int64(n)))
	},
}

var tilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tiles at a level covering a region",
	Long: `Tiles are listed south to north by row, west to east within a row, as level/row/column.

Examples:

  catglobe tiles list --level 2 --bbox 0,0,45,45 --footprints
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ls := mustLevelSet()
		region, l, err := tilesQuery(ls)
		cobra.CheckErr(err)
		it, err := ls.TileEnumeratorForSector(region, l)
		cobra.CheckErr(err)
		cobra.CheckErr(writeTiles(os.Stdout, ls, it, optFootprints))
	},
}

func init() {
	rootCmd.AddCommand(tilesCmd)
	tilesCmd.AddCommand(tilesCountCmd, tilesListCmd)

	tilesCmd.PersistentFlags().AddFlagSet(regionFlags())

	tilesListCmd.Flags().BoolVar(&optFootprints, "footprints", false, "print each tile's sector")
}
