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
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/rotblauer/catglobe/stream"
	"github.com/rotblauer/catglobe/tileidx"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var optIndexStats bool

// pointsFromGeoJSON extracts the Point geometries of one line of GeoJSON:
// a Feature, a FeatureCollection, or a bare Point geometry.
// Anything else yields no points.
func pointsFromGeoJSON(line []byte) []orb.Point {
	var out []orb.Point
	addGeometry := func(g gjson.Result) {
		if g.Get("type").String() != "Point" {
			return
		}
		c := g.Get("coordinates").Array()
		if len(c) < 2 {
			return
		}
		out = append(out, orb.Point{c[0].Float(), c[1].Float()})
	}
	doc := gjson.ParseBytes(line)
	switch doc.Get("type").String() {
	case "FeatureCollection":
		doc.Get("features").ForEach(func(_, f gjson.Result) bool {
			addGeometry(f.Get("geometry"))
			return true
		})
	case "Feature":
		addGeometry(doc.Get("geometry"))
	case "Point":
		addGeometry(doc)
	}
	return out
}

// indexStream tallies every point read from r, in batches of the indexer's batch size.
func indexStream(ctx context.Context, ix *tileidx.Indexer, r io.Reader) (tileidx.Result, error) {
	// Stops the pipeline stages when indexing fails midway.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	meter := stream.NewTickMeter("points", 5*time.Second)
	defer meter.Stop()

	total := tileidx.Result{}
	points := stream.Filter(ctx, func(pts []orb.Point) bool { return len(pts) > 0 },
		stream.Transform(ctx, pointsFromGeoJSON, stream.Lines(ctx, r)))
	for batch := range stream.Rebatch(ctx, ix.BatchSize, points) {
		res, err := ix.Index(batch)
		total.Points += res.Points
		total.Skipped += res.Skipped
		total.NewTiles += res.NewTiles
		if err != nil {
			return total, err
		}
		meter.Mark(len(batch))
	}
	return total, ctx.Err()
}

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Tally GeoJSON points from stdin into the tile index",
	Long: `Reads newline-delimited GeoJSON from stdin: Features, FeatureCollections or Point geometries, one per line.
Each point is tallied at its tile on every level. Points outside the pyramid sector are skipped.

The index lives in the configured indexer data directory and is bound to the pyramid shape;
indexing with a different level set configuration fails.

Examples:

  cat tracks.ndjson | catglobe index --stats
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ls := mustLevelSet()
		ix, err := tileidx.NewIndexer(ls, globeConfig.Indexer)
		cobra.CheckErr(err)
		defer ix.Close()

		res, err := indexStream(ctx, ix, os.Stdin)
		slog.Info("Index done",
			"points", humanize.Comma(int64(res.Points)),
			"skipped", humanize.Comma(int64(res.Skipped)),
			"new_tiles", humanize.Comma(int64(res.NewTiles)))
		if err != nil {
			slog.Error("Index interrupted", "error", err)
			return
		}

		if !optIndexStats {
			return
		}
		var summaries []tileidx.Summary
		for _, l := range ls.Levels() {
			s, err := ix.Stats(l.LevelNumber)
			cobra.CheckErr(err)
			summaries = append(summaries, s)
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		cobra.CheckErr(enc.Encode(summaries))
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&optIndexStats, "stats", false, "print per-level visit statistics when done")
}
