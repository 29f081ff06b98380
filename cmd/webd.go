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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotblauer/catglobe/daemon/webd"
	"github.com/rotblauer/catglobe/tileidx"
	"github.com/spf13/cobra"
)

var optHTTPAddr string
var optNoIndex bool

// webdCmd represents the webd command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves level selection, tile enumeration and tile footprints over HTTP.

Unless --no-index, the tile index is opened too, so that POST /index tallies points
and tile footprints carry visit counts. Set GLOBE_TOKEN to require a token for /index.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")

		ls := mustLevelSet()
		var ix *tileidx.Indexer
		if !optNoIndex {
			var err error
			ix, err = tileidx.NewIndexer(ls, globeConfig.Indexer)
			cobra.CheckErr(err)
			defer ix.Close()
		}

		config := globeConfig.WebDaemon
		if cmd.Flags().Changed("address") {
			config.Address = optHTTPAddr
		}
		server, err := webd.NewWebDaemon(config, ls, ix)
		cobra.CheckErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			slog.Warn("Received signal, stopping web daemon")
			if err := server.Stop(); err != nil {
				slog.Error("Failed to stop web daemon", "error", err)
			}
		}()

		if err := server.Run(); err != nil {
			slog.Error("Web daemon failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := globeConfig.WebDaemon

	pFlags := webdCmd.PersistentFlags()
	pFlags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	pFlags.BoolVar(&optNoIndex, "no-index", false, "serve without the tile index")
}
