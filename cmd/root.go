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
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envKeys may be set from the environment, eg. CATGLOBE_WEBD_ADDRESS.
var envKeys = []string{
	"levels.numLevels",
	"indexer.dataDir",
	"webd.address",
	"webd.network",
}

var cfgFile string
var optVerbosity int

// globeConfig is the loaded configuration, defaults overlaid with the config file and environment.
var globeConfig = params.DefaultConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catglobe",
	Short: "Tile pyramid addressing for the globe",
	Long: `Catglobe divides a region of the globe into a pyramid of tile levels,
picks the level matching a texel size, and enumerates the tiles covering a region.

Configuration is read from $HOME/.catglobe.yaml (or --config),
with CATGLOBE_LEVELS_NUMLEVELS, CATGLOBE_INDEXER_DATADIR, CATGLOBE_WEBD_ADDRESS and
CATGLOBE_WEBD_NETWORK taking precedence. A .env file in the working directory is loaded first.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.catglobe.yaml)")
	pFlags.IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo), "log level: -4 debug, 0 info, 4 warn, 8 error")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load(".env")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".catglobe")
	}

	viper.SetEnvPrefix("catglobe")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		cobra.CheckErr(viper.BindEnv(key))
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		cobra.CheckErr(err)
	}
	cobra.CheckErr(viper.Unmarshal(globeConfig))
}

// setDefaultSlog installs a text logger on stderr at the --verbosity level.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(optVerbosity),
	})
	slog.SetDefault(slog.New(handler).With("cmd", cmd.Name()))
}

// mustLevelSet builds the configured level set, exiting on an invalid configuration.
func mustLevelSet() *levels.LevelSet {
	ls, err := globeConfig.LevelSet.Build(slog.Default())
	cobra.CheckErr(err)
	return ls
}
