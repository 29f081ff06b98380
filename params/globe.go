package params

import (
	"log/slog"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/types/sector"
)

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".catglobe")
}()

// LevelSetConfig describes the shape of a tile pyramid.
type LevelSetConfig struct {
	// Sector is the region the whole pyramid covers.
	Sector sector.Sector `yaml:"sector" mapstructure:"sector"`

	// LevelZeroDelta is the angular size, in degrees, of the coarsest tiles.
	LevelZeroDelta sector.Location `yaml:"levelZeroDelta" mapstructure:"levelZeroDelta"`

	// NumLevels is the depth of the pyramid.
	NumLevels int `yaml:"numLevels" mapstructure:"numLevels"`

	// TileWidth is the number of samples (pixels, or elevation posts)
	// along a tile's longitude axis. TileHeight is the same along latitude.
	TileWidth  int `yaml:"tileWidth" mapstructure:"tileWidth"`
	TileHeight int `yaml:"tileHeight" mapstructure:"tileHeight"`
}

// DefaultLevelSetConfig is a whole-earth pyramid of 45° tiles,
// the layout used for global elevation.
func DefaultLevelSetConfig() *LevelSetConfig {
	return &LevelSetConfig{
		Sector:         sector.FullSphere,
		LevelZeroDelta: sector.Location{Lat: 45, Lon: 45},
		NumLevels:      12,
		TileWidth:      256,
		TileHeight:     256,
	}
}

// Build constructs the level set.
func (c *LevelSetConfig) Build(logger *slog.Logger) (*levels.LevelSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return levels.NewLevelSet(c.Sector, c.LevelZeroDelta, c.NumLevels, c.TileWidth, c.TileHeight,
		levels.WithLogger(logger.With("d", "levels")))
}

// Config is the layout of a catglobe configuration file.
// Sections missing from a file keep their defaults.
type Config struct {
	LevelSet  *LevelSetConfig  `yaml:"levels" mapstructure:"levels"`
	Indexer   *IndexerConfig   `yaml:"indexer" mapstructure:"indexer"`
	WebDaemon *WebDaemonConfig `yaml:"webd" mapstructure:"webd"`
}

func DefaultConfig() *Config {
	return &Config{
		LevelSet:  DefaultLevelSetConfig(),
		Indexer:   DefaultIndexerConfig(),
		WebDaemon: DefaultWebDaemonConfig(),
	}
}
