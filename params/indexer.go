package params

import (
	"path/filepath"
	"time"
)

type IndexerConfig struct {
	// DataDir holds the index database.
	DataDir string `yaml:"dataDir" mapstructure:"dataDir"`

	// CacheSize is the number of recently used tile tallies held in memory.
	CacheSize int `yaml:"cacheSize" mapstructure:"cacheSize"`

	// BatchSize is the number of points tallied per database transaction.
	BatchSize int `yaml:"batchSize" mapstructure:"batchSize"`

	// OpenTimeout is how long to wait for the database file lock.
	OpenTimeout time.Duration `yaml:"openTimeout" mapstructure:"openTimeout"`
}

func DefaultIndexerConfig() *IndexerConfig {
	return &IndexerConfig{
		DataDir:     filepath.Join(DatadirRoot, "index"),
		CacheSize:   100_000,
		BatchSize:   10_000,
		OpenTimeout: 5 * time.Second,
	}
}
