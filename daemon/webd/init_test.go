package webd

import (
	"testing"

	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/params"
	"github.com/rotblauer/catglobe/tileidx"
	"github.com/rotblauer/catglobe/types/sector"
)

// newTestWebDaemon creates a new WebDaemon over a small full-sphere level set.
// With indexed, it also gets an Indexer in a temporary directory.
func newTestWebDaemon(t *testing.T, indexed bool) *WebDaemon {
	t.Helper()
	ls, err := levels.NewLevelSet(sector.FullSphere, sector.Location{Lat: 45, Lon: 45}, 3, 256, 256)
	if err != nil {
		t.Fatal(err)
	}
	var ix *tileidx.Indexer
	if indexed {
		config := params.DefaultIndexerConfig()
		config.DataDir = t.TempDir()
		ix, err = tileidx.NewIndexer(ls, config)
		if err != nil {
			t.Fatal(err)
		}
	}
	daemon, err := NewWebDaemon(params.DefaultTestWebDaemonConfig(), ls, ix)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = daemon.Stop()
		if ix != nil {
			_ = ix.Close()
		}
	})
	return daemon
}
