package tileidx

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catglobe/common"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/params"
	"github.com/rotblauer/catglobe/types/sector"
)

func newTestIndexer(t *testing.T, dir string) *Indexer {
	t.Helper()
	ls, err := levels.NewLevelSet(sector.FullSphere, sector.Location{Lat: 45, Lon: 45}, 3, 256, 256)
	if err != nil {
		t.Fatal(err)
	}
	config := params.DefaultIndexerConfig()
	config.DataDir = dir
	config.BatchSize = 2
	config.CacheSize = 4
	ix, err := NewIndexer(ls, config)
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestIndexer_IndexAndCount(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
	ix := newTestIndexer(t, t.TempDir())
	defer ix.Close()

	points := []orb.Point{
		{10, 10}, // lon, lat
		{20, 30}, // same level 0 tile as above
		{-100, -45},
		{200, 0}, // outside
	}
	res, err := ix.Index(points)
	if err != nil {
		t.Fatal(err)
	}
	if res.Points != 3 || res.Skipped != 1 {
		t.Errorf("Expected 3 indexed and 1 skipped, but got %+v", res)
	}

	n, err := ix.Count(levels.Address{Level: 0, Row: 2, Column: 4})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Expected 2 visits, but got %d", n)
	}
	n, _ = ix.Count(levels.Address{Level: 0, Row: 0, Column: 0})
	if n != 0 {
		t.Errorf("Expected 0 visits, but got %d", n)
	}

	var dumped []levels.Address
	if err := ix.Dump(0, func(a levels.Address, count uint64) bool {
		dumped = append(dumped, a)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	want := []levels.Address{{Level: 0, Row: 1, Column: 1}, {Level: 0, Row: 2, Column: 4}}
	if len(dumped) != len(want) || dumped[0] != want[0] || dumped[1] != want[1] {
		t.Errorf("Expected %v, but got %v", want, dumped)
	}

	s, err := ix.Stats(0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Tiles != 2 || s.Visits != 3 || s.Max != 2 || s.Mean != 1.5 {
		t.Errorf("Unexpected stats %+v", s)
	}

	if err := ix.Dump(3, func(levels.Address, uint64) bool { return true }); !errors.Is(err, levels.ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, but got %v", err)
	}
}

func TestIndexer_PersistsAcrossReopen(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
	dir := t.TempDir()
	ix := newTestIndexer(t, dir)
	if _, err := ix.Index([]orb.Point{{1, 1}, {1, 1}, {1, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := ix.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Index([]orb.Point{{1, 1}}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, but got %v", err)
	}

	ix = newTestIndexer(t, dir)
	defer ix.Close()
	n, err := ix.Count(levels.Address{Level: 2, Row: 8, Column: 16})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Expected 3 visits after reopen, but got %d", n)
	}
}

func TestIndexer_FingerprintMismatch(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
	dir := t.TempDir()
	ix := newTestIndexer(t, dir)
	_ = ix.Close()

	other, err := levels.NewLevelSet(sector.FullSphere, sector.Location{Lat: 36, Lon: 36}, 3, 256, 256)
	if err != nil {
		t.Fatal(err)
	}
	config := params.DefaultIndexerConfig()
	config.DataDir = dir
	if _, err := NewIndexer(other, config); !errors.Is(err, ErrFingerprintMismatch) {
		t.Errorf("Expected ErrFingerprintMismatch, but got %v", err)
	}
}

func TestIndexer_NewTilesFeed(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
	ix := newTestIndexer(t, t.TempDir())
	defer ix.Close()

	ch := make(chan []levels.Address, 8)
	sub := ix.SubscribeNewTiles(ch)
	defer sub.Unsubscribe()

	// One point, one batch: a new tile at each of 3 levels.
	if _, err := ix.Index([]orb.Point{{10, 10}}); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-ch:
		if len(got) != 3 {
			t.Errorf("Expected 3 new tiles, but got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no new tiles published")
	}

	// Revisiting publishes nothing.
	res, err := ix.Index([]orb.Point{{10, 10}})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewTiles != 0 {
		t.Errorf("Expected no new tiles, but got %d", res.NewTiles)
	}
	select {
	case got := <-ch:
		t.Errorf("Expected no publication, but got %v", got)
	default:
	}
}
