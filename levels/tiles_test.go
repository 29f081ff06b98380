package levels

import (
	"fmt"
	"math"
	"testing"

	"github.com/rotblauer/catglobe/types/sector"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, it *TileIterator) []Address {
	t.Helper()
	var out []Address
	for a, ok := it.Next(); ok; a, ok = it.Next() {
		out = append(out, a)
	}
	return out
}

func TestTileCountForSector_FullSphere(t *testing.T) {
	ls := newTestLevelSet(t)
	n, err := ls.TileCountForSector(ls.Sector(), ls.FirstLevel())
	require.NoError(t, err)
	require.Equal(t, 32, n)

	for i, want := range []int{32, 128, 512} {
		l, _ := ls.Level(i)
		n, err := ls.TileCountForSector(ls.Sector(), l)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
}

func TestTileEnumeratorForSector_SingleQuadrant(t *testing.T) {
	ls := newTestLevelSet(t)
	it, err := ls.TileEnumeratorForSector(sector.New(0, 45, 0, 45), ls.FirstLevel())
	require.NoError(t, err)
	require.Equal(t, []Address{{Level: 0, Row: 2, Column: 4}}, collect(t, it))
}

func TestTileEnumeratorForSector_OrderAndBounds(t *testing.T) {
	ls := newTestLevelSet(t)
	l1, _ := ls.Level(1)
	// Partially overlaps two rows and three columns of 22.5° tiles.
	region := sector.New(10, 30, -30, 20)
	it, err := ls.TileEnumeratorForSector(region, l1)
	require.NoError(t, err)
	require.Equal(t, 6, it.Len())

	got := collect(t, it)
	want := []Address{
		{1, 4, 6}, {1, 4, 7}, {1, 4, 8},
		{1, 5, 6}, {1, 5, 7}, {1, 5, 8},
	}
	require.Equal(t, want, got)

	n, err := ls.TileCountForSector(region, l1)
	require.NoError(t, err)
	require.Equal(t, len(got), n)
}

func TestTileEnumeratorForSector_Restartable(t *testing.T) {
	ls := newTestLevelSet(t)
	region := sector.New(-60.5, 12.25, -100, 3)
	it1, err := ls.TileEnumeratorForSector(region, ls.LastLevel())
	require.NoError(t, err)
	it2, err := ls.TileEnumeratorForSector(region, ls.LastLevel())
	require.NoError(t, err)
	first := collect(t, it1)
	require.Equal(t, first, collect(t, it2))

	require.Equal(t, 0, it1.Remaining())
	it1.Reset()
	require.Equal(t, len(first), it1.Remaining())
	_, _ = it1.Next()
	require.Equal(t, len(first)-1, it1.Remaining())
	it1.Reset()
	require.Equal(t, first, collect(t, it1))

	seq, err := ls.TilesForSector(region, ls.LastLevel())
	require.NoError(t, err)
	for range 2 {
		var fromSeq []Address
		for a := range seq {
			fromSeq = append(fromSeq, a)
		}
		require.Equal(t, first, fromSeq)
	}
}

func TestTileCoverageIsExact(t *testing.T) {
	for i, ls := range []*LevelSet{
		newTestLevelSet(t),
		mustLevelSet(t, sector.New(-33.3, 71.1, 12.7, 101.9), sector.Location{Lat: 10, Lon: 7}, 3, 64, 64),
		mustLevelSet(t, sector.New(-90, -80, -180, 180), sector.Location{Lat: 2.5, Lon: 40}, 3, 16, 16),
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s := ls.Sector()
			for _, l := range ls.Levels() {
				it, err := ls.TileEnumeratorForSector(s, l)
				require.NoError(t, err)
				addrs := collect(t, it)

				n, err := ls.TileCountForSector(s, l)
				require.NoError(t, err)
				require.Equal(t, n, len(addrs))

				seen := map[Address]bool{}
				area := 0.0
				var footprints []sector.Sector
				for _, a := range addrs {
					require.False(t, seen[a], "duplicate %v", a)
					seen[a] = true
					fp, err := ls.TileSector(a)
					require.NoError(t, err)
					require.True(t, s.ContainsSector(fp, 1e-9), "%v outside %v", fp, s)
					area += fp.DeltaLat() * fp.DeltaLon()
					footprints = append(footprints, fp)
				}
				require.InDelta(t, s.DeltaLat()*s.DeltaLon(), area, 1e-6)
				for x := range footprints {
					for y := x + 1; y < len(footprints); y++ {
						if footprints[x].Intersects(footprints[y]) {
							t.Fatalf("%v overlaps %v", addrs[x], addrs[y])
						}
					}
				}
			}
		})
	}
}

func mustLevelSet(t *testing.T, s sector.Sector, delta sector.Location, n, w, h int) *LevelSet {
	t.Helper()
	ls, err := NewLevelSet(s, delta, n, w, h)
	require.NoError(t, err)
	return ls
}

func TestTileEnumerator_OneTileFootprint(t *testing.T) {
	ls := mustLevelSet(t, sector.New(-33.3, 71.1, 12.7, 101.9), sector.Location{Lat: 10, Lon: 7}, 5, 64, 64)
	for _, l := range ls.Levels() {
		rows, _ := ls.RowCount(l.LevelNumber)
		cols, _ := ls.ColumnCount(l.LevelNumber)
		for _, a := range []Address{
			{l.LevelNumber, 0, 0},
			{l.LevelNumber, rows / 2, cols / 3},
			{l.LevelNumber, rows - 1, cols - 1},
		} {
			fp, err := ls.TileSector(a)
			require.NoError(t, err)
			it, err := ls.TileEnumeratorForSector(fp, l)
			require.NoError(t, err)
			require.Equal(t, []Address{a}, collect(t, it), "footprint %v", fp)
		}
	}
}

func TestTileQueries_Invalid(t *testing.T) {
	ls := newTestLevelSet(t)
	l0 := ls.FirstLevel()

	other := mustLevelSet(t, sector.FullSphere, sector.Location{Lat: 30, Lon: 30}, 3, 256, 256)

	for i, d := range []struct {
		region sector.Sector
		level  Level
	}{
		{sector.New(0, 10, 170, -170), l0},    // antimeridian crossing
		{sector.New(0, 10, 0, 181), l0},       // outside
		{sector.New(10, 0, 0, 10), l0},        // inverted
		{sector.New(0, math.NaN(), 0, 1), l0}, // NaN
		{sector.New(0, 10, 0, 10), other.FirstLevel()},
		{sector.New(0, 10, 0, 10), Level{LevelNumber: 7}},
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := ls.TileCountForSector(d.region, d.level)
			require.ErrorIs(t, err, ErrInvalidArgument)
			_, err = ls.TileEnumeratorForSector(d.region, d.level)
			require.ErrorIs(t, err, ErrInvalidArgument)
			_, err = ls.TilesForSector(d.region, d.level)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	// Sub-region of a smaller level set sector is not clamped.
	small := mustLevelSet(t, sector.New(0, 45, 0, 45), sector.Location{Lat: 5, Lon: 5}, 2, 16, 16)
	_, err := small.TileCountForSector(sector.New(-1, 10, 0, 10), small.FirstLevel())
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTileEnumerator_DegenerateRegions(t *testing.T) {
	ls := newTestLevelSet(t)
	l0 := ls.FirstLevel()

	// A point on a grid intersection.
	n, err := ls.TileCountForSector(sector.New(0, 0, 0, 0), l0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// The north pole row and the east edge column.
	it, err := ls.TileEnumeratorForSector(sector.New(90, 90, 180, 180), l0)
	require.NoError(t, err)
	require.Equal(t, []Address{{0, 3, 7}}, collect(t, it))

	// A meridian line spanning all latitudes.
	n, err = ls.TileCountForSector(sector.New(-90, 90, 10, 10), l0)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestAddressForLocation(t *testing.T) {
	ls := newTestLevelSet(t)
	l0 := ls.FirstLevel()
	for i, d := range []struct {
		lat, lon float64
		want     Address
	}{
		{-90, -180, Address{0, 0, 0}},
		{0, 0, Address{0, 2, 4}},
		{44.999, 44.999, Address{0, 2, 4}},
		{90, 180, Address{0, 3, 7}},
		{-0.0001, -0.0001, Address{0, 1, 3}},
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			a, err := ls.AddressForLocation(d.lat, d.lon, l0)
			require.NoError(t, err)
			require.Equal(t, d.want, a)

			it, err := ls.TileEnumeratorForSector(sector.New(d.lat, d.lat, d.lon, d.lon), l0)
			require.NoError(t, err)
			require.Equal(t, []Address{a}, collect(t, it))
		})
	}
	_, err := ls.AddressForLocation(91, 0, l0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestChildrenAndParent(t *testing.T) {
	ls := newTestLevelSet(t)
	a := Address{Level: 0, Row: 2, Column: 4}
	children, err := ls.Children(a)
	require.NoError(t, err)
	require.Equal(t, []Address{{1, 4, 8}, {1, 4, 9}, {1, 5, 8}, {1, 5, 9}}, children)

	parentFp, _ := ls.TileSector(a)
	area := 0.0
	for _, c := range children {
		p, err := ls.Parent(c)
		require.NoError(t, err)
		require.Equal(t, a, p)
		fp, _ := ls.TileSector(c)
		require.True(t, parentFp.ContainsSector(fp, 0))
		area += fp.DeltaLat() * fp.DeltaLon()
	}
	require.InDelta(t, parentFp.DeltaLat()*parentFp.DeltaLon(), area, 1e-9)

	_, err = ls.Children(Address{Level: 2, Row: 0, Column: 0})
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = ls.Parent(Address{Level: 0, Row: 0, Column: 0})
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = ls.TileSector(Address{Level: 3, Row: 0, Column: 0})
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = ls.TileSector(Address{Level: 0, Row: 4, Column: 0})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Edge tiles of a partial grid have fewer children.
	partial := mustLevelSet(t, sector.New(0, 30, 0, 30), sector.Location{Lat: 20, Lon: 20}, 2, 8, 8)
	children, err = partial.Children(Address{Level: 0, Row: 1, Column: 1})
	require.NoError(t, err)
	require.Equal(t, []Address{{1, 2, 2}}, children)
}

func TestAddressKeyAndString(t *testing.T) {
	a := Address{Level: 12, Row: 4095, Column: 70000}
	b, err := AddressFromKey(a.Key())
	require.NoError(t, err)
	require.Equal(t, a, b)

	p, err := ParseAddress(a.String())
	require.NoError(t, err)
	require.Equal(t, a, p)

	for _, bad := range []string{"", "1/2", "1/2/x", "-1/0/0", "1/2/3/4", "1/2/3 ", " 1/2/3", "+1/2/3", "1/+2/3", "1//3", "1/2/3x", "1/2/99999999999999999999"} {
		_, err := ParseAddress(bad)
		require.ErrorIs(t, err, ErrInvalidArgument, bad)
	}
	_, err = AddressFromKey([]byte{1, 2})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestChildrenAndParent_SliverEdge(t *testing.T) {
	// The sector overshoots three whole tiles by less than the grid tolerance at level 0,
	// but by more than it at the finer levels.
	ls := mustLevelSet(t, sector.New(0, 3.0000000006, 0, 1), sector.Location{Lat: 1, Lon: 1}, 4, 1, 1)
	for n := 1; n < ls.NumLevels(); n++ {
		rows, _ := ls.RowCount(n)
		prev, _ := ls.RowCount(n - 1)
		require.LessOrEqual(t, rows, 2*prev, "level %d", n)
		require.GreaterOrEqual(t, rows, 2*prev-1, "level %d", n)
	}

	for _, l := range ls.Levels()[1:] {
		it, err := ls.TileEnumeratorForSector(ls.Sector(), l)
		require.NoError(t, err)
		for _, a := range collect(t, it) {
			p, err := ls.Parent(a)
			require.NoError(t, err)
			_, err = ls.TileSector(p)
			require.NoError(t, err, "parent %v of %v", p, a)
			children, err := ls.Children(p)
			require.NoError(t, err)
			require.Contains(t, children, a)
		}
	}

	// The sliver belongs to the last row at every level.
	for _, l := range ls.Levels() {
		a, err := ls.AddressForLocation(3.0000000005, 0.5, l)
		require.NoError(t, err)
		rows, _ := ls.RowCount(l.LevelNumber)
		require.Equal(t, rows-1, a.Row)
		fp, err := ls.TileSector(a)
		require.NoError(t, err)
		require.Equal(t, ls.Sector().MaxLat, fp.MaxLat)
	}
}
