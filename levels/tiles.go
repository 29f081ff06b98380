package levels

import (
	"iter"
	"math"

	"github.com/rotblauer/catglobe/types/sector"
)

// tileRange is an inclusive block of rows and columns at one level.
type tileRange struct {
	level             int
	firstRow, lastRow int
	firstCol, lastCol int
}

func (r tileRange) rows() int    { return r.lastRow - r.firstRow + 1 }
func (r tileRange) columns() int { return r.lastCol - r.firstCol + 1 }
func (r tileRange) count() int   { return r.rows() * r.columns() }

// gridSpan returns the first and last grid cells touched by [lo, hi],
// measured from origin in cells of size delta, clamped to [0, n).
// A bound within gridEpsilon of a grid line is treated as lying on it,
// so a hi bound on a line does not pull in the next cell.
func gridSpan(lo, hi, origin, delta float64, n int) (first, last int) {
	first = int(math.Floor((lo-origin)/delta + gridEpsilon))
	last = int(math.Floor((hi-origin)/delta - gridEpsilon))
	first = clamp(first, 0, n-1)
	last = clamp(last, 0, n-1)
	if last < first {
		// Zero-span regions on a grid line.
		last = first
	}
	return first, last
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tileRangeForSector validates a query and computes the block of tiles it touches.
func (ls *LevelSet) tileRangeForSector(op string, region sector.Sector, level Level) (tileRange, error) {
	if err := ls.checkLevel(op, level); err != nil {
		return tileRange{}, err
	}
	if err := region.Validate(); err != nil {
		return tileRange{}, argError(op, "region", region, err.Error())
	}
	if !ls.sector.ContainsSector(region, containTolerance) {
		return tileRange{}, argError(op, "region", region, "not contained in level set sector "+ls.sector.String())
	}
	n := level.LevelNumber
	r := tileRange{level: n}
	r.firstRow, r.lastRow = gridSpan(region.MinLat, region.MaxLat, ls.sector.MinLat, level.TileDelta.Lat, ls.rows[n])
	r.firstCol, r.lastCol = gridSpan(region.MinLon, region.MaxLon, ls.sector.MinLon, level.TileDelta.Lon, ls.cols[n])
	return r, nil
}

// TileCountForSector returns how many tiles at level intersect region, without enumerating them.
// Tiles the region only partially overlaps are counted.
// The region must lie within the level set's sector; it is never clamped.
func (ls *LevelSet) TileCountForSector(region sector.Sector, level Level) (int, error) {
	r, err := ls.tileRangeForSector("TileCountForSector", region, level)
	if err != nil {
		return 0, err
	}
	return r.count(), nil
}

// TileEnumeratorForSector returns an iterator over the addresses of the tiles at level
// that intersect region, south to north by row and west to east within a row.
// Addresses are produced on demand. The region must lie within the level set's sector.
func (ls *LevelSet) TileEnumeratorForSector(region sector.Sector, level Level) (*TileIterator, error) {
	r, err := ls.tileRangeForSector("TileEnumeratorForSector", region, level)
	if err != nil {
		return nil, err
	}
	return newTileIterator(r), nil
}

// TilesForSector is TileEnumeratorForSector as a range-over-func sequence.
// Each range over the sequence starts from the first tile.
func (ls *LevelSet) TilesForSector(region sector.Sector, level Level) (iter.Seq[Address], error) {
	r, err := ls.tileRangeForSector("TilesForSector", region, level)
	if err != nil {
		return nil, err
	}
	return func(yield func(Address) bool) {
		it := newTileIterator(r)
		for a, ok := it.Next(); ok; a, ok = it.Next() {
			if !yield(a) {
				return
			}
		}
	}, nil
}

// checkAddress requires a to name a tile of this level set.
func (ls *LevelSet) checkAddress(op string, a Address) error {
	if !a.valid() {
		return argError(op, "address", a, "components must be >= 0")
	}
	if a.Level >= ls.numLevels {
		return outOfRange(op, a.Level, ls.numLevels)
	}
	if a.Row >= ls.rows[a.Level] || a.Column >= ls.cols[a.Level] {
		return argError(op, "address", a, "row or column outside level grid")
	}
	return nil
}

// TileSector returns the footprint of the tile at a.
// Footprints are tileDelta in size, except along the north and east edges of a sector
// whose span is not a whole number of tiles, where they are cut at the sector's bounds.
func (ls *LevelSet) TileSector(a Address) (sector.Sector, error) {
	if err := ls.checkAddress("TileSector", a); err != nil {
		return sector.Sector{}, err
	}
	d := ls.levels[a.Level].TileDelta
	s := sector.Sector{
		MinLat: ls.sector.MinLat + float64(a.Row)*d.Lat,
		MaxLat: ls.sector.MinLat + float64(a.Row+1)*d.Lat,
		MinLon: ls.sector.MinLon + float64(a.Column)*d.Lon,
		MaxLon: ls.sector.MinLon + float64(a.Column+1)*d.Lon,
	}
	s.MaxLat = math.Min(s.MaxLat, ls.sector.MaxLat)
	s.MaxLon = math.Min(s.MaxLon, ls.sector.MaxLon)
	if a.Row == ls.rows[a.Level]-1 {
		s.MaxLat = ls.sector.MaxLat
	}
	if a.Column == ls.cols[a.Level]-1 {
		s.MaxLon = ls.sector.MaxLon
	}
	return s, nil
}

// AddressForLocation returns the address of the tile at level containing the location.
// Locations on a shared tile edge belong to the tile north or east of it,
// except on the sector's own north and east edges.
func (ls *LevelSet) AddressForLocation(lat, lon float64, level Level) (Address, error) {
	const op = "AddressForLocation"
	if err := ls.checkLevel(op, level); err != nil {
		return Address{}, err
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || !ls.sector.ContainsLocation(lat, lon) {
		return Address{}, argError(op, "location", sector.Location{Lat: lat, Lon: lon}, "not in level set sector "+ls.sector.String())
	}
	n := level.LevelNumber
	row, _ := gridSpan(lat, lat, ls.sector.MinLat, level.TileDelta.Lat, ls.rows[n])
	col, _ := gridSpan(lon, lon, ls.sector.MinLon, level.TileDelta.Lon, ls.cols[n])
	return Address{Level: n, Row: row, Column: col}, nil
}

// Children returns the tiles at the next level that subdivide a, south-west first.
// There are four, or fewer where a lies on a partial edge of the sector.
func (ls *LevelSet) Children(a Address) ([]Address, error) {
	const op = "Children"
	if err := ls.checkAddress(op, a); err != nil {
		return nil, err
	}
	next := a.Level + 1
	if next >= ls.numLevels {
		return nil, outOfRange(op, next, ls.numLevels)
	}
	out := make([]Address, 0, 4)
	for row := 2 * a.Row; row <= 2*a.Row+1 && row < ls.rows[next]; row++ {
		for col := 2 * a.Column; col <= 2*a.Column+1 && col < ls.cols[next]; col++ {
			out = append(out, Address{Level: next, Row: row, Column: col})
		}
	}
	return out, nil
}

// Parent returns the tile at the previous level containing a.
func (ls *LevelSet) Parent(a Address) (Address, error) {
	const op = "Parent"
	if err := ls.checkAddress(op, a); err != nil {
		return Address{}, err
	}
	if a.Level == 0 {
		return Address{}, outOfRange(op, -1, ls.numLevels)
	}
	return Address{Level: a.Level - 1, Row: a.Row / 2, Column: a.Column / 2}, nil
}
