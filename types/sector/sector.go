/*
Package sector provides the geographic value types consumed by the tile pyramid:
Sector, an axis-aligned latitude/longitude rectangle, and Location, a latitude/longitude
pair used both as a position and as an angular tile size (delta).

All values are in degrees. Sectors never cross the antimeridian;
callers split or normalize such regions before use.
*/
package sector

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/rotblauer/catglobe/common"
)

var (
	ErrInvalidSector   = errors.New("invalid sector")
	ErrInvalidLocation = errors.New("invalid location")
)

// Sector is a geographic region bounded by minimum and maximum latitude and longitude.
type Sector struct {
	MinLat float64 `json:"minLat" yaml:"minLat" mapstructure:"minLat"`
	MaxLat float64 `json:"maxLat" yaml:"maxLat" mapstructure:"maxLat"`
	MinLon float64 `json:"minLon" yaml:"minLon" mapstructure:"minLon"`
	MaxLon float64 `json:"maxLon" yaml:"maxLon" mapstructure:"maxLon"`
}

// FullSphere spans the whole globe.
var FullSphere = Sector{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}

func New(minLat, maxLat, minLon, maxLon float64) Sector {
	return Sector{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate reports whether the sector has finite, in-range, ordered bounds.
// A min longitude greater than the max (an antimeridian crossing) is invalid.
func (s Sector) Validate() error {
	for _, v := range []float64{s.MinLat, s.MaxLat, s.MinLon, s.MaxLon} {
		if !finite(v) {
			return fmt.Errorf("%w: non-finite bound in %v", ErrInvalidSector, s)
		}
	}
	if s.MinLat < -90 || s.MaxLat > 90 {
		return fmt.Errorf("%w: latitude out of range [-90, 90] in %v", ErrInvalidSector, s)
	}
	if s.MinLon < -180 || s.MaxLon > 180 {
		return fmt.Errorf("%w: longitude out of range [-180, 180] in %v", ErrInvalidSector, s)
	}
	if s.MinLat > s.MaxLat {
		return fmt.Errorf("%w: min latitude %v > max latitude %v", ErrInvalidSector, s.MinLat, s.MaxLat)
	}
	if s.MinLon > s.MaxLon {
		return fmt.Errorf("%w: min longitude %v > max longitude %v (antimeridian crossing)", ErrInvalidSector, s.MinLon, s.MaxLon)
	}
	return nil
}

func (s Sector) DeltaLat() float64 { return s.MaxLat - s.MinLat }
func (s Sector) DeltaLon() float64 { return s.MaxLon - s.MinLon }

// IsEmpty is true for a sector with zero area (a point or a line).
func (s Sector) IsEmpty() bool {
	return s.DeltaLat() == 0 || s.DeltaLon() == 0
}

// ContainsSector reports whether o lies entirely within s,
// allowing each bound to overshoot by tolerance degrees.
func (s Sector) ContainsSector(o Sector, tolerance float64) bool {
	return o.MinLat >= s.MinLat-tolerance &&
		o.MaxLat <= s.MaxLat+tolerance &&
		o.MinLon >= s.MinLon-tolerance &&
		o.MaxLon <= s.MaxLon+tolerance
}

// ContainsLocation is inclusive of all edges.
func (s Sector) ContainsLocation(lat, lon float64) bool {
	return lat >= s.MinLat && lat <= s.MaxLat && lon >= s.MinLon && lon <= s.MaxLon
}

// Intersects reports whether the interiors of s and o overlap.
// Sectors that only share an edge do not intersect.
func (s Sector) Intersects(o Sector) bool {
	return s.MinLat < o.MaxLat && o.MinLat < s.MaxLat &&
		s.MinLon < o.MaxLon && o.MinLon < s.MaxLon
}

// Intersection returns the overlap of s and o, and false if they are disjoint.
func (s Sector) Intersection(o Sector) (Sector, bool) {
	out := Sector{
		MinLat: math.Max(s.MinLat, o.MinLat),
		MaxLat: math.Min(s.MaxLat, o.MaxLat),
		MinLon: math.Max(s.MinLon, o.MinLon),
		MaxLon: math.Min(s.MaxLon, o.MaxLon),
	}
	if out.MinLat > out.MaxLat || out.MinLon > out.MaxLon {
		return Sector{}, false
	}
	return out, true
}

// Centroid returns the spherical centroid of the sector's corners.
func (s Sector) Centroid() Location {
	sum := common.Vec3FromLatLon(s.MinLat, s.MinLon).
		Add(common.Vec3FromLatLon(s.MinLat, s.MaxLon)).
		Add(common.Vec3FromLatLon(s.MaxLat, s.MaxLon)).
		Add(common.Vec3FromLatLon(s.MaxLat, s.MinLon))
	if sum.Length() < 1e-12 {
		// Corners cancel out, eg. the full sphere.
		return Location{Lat: (s.MinLat + s.MaxLat) / 2, Lon: (s.MinLon + s.MaxLon) / 2}
	}
	lat, lon := sum.Normalize().LatLon()
	return Location{Lat: lat, Lon: lon}
}

func (s Sector) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", s.MinLat, s.MaxLat, s.MinLon, s.MaxLon)
}

// FromBound converts an orb.Bound (x=lon, y=lat) to a Sector.
func FromBound(b orb.Bound) Sector {
	return Sector{MinLat: b.Min.Lat(), MaxLat: b.Max.Lat(), MinLon: b.Min.Lon(), MaxLon: b.Max.Lon()}
}

func (s Sector) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{s.MinLon, s.MinLat}, Max: orb.Point{s.MaxLon, s.MaxLat}}
}

func (s Sector) Polygon() orb.Polygon {
	return s.Bound().ToPolygon()
}

func (s Sector) S2Rect() s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(s.MinLat, s.MinLon)).
		AddPoint(s2.LatLngFromDegrees(s.MaxLat, s.MaxLon))
}

// CellCovering approximates the sector with at most maxCells S2 cells,
// none finer than maxLevel.
func (s Sector) CellCovering(maxLevel, maxCells int) s2.CellUnion {
	rc := &s2.RegionCoverer{MinLevel: 0, MaxLevel: maxLevel, LevelMod: 1, MaxCells: maxCells}
	return rc.Covering(s.S2Rect())
}
