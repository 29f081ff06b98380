package sector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ParseBBox reads a "minLon,minLat,maxLon,maxLat" box, the GeoJSON bbox order.
// An empty string parses to whole.
// The result is not validated; see Sector.Validate.
func ParseBBox(v string, whole Sector) (Sector, error) {
	if strings.TrimSpace(v) == "" {
		return whole, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return Sector{}, fmt.Errorf("%w: bbox %q: want minLon,minLat,maxLon,maxLat", ErrInvalidSector, v)
	}
	var f [4]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Sector{}, fmt.Errorf("%w: bbox %q: %v", ErrInvalidSector, v, err)
		}
		f[i] = x
	}
	return FromBound(orb.Bound{Min: orb.Point{f[0], f[1]}, Max: orb.Point{f[2], f[3]}}), nil
}
