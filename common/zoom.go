package common

import "math"

/*
Slippy map zoom levels (OSM, 256px tiles):

Level 	Tile width (° of longitude) 	m / pixel (on Equator)
0 	360 	156 543
3 	45 	19 568
5 	11.25 	4 892
8 	1.406 	611.496
10 	0.352 	152.874
13 	0.044 	19.109
16 	0.005 	2.389
20 	0.00025 	0.149

https://wiki.openstreetmap.org/wiki/Zoom_levels
*/

type SlippyZoomLevelT int

const (
	SlippyZoomLevelMin SlippyZoomLevelT = 0
	SlippyZoomLevelMax SlippyZoomLevelT = 22

	// SlippyTileSize is the pixel width of a slippy map tile.
	SlippyTileSize = 256
)

// SlippyTexelSize returns the longitudinal size, in degrees, of one pixel at zoom z.
func SlippyTexelSize(z SlippyZoomLevelT) float64 {
	return math.Ldexp(360.0/SlippyTileSize, -int(z))
}

// SlippyZoomForTexelSize returns the coarsest slippy zoom whose pixels are
// at least as fine as the given texel size, in degrees.
// Results are clamped to [SlippyZoomLevelMin, SlippyZoomLevelMax].
func SlippyZoomForTexelSize(texelDegrees float64) SlippyZoomLevelT {
	if texelDegrees <= 0 || math.IsNaN(texelDegrees) {
		return SlippyZoomLevelMax
	}
	z := math.Ceil(math.Log2(360.0/SlippyTileSize/texelDegrees) - 1e-9)
	if z < float64(SlippyZoomLevelMin) {
		return SlippyZoomLevelMin
	}
	if z > float64(SlippyZoomLevelMax) {
		return SlippyZoomLevelMax
	}
	return SlippyZoomLevelT(z)
}
