package sector

import (
	"fmt"
	"math"
)

// Location is a latitude/longitude pair in degrees.
// As a tile delta it is the angular size of a tile along each axis.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat"`
	Lon float64 `json:"lon" yaml:"lon" mapstructure:"lon"`
}

// ValidateDelta requires both components to be finite and strictly positive.
func (l Location) ValidateDelta() error {
	if !finite(l.Lat) || !finite(l.Lon) {
		return fmt.Errorf("%w: non-finite delta %v", ErrInvalidLocation, l)
	}
	if l.Lat <= 0 || l.Lon <= 0 {
		return fmt.Errorf("%w: delta components must be > 0, got %v", ErrInvalidLocation, l)
	}
	return nil
}

func (l Location) Scale(f float64) Location {
	return Location{Lat: l.Lat * f, Lon: l.Lon * f}
}

// Halve returns l divided by 2^n, exactly.
func (l Location) Halve(n int) Location {
	return Location{Lat: math.Ldexp(l.Lat, -n), Lon: math.Ldexp(l.Lon, -n)}
}

func (l Location) String() string {
	return fmt.Sprintf("(%g,%g)", l.Lat, l.Lon)
}
