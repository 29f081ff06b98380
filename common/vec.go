package common

import "math"

// Vec3 is a three component Cartesian vector with value semantics.
// All operations return a new vector and leave the receiver unchanged.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to itself.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Vec3FromLatLon returns the point on the unit sphere at the given
// latitude and longitude, in degrees.
func Vec3FromLatLon(lat, lon float64) Vec3 {
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	cosPhi := math.Cos(phi)
	return Vec3{cosPhi * math.Cos(lambda), cosPhi * math.Sin(lambda), math.Sin(phi)}
}

// LatLon returns the latitude and longitude, in degrees, of the direction of v.
func (v Vec3) LatLon() (lat, lon float64) {
	lat = math.Atan2(v[2], math.Hypot(v[0], v[1])) * 180 / math.Pi
	lon = math.Atan2(v[1], v[0]) * 180 / math.Pi
	return lat, lon
}
