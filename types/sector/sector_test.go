package sector

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestSector_Validate(t *testing.T) {
	for i, d := range []struct {
		s  Sector
		ok bool
	}{
		{FullSphere, true},
		{New(0, 0, 0, 0), true},
		{New(10, 0, 0, 10), false},
		{New(0, 10, 170, -170), false},
		{New(-91, 0, 0, 10), false},
		{New(0, 10, 0, 181), false},
		{New(math.NaN(), 10, 0, 10), false},
		{New(0, math.Inf(1), 0, 10), false},
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			err := d.s.Validate()
			require.Equal(t, d.ok, err == nil, "err=%v", err)
			if err != nil {
				require.True(t, errors.Is(err, ErrInvalidSector))
			}
		})
	}
}

func TestSector_ContainsAndIntersects(t *testing.T) {
	s := New(0, 45, 0, 45)
	require.True(t, FullSphere.ContainsSector(s, 0))
	require.False(t, s.ContainsSector(FullSphere, 0))
	require.True(t, s.ContainsSector(New(0, 45+1e-12, 0, 45), 1e-10))

	require.True(t, s.Intersects(New(44, 50, 44, 50)))
	require.False(t, s.Intersects(New(45, 50, 0, 45)), "shared edge is not an intersection")

	in, ok := s.Intersection(New(40, 50, -10, 10))
	require.True(t, ok)
	require.Equal(t, New(40, 45, 0, 10), in)
	_, ok = s.Intersection(New(50, 60, 0, 10))
	require.False(t, ok)
}

func TestSector_Centroid(t *testing.T) {
	c := New(-10, 10, 20, 40).Centroid()
	require.InDelta(t, 0, c.Lat, 1e-9)
	require.InDelta(t, 30, c.Lon, 1e-9)

	c = FullSphere.Centroid()
	require.InDelta(t, 0, c.Lat, 1e-9)
	require.InDelta(t, 0, c.Lon, 1e-9)
}

func TestSector_OrbRoundTrip(t *testing.T) {
	s := New(-12.5, 30, 100, 120)
	b := s.Bound()
	require.Equal(t, orb.Point{100, -12.5}, b.Min)
	require.Equal(t, s, FromBound(b))
	require.Len(t, s.Polygon()[0], 5)
}

func TestSector_S2(t *testing.T) {
	s := New(0, 45, 0, 45)
	r := s.S2Rect()
	require.InDelta(t, 45, r.Hi().Lat.Degrees(), 1e-9)
	require.InDelta(t, 0, r.Lo().Lng.Degrees(), 1e-9)

	cu := s.CellCovering(6, 8)
	require.NotEmpty(t, cu)
	require.LessOrEqual(t, len(cu), 8)
}

func TestLocation_Delta(t *testing.T) {
	require.NoError(t, Location{Lat: 45, Lon: 45}.ValidateDelta())
	require.ErrorIs(t, Location{Lat: 0, Lon: 45}.ValidateDelta(), ErrInvalidLocation)
	require.ErrorIs(t, Location{Lat: 1, Lon: math.NaN()}.ValidateDelta(), ErrInvalidLocation)
	require.Equal(t, Location{Lat: 11.25, Lon: 5.625}, Location{Lat: 45, Lon: 22.5}.Halve(2))
}

func TestParseBBox(t *testing.T) {
	s, err := ParseBBox("", FullSphere)
	require.NoError(t, err)
	require.Equal(t, FullSphere, s)

	s, err = ParseBBox("-30, 10, 20, 30", FullSphere)
	require.NoError(t, err)
	require.Equal(t, New(10, 30, -30, 20), s)

	for _, bad := range []string{"1,2,3", "a,b,c,d", "1,2,3,4,5"} {
		_, err := ParseBBox(bad, FullSphere)
		require.ErrorIs(t, err, ErrInvalidSector, bad)
	}
}
