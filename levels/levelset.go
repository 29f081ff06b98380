/*
Package levels implements tile pyramid addressing and level-of-detail selection.

A LevelSet divides one geographic sector into numLevels resolution levels.
Level 0 is a grid of tiles levelZeroDelta in size, anchored at the sector's
south-west corner; every following level halves the delta on both axes,
so each tile has four children at the next level.

The LevelSet answers two questions for a renderer:
which level matches a target texel size (LevelForTexelSize), and
which tiles at that level cover a region (TileCountForSector, TileEnumeratorForSector).
It does no I/O and holds no mutable state after construction;
it is safe for concurrent use.
*/
package levels

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/catglobe/types/sector"
)

const (
	// gridEpsilon is the tolerance, in grid units, used when a coordinate lands on a tile boundary.
	gridEpsilon = 1e-9

	// containTolerance is the overshoot, in degrees, a query region may have past the sector.
	containTolerance = 1e-9

	// maxGridDim caps the rows or columns of any level, so tile counts fit in an int64.
	maxGridDim = 1 << 31
)

type LevelSet struct {
	sector         sector.Sector
	levelZeroDelta sector.Location
	numLevels      int
	tileWidth      int
	tileHeight     int

	levels []Level
	rows   []int
	cols   []int

	logger *slog.Logger
}

type Option func(ls *LevelSet)

// WithLogger sets the logger the LevelSet reports to.
func WithLogger(logger *slog.Logger) Option {
	return func(ls *LevelSet) {
		ls.logger = logger
	}
}

// NewLevelSet validates its arguments and builds all numLevels levels.
// Every invalid field is reported; the returned error matches ErrInvalidArgument.
func NewLevelSet(s sector.Sector, levelZeroDelta sector.Location, numLevels, tileWidth, tileHeight int, opts ...Option) (*LevelSet, error) {
	const op = "NewLevelSet"

	var errs []error
	if err := s.Validate(); err != nil {
		errs = append(errs, argError(op, "sector", s, err.Error()))
	}
	if err := levelZeroDelta.ValidateDelta(); err != nil {
		errs = append(errs, argError(op, "levelZeroDelta", levelZeroDelta, err.Error()))
	}
	if numLevels < 1 {
		errs = append(errs, argError(op, "numLevels", numLevels, "must be >= 1"))
	}
	if tileWidth < 1 {
		errs = append(errs, argError(op, "tileWidth", tileWidth, "must be >= 1"))
	}
	if tileHeight < 1 {
		errs = append(errs, argError(op, "tileHeight", tileHeight, "must be >= 1"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ls := &LevelSet{
		sector:         s,
		levelZeroDelta: levelZeroDelta,
		numLevels:      numLevels,
		tileWidth:      tileWidth,
		tileHeight:     tileHeight,
		levels:         make([]Level, numLevels),
		rows:           make([]int, numLevels),
		cols:           make([]int, numLevels),
		logger:         slog.Default().With("d", "levels"),
	}
	for _, opt := range opts {
		opt(ls)
	}

	for n := 0; n < numLevels; n++ {
		level, err := NewLevel(n, levelZeroDelta, tileWidth, tileHeight)
		if err != nil {
			return nil, argError(op, "numLevels", numLevels, err.Error())
		}
		rows := gridCount(s.DeltaLat(), level.TileDelta.Lat)
		cols := gridCount(s.DeltaLon(), level.TileDelta.Lon)
		if n > 0 {
			// Every tile has its parent in the level above. A sliver the coarser level
			// rounded away is absorbed by the stretched last row or column here too.
			rows = math.Min(rows, 2*float64(ls.rows[n-1]))
			cols = math.Min(cols, 2*float64(ls.cols[n-1]))
		}
		if rows > maxGridDim || cols > maxGridDim {
			return nil, argError(op, "numLevels", numLevels,
				fmt.Sprintf("level %d has a %gx%g grid, limit is %d per axis", n, rows, cols, maxGridDim))
		}
		ls.levels[n] = level
		ls.rows[n] = int(rows)
		ls.cols[n] = int(cols)
	}

	ls.logger.Debug("Built level set",
		"sector", s, "levelZeroDelta", levelZeroDelta, "levels", numLevels,
		"tileWidth", tileWidth, "tileHeight", tileHeight,
		"finest.texel", ls.LastLevel().Resolution())
	return ls, nil
}

// gridCount is the number of delta-sized tiles needed to span span degrees, at least one.
func gridCount(span, delta float64) float64 {
	return math.Max(1, math.Ceil(span/delta-gridEpsilon))
}

func (ls *LevelSet) Sector() sector.Sector           { return ls.sector }
func (ls *LevelSet) LevelZeroDelta() sector.Location { return ls.levelZeroDelta }
func (ls *LevelSet) NumLevels() int                  { return ls.numLevels }
func (ls *LevelSet) TileWidth() int                  { return ls.tileWidth }
func (ls *LevelSet) TileHeight() int                 { return ls.tileHeight }

// Levels returns a copy of the levels, coarsest first.
func (ls *LevelSet) Levels() []Level {
	out := make([]Level, len(ls.levels))
	copy(out, ls.levels)
	return out
}

// Level returns the level numbered levelNumber.
func (ls *LevelSet) Level(levelNumber int) (Level, error) {
	if levelNumber < 0 || levelNumber >= ls.numLevels {
		return Level{}, outOfRange("Level", levelNumber, ls.numLevels)
	}
	return ls.levels[levelNumber], nil
}

// FirstLevel is the coarsest level.
func (ls *LevelSet) FirstLevel() Level {
	return ls.levels[0]
}

// LastLevel is the finest level.
func (ls *LevelSet) LastLevel() Level {
	return ls.levels[ls.numLevels-1]
}

// IsLastLevel reports whether level is this set's finest level.
func (ls *LevelSet) IsLastLevel(level Level) bool {
	return level.IsLastLevel(ls.numLevels)
}

// LevelForTexelSize returns the coarsest level whose resolution is at least as fine
// as texelSize (degrees per sample). When no level is that fine the finest level
// is returned: it is the best the pyramid has.
func (ls *LevelSet) LevelForTexelSize(texelSize float64) (Level, error) {
	if math.IsNaN(texelSize) || texelSize <= 0 {
		return Level{}, argError("LevelForTexelSize", "texelSize", texelSize, "must be > 0")
	}
	for _, level := range ls.levels {
		if level.Resolution() <= texelSize {
			return level, nil
		}
	}
	return ls.LastLevel(), nil
}

// RowCount is the number of tile rows spanning the sector at a level.
func (ls *LevelSet) RowCount(levelNumber int) (int, error) {
	if levelNumber < 0 || levelNumber >= ls.numLevels {
		return 0, outOfRange("RowCount", levelNumber, ls.numLevels)
	}
	return ls.rows[levelNumber], nil
}

// ColumnCount is the number of tile columns spanning the sector at a level.
func (ls *LevelSet) ColumnCount(levelNumber int) (int, error) {
	if levelNumber < 0 || levelNumber >= ls.numLevels {
		return 0, outOfRange("ColumnCount", levelNumber, ls.numLevels)
	}
	return ls.cols[levelNumber], nil
}

// Fingerprint identifies the shape of the pyramid.
// Two level sets with equal fingerprints assign every address the same footprint.
func (ls *LevelSet) Fingerprint() uint64 {
	shape := struct {
		Sector         sector.Sector
		LevelZeroDelta sector.Location
		NumLevels      int
		TileWidth      int
		TileHeight     int
	}{ls.sector, ls.levelZeroDelta, ls.numLevels, ls.tileWidth, ls.tileHeight}
	h, err := hashstructure.Hash(shape, hashstructure.FormatV2, nil)
	if err != nil {
		// Only reachable with unhashable field types.
		panic(err)
	}
	return h
}

// checkLevel requires level to be one of this set's levels.
func (ls *LevelSet) checkLevel(op string, level Level) error {
	if level.LevelNumber < 0 || level.LevelNumber >= ls.numLevels || ls.levels[level.LevelNumber] != level {
		return argError(op, "level", level, "does not belong to this level set")
	}
	return nil
}
