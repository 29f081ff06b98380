package levels

import (
	"fmt"
	"math"

	"github.com/rotblauer/catglobe/common"
	"github.com/rotblauer/catglobe/types/sector"
)

// Level is one depth of a tile pyramid.
// Level 0 is the coarsest; each following level halves the tile delta on both axes.
// Levels are immutable values, created by NewLevel or owned by a LevelSet.
type Level struct {
	LevelNumber int             `json:"level" yaml:"level"`
	TileDelta   sector.Location `json:"tileDelta" yaml:"tileDelta"`
	TileWidth   int             `json:"tileWidth" yaml:"tileWidth"`
	TileHeight  int             `json:"tileHeight" yaml:"tileHeight"`
}

// NewLevel derives the level at levelNumber from the level-zero tile delta.
// TileWidth counts samples along longitude, TileHeight along latitude.
func NewLevel(levelNumber int, levelZeroDelta sector.Location, tileWidth, tileHeight int) (Level, error) {
	const op = "NewLevel"
	if levelNumber < 0 {
		return Level{}, argError(op, "levelNumber", levelNumber, "must be >= 0")
	}
	if err := levelZeroDelta.ValidateDelta(); err != nil {
		return Level{}, argError(op, "levelZeroDelta", levelZeroDelta, err.Error())
	}
	if tileWidth < 1 {
		return Level{}, argError(op, "tileWidth", tileWidth, "must be >= 1")
	}
	if tileHeight < 1 {
		return Level{}, argError(op, "tileHeight", tileHeight, "must be >= 1")
	}
	delta := levelZeroDelta.Halve(levelNumber)
	if delta.Lat/float64(tileHeight) == 0 || delta.Lon/float64(tileWidth) == 0 {
		return Level{}, argError(op, "levelNumber", levelNumber, "texel size underflows to zero")
	}
	return Level{
		LevelNumber: levelNumber,
		TileDelta:   delta,
		TileWidth:   tileWidth,
		TileHeight:  tileHeight,
	}, nil
}

// TexelSize is the angular size, in degrees, of one sample along each axis.
func (l Level) TexelSize() sector.Location {
	return sector.Location{
		Lat: l.TileDelta.Lat / float64(l.TileHeight),
		Lon: l.TileDelta.Lon / float64(l.TileWidth),
	}
}

// Resolution is the coarser of the two texel size components.
// It is the scalar compared against a target texel size when selecting a level.
func (l Level) Resolution() float64 {
	ts := l.TexelSize()
	return math.Max(ts.Lat, ts.Lon)
}

func (l Level) IsFirstLevel() bool {
	return l.LevelNumber == 0
}

func (l Level) IsLastLevel(numLevels int) bool {
	return l.LevelNumber == numLevels-1
}

// SlippyZoom is the coarsest web map zoom at least as fine as this level.
func (l Level) SlippyZoom() common.SlippyZoomLevelT {
	return common.SlippyZoomForTexelSize(l.TexelSize().Lon)
}

func (l Level) String() string {
	return fmt.Sprintf("level %d delta=%v texel=%g", l.LevelNumber, l.TileDelta, l.Resolution())
}
