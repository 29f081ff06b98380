package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rotblauer/catglobe/params"
	"github.com/rotblauer/catglobe/types/sector"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteLevels(t *testing.T) {
	c := params.DefaultLevelSetConfig()
	c.NumLevels = 3
	ls, err := c.Build(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeLevels(&buf, ls, "table"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[3], "16x32")
	require.Contains(t, lines[3], "512")

	buf.Reset()
	require.NoError(t, writeLevels(&buf, ls, "yaml"))
	var doc struct {
		Sector sector.Sector `yaml:"sector"`
		Levels []levelRow    `yaml:"levels"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, sector.FullSphere, doc.Sector)
	require.Len(t, doc.Levels, 3)
	require.Equal(t, int64(128), doc.Levels[1].Tiles)

	require.Error(t, writeLevels(&buf, ls, "xml"))
}

func TestWriteTiles(t *testing.T) {
	c := params.DefaultLevelSetConfig()
	c.NumLevels = 2
	ls, err := c.Build(nil)
	require.NoError(t, err)

	it, err := ls.TileEnumeratorForSector(sector.New(10, 30, -30, 20), ls.LastLevel())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, writeTiles(&buf, ls, it, false))
	require.Equal(t, "1/4/6\n1/4/7\n1/4/8\n1/5/6\n1/5/7\n1/5/8\n", buf.String())

	it.Reset()
	buf.Reset()
	require.NoError(t, writeTiles(&buf, ls, it, true))
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	require.Equal(t, "1/4/6\t[0,22.5]x[-45,-22.5]", first)
}
