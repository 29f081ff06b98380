package webd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/types/sector"
)

// coveringMaxCells bounds the S2 covering attached to tile responses.
const coveringMaxCells = 8

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// httpError writes err with the status its kind maps to.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, levels.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, levels.ErrOutOfRange):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type statusReport struct {
	Uptime      string `json:"uptime"`
	Fingerprint string `json:"fingerprint"`
	NumLevels   int    `json:"numLevels"`
	Sessions    int    `json:"sessions"`
	Indexing    bool   `json:"indexing"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusReport{
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Fingerprint: fmt.Sprintf("%016x", s.LevelSet.Fingerprint()),
		NumLevels:   s.LevelSet.NumLevels(),
		Sessions:    s.sessions(),
		Indexing:    s.Indexer != nil,
	})
}

type levelReport struct {
	levels.Level
	TexelSize  sector.Location `json:"texelSize"`
	Resolution float64         `json:"resolution"`
	SlippyZoom int             `json:"slippyZoom"`
	Rows       int             `json:"rows"`
	Columns    int             `json:"columns"`
	Tiles      string          `json:"tiles"`
	IsLast     bool            `json:"isLast"`
}

func (s *WebDaemon) newLevelReport(l levels.Level) levelReport {
	rows, _ := s.LevelSet.RowCount(l.LevelNumber)
	cols, _ := s.LevelSet.ColumnCount(l.LevelNumber)
	return levelReport{
		Level:      l,
		TexelSize:  l.TexelSize(),
		Resolution: l.Resolution(),
		SlippyZoom: int(l.SlippyZoom()),
		Rows:       rows,
		Columns:    cols,
		Tiles:      humanize.Comma(int64(rows) * int64(cols)),
		IsLast:     s.LevelSet.IsLastLevel(l),
	}
}

type levelSetReport struct {
	Sector         sector.Sector   `json:"sector"`
	LevelZeroDelta sector.Location `json:"levelZeroDelta"`
	TileWidth      int             `json:"tileWidth"`
	TileHeight     int             `json:"tileHeight"`
	Fingerprint    string          `json:"fingerprint"`
	Levels         []levelReport   `json:"levels"`
}

func (s *WebDaemon) handleLevels(w http.ResponseWriter, r *http.Request) {
	report := levelSetReport{
		Sector:         s.LevelSet.Sector(),
		LevelZeroDelta: s.LevelSet.LevelZeroDelta(),
		TileWidth:      s.LevelSet.TileWidth(),
		TileHeight:     s.LevelSet.TileHeight(),
		Fingerprint:    fmt.Sprintf("%016x", s.LevelSet.Fingerprint()),
	}
	for _, l := range s.LevelSet.Levels() {
		report.Levels = append(report.Levels, s.newLevelReport(l))
	}
	writeJSON(w, report)
}

func (s *WebDaemon) handleLevel(w http.ResponseWriter, r *http.Request) {
	l, err := s.levelFromString(mux.Vars(r)["level"])
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, s.newLevelReport(l))
}

func (s *WebDaemon) handleSelect(w http.ResponseWriter, r *http.Request) {
	texel, err := strconv.ParseFloat(r.URL.Query().Get("texel"), 64)
	if err != nil {
		httpError(w, fmt.Errorf("%w: texel: %v", levels.ErrInvalidArgument, err))
		return
	}
	l, err := s.LevelSet.LevelForTexelSize(texel)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, s.newLevelReport(l))
}

func (s *WebDaemon) levelFromString(v string) (levels.Level, error) {
	if v == "" {
		return levels.Level{}, fmt.Errorf("%w: missing level", levels.ErrInvalidArgument)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return levels.Level{}, fmt.Errorf("%w: level: %v", levels.ErrInvalidArgument, err)
	}
	return s.LevelSet.Level(n)
}

// regionQuery is the parsed form of the bbox and level parameters shared by the /tiles routes.
type regionQuery struct {
	Region sector.Sector
	Level  levels.Level
}

func (s *WebDaemon) parseRegionQuery(r *http.Request) (regionQuery, error) {
	region, err := sector.ParseBBox(r.URL.Query().Get("bbox"), s.LevelSet.Sector())
	if err != nil {
		return regionQuery{}, fmt.Errorf("%w: %w", levels.ErrInvalidArgument, err)
	}
	l, err := s.levelFromString(r.URL.Query().Get("level"))
	if err != nil {
		return regionQuery{}, err
	}
	return regionQuery{Region: region, Level: l}, nil
}

type tileCountResponse struct {
	Level  int           `json:"level"`
	Region sector.Sector `json:"region"`
	Count  int           `json:"count"`
	Cells  []string      `json:"s2Cells"`
}

func (s *WebDaemon) handleTileCount(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseRegionQuery(r)
	if err != nil {
		httpError(w, err)
		return
	}
	key, err := hashstructure.Hash(q, hashstructure.FormatV2, nil)
	if err != nil {
		httpError(w, err)
		return
	}
	var count int
	if item := s.countCache.Get(key); item != nil {
		count = item.Value()
	} else {
		count, err = s.LevelSet.TileCountForSector(q.Region, q.Level)
		if err != nil {
			httpError(w, err)
			return
		}
		s.countCache.Set(key, count, 0)
	}
	res := tileCountResponse{Level: q.Level.LevelNumber, Region: q.Region, Count: count}
	for _, c := range q.Region.CellCovering(q.Level.LevelNumber+1, coveringMaxCells) {
		res.Cells = append(res.Cells, c.ToToken())
	}
	writeJSON(w, res)
}

// handleTiles streams the addresses of a region as newline-delimited JSON,
// taking each one from the enumerator as it is written.
func (s *WebDaemon) handleTiles(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseRegionQuery(r)
	if err != nil {
		httpError(w, err)
		return
	}
	it, err := s.LevelSet.TileEnumeratorForSector(q.Region, q.Level)
	if err != nil {
		httpError(w, err)
		return
	}
	if limit := s.Config.MaxListTiles; limit > 0 && it.Len() > limit {
		httpError(w, fmt.Errorf("%w: region has %s tiles at level %d, limit is %s",
			levels.ErrInvalidArgument, humanize.Comma(int64(it.Len())), q.Level.LevelNumber, humanize.Comma(int64(limit))))
		return
	}

	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	written := 0
	for a, ok := it.Next(); ok; a, ok = it.Next() {
		if err := r.Context().Err(); err != nil {
			return
		}
		if err := enc.Encode(a); err != nil {
			slog.Warn("Failed to write tile", "address", a, "error", err)
			return
		}
		written++
		if flusher != nil && written%1000 == 0 {
			flusher.Flush()
		}
	}
}

// handleTile serves the footprint of one tile as a GeoJSON feature.
func (s *WebDaemon) handleTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a, err := levels.ParseAddress(vars["level"] + "/" + vars["row"] + "/" + vars["column"])
	if err != nil {
		httpError(w, err)
		return
	}
	fp, err := s.LevelSet.TileSector(a)
	if err != nil {
		httpError(w, err)
		return
	}

	f := geojson.NewFeature(fp.Polygon())
	f.BBox = geojson.NewBBox(fp.Bound())
	f.ID = a.String()
	f.Properties["level"] = a.Level
	f.Properties["row"] = a.Row
	f.Properties["column"] = a.Column
	f.Properties["sector"] = fp
	centroid := fp.Centroid()
	f.Properties["centroid"] = []float64{centroid.Lon, centroid.Lat}
	var cells []string
	for _, c := range fp.CellCovering(30, coveringMaxCells) {
		cells = append(cells, c.ToToken())
	}
	f.Properties["s2Cells"] = cells
	if s.Indexer != nil {
		n, err := s.Indexer.Count(a)
		if err != nil {
			httpError(w, err)
			return
		}
		f.Properties["visits"] = n
	}
	if parent, err := s.LevelSet.Parent(a); err == nil {
		f.Properties["parent"] = parent.String()
	}
	if children, err := s.LevelSet.Children(a); err == nil {
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, c.String())
		}
		f.Properties["children"] = names
	}

	b, err := f.MarshalJSON()
	if err != nil {
		httpError(w, err)
		return
	}
	_, _ = w.Write(b)
}

// handleIndex tallies the Point features of a posted GeoJSON FeatureCollection.
func (s *WebDaemon) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.Config.MaxIndexBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("body exceeds %s", humanize.IBytes(uint64(tooLarge.Limit))), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		httpError(w, fmt.Errorf("%w: %v", levels.ErrInvalidArgument, err))
		return
	}
	points := make([]orb.Point, 0, len(fc.Features))
	for _, f := range fc.Features {
		if p, ok := f.Geometry.(orb.Point); ok {
			points = append(points, p)
		}
	}
	res, err := s.Indexer.Index(points)
	if err != nil {
		httpError(w, err)
		return
	}
	s.logger.Info("Indexed points", "points", res.Points, "skipped", res.Skipped, "new_tiles", res.NewTiles)
	writeJSON(w, res)
}

func (s *WebDaemon) handleIndexStats(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["level"])
	if err != nil {
		httpError(w, fmt.Errorf("%w: level: %v", levels.ErrInvalidArgument, err))
		return
	}
	summary, err := s.Indexer.Stats(n)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, summary)
}
