/*
Package tileidx tallies visits to the tiles of a level set.

Every indexed point is resolved to its tile address at each level of the pyramid,
and a visit count per address is kept in a bbolt database, one bucket per level.
Keys are levels.Address keys, so a bucket cursor walks tiles in row-major order.

In front of the database sits an LRU cache of counts which saves reads
for the tiles visited most recently; all writes go straight through to the database
in one transaction per batch.

Addresses only mean the same footprint within one level set shape,
so the database records the level set's fingerprint and refuses to open
under a different one.

Addresses seen for the first time are published on a feed,
for clients that draw coverage as it grows.
*/
package tileidx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/event"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/params"
	bbolt "go.etcd.io/bbolt"
)

const DBName = "tiles.db"

var (
	ErrFingerprintMismatch = errors.New("index was written for a different level set")
	ErrClosed              = errors.New("indexer closed")
)

var (
	metaBucket     = []byte("meta")
	fingerprintKey = []byte("fingerprint")
)

func levelBucket(level int) []byte { return []byte(fmt.Sprintf("level-%02d", level)) }

type Indexer struct {
	LevelSet  *levels.LevelSet
	DB        *bbolt.DB
	Cache     *lru.Cache[levels.Address, uint64]
	BatchSize int

	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
	newTiles event.FeedOf[[]levels.Address]
}

// Result summarizes one call to Index.
type Result struct {
	Points   int `json:"points"`
	Skipped  int `json:"skipped"`
	NewTiles int `json:"newTiles"`
}

// NewIndexer opens (or creates) the index database under config.DataDir for the level set.
func NewIndexer(ls *levels.LevelSet, config *params.IndexerConfig) (*Indexer, error) {
	if ls == nil {
		return nil, fmt.Errorf("no level set provided")
	}
	if config == nil {
		config = params.DefaultIndexerConfig()
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("invalid batch size: %d", config.BatchSize)
	}
	if err := os.MkdirAll(config.DataDir, 0770); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(config.DataDir, DBName), 0660, &bbolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[levels.Address, uint64](max(config.CacheSize, 1))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	fingerprint := ls.Fingerprint()
	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if v := meta.Get(fingerprintKey); v != nil {
			if binary.BigEndian.Uint64(v) != fingerprint {
				return fmt.Errorf("%w: have %x, want %x", ErrFingerprintMismatch, binary.BigEndian.Uint64(v), fingerprint)
			}
		} else if err := meta.Put(fingerprintKey, binary.BigEndian.AppendUint64(nil, fingerprint)); err != nil {
			return err
		}
		for n := 0; n < ls.NumLevels(); n++ {
			if _, err := tx.CreateBucketIfNotExists(levelBucket(n)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Indexer{
		LevelSet:  ls,
		DB:        db,
		Cache:     cache,
		BatchSize: config.BatchSize,
		logger:    slog.With("indexer", "tiles"),
	}, nil
}

// SubscribeNewTiles delivers each batch of first-seen addresses to ch.
// Index blocks until every subscriber has received the batch,
// so subscribers must keep reading until they unsubscribe.
func (ix *Indexer) SubscribeNewTiles(ch chan<- []levels.Address) event.Subscription {
	return ix.newTiles.Subscribe(ch)
}

// Index tallies the points at every level, in batches of BatchSize points.
// Points outside the level set's sector are skipped.
func (ix *Indexer) Index(points []orb.Point) (Result, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return Result{}, ErrClosed
	}

	res := Result{}
	for start := 0; start < len(points); start += ix.BatchSize {
		end := min(start+ix.BatchSize, len(points))
		r, err := ix.indexBatch(points[start:end])
		res.Points += r.Points
		res.Skipped += r.Skipped
		res.NewTiles += r.NewTiles
		if err != nil {
			return res, err
		}
	}
	if res.Skipped > 0 {
		ix.logger.Warn("Skipped points outside level set sector",
			"skipped", humanize.Comma(int64(res.Skipped)), "sector", ix.LevelSet.Sector())
	}
	return res, nil
}

func (ix *Indexer) indexBatch(points []orb.Point) (Result, error) {
	start := time.Now()
	res := Result{}

	deltas := make(map[levels.Address]uint64)
	pyramid := ix.LevelSet.Levels()
	for _, pt := range points {
		inSector := true
		for _, level := range pyramid {
			a, err := ix.LevelSet.AddressForLocation(pt.Lat(), pt.Lon(), level)
			if err != nil {
				inSector = false
				break
			}
			deltas[a]++
		}
		if !inSector {
			res.Skipped++
			continue
		}
		res.Points++
	}

	var fresh []levels.Address
	updated := make(map[levels.Address]uint64, len(deltas))
	err := ix.DB.Update(func(tx *bbolt.Tx) error {
		for a, d := range deltas {
			b := tx.Bucket(levelBucket(a.Level))
			old, ok := ix.Cache.Peek(a)
			if !ok {
				if v := b.Get(a.Key()); v != nil {
					old = binary.BigEndian.Uint64(v)
				}
			}
			if old == 0 {
				fresh = append(fresh, a)
			}
			next := old + d
			if err := b.Put(a.Key(), binary.BigEndian.AppendUint64(nil, next)); err != nil {
				return err
			}
			updated[a] = next
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	// Only cache what was committed.
	for a, n := range updated {
		ix.Cache.Add(a, n)
	}
	res.NewTiles = len(fresh)

	ix.logger.Debug("Indexed batch", "points", res.Points, "tiles", len(deltas),
		"new", res.NewTiles, "elapsed", time.Since(start).Round(time.Millisecond))

	if len(fresh) > 0 {
		ix.newTiles.Send(fresh)
	}
	return res, nil
}

// Count returns the visit tally of the tile at a.
func (ix *Indexer) Count(a levels.Address) (uint64, error) {
	if n, ok := ix.Cache.Get(a); ok {
		return n, nil
	}
	if a.Level < 0 || a.Level >= ix.LevelSet.NumLevels() {
		return 0, fmt.Errorf("%w: level %d", levels.ErrOutOfRange, a.Level)
	}
	var n uint64
	err := ix.DB.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(levelBucket(a.Level)).Get(a.Key()); v != nil {
			n = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		ix.Cache.Add(a, n)
	}
	return n, nil
}

// Dump calls fn for every visited tile at level in row-major order, until fn returns false.
func (ix *Indexer) Dump(level int, fn func(a levels.Address, count uint64) bool) error {
	if level < 0 || level >= ix.LevelSet.NumLevels() {
		return fmt.Errorf("%w: level %d", levels.ErrOutOfRange, level)
	}
	return ix.DB.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(levelBucket(level)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			a, err := levels.AddressFromKey(k)
			if err != nil {
				return err
			}
			if !fn(a, binary.BigEndian.Uint64(v)) {
				return nil
			}
		}
		return nil
	})
}

// Summary describes the distribution of visit counts over the visited tiles of a level.
type Summary struct {
	Level  int     `json:"level"`
	Tiles  int     `json:"tiles"`
	Visits uint64  `json:"visits"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

func (ix *Indexer) Stats(level int) (Summary, error) {
	s := Summary{Level: level}
	var data stats.Float64Data
	err := ix.Dump(level, func(a levels.Address, count uint64) bool {
		data = append(data, float64(count))
		s.Visits += count
		return true
	})
	if err != nil {
		return s, err
	}
	s.Tiles = len(data)
	if s.Tiles == 0 {
		return s, nil
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	return s, nil
}

func (ix *Indexer) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	ix.Cache.Purge()
	return ix.DB.Close()
}
