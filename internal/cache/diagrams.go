// Package cache keeps rendered dataset diagrams in memory.
package cache

import (
	"time"

	"github.com/bluele/gcache"

	"github.com/zigzag-timetable/backend/internal/logging"
)

var logger = logging.New("cache")

// Default limits used when zero values are passed to New.
const (
	DefaultMaxEntries = 64
	DefaultMaxAge     = 30 * time.Minute
)

// Diagram is a rendered diagram ready to be sent again.
type Diagram struct {
	ContentType string
	Data        []byte
	Primitives  int
}

type entry struct {
	datasetID string
	diagram   Diagram
}

// Diagrams caches rendered diagrams by request key. Every entry belongs to
// a dataset so that deleting the dataset drops its renderings.
type Diagrams struct {
	lru gcache.Cache
}

// New creates a cache holding at most maxEntries diagrams, the least
// recently used evicted first. A diagram expires maxAge after it was stored.
func New(maxEntries int, maxAge time.Duration) *Diagrams {
	return newDiagrams(maxEntries, maxAge, gcache.NewRealClock())
}

func newDiagrams(maxEntries int, maxAge time.Duration, clock gcache.Clock) *Diagrams {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Diagrams{
		lru: gcache.New(maxEntries).
			LRU().
			Expiration(maxAge).
			Clock(clock).
			EvictedFunc(func(key, _ interface{}) {
				logger.Debugf("evicted %v", key)
			}).
			Build(),
	}
}

// Get returns a cached diagram and marks it as recently used.
func (d *Diagrams) Get(key string) (Diagram, bool) {
	v, err := d.lru.GetIFPresent(key)
	if err != nil {
		return Diagram{}, false
	}
	return v.(*entry).diagram, true
}

// Put stores a diagram, evicting the least recently used entry when full.
func (d *Diagrams) Put(datasetID, key string, diagram Diagram) {
	if err := d.lru.Set(key, &entry{datasetID: datasetID, diagram: diagram}); err != nil {
		logger.Warnf("caching %s: %v", key, err)
	}
}

// InvalidateDataset drops every diagram rendered from a dataset.
func (d *Diagrams) InvalidateDataset(datasetID string) int {
	removed := 0
	for key, v := range d.lru.GetALL(false) {
		if v.(*entry).datasetID == datasetID && d.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len returns the number of held diagrams, including expired ones not yet
// dropped.
func (d *Diagrams) Len() int {
	return d.lru.Len(false)
}
