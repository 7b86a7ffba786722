package cache

import (
	"testing"
	"time"

	"github.com/bluele/gcache"
	"github.com/stretchr/testify/assert"
)

func newTestCache(maxEntries int, maxAge time.Duration) (*Diagrams, gcache.FakeClock) {
	clock := gcache.NewFakeClock()
	return newDiagrams(maxEntries, maxAge, clock), clock
}

func svg(body string) Diagram {
	return Diagram{ContentType: "image/svg+xml", Data: []byte(body), Primitives: 1}
}

func TestDiagrams_GetPut(t *testing.T) {
	d, _ := newTestCache(4, time.Minute)

	_, ok := d.Get("ds1?format=svg")
	assert.False(t, ok)

	d.Put("ds1", "ds1?format=svg", svg("<svg/>"))
	got, ok := d.Get("ds1?format=svg")
	assert.True(t, ok)
	assert.Equal(t, "<svg/>", string(got.Data))
	assert.Equal(t, 1, d.Len())

	// Replacing a key does not grow the cache.
	d.Put("ds1", "ds1?format=svg", svg("<svg></svg>"))
	assert.Equal(t, 1, d.Len())
	got, _ = d.Get("ds1?format=svg")
	assert.Equal(t, "<svg></svg>", string(got.Data))
}

func TestDiagrams_EvictsLeastRecentlyUsed(t *testing.T) {
	d, _ := newTestCache(2, time.Hour)

	d.Put("ds1", "a", svg("a"))
	d.Put("ds1", "b", svg("b"))
	d.Get("a")
	d.Put("ds2", "c", svg("c"))

	assert.Equal(t, 2, d.Len())
	_, ok := d.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = d.Get("a")
	assert.True(t, ok)
}

func TestDiagrams_InvalidateDataset(t *testing.T) {
	d, _ := newTestCache(8, time.Hour)
	d.Put("ds1", "ds1?format=svg", svg("1"))
	d.Put("ds1", "ds1?format=png", svg("2"))
	d.Put("ds2", "ds2?format=svg", svg("3"))

	assert.Equal(t, 2, d.InvalidateDataset("ds1"))
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 0, d.InvalidateDataset("missing"))

	_, ok := d.Get("ds1?format=png")
	assert.False(t, ok)
	_, ok = d.Get("ds2?format=svg")
	assert.True(t, ok)
}

func TestDiagrams_Expiry(t *testing.T) {
	d, clock := newTestCache(8, 10*time.Minute)
	d.Put("ds1", "old", svg("old"))
	clock.Advance(8 * time.Minute)
	d.Put("ds1", "fresh", svg("fresh"))
	clock.Advance(5 * time.Minute)

	_, ok := d.Get("old")
	assert.False(t, ok, "stored 13 minutes ago")
	_, ok = d.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, 1, d.Len(), "expired entry is dropped on read")
}

func TestNew_Defaults(t *testing.T) {
	d := New(0, 0)
	for i := 0; i < DefaultMaxEntries+1; i++ {
		d.Put("ds", string(rune('A'+i)), svg("x"))
	}
	assert.Equal(t, DefaultMaxEntries, d.Len())
}
