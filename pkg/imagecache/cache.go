// Package imagecache stores decoded projection images keyed by the view
// parameters that affect the server-side rendering.
//
// Zoom and pan are deliberately not part of the key: they are applied at
// paint time on the client, so changing them never requires a new fetch.
// The cache is bounded with a least-recently-used policy so that
// interactive contrast dragging, which produces a new key per step, cannot
// grow it without limit.
package imagecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"sliceview/internal/models"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 256

// Key identifies a rendered projection image.
type Key struct {
	Projection   models.Projection
	Slice        int
	WindowCenter float64
	WindowWidth  float64
}

// String formats the key the way it appears in logs.
func (k Key) String() string {
	return fmt.Sprintf("%s-%d-%g-%g", k.Projection, k.Slice, k.WindowCenter, k.WindowWidth)
}

// Cache maps render keys to decoded images.
//
// Cache does not deduplicate concurrent fetches for the same key: callers
// check Get before fetching and Put the result afterwards.
type Cache struct {
	entries  *lru.Cache[Key, models.ProjectionImage]
	capacity int
}

// New creates a cache holding at most capacity images.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[Key, models.ProjectionImage](capacity)
	if err != nil {
		return nil, fmt.Errorf("error creating image cache: %w", err)
	}
	return &Cache{entries: entries, capacity: capacity}, nil
}

// Get returns the cached image for key, marking it as recently used.
func (c *Cache) Get(key Key) (models.ProjectionImage, bool) {
	return c.entries.Get(key)
}

// Contains reports whether key is cached without touching its recency.
func (c *Cache) Contains(key Key) bool {
	return c.entries.Contains(key)
}

// Put stores img under key, evicting the least recently used entry when full.
// It reports whether an eviction happened.
func (c *Cache) Put(key Key, img models.ProjectionImage) bool {
	return c.entries.Add(key, img)
}

// Clear removes every entry. It is called when a new dataset is loaded.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Capacity returns the maximum number of cached images.
func (c *Cache) Capacity() int {
	return c.capacity
}
