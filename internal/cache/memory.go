// Package cache provides an in-memory LRU cache for synthesized audio
// segments, so repeated chunks (common in templated text) skip the
// engine. Values are zstd-compressed; raw PCM compresses well enough
// that the working set is several times larger than the configured
// capacity would suggest.
package cache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrTooLarge is returned when a value exceeds the cache capacity
// outright.
var ErrTooLarge = errors.New("cache item larger than capacity")

// Stats tracks cache behavior.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int64
	Capacity  int64
}

// Memory is a byte-capacity LRU cache. Accounting is done on compressed
// sizes. Safe for concurrent use.
type Memory struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	enc *zstd.Encoder
	dec *zstd.Decoder

	mu    sync.Mutex
	stats Stats
}

type entry struct {
	key   string
	value []byte
	size  int64
}

// NewMemory creates a cache holding up to capacity bytes of compressed
// data.
func NewMemory(capacity int64) (*Memory, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		enc:      enc,
		dec:      dec,
		stats:    Stats{Capacity: capacity},
	}, nil
}

// Get retrieves and decompresses a value.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	compressed := elem.Value.(*entry).value
	c.stats.Hits++
	c.mu.Unlock()

	value, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		// Corrupt entry; drop it and treat as a miss.
		c.Delete(key)
		return nil, false
	}
	return value, true
}

// Put compresses and stores a value, evicting least-recently-used
// entries until it fits.
func (c *Memory) Put(key string, value []byte) error {
	compressed := c.enc.EncodeAll(value, nil)
	size := int64(len(compressed))
	if size > c.capacity {
		return ErrTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		c.size += size - e.size
		e.value = compressed
		e.size = size
		c.eviction.MoveToFront(elem)
		c.stats.Size = c.size
		return nil
	}

	for c.size+size > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	elem := c.eviction.PushFront(&entry{key: key, value: compressed, size: size})
	c.items[key] = elem
	c.size += size
	c.stats.Size = c.size
	return nil
}

// Delete removes a key if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Stats returns a snapshot of cache statistics.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of cached entries.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

func (c *Memory) evictOldest() {
	elem := c.eviction.Back()
	if elem == nil {
		return
	}
	c.removeElement(elem)
	c.stats.Evictions++
}

func (c *Memory) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	c.eviction.Remove(elem)
	delete(c.items, e.key)
	c.size -= e.size
	c.stats.Size = c.size
}
