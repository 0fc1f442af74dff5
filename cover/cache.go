package cover

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/mtraver/base91"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/mod/semver"
)

// cacheEntry is the persisted result of instrumenting one source file.
type cacheEntry struct {
	Output []byte  `msgpack:"out"`
	Points []Point `msgpack:"pts"`
}

// ResultCache memoizes instrumentation results keyed by source content
// and configuration. A small in-memory tier fronts the persistent
// store so repeated lookups within one run stay off disk.
type ResultCache struct {
	store Store
	mem   *ristretto.Cache[string, []byte]
	locks *stripedMutex
}

// NewResultCache layers an in-memory tier over the given store. The
// store is namespaced by tool major version, so entries written by an
// incompatible release are never read back.
func NewResultCache(store Store, memMB int) (*ResultCache, error) {
	mem, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 100_000,
		MaxCost:     int64(memMB) << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ResultCache{
		store: KeyPrefixStore(store, semver.Major(Version)),
		mem:   mem,
		locks: newDefaultStripedMutex(),
	}, nil
}

// CacheKey derives the lookup key for one file's instrumentation
// inputs. Source content is reduced before encoding so keys stay
// short regardless of file size.
func CacheKey(source []byte, mode Mode, disabledCodes string) string {
	return base91.StdEncoding.EncodeToString([]byte(bytesKey(source))) +
		":" + mode.String() + ":" + disabledCodes
}

// Get returns the cached output and points for key. Entries that no
// longer decode are evicted and reported as misses.
func (c *ResultCache) Get(key string) ([]byte, []Point, bool) {
	blob, ok := c.mem.Get(key)
	if !ok {
		var err error
		blob, ok, err = c.store.Get(key)
		if err != nil || !ok {
			return nil, nil, false
		}
		c.mem.Set(key, blob, int64(len(blob)))
	}
	raw, err := SnappyDecompress(nil, blob)
	if err != nil {
		c.evict(key)
		return nil, nil, false
	}
	var entry cacheEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		c.evict(key)
		return nil, nil, false
	}
	return entry.Output, entry.Points, true
}

// Put stores one file's instrumented output and point sequence.
// Writes for the same key are serialized; concurrent writers for
// distinct keys proceed in parallel.
func (c *ResultCache) Put(key string, output []byte, points []Point) error {
	raw, err := msgpack.Marshal(cacheEntry{Output: output, Points: points})
	if err != nil {
		return err
	}
	blob := SnappyCompress(nil, raw)

	lock := c.locks.Lock(key)
	defer lock.Unlock()
	if err := c.store.Put(key, blob); err != nil {
		return err
	}
	c.mem.Set(key, blob, int64(len(blob)))
	return nil
}

func (c *ResultCache) evict(key string) {
	c.mem.Del(key)
	_ = c.store.Delete(key)
}

// Close releases both tiers.
func (c *ResultCache) Close() {
	c.mem.Close()
	c.store.Close()
}
