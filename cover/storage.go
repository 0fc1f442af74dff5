package cover

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/dgraph-io/ristretto/v2"
)

const debugStorage = false

// Store defines persistence for cached instrumentation results.
type Store interface {
	Put(key string, blob []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
	// KeysPrefix returns all keys in the store that begin with the given prefix.
	KeysPrefix(prefix string) ([]string, error)
	// Keys returns all keys in the store.
	Keys() ([]string, error)
	Clear() error
	Close()
}

// KeyPrefixStore wraps another Store, prepending a fixed prefix to all keys.
// Its Keys and KeysPrefix methods strip the prefix before returning.
func KeyPrefixStore(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixStore{
		store:  s,
		prefix: prefix + ";",
	}
}

type prefixStore struct {
	store  Store
	prefix string
}

func (p *prefixStore) Put(key string, blob []byte) error {
	return p.store.Put(p.prefix+key, blob)
}

func (p *prefixStore) Get(key string) ([]byte, bool, error) {
	return p.store.Get(p.prefix + key)
}

func (p *prefixStore) Delete(key string) error {
	return p.store.Delete(p.prefix + key)
}

func (p *prefixStore) KeysPrefix(prefix string) ([]string, error) {
	underlying, err := p.store.KeysPrefix(p.prefix + prefix)
	if err != nil {
		return nil, err
	}
	stripped := make([]string, len(underlying))
	for i, k := range underlying {
		stripped[i] = strings.TrimPrefix(k, p.prefix)
	}
	return stripped, nil
}

func (p *prefixStore) Keys() ([]string, error) {
	return p.KeysPrefix("")
}

func (p *prefixStore) Clear() error {
	keys, err := p.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (p *prefixStore) Close() {
	p.store.Close()
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemStore returns an in-memory Store implementation.
func NewMemStore() Store {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Put(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), blob...) // copy the blob to avoid external mutation
	return nil
}

func (m *memStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *memStore) KeysPrefix(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memStore) Keys() ([]string, error) {
	return m.KeysPrefix("")
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.data)
	return nil
}

func (m *memStore) Close() {
	// no resources to free
}

// storeCompression also gates the block cache sizing below.
const storeCompression = options.ZSTD

type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger-backed Store rooted at path. The
// database persists across runs; Close only releases it.
func NewBadgerStore(path string, maxMemMB int) (Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create store dir failed: %w", err)
	}

	clamp := func(val, lo, high int64) int64 {
		return min(max(val, lo), high)
	}
	var blockCacheSize int64 // blockCache should only be enabled if compression or encryption are enabled
	if storeCompression != options.None {
		blockCacheSize = clamp(int64(maxMemMB/8), 2, 64) << 20
	}

	memTableSize := clamp(int64(maxMemMB/4), 4, 32) << 20
	// TotalRAM ≃ (NumMemtables × MemTableSize) + BlockCacheSize + IndexCacheSize
	opts := badger.DefaultOptions(path).
		WithInMemory(false).
		WithDetectConflicts(true).
		WithChecksumVerificationMode(options.NoVerification).
		WithCompression(storeCompression).
		WithZSTDCompressionLevel(8).
		WithNumMemtables(2).
		WithMemTableSize(memTableSize).
		WithBaseTableSize(memTableSize). // equal to mem table size gives one SST per flush, fewest compaction jobs
		WithBlockSize(1024 * 128).       // bigger blocks for better compression and fewer index entries
		WithBlockCacheSize(blockCacheSize).
		WithIndexCacheSize(clamp(int64(maxMemMB/4), 8, 64) << 20).
		WithValueLogFileSize(1024 * 1024 * 256)

	if !debugStorage {
		opts = opts.
			WithLoggingLevel(badger.ERROR).
			WithMetricsEnabled(false)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store db failed: %w", err)
	}
	if debugStorage {
		go func() {
			for {
				time.Sleep(60 * time.Second)
				if db.IsClosed() {
					return
				}
				logMetrics := func(name string, metrics *ristretto.Metrics) {
					if metrics.Hits() != 0 || metrics.Misses() != 0 {
						slog.Debug("store cache metrics", "cache", name, "metrics", metrics.String())
					}
					metrics.Clear()
				}

				logMetrics("block", db.BlockCacheMetrics())
				logMetrics("index", db.IndexCacheMetrics())
			}
		}()
	}
	return &badgerStore{db: db}, nil
}

func (b *badgerStore) Put(key string, blob []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
}

func (b *badgerStore) Get(key string) ([]byte, bool, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(v []byte) error {
			raw = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	} else if raw == nil {
		return nil, false, nil
	}
	return raw, true, nil
}

func (b *badgerStore) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *badgerStore) KeysPrefix(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}
		return nil
	})
	return keys, err
}

func (b *badgerStore) Keys() ([]string, error) {
	return b.KeysPrefix("")
}

func (b *badgerStore) Clear() error {
	return b.db.DropPrefix([]byte{})
}

func (b *badgerStore) Close() {
	_ = b.db.Close()
}
