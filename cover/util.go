package cover

import (
	"crypto/sha1"
	"hash"
	"hash/fnv"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrGroupLimitCPU returns an errgroup whose concurrency is capped at
// the CPU count. The parse and emit phases of a run use it so file
// fan-out never exceeds the machine.
func ErrGroupLimitCPU() *errgroup.Group {
	group := new(errgroup.Group)
	group.SetLimit(runtime.NumCPU())
	return group
}

// stripedMutex hashes keys onto a fixed set of mutexes so unrelated
// keys rarely contend while equal keys always share a lock.
type stripedMutex struct {
	locks   []*sync.Mutex
	hashers *sync.Pool
}

func newDefaultStripedMutex() *stripedMutex {
	return newStripedMutex(1021) // prime stripe count spreads the hash buckets
}

func newStripedMutex(stripes uint) *stripedMutex {
	locks := make([]*sync.Mutex, stripes)
	for i := range locks {
		locks[i] = new(sync.Mutex)
	}
	return &stripedMutex{
		locks:   locks,
		hashers: &sync.Pool{New: func() interface{} { return fnv.New64() }},
	}
}

// Lock locks the stripe for key and returns the held mutex so callers
// can defer the unlock.
func (m *stripedMutex) Lock(key string) *sync.Mutex {
	lock := m.getLock(key)
	lock.Lock()
	return lock
}

func (m *stripedMutex) getLock(key string) *sync.Mutex {
	h := m.hashers.Get().(hash.Hash64)
	defer m.hashers.Put(h)
	h.Reset()
	_, _ = h.Write([]byte(key))
	return m.locks[h.Sum64()%uint64(len(m.locks))]
}

// bytesKey reduces arbitrary content to a fixed-bound comparison key:
// input at or under digest size stays verbatim, anything longer
// collapses to its sha1. The result is binary, not printable; CacheKey
// encodes it before it ever leaves the process.
func bytesKey(b []byte) string {
	if len(b) <= sha1.Size {
		return string(b)
	}
	digest := sha1.Sum(b)
	return string(digest[:])
}
