package cover

import (
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrGroupLimitCPU(t *testing.T) {
	t.Parallel()

	t.Run("runs every task", func(t *testing.T) {
		t.Parallel()

		var count atomic.Int64
		group := ErrGroupLimitCPU()
		for i := 0; i < 64; i++ {
			group.Go(func() error {
				count.Add(1)
				return nil
			})
		}
		require.NoError(t, group.Wait())
		assert.Equal(t, int64(64), count.Load())
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		group := ErrGroupLimitCPU()
		for i := 0; i < 8; i++ {
			group.Go(func() error {
				if i == 3 {
					return boom
				}
				return nil
			})
		}
		assert.ErrorIs(t, group.Wait(), boom)
	})
}

func TestStripedMutex(t *testing.T) {
	t.Parallel()

	t.Run("same key same stripe", func(t *testing.T) {
		t.Parallel()

		m := newDefaultStripedMutex()
		assert.Same(t, m.getLock("key"), m.getLock("key"))
	})

	t.Run("lock returns held mutex", func(t *testing.T) {
		t.Parallel()

		m := newDefaultStripedMutex()
		lock := m.Lock("key")
		assert.False(t, lock.TryLock())
		lock.Unlock()
		require.True(t, lock.TryLock())
		lock.Unlock()
	})

	t.Run("guards concurrent writers", func(t *testing.T) {
		t.Parallel()

		// Every writer for a slot goes through the same key, so the
		// increments below must never be lost.
		m := newStripedMutex(4)
		var counts [4]int
		group := ErrGroupLimitCPU()
		for i := 0; i < 200; i++ {
			slot := i % len(counts)
			key := "k" + strconv.Itoa(slot)
			group.Go(func() error {
				lock := m.Lock(key)
				defer lock.Unlock()
				counts[slot]++
				return nil
			})
		}
		require.NoError(t, group.Wait())

		total := 0
		for _, n := range counts {
			total += n
		}
		assert.Equal(t, 200, total)
	})
}

func TestBytesKey(t *testing.T) {
	t.Parallel()

	t.Run("short input stays raw", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "let x = 1", bytesKey([]byte("let x = 1")))
		assert.Equal(t, strings.Repeat("a", 20), bytesKey([]byte(strings.Repeat("a", 20))))
	})

	t.Run("long input collapses to digest", func(t *testing.T) {
		t.Parallel()

		long := []byte(strings.Repeat("a", 21))
		key := bytesKey(long)
		assert.Len(t, key, 20)
		assert.NotEqual(t, string(long), key)
		assert.Equal(t, key, bytesKey(long))
	})

	t.Run("distinct inputs distinct keys", func(t *testing.T) {
		t.Parallel()

		a := bytesKey([]byte(strings.Repeat("a", 100)))
		b := bytesKey([]byte(strings.Repeat("b", 100)))
		assert.NotEqual(t, a, b)
	})
}
