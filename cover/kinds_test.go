package cover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKindCodes(t *testing.T) {
	t.Parallel()

	t.Run("expands codes in order", func(t *testing.T) {
		t.Parallel()

		kinds, err := ParseKindCodes("bsp")
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindBinding, KindSequence, KindToplevelExpr}, kinds)
	})

	t.Run("empty selector", func(t *testing.T) {
		t.Parallel()

		kinds, err := ParseKindCodes("")
		require.NoError(t, err)
		assert.Empty(t, kinds)
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()

		_, err := ParseKindCodes("zb")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownKindCode)
		assert.Contains(t, err.Error(), `"z"`)
	})
}

func TestKindCodeRoundTrip(t *testing.T) {
	t.Parallel()

	for k := Kind(0); k < kindCount; k++ {
		code := KindCode(k)
		require.NotEqual(t, byte('?'), code, "kind %s has no code", k)

		kinds, err := ParseKindCodes(string(code))
		require.NoError(t, err)
		require.Len(t, kinds, 1)
		assert.Equal(t, k, kinds[0])
	}
	assert.Equal(t, byte('?'), KindCode(kindCount))
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "binding", KindBinding.String())
	assert.Equal(t, "lazy-operator", KindLazyOperator.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestKindRegistry(t *testing.T) {
	t.Parallel()

	t.Run("all enabled by default", func(t *testing.T) {
		t.Parallel()

		reg := NewKindRegistry()
		for k := Kind(0); k < kindCount; k++ {
			assert.True(t, reg.Enabled(k), "kind %s", k)
		}
		assert.Empty(t, reg.DisabledCodes())
	})

	t.Run("disable and re-enable", func(t *testing.T) {
		t.Parallel()

		reg := NewKindRegistry()
		require.NoError(t, reg.Apply("bs", false))
		assert.False(t, reg.Enabled(KindBinding))
		assert.False(t, reg.Enabled(KindSequence))
		assert.True(t, reg.Enabled(KindMatch))

		require.NoError(t, reg.Apply("b", true))
		assert.True(t, reg.Enabled(KindBinding))
		assert.False(t, reg.Enabled(KindSequence))
	})

	t.Run("later application wins", func(t *testing.T) {
		t.Parallel()

		reg := NewKindRegistry()
		require.NoError(t, reg.Apply("l", false))
		require.NoError(t, reg.Apply("l", true))
		assert.True(t, reg.Enabled(KindLazyOperator))
		assert.Empty(t, reg.DisabledCodes())
	})

	t.Run("single kind toggle", func(t *testing.T) {
		t.Parallel()

		reg := NewKindRegistry()
		reg.SetEnabled(KindTry, false)
		assert.False(t, reg.Enabled(KindTry))
		assert.Equal(t, "t", reg.DisabledCodes())

		reg.SetEnabled(KindTry, true)
		assert.True(t, reg.Enabled(KindTry))
		assert.Empty(t, reg.DisabledCodes())
	})

	t.Run("invalid selector rejected", func(t *testing.T) {
		t.Parallel()

		reg := NewKindRegistry()
		err := reg.Apply("bq", false)
		assert.ErrorIs(t, err, ErrUnknownKindCode)
	})

	t.Run("disabled codes are sorted by kind", func(t *testing.T) {
		t.Parallel()

		reg := NewKindRegistry()
		require.NoError(t, reg.Apply("psb", false))
		assert.Equal(t, "bsp", reg.DisabledCodes())
	})
}
