package cover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	original := []byte("let x = 1 ;;\n")
	instrumented := []byte("Coverage.init \"a.mml\" ;;\n\nlet x = 1 ;;\n")

	text, err := UnifiedDiff("a.mml", original, instrumented)
	require.NoError(t, err)

	assert.Contains(t, text, "--- a.mml")
	assert.Contains(t, text, "+++ a.mml (instrumented)")
	assert.Contains(t, text, "+Coverage.init \"a.mml\" ;;")
	assert.NotContains(t, text, "-let x = 1")
}

func TestUnifiedDiffIdentical(t *testing.T) {
	t.Parallel()

	src := []byte("let x = 1 ;;\n")
	text, err := UnifiedDiff("a.mml", src, src)
	require.NoError(t, err)
	assert.Empty(t, text)
}
