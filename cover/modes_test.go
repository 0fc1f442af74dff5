package cover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmltools/mmlcov/mml"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Mode
	}{
		{"safe", ModeSafe},
		{"fast", ModeFast},
		{"faster", ModeFaster},
	}
	for _, tc := range tests {
		mode, err := ParseMode(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.want, mode)
		assert.Equal(t, tc.input, mode.String())
	}

	_, err := ParseMode("quick")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Contains(t, err.Error(), `"quick"`)

	// Mode names are case sensitive, matching the flag contract.
	_, err = ParseMode("Safe")
	assert.Error(t, err)
}

func TestProbeShape(t *testing.T) {
	t.Parallel()

	original := &mml.Ident{Name: "x", Loc: mml.Span{Start: mml.Position{Offset: 7}}}

	t.Run("safe", func(t *testing.T) {
		t.Parallel()

		probe, ok := ModeSafe.probe("a.mml", 3, original).(*mml.Seq)
		require.True(t, ok)
		require.Len(t, probe.Exprs, 2)

		mark, ok := probe.Exprs[0].(*mml.Apply)
		require.True(t, ok)
		fn, ok := mark.Fn.(*mml.Ident)
		require.True(t, ok)
		assert.Equal(t, "Coverage.mark", fn.Name)
		require.Len(t, mark.Args, 2)

		assert.Same(t, original, probe.Exprs[1])

		// The wrapper and the mark are synthesized; only the original
		// keeps its source span.
		assert.True(t, probe.Span().Ghost)
		assert.Equal(t, 7, probe.Span().Start.Offset)
		assert.True(t, mark.Span().Ghost)
		assert.False(t, probe.Exprs[1].Span().Ghost)
	})

	t.Run("array modes call the mark function", func(t *testing.T) {
		t.Parallel()

		for _, mode := range []Mode{ModeFast, ModeFaster} {
			probe, ok := mode.probe("a.mml", 3, original).(*mml.Seq)
			require.True(t, ok)

			mark, ok := probe.Exprs[0].(*mml.Apply)
			require.True(t, ok)
			fn, ok := mark.Fn.(*mml.Ident)
			require.True(t, ok)
			assert.Equal(t, "__mmlcov_mark", fn.Name)
			require.Len(t, mark.Args, 1)
		}
	})
}

func printPhrases(phrases []mml.Phrase) string {
	return string(mml.Print(&mml.File{Name: "a.mml", Phrases: phrases}))
}

func TestSetupPhrasesSafe(t *testing.T) {
	t.Parallel()

	setup := ModeSafe.setupPhrases("a.mml", 5)
	require.Len(t, setup, 1)
	assert.Equal(t, "Coverage.init \"a.mml\" ;;\n", printPhrases(setup))
}

func TestSetupPhrasesFast(t *testing.T) {
	t.Parallel()

	setup := ModeFast.setupPhrases("a.mml", 2)
	require.Len(t, setup, 4)

	want := `let __mmlcov_counters = Array.make 2 0 ;;

let _ = Coverage.init_with_array "a.mml" __mmlcov_counters false ;;

let (__mmlcov_before, __mmlcov_after) = Coverage.get_hooks () ;;

let __mmlcov_mark = fun idx -> __mmlcov_before (); (let v = Array.get __mmlcov_counters idx in Array.set __mmlcov_counters idx (if v < max_int then v + 1 else v)); __mmlcov_after () ;;
`
	assert.Equal(t, want, printPhrases(setup))
}

func TestSetupPhrasesFaster(t *testing.T) {
	t.Parallel()

	setup := ModeFaster.setupPhrases("a.mml", 3)
	require.Len(t, setup, 3)

	want := `let __mmlcov_counters = Array.make 3 0 ;;

let _ = Coverage.init_with_array "a.mml" __mmlcov_counters true ;;

let __mmlcov_mark = fun idx -> let v = Array.get __mmlcov_counters idx in Array.set __mmlcov_counters idx (if v < max_int then v + 1 else v) ;;
`
	text := printPhrases(setup)
	assert.Equal(t, want, text)
	assert.NotContains(t, text, "__mmlcov_before")
	assert.NotContains(t, text, "__mmlcov_after")
}

// Every synthesized header must survive a parse round trip, or
// instrumented files would not be valid MiniML.
func TestSetupPhrasesReparse(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeSafe, ModeFast, ModeFaster} {
		text := printPhrases(mode.setupPhrases("dir/sub.mml", 4))

		f, err := mml.Parse([]byte(text), "a.mml")
		require.NoError(t, err, "mode %s", mode)
		assert.Equal(t, text, string(mml.Print(f)), "mode %s", mode)
	}
}

func TestSetupPhrasesGhost(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeSafe, ModeFast, ModeFaster} {
		for _, ph := range mode.setupPhrases("a.mml", 1) {
			assert.True(t, ph.Span().Ghost, "mode %s phrase %T", mode, ph)
		}
	}
}
