package cover

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/mmltools/mmlcov/mml"
)

// TestInstrumentGoldenFiles pins the complete instrumented output per
// mode. Each testdata archive is named for the mode it exercises and
// pairs every source with a .golden entry holding the expected text.
func TestInstrumentGoldenFiles(t *testing.T) {
	t.Parallel()

	archives, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, archives)

	for _, path := range archives {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mode, err := ParseMode(name)
			require.NoError(t, err)
			archive, err := txtar.ParseFile(path)
			require.NoError(t, err)

			golden := make(map[string]string, len(archive.Files))
			var sources []txtar.File
			for _, f := range archive.Files {
				if base, ok := strings.CutSuffix(f.Name, ".golden"); ok {
					golden[base] = string(f.Data)
				} else {
					sources = append(sources, f)
				}
			}
			require.NotEmpty(t, sources)

			for _, src := range sources {
				want, ok := golden[src.Name]
				require.True(t, ok, "missing golden entry for %s", src.Name)

				_, f := instrumentString(t, string(src.Data), src.Name, mode, NewKindRegistry())
				assert.Equal(t, want, string(mml.Print(f)), src.Name)
			}
		})
	}
}
