package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmltools/mmlcov/cover"
)

func writeSourceFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeArtifact(t *testing.T, path string) (string, []cover.Point) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	source, points, err := cover.DecodePoints(data)
	require.NoError(t, err)
	return source, points
}

func TestInstrumentCmd_WritesInstrumentedTree(t *testing.T) {
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "main.mml", "let x = 1 in x + 1 ;; print_int x ;;")
	writeSourceFile(t, srcDir, "sub/util.mml", "print_int 1 ;;")

	outDir := filepath.Join(t.TempDir(), "out")
	t.Setenv("MMLCOV_OUTPUT", outDir)
	t.Setenv("MMLCOV_NO_CACHE", "true")

	cmd := newInstrumentCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{srcDir})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, fmt.Sprintf("instrumented 2 files (3 points) into %s\n", outDir), out.String())

	mainOut, err := os.ReadFile(filepath.Join(outDir, "main.mml"))
	require.NoError(t, err)
	assert.Contains(t, string(mainOut), `Coverage.init "main.mml"`)
	assert.Contains(t, string(mainOut), `Coverage.mark "main.mml" 0`)
	assert.Contains(t, string(mainOut), `Coverage.mark "main.mml" 1`)

	utilOut, err := os.ReadFile(filepath.Join(outDir, "sub", "util.mml"))
	require.NoError(t, err)
	assert.Contains(t, string(utilOut), `Coverage.init "sub/util.mml"`)

	source, points := decodeArtifact(t, filepath.Join(outDir, "main.mmp"))
	assert.Equal(t, "main.mml", source)
	require.Len(t, points, 2)
	assert.Equal(t, cover.Point{Offset: 13, Index: 0, Kind: cover.KindBinding}, points[0])
	assert.Equal(t, cover.Point{Offset: 22, Index: 1, Kind: cover.KindToplevelExpr}, points[1])

	source, points = decodeArtifact(t, filepath.Join(outDir, "sub", "util.mmp"))
	assert.Equal(t, "sub/util.mml", source)
	require.Len(t, points, 1)
	assert.Equal(t, cover.Point{Offset: 0, Index: 0, Kind: cover.KindToplevelExpr}, points[0])
}

func TestInstrumentCmd_DisabledKinds(t *testing.T) {
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "main.mml", "print_int 1 ;;")

	outDir := filepath.Join(t.TempDir(), "out")
	t.Setenv("MMLCOV_OUTPUT", outDir)
	t.Setenv("MMLCOV_NO_CACHE", "true")
	t.Setenv("MMLCOV_KINDS_DISABLE", "p")

	cmd := newInstrumentCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{srcDir})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, fmt.Sprintf("instrumented 1 files (0 points) into %s\n", outDir), out.String())

	// Setup is still prepended; only the probes are gone.
	mainOut, err := os.ReadFile(filepath.Join(outDir, "main.mml"))
	require.NoError(t, err)
	assert.Equal(t, "Coverage.init \"main.mml\" ;;\n\nprint_int 1 ;;\n", string(mainOut))

	source, points := decodeArtifact(t, filepath.Join(outDir, "main.mmp"))
	assert.Equal(t, "main.mml", source)
	assert.Empty(t, points)
}

func TestInstrumentCmd_Diff(t *testing.T) {
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "main.mml", "print_int 1 ;;\n")

	outDir := filepath.Join(t.TempDir(), "out")
	t.Setenv("MMLCOV_OUTPUT", outDir)

	cmd := newInstrumentCmd()
	configureInstrumentFlags(cmd)
	t.Cleanup(func() { diffFlag = false })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--diff", srcDir})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "--- main.mml")
	assert.Contains(t, out.String(), "+++ main.mml (instrumented)")
	assert.Contains(t, out.String(), `+Coverage.init "main.mml" ;;`)
	assert.Contains(t, out.String(), "-print_int 1 ;;")

	// Diff mode writes nothing.
	assert.NoDirExists(t, outDir)
}

func TestInstrumentCmd_CacheReuse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping disk-backed cache test in short mode")
	}

	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "main.mml", "let x = 1 in x + 1 ;;")
	t.Setenv("MMLCOV_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))

	run := func(outDir string) string {
		t.Setenv("MMLCOV_OUTPUT", outDir)
		cmd := newInstrumentCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{srcDir})
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	out1 := filepath.Join(t.TempDir(), "out1")
	assert.Contains(t, run(out1), "(1 points)")
	out2 := filepath.Join(t.TempDir(), "out2")
	assert.Contains(t, run(out2), "(1 points)")

	first, err := os.ReadFile(filepath.Join(out1, "main.mml"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(out2, "main.mml"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	source1, points1 := decodeArtifact(t, filepath.Join(out1, "main.mmp"))
	source2, points2 := decodeArtifact(t, filepath.Join(out2, "main.mmp"))
	assert.Equal(t, source1, source2)
	assert.Equal(t, points1, points2)
}

func TestInstrumentCmd_NoSources(t *testing.T) {
	t.Parallel()

	cmd := newInstrumentCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorContains(t, err, "no .mml files found")
}

func TestInstrumentCmd_DuplicateNames(t *testing.T) {
	t.Parallel()

	first := writeSourceFile(t, t.TempDir(), "a.mml", "x ;;")
	second := writeSourceFile(t, t.TempDir(), "a.mml", "y ;;")

	cmd := newInstrumentCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{first, second})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorContains(t, err, "duplicate source name a.mml")
}
