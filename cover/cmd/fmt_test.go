package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFmtCmd_PrintsCanonicalForm(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "messy.mml")
	require.NoError(t, os.WriteFile(path, []byte("let  x  =\n   1 ;;"), 0o644))

	cmd := newFmtCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "let x = 1 ;;\n", out.String())
	assert.Empty(t, errOut.String())

	// Printing does not touch the source file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "let  x  =\n   1 ;;", string(data))
}

func TestFmtCmd_WritesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	messy := filepath.Join(dir, "messy.mml")
	require.NoError(t, os.WriteFile(messy, []byte("let x =\n  if c then  1\n  else 2 ;;"), 0o644))
	clean := filepath.Join(dir, "clean.mml")
	require.NoError(t, os.WriteFile(clean, []byte("let y = 2 ;;\n"), 0o644))

	cmd := newFmtCmd()
	configureFmtFlags(cmd)
	t.Cleanup(func() { fmtWriteFlag = false })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-w", dir})

	require.NoError(t, cmd.Execute())

	// Only the reformatted file is reported.
	assert.Equal(t, "messy.mml\n", out.String())

	data, err := os.ReadFile(messy)
	require.NoError(t, err)
	assert.Equal(t, "let x = if c then 1 else 2 ;;\n", string(data))

	data, err = os.ReadFile(clean)
	require.NoError(t, err)
	assert.Equal(t, "let y = 2 ;;\n", string(data))
}

func TestFmtCmd_ParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.mml"), []byte("let ;;"), 0o644))

	cmd := newFmtCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorContains(t, err, "bad.mml:1:5: expected pattern")
}
