package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmltools/mmlcov/cover"
)

func TestVersionCmd_Output(t *testing.T) {
	t.Parallel()

	cmd := newVersionCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "tool version")
	assert.Contains(t, out.String(), cover.Version)
	assert.Empty(t, errOut.String())
}
