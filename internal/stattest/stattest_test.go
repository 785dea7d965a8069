package stattest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/locusalign/internal/failure"
)

func TestReadResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResultFile)
	require.NoError(t, os.WriteFile(path, []byte("0.01\n3.2e-5 NA\n\n"), 0o644))

	res, err := ReadResult(path)
	require.NoError(t, err)
	require.Len(t, res.PValues, 3)
	assert.Equal(t, 0.01, res.PValues[0])
	assert.Equal(t, 3.2e-5, res.PValues[1])
	assert.True(t, math.IsNaN(res.PValues[2]))

	require.NoError(t, os.WriteFile(path, []byte("0.1 abc\n"), 0o644))
	_, err = ReadResult(path)
	assert.ErrorContains(t, err, "line 1")
}

func TestRscript_Run(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "stat.R")
	require.NoError(t, os.WriteFile(script, []byte("unused"), 0o644))

	// Stands in for Rscript: $2 is the work directory.
	bin := filepath.Join(dir, "Rscript")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nprintf '0.5\\n0.04\\n' > \"$2/SSPvalues.txt\"\n"), 0o755))

	res, err := NewRscript(bin, script).Run(dir)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.04}, res.PValues)
}

func TestRscript_Failure(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "Rscript")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 'Error in solve.default' >&2\nexit 1\n"), 0o755))

	_, err := NewRscript(bin, "stat.R").Run(dir)
	var te *failure.ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Rscript", te.Tool)
	assert.Equal(t, failure.StatusInternal, failure.Payload(err).StatusCode)
}

func TestRscript_NoScript(t *testing.T) {
	_, err := NewRscript("", "").Run(t.TempDir())
	assert.Error(t, err)
}
