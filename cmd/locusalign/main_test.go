package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/locusalign/internal/dataset"
	"github.com/inodb/locusalign/internal/failure"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"align", "standardize", "ref", "config"})

	align, _, err := root.Find([]string{"align"})
	require.NoError(t, err)
	assert.NotNil(t, align.Flags().Lookup("region"))
	assert.NotNil(t, align.Flags().Lookup("no-stat"))
}

func TestLoadUploads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.tsv")
	require.NoError(t, os.WriteFile(path, []byte("#CHROM\tPOS\tSNP\tP\n1\t100\trs1\t0.5\n"), 0o644))

	got, err := loadUploads([]string{path, "named=" + path}, dataset.DefaultColumns())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "other.tsv", got[0].Name)
	assert.Equal(t, "named", got[1].Name)
	assert.Len(t, got[1].Data.Rows, 1)

	_, err = loadUploads([]string{"=" + path}, dataset.DefaultColumns())
	assert.True(t, failure.IsKind(err, failure.KindInvalidInput))

	_, err = loadUploads([]string{filepath.Join(dir, "missing.tsv")}, dataset.DefaultColumns())
	assert.True(t, failure.IsKind(err, failure.KindInvalidInput))
}

func TestCheckKey(t *testing.T) {
	assert.NoError(t, checkKey(keyStatScript))
	assert.True(t, failure.IsKind(checkKey("annotations.alphamissense"), failure.KindInvalidInput))
}
