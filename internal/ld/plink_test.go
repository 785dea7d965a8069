package ld

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/locus"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const testBim = "1\tchr1:100\t0\t100\tA\tG\n" +
	"1\tchr1:200\t0\t200\tC\tT\n" +
	"1\tchr1:300\t0\t300\tG\tA\n"

func TestPanelLocator_PopulationDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hg19", "EUR", "chr1.bim"), testBim)

	p, err := PanelLocator{Root: root}.Locate(locus.B37, "eur", 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "hg19", "EUR", "chr1"), p.Prefix)
	assert.Empty(t, p.KeepFile)

	_, err = PanelLocator{Root: root}.Locate(locus.B37, "AFR", 1)
	assert.Error(t, err)
	_, err = PanelLocator{Root: root}.Locate(locus.B37, "", 1)
	assert.Error(t, err)
}

func TestPanelLocator_KeepFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hg38", "chrX.bim"), testBim)
	writeFile(t, filepath.Join(root, "hg38", "AFR.keep"), "S1 S1\n")

	p, err := PanelLocator{Root: root}.Locate(locus.B38, "AFR", 23)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "hg38", "chrX"), p.Prefix)
	assert.Equal(t, filepath.Join(root, "hg38", "AFR.keep"), p.KeepFile)
}

func TestPlink_PanelPositions(t *testing.T) {
	root := t.TempDir()
	prefix := filepath.Join(root, "chr1")
	writeFile(t, prefix+".bim", testBim)

	p := NewPlink("plink", root)
	got, err := p.PanelPositions(Panel{Prefix: prefix})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{100: true, 200: true, 300: true}, got)

	// Cached: removing the file does not matter.
	require.NoError(t, os.Remove(prefix+".bim"))
	got, err = p.PanelPositions(Panel{Prefix: prefix})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

// fakePlink writes a script that ignores its input and emits a fixed
// snplist and square matrix at the --out prefix.
func fakePlink(t *testing.T, dir, snplist, ld string) string {
	t.Helper()
	script := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--out" ]; then out="$2"; fi
  shift
done
cat > "$out.snplist" <<'EOF'
` + snplist + `EOF
cat > "$out.ld" <<'EOF'
` + ld + `EOF
`
	path := filepath.Join(dir, "plink")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestPlink_Correlate(t *testing.T) {
	dir := t.TempDir()
	bin := fakePlink(t, dir,
		"chr1:300\nchr1:100\n",
		"1\t0.5\n0.5\t1\n")

	p := NewPlink(bin, dir)
	m, err := p.Correlate(Panel{Prefix: filepath.Join(dir, "chr1")}, 1, []int64{100, 200, 300})
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 100}, m.Positions)
	assert.InDelta(t, 0.5, m.Values.At(1, 0), 1e-12)
	_, ok := m.Index(200)
	assert.False(t, ok)
}

func TestPlink_CorrelateCreatesWorkDir(t *testing.T) {
	dir := t.TempDir()
	bin := fakePlink(t, dir, "chr1:100\n", "1\n")
	workDir := filepath.Join(dir, "locusalign", "scratch")

	m, err := NewPlink(bin, workDir).Correlate(Panel{Prefix: "x"}, 1, []int64{100})
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, m.Positions)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dir is removed")
}

func TestPlink_CorrelateNaN(t *testing.T) {
	dir := t.TempDir()
	bin := fakePlink(t, dir, "chr1:1\nchr1:2\n", "1 nan\nnan nan\n")

	m, err := NewPlink(bin, dir).Correlate(Panel{Prefix: "x"}, 1, []int64{1, 2})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.Values.At(0, 1)))
}

func TestPlink_CorrelateToolFailure(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "plink")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 'Error: no variants remaining' >&2\nexit 3\n"), 0o755))

	_, err := NewPlink(bin, dir).Correlate(Panel{Prefix: "x"}, 1, []int64{1})
	require.Error(t, err)
	var te *failure.ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 3, te.ExitCode)
	assert.Contains(t, te.Output, "no variants remaining")
}

func TestPlink_CorrelateMalformedMatrix(t *testing.T) {
	dir := t.TempDir()
	bin := fakePlink(t, dir, "chr1:1\nchr1:2\n", "1 0.2\n")

	_, err := NewPlink(bin, dir).Correlate(Panel{Prefix: "x"}, 1, []int64{1, 2})
	assert.Error(t, err)
}

func TestWriteSelector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snps.txt")
	require.NoError(t, WriteSelector(path, 23, []int64{5, 10}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "chrX:5\nchrX:10\n", string(data))
}
