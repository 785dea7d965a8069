package matrix

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/inodb/locusalign/internal/dataset"
	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/ld"
	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/variant"
)

type fixedSource struct {
	label  string
	tokens []string
	pvals  []float64
	err    error
}

func (s fixedSource) Label() string { return s.label }

func (s fixedSource) Fetch(locus.Locus) ([]string, []float64, error) {
	return s.tokens, s.pvals, s.err
}

type fakeEQTL map[string]fixedSource

func (f fakeEQTL) EQTL(_ locus.Locus, tissue, gene string) ([]string, []float64, error) {
	s := f[tissue+":"+gene]
	return s.tokens, s.pvals, s.err
}

func testLocus(t *testing.T) locus.Locus {
	t.Helper()
	loc, err := locus.Parse("1:1000-2000", locus.B37)
	require.NoError(t, err)
	return loc
}

func testPrimary() Primary {
	return Primary{
		Label:     "primary",
		IDs:       []variant.Canonical{"1_1100_A_G_b37", "1_1200_C_T_b37", "1_1300_G_A_b37"},
		Positions: []int64{1100, 1200, 1300},
		PValues:   []float64{0.01, 0.02, 0.03},
	}
}

func assertRow(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "column %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.Equal(t, want[i], got[i], "column %d", i)
	}
}

func TestBuild(t *testing.T) {
	nan := math.NaN()
	sources := []Source{
		fixedSource{
			label:  "eqtl",
			tokens: []string{"1_1300_G_A_b37", "1_1100_A_G_b37", "1_1100_A_G_b37", "1_1500_T_C_b37"},
			pvals:  []float64{0.3, 0.1, 0.9, 0.5},
		},
		TableSource{Name: "elsewhere", Data: &dataset.Dataset{
			Rows:    []dataset.Row{{Chrom: "2", Pos: 1100, SNP: "2_1100_A_G_b37", P: 0.5}},
			Columns: dataset.Columns{SNP: true},
		}},
		fixedSource{label: "dots", tokens: []string{".", "."}, pvals: []float64{0.1, 0.2}},
	}

	b := NewBuilder(variant.NewStandardizer(nil, nil), 2)
	m, err := b.Build(testLocus(t), testPrimary(), sources, []int64{1300, 1100, 99})
	require.NoError(t, err)

	require.Len(t, m.Rows, 1+len(sources))
	assert.Equal(t, []string{"primary", "eqtl", "elsewhere", "dots"}, m.Labels)
	assert.Equal(t, []variant.Canonical{"1_1100_A_G_b37", "1_1300_G_A_b37"}, m.SNPs)
	assert.Equal(t, []int64{1100, 1300}, m.Positions)
	assert.Equal(t, 2, m.NumSNPs())

	assertRow(t, []float64{0.01, 0.03}, m.Rows[0])
	assertRow(t, []float64{0.1, 0.3}, m.Rows[1])
	assertRow(t, []float64{nan, nan}, m.Rows[2])
	assertRow(t, []float64{nan, nan}, m.Rows[3])
	for _, row := range m.Rows {
		assert.Len(t, row, m.NumSNPs())
	}
}

func TestBuild_SourceErrors(t *testing.T) {
	b := NewBuilder(variant.NewStandardizer(nil, nil), 0)

	_, err := b.Build(testLocus(t), testPrimary(), []Source{
		fixedSource{label: "bad", tokens: []string{"not a variant"}, pvals: []float64{0.1}},
	}, []int64{1100})
	assert.True(t, failure.IsKind(err, failure.KindVariantFormat))
	assert.ErrorContains(t, err, "align bad")

	_, err = b.Build(testLocus(t), testPrimary(), []Source{
		fixedSource{label: "missing", tokens: []string{"1_1100_A_G_b37", "NA"}, pvals: []float64{0.1, 0.2}},
	}, []int64{1100})
	assert.True(t, failure.IsKind(err, failure.KindMissingVariantIDs))

	boom := errors.New("boom")
	_, err = b.Build(testLocus(t), testPrimary(), []Source{fixedSource{label: "x", err: boom}}, []int64{1100})
	assert.ErrorIs(t, err, boom)

	_, err = b.Build(testLocus(t), testPrimary(), nil, []int64{5})
	assert.Error(t, err)

	p := testPrimary()
	p.PValues = p.PValues[:1]
	_, err = b.Build(testLocus(t), p, nil, []int64{1100})
	assert.Error(t, err)
}

func TestOrderSources(t *testing.T) {
	q := fakeEQTL{}
	uploads := []TableSource{{Name: "up1"}, {Name: "up2"}}
	sources := OrderSources(q, []string{"Liver", "Lung"}, []string{"G1", "G2"}, uploads)

	var labels []string
	for _, s := range sources {
		labels = append(labels, s.Label())
	}
	assert.Equal(t, []string{"Liver:G1", "Liver:G2", "Lung:G1", "Lung:G2", "up1", "up2"}, labels)
}

type geneMap map[string][]string

func (g geneMap) Genes(_ locus.Locus, tissue string) ([]string, error) {
	if tissue == "bad" {
		return nil, errors.New("boom")
	}
	return g[tissue], nil
}

func TestRegionGenes(t *testing.T) {
	g := geneMap{"Liver": {"G2", "G1"}, "Lung": {"G3", "G1"}}
	genes, err := RegionGenes(g, testLocus(t), []string{"Liver", "Lung", "Skin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G2", "G3"}, genes)

	_, err = RegionGenes(g, testLocus(t), []string{"bad"})
	assert.Error(t, err)
}

func TestEQTLSource(t *testing.T) {
	q := fakeEQTL{"Liver:G1": {tokens: []string{"1_1200_C_T_b37"}, pvals: []float64{0.07}}}
	b := NewBuilder(variant.NewStandardizer(nil, nil), 1)

	m, err := b.Build(testLocus(t), testPrimary(), OrderSources(q, []string{"Liver"}, []string{"G1", "G2"}, nil),
		[]int64{1100, 1200, 1300})
	require.NoError(t, err)
	nan := math.NaN()
	assertRow(t, []float64{nan, 0.07, nan}, m.Rows[1])
	assertRow(t, []float64{nan, nan, nan}, m.Rows[2])
}

func TestTableSourceFetch(t *testing.T) {
	src := TableSource{Name: "up", Data: &dataset.Dataset{
		Rows: []dataset.Row{
			{Chrom: "chr1", Pos: 1100, SNP: "rs1", P: 0.1},
			{Chrom: "1", Pos: 5000, SNP: "rs2", P: 0.2},
			{Chrom: "1", Pos: 1200, SNP: "rs3", P: 0.3, Incomplete: true},
			{Chrom: "1", Pos: 1300, SNP: "rs4;extra", P: 0.4},
		},
		Columns: dataset.Columns{SNP: true},
	}}
	tokens, pvals, err := src.Fetch(testLocus(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"rs1", "rs4;extra"}, tokens)
	assert.Equal(t, []float64{0.1, 0.4}, pvals)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	pv := &PValueMatrix{
		Rows:      [][]float64{{0.01, 0.03}, {math.NaN(), 0.5}},
		Labels:    []string{"primary", "eqtl"},
		SNPs:      []variant.Canonical{"23_1100_A_G_b37", "23_1300_G_A_b37"},
		Positions: []int64{1100, 1300},
	}
	values := mat.NewSymDense(3, []float64{
		1, 0.2, 0.4,
		0.2, 1, 0.6,
		0.4, 0.6, 1,
	})
	ldm, err := ld.NewMatrix(values, []int64{1300, 1200, 1100})
	require.NoError(t, err)

	require.NoError(t, WriteFiles(dir, pv, ldm))

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, "0.01\t0.03\nNaN\t0.5\n", read(PValuesFile))
	assert.Equal(t, "1\t0.4\n0.4\t1\n", read(LDFile))
	assert.Equal(t, "X_1100_A_G_b37\nX_1300_G_A_b37\n", read(SNPsFile))
	assert.Equal(t, "1100\n1300\n", read(PositionsFile))

	pv.Positions = []int64{1100, 9999}
	assert.Error(t, WriteFiles(dir, pv, ldm))
}
