package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/variant"
	"github.com/inodb/locusalign/internal/vcf"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeTSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLocus(t *testing.T) locus.Locus {
	t.Helper()
	loc, err := locus.Parse("1:205500000-205700000", locus.B37)
	require.NoError(t, err)
	return loc
}

const dbsnpVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"1\t205600000\trs100\tA\tT\t.\t.\t.\n" +
	"1\t205600010\trs200\tC\tG,T\t.\t.\t.\n" +
	"chr1\t205600020\trs300\tAT\tA\t.\t.\t.\n" +
	"1\t999\trs100\tA\tG\t.\t.\t.\n" +
	"MT\t10\trs400\tA\tG\t.\t.\t.\n" +
	"1\t205600030\t.\tG\tC\t.\t.\tVC=SNV;RS=500\n"

func importDBSNP(t *testing.T, s *Store) int64 {
	t.Helper()
	p, err := vcf.NewParserFromReader(strings.NewReader(dbsnpVCF))
	require.NoError(t, err)
	n, err := s.ImportDBSNP(locus.B37, p, FileFingerprint{Path: "dbsnp.vcf"})
	require.NoError(t, err)
	return n
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.Empty(t, s.Path())

	// Reopening an existing database reruns schema and index creation.
	path := filepath.Join(t.TempDir(), "ref", "locusalign.duckdb")
	for i := 0; i < 2; i++ {
		fs, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, path, fs.Path())
		require.NoError(t, fs.Close())
	}
}

func TestImportDBSNP(t *testing.T) {
	s := openInMemory(t)
	assert.Equal(t, int64(5), importDBSNP(t, s), "MT site is skipped")

	loc := testLocus(t)
	recs, err := s.RecordsByRSID(loc, "RS100")
	require.NoError(t, err)
	require.Len(t, recs, 1, "the rs100 site outside the locus is excluded")
	assert.Equal(t, variant.Record{Chrom: 1, Pos: 205600000, RSID: "rs100", Ref: "A", Alts: []string{"T"}}, recs[0])

	recs, err = s.RecordsAt(locus.B37, 1, 205600010)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"G", "T"}, recs[0].Alts)

	recs, err = s.RecordsByRSID(loc, "rs500")
	require.NoError(t, err, "rsID taken from the RS INFO key")
	require.Len(t, recs, 1)
	assert.Equal(t, int64(205600030), recs[0].Pos)

	recs, err = s.RecordsAt(locus.B38, 1, 205600010)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// Re-import replaces rather than appends.
	importDBSNP(t, s)
	n, err := s.Count(KindDBSNP)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestStandardizeAgainstStore(t *testing.T) {
	s := openInMemory(t)
	importDBSNP(t, s)

	std := variant.NewStandardizer(s, s)
	got, err := std.Standardize([]string{"rs100", "rs200", "1:205600010_C", "rs999"}, testLocus(t))
	require.NoError(t, err)
	assert.Equal(t, []variant.Canonical{
		"1_205600000_A_T_b37",
		"1_205600010_C_G_b37",
		"1_205600010_C_G_b37",
		variant.Unresolved,
	}, got)
}

func TestLoadVariantTable(t *testing.T) {
	s := openInMemory(t)
	path := writeTSV(t, "variants.tsv",
		"chrom\tpos\trsid\tref\talt\n"+
			"chr1\t205600000\tRS100\ta\tc\n"+
			"X\t5000\trs500\tG\tA\n")

	n, err := s.LoadVariantTable(locus.B37, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	c, ok, err := s.CanonicalForRSID(testLocus(t), "rs100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, variant.Canonical("1_205600000_A_C_b37"), c)

	xloc, err := locus.Parse("X:1-10000", locus.B37)
	require.NoError(t, err)
	c, ok, err = s.CanonicalForRSID(xloc, "rs500")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "X_5000_G_A_b37", c.Display())

	_, ok, err = s.CanonicalForRSID(testLocus(t), "rs500")
	require.NoError(t, err)
	assert.False(t, ok)

	// The curated table wins over dbSNP.
	importDBSNP(t, s)
	got, err := variant.NewStandardizer(s, s).Standardize([]string{"rs100"}, testLocus(t))
	require.NoError(t, err)
	assert.Equal(t, variant.Canonical("1_205600000_A_C_b37"), got[0])
}

func TestLoadEQTL(t *testing.T) {
	s := openInMemory(t)
	path := writeTSV(t, "eqtl.tsv",
		"tissue\tgene\tvariant_id\tchrom\tpos\tpval\n"+
			"Liver\tGENE1\trs200\t1\t205600010\t0.02\n"+
			"Liver\tGENE1\trs100\t1\t205600000\t0.5\n"+
			"Liver\tGENE1\trs900\t1\t205600030\tNA\n"+
			"Liver\tGENE2\trs100\t1\t205600000\t0.1\n"+
			"Lung\tGENE1\trs100\t1\t205600000\t0.3\n")

	n, err := s.LoadEQTL(locus.B37, path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	ids, pvals, err := s.EQTL(testLocus(t), "Liver", "GENE1")
	require.NoError(t, err)
	assert.Equal(t, []string{"rs100", "rs200"}, ids)
	assert.Equal(t, []float64{0.5, 0.02}, pvals)

	genes, err := s.Genes(testLocus(t), "Liver")
	require.NoError(t, err)
	assert.Equal(t, []string{"GENE1", "GENE2"}, genes)

	ids, _, err = s.EQTL(testLocus(t), "Brain", "GENE1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestImportFingerprint(t *testing.T) {
	s := openInMemory(t)
	path := writeTSV(t, "variants.tsv", "chrom\tpos\trsid\tref\talt\n1\t10\trs1\tA\tG\n")
	fp, err := StatFile(path)
	require.NoError(t, err)

	assert.False(t, s.Imported(KindVariants, "b37", fp))
	_, err = s.LoadVariantTable(locus.B37, path)
	require.NoError(t, err)
	assert.True(t, s.Imported(KindVariants, "b37", fp))
	assert.False(t, s.Imported(KindVariants, "b38", fp))

	infos, err := s.Imports()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, ImportInfo{Kind: KindVariants, Build: "b37", Path: path, Rows: 1}, infos[0])
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("dbsnp")
	require.NoError(t, err)
	assert.Equal(t, KindDBSNP, k)

	_, err = ParseKind("gwas")
	assert.Error(t, err)
	_, err = openInMemory(t).Count(Kind("gwas"))
	assert.Error(t, err)
}
