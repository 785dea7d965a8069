package dataset

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/inodb/locusalign/internal/failure"
)

// Default column names for uploaded summary statistics.
const (
	ColChrom = "#CHROM"
	ColPos   = "POS"
	ColRef   = "REF"
	ColAlt   = "ALT"
	ColSNP   = "SNP"
	ColP     = "P"
	ColBeta  = "BETA"
	ColSE    = "SE"
	ColN     = "N"
	ColMAF   = "MAF"
)

// nullValue is how gota renders a cell listed in nullValues.
const nullValue = "NaN"

var nullValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// ColumnMap names the table columns holding each field. Chrom, Pos and P are
// required; the rest are read when present in the header.
type ColumnMap struct {
	Chrom string
	Pos   string
	Ref   string
	Alt   string
	SNP   string
	P     string
	Beta  string
	SE    string
	N     string
	MAF   string
}

// DefaultColumns returns the standard column names.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Chrom: ColChrom, Pos: ColPos, Ref: ColRef, Alt: ColAlt, SNP: ColSNP,
		P: ColP, Beta: ColBeta, SE: ColSE, N: ColN, MAF: ColMAF,
	}
}

// LoadFile loads a tab-separated table. Gzipped files are detected by their
// magic bytes.
func LoadFile(path string, cols ColumnMap) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		return Load(gz, cols)
	}
	return Load(br, cols)
}

// Load reads a tab-separated table with a header line.
func Load(r io.Reader, cols ColumnMap) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter('\t'),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nullValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read table: %w", df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, req := range []string{cols.Chrom, cols.Pos, cols.P} {
		if !present[req] {
			return nil, failure.Userf(failure.KindInvalidInput,
				"required column %q not found in header", req)
		}
	}

	column := func(name string) []string {
		if name == "" || !present[name] {
			return nil
		}
		return df.Col(name).Records()
	}

	chroms := column(cols.Chrom)
	positions := column(cols.Pos)
	pvalues := column(cols.P)
	refs := column(cols.Ref)
	alts := column(cols.Alt)
	snps := column(cols.SNP)
	betas := column(cols.Beta)
	ses := column(cols.SE)
	ns := column(cols.N)
	mafs := column(cols.MAF)

	ds := &Dataset{
		Rows: make([]Row, df.Nrow()),
		Columns: Columns{
			SNP: snps != nil, Ref: refs != nil, Alt: alts != nil,
			Beta: betas != nil, SE: ses != nil, N: ns != nil, MAF: mafs != nil,
		},
	}

	for i := range ds.Rows {
		line := i + 2 // 1-based, after the header
		row := Row{
			Index: i,
			Chrom: chroms[i],
			Beta:  math.NaN(),
			SE:    math.NaN(),
			N:     math.NaN(),
			MAF:   math.NaN(),
		}
		if row.Chrom == nullValue {
			row.Chrom = ""
			row.Incomplete = true
		}

		if positions[i] == nullValue {
			row.Incomplete = true
		} else {
			pos, err := parsePosition(positions[i])
			if err != nil {
				return nil, failure.Userf(failure.KindInvalidInput,
					"invalid position %q at line %d", positions[i], line)
			}
			row.Pos = pos
		}

		var err error
		if row.P, err = parseCell(pvalues[i], &row.Incomplete); err != nil {
			return nil, failure.Userf(failure.KindInvalidInput,
				"invalid p-value %q at line %d", pvalues[i], line)
		}

		for _, f := range []struct {
			cells []string
			dst   *string
		}{{refs, &row.Ref}, {alts, &row.Alt}, {snps, &row.SNP}} {
			if f.cells == nil {
				continue
			}
			if f.cells[i] == nullValue {
				row.Incomplete = true
				continue
			}
			*f.dst = f.cells[i]
		}
		row.SNP = truncateName(row.SNP)

		for _, f := range []struct {
			name  string
			cells []string
			dst   *float64
		}{{cols.Beta, betas, &row.Beta}, {cols.SE, ses, &row.SE}, {cols.N, ns, &row.N}, {cols.MAF, mafs, &row.MAF}} {
			if f.cells == nil {
				continue
			}
			if *f.dst, err = parseCell(f.cells[i], &row.Incomplete); err != nil {
				return nil, failure.Userf(failure.KindInvalidInput,
					"invalid %s value %q at line %d", f.name, f.cells[i], line)
			}
		}

		ds.Rows[i] = row
	}

	return ds, nil
}

// parseCell parses a numeric cell; null cells yield NaN and mark the row.
func parseCell(s string, incomplete *bool) (float64, error) {
	if s == nullValue {
		*incomplete = true
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parsePosition accepts integer positions, including scientific notation
// written by some tools (e.g. 2.055e+08).
func parsePosition(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("non-integer position %s", s)
	}
	return int64(f), nil
}
