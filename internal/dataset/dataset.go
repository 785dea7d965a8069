// Package dataset loads summary-statistic tables and subsets them to a locus.
package dataset

import (
	"fmt"
	"strings"

	"github.com/inodb/locusalign/internal/variant"
)

// Row is one record of a summary-statistic table. Optional numeric fields
// are NaN when their column is absent.
type Row struct {
	Index int // 0-based position in the loaded table

	Chrom string
	Pos   int64
	Ref   string
	Alt   string
	SNP   string
	P     float64
	Beta  float64
	SE    float64
	N     float64
	MAF   float64

	// Incomplete is set when any present column held a null cell.
	Incomplete bool
}

// Columns records which optional columns a dataset carries.
type Columns struct {
	SNP, Ref, Alt, Beta, SE, N, MAF bool
}

// Dataset is an ordered set of rows. After Subset all rows share one
// chromosome and IDs may be filled in by the caller with canonical variants.
type Dataset struct {
	Rows    []Row
	Columns Columns
	IDs     []variant.Canonical
}

// Positions returns the base-pair position of every row.
func (d *Dataset) Positions() []int64 {
	out := make([]int64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Pos
	}
	return out
}

// PValues returns the p-value of every row.
func (d *Dataset) PValues() []float64 {
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.P
	}
	return out
}

// Tokens returns the variant name for every row, for standardization. When
// the table has no SNP column the name is built from chrom, pos and alleles.
func (d *Dataset) Tokens() []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		switch {
		case d.Columns.SNP:
			out[i] = r.SNP
		case d.Columns.Ref && d.Columns.Alt:
			out[i] = fmt.Sprintf("%s_%d_%s_%s", r.Chrom, r.Pos, r.Ref, r.Alt)
		default:
			out[i] = fmt.Sprintf("%s_%d", r.Chrom, r.Pos)
		}
	}
	return out
}

// SetIDs attaches canonical IDs, one per row.
func (d *Dataset) SetIDs(ids []variant.Canonical) error {
	if len(ids) != len(d.Rows) {
		return fmt.Errorf("set ids: got %d ids for %d rows", len(ids), len(d.Rows))
	}
	d.IDs = ids
	return nil
}

// truncateName keeps the part of a SNP name before the first ';'.
func truncateName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return s[:i]
	}
	return s
}
