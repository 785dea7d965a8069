package variant

import "github.com/inodb/locusalign/internal/locus"

// Record is one entry of the coordinate reference (dbSNP-style). Alts keeps
// the source order; the first alt is the tie-break for multi-allelic sites.
type Record struct {
	Chrom int
	Pos   int64
	RSID  string
	Ref   string
	Alts  []string
}

// IsSNV reports whether the record is a single-nucleotide site.
func (r Record) IsSNV() bool {
	if len(r.Ref) != 1 || len(r.Alts) == 0 {
		return false
	}
	for _, a := range r.Alts {
		if len(a) != 1 {
			return false
		}
	}
	return true
}

// VariantTable maps rsIDs to canonical IDs within a region. It is consulted
// before the coordinate reference.
type VariantTable interface {
	CanonicalForRSID(loc locus.Locus, rsid string) (Canonical, bool, error)
}

// CoordinateIndex is a region-indexed coordinate-to-allele reference.
type CoordinateIndex interface {
	RecordsByRSID(loc locus.Locus, rsid string) ([]Record, error)
	RecordsAt(build locus.Build, chrom int, pos int64) ([]Record, error)
}
