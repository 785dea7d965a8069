package vcf

import (
	"strings"

	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/variant"
)

// Variant is one VCF site. Multi-allelic sites keep every alt in file order.
type Variant struct {
	Chrom string   // Chromosome name (e.g., "12", "chr12")
	Pos   int64    // 1-based genomic position
	ID    string   // rsID, or "." when absent
	Ref   string   // Reference allele
	Alts  []string // Alternate alleles
	Info  string   // Raw INFO column
}

// IsSNV returns true if the site and every alt are single nucleotides.
func (v *Variant) IsSNV() bool {
	return v.Record().IsSNV()
}

// NormalizeChrom returns the numeric chromosome (X as 23).
func (v *Variant) NormalizeChrom() (int, bool) {
	return locus.NormalizeChrom(v.Chrom)
}

// InfoValue returns the value of key in the INFO column. Flags yield "".
func (v *Variant) InfoValue(key string) (string, bool) {
	if v.Info == "" || v.Info == "." {
		return "", false
	}
	rest := v.Info
	for rest != "" {
		var kv string
		kv, rest, _ = strings.Cut(rest, ";")
		k, val, _ := strings.Cut(kv, "=")
		if k == key {
			return val, true
		}
	}
	return "", false
}

// RSIDs returns the rsIDs in the ID column. dbSNP merges can list several
// separated by ';'. When the ID column is empty the dbSNP RS INFO key is
// used instead.
func (v *Variant) RSIDs() []string {
	if v.ID == "" || v.ID == "." {
		if rs, ok := v.InfoValue("RS"); ok && rs != "" {
			return []string{"rs" + rs}
		}
		return nil
	}
	var out []string
	for _, id := range strings.Split(v.ID, ";") {
		if strings.HasPrefix(strings.ToLower(id), "rs") {
			out = append(out, strings.ToLower(id))
		}
	}
	return out
}

// Record converts the site to a coordinate reference record. The chromosome
// is 0 when it is not one of 1-22 or X.
func (v *Variant) Record() variant.Record {
	chrom, _ := v.NormalizeChrom()
	rsid := ""
	if ids := v.RSIDs(); len(ids) > 0 {
		rsid = ids[0]
	}
	return variant.Record{
		Chrom: chrom,
		Pos:   v.Pos,
		RSID:  rsid,
		Ref:   strings.ToUpper(v.Ref),
		Alts:  upper(v.Alts),
	}
}

func upper(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToUpper(s)
	}
	return out
}
