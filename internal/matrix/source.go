package matrix

import (
	"fmt"
	"sort"

	"github.com/inodb/locusalign/internal/dataset"
	"github.com/inodb/locusalign/internal/locus"
)

// Source is one secondary dataset contributing a row to the matrix.
type Source interface {
	Label() string
	// Fetch returns variant names and their p-values inside loc. An empty
	// result yields an all-NaN row.
	Fetch(loc locus.Locus) (tokens []string, pvalues []float64, err error)
}

// EQTLQuery looks up eQTL associations for a tissue and gene.
type EQTLQuery interface {
	EQTL(loc locus.Locus, tissue, gene string) ([]string, []float64, error)
}

// GeneLister lists the genes with eQTL data for a tissue inside a locus.
type GeneLister interface {
	Genes(loc locus.Locus, tissue string) ([]string, error)
}

// RegionGenes returns the sorted union of genes with data in loc across
// tissues.
func RegionGenes(l GeneLister, loc locus.Locus, tissues []string) ([]string, error) {
	seen := make(map[string]bool)
	var genes []string
	for _, t := range tissues {
		gs, err := l.Genes(loc, t)
		if err != nil {
			return nil, fmt.Errorf("list genes for %s: %w", t, err)
		}
		for _, g := range gs {
			if !seen[g] {
				seen[g] = true
				genes = append(genes, g)
			}
		}
	}
	sort.Strings(genes)
	return genes, nil
}

// EQTLSource is the (tissue, gene) slice of an eQTL reference.
type EQTLSource struct {
	Query  EQTLQuery
	Tissue string
	Gene   string
}

// Label returns "tissue:gene".
func (s EQTLSource) Label() string {
	return s.Tissue + ":" + s.Gene
}

// Fetch queries the reference.
func (s EQTLSource) Fetch(loc locus.Locus) ([]string, []float64, error) {
	return s.Query.EQTL(loc, s.Tissue, s.Gene)
}

// TableSource is an uploaded secondary dataset.
type TableSource struct {
	Name string
	Data *dataset.Dataset
}

// Label returns the dataset name.
func (s TableSource) Label() string {
	return s.Name
}

// Fetch returns the complete rows of the table inside loc, in file order.
// Duplicates are left for the builder to resolve.
func (s TableSource) Fetch(loc locus.Locus) ([]string, []float64, error) {
	tokens := s.Data.Tokens()
	var outTokens []string
	var outP []float64
	for i, r := range s.Data.Rows {
		chrom, ok := locus.NormalizeChrom(r.Chrom)
		if !ok || r.Incomplete || !loc.Contains(chrom, r.Pos) {
			continue
		}
		outTokens = append(outTokens, tokens[i])
		outP = append(outP, r.P)
	}
	return outTokens, outP, nil
}

// OrderSources lays out secondary rows: every gene of the first tissue, then
// every gene of the next tissue, followed by uploads in upload order.
func OrderSources(q EQTLQuery, tissues, genes []string, uploads []TableSource) []Source {
	out := make([]Source, 0, len(tissues)*len(genes)+len(uploads))
	for _, t := range tissues {
		for _, g := range genes {
			out = append(out, EQTLSource{Query: q, Tissue: t, Gene: g})
		}
	}
	for _, u := range uploads {
		out = append(out, u)
	}
	return out
}
