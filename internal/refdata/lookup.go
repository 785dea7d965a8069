package refdata

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/variant"
)

// CanonicalForRSID looks rsid up in the curated variant table, restricted to
// loc. The first match by position wins.
func (s *Store) CanonicalForRSID(loc locus.Locus, rsid string) (variant.Canonical, bool, error) {
	var chrom int
	var pos int64
	var ref, alt string
	err := s.db.QueryRow(`SELECT chrom, pos, ref, alt FROM variant_table
		WHERE build=? AND rsid=? AND chrom=? AND pos BETWEEN ? AND ?
		ORDER BY pos LIMIT 1`,
		loc.Build.Tag(), strings.ToLower(rsid), loc.Chrom, loc.Start, loc.End,
	).Scan(&chrom, &pos, &ref, &alt)
	if errors.Is(err, sql.ErrNoRows) {
		return variant.Unresolved, false, nil
	}
	if err != nil {
		return variant.Unresolved, false, fmt.Errorf("query variant table: %w", err)
	}
	return variant.Format(chrom, pos, ref, alt, loc.Build), true, nil
}

// RecordsByRSID returns coordinate index records for rsid within loc.
func (s *Store) RecordsByRSID(loc locus.Locus, rsid string) ([]variant.Record, error) {
	return s.queryRecords(`SELECT chrom, pos, rsid, ref, alt FROM dbsnp
		WHERE build=? AND rsid=? AND chrom=? AND pos BETWEEN ? AND ?
		ORDER BY pos`,
		loc.Build.Tag(), strings.ToLower(rsid), loc.Chrom, loc.Start, loc.End)
}

// RecordsAt returns coordinate index records at one position.
func (s *Store) RecordsAt(build locus.Build, chrom int, pos int64) ([]variant.Record, error) {
	return s.queryRecords(`SELECT chrom, pos, rsid, ref, alt FROM dbsnp
		WHERE build=? AND chrom=? AND pos=?`,
		build.Tag(), chrom, pos)
}

func (s *Store) queryRecords(query string, args ...any) ([]variant.Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dbsnp: %w", err)
	}
	defer rows.Close()

	var out []variant.Record
	for rows.Next() {
		var r variant.Record
		var alts string
		if err := rows.Scan(&r.Chrom, &r.Pos, &r.RSID, &r.Ref, &alts); err != nil {
			return nil, fmt.Errorf("scan dbsnp: %w", err)
		}
		r.Alts = strings.Split(alts, ",")
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dbsnp: %w", err)
	}
	return out, nil
}

// EQTL returns the variant names and p-values of the (tissue, gene)
// associations inside loc, ordered by position.
func (s *Store) EQTL(loc locus.Locus, tissue, gene string) ([]string, []float64, error) {
	rows, err := s.db.Query(`SELECT variant_id, pval FROM eqtl
		WHERE build=? AND tissue=? AND gene=? AND chrom=? AND pos BETWEEN ? AND ?
		AND pval IS NOT NULL
		ORDER BY pos`,
		loc.Build.Tag(), tissue, gene, loc.Chrom, loc.Start, loc.End)
	if err != nil {
		return nil, nil, fmt.Errorf("query eqtl: %w", err)
	}
	defer rows.Close()

	var ids []string
	var pvals []float64
	for rows.Next() {
		var id string
		var p float64
		if err := rows.Scan(&id, &p); err != nil {
			return nil, nil, fmt.Errorf("scan eqtl: %w", err)
		}
		ids = append(ids, id)
		pvals = append(pvals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate eqtl: %w", err)
	}
	return ids, pvals, nil
}

// Genes lists the genes with eQTL associations in tissue overlapping loc.
func (s *Store) Genes(loc locus.Locus, tissue string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT gene FROM eqtl
		WHERE build=? AND tissue=? AND chrom=? AND pos BETWEEN ? AND ?
		ORDER BY gene`,
		loc.Build.Tag(), tissue, loc.Chrom, loc.Start, loc.End)
	if err != nil {
		return nil, fmt.Errorf("query eqtl genes: %w", err)
	}
	defer rows.Close()

	var genes []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan eqtl gene: %w", err)
		}
		genes = append(genes, g)
	}
	return genes, rows.Err()
}
