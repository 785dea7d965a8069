package refdata

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/vcf"
)

// chromExpr converts a chrom column ("1", "chr1", "X", "chrX") to its
// numeric form.
const chromExpr = `CAST(CASE WHEN upper(regexp_replace(chrom, '^chr', '', 'i')) = 'X' THEN '23'
	ELSE regexp_replace(chrom, '^chr', '', 'i') END AS INTEGER)`

// LoadVariantTable bulk-loads the curated rsID table for one build from a
// (optionally gzipped) TSV with header:
//
//	chrom  pos  rsid  ref  alt
//
// Existing rows for the build are replaced.
func (s *Store) LoadVariantTable(build locus.Build, path string) (int64, error) {
	fp, err := StatFile(path)
	if err != nil {
		return 0, fmt.Errorf("stat variant table: %w", err)
	}
	tag := build.Tag()

	if _, err := s.db.Exec(`DELETE FROM variant_table WHERE build=?`, tag); err != nil {
		return 0, fmt.Errorf("clear variant table: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO variant_table
		SELECT %s, %s, pos, lower(rsid), upper(ref), upper(alt)
		FROM read_csv(%s, delim='\t', header=true,
			columns={
				'chrom': 'VARCHAR',
				'pos': 'BIGINT',
				'rsid': 'VARCHAR',
				'ref': 'VARCHAR',
				'alt': 'VARCHAR'
			})`, sqlString(tag), chromExpr, sqlString(path))
	if _, err := s.db.Exec(query); err != nil {
		return 0, fmt.Errorf("loading variant table: %w", err)
	}

	return s.finishImport(KindVariants, "variant_table", tag, fp)
}

// LoadEQTL bulk-loads eQTL associations for one build from a TSV with header:
//
//	tissue  gene  variant_id  chrom  pos  pval
//
// variant_id may be any name the standardizer accepts. Existing rows for the
// build are replaced.
func (s *Store) LoadEQTL(build locus.Build, path string) (int64, error) {
	fp, err := StatFile(path)
	if err != nil {
		return 0, fmt.Errorf("stat eqtl table: %w", err)
	}
	tag := build.Tag()

	if _, err := s.db.Exec(`DELETE FROM eqtl WHERE build=?`, tag); err != nil {
		return 0, fmt.Errorf("clear eqtl table: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO eqtl
		SELECT %s, tissue, gene, variant_id, %s, pos, pval
		FROM read_csv(%s, delim='\t', header=true, nullstr='NA',
			columns={
				'tissue': 'VARCHAR',
				'gene': 'VARCHAR',
				'variant_id': 'VARCHAR',
				'chrom': 'VARCHAR',
				'pos': 'BIGINT',
				'pval': 'DOUBLE'
			})`, sqlString(tag), chromExpr, sqlString(path))
	if _, err := s.db.Exec(query); err != nil {
		return 0, fmt.Errorf("loading eqtl table: %w", err)
	}

	return s.finishImport(KindEQTL, "eqtl", tag, fp)
}

// ImportDBSNPFile imports a dbSNP VCF (plain or gzipped) for one build.
func (s *Store) ImportDBSNPFile(build locus.Build, path string) (int64, error) {
	fp, err := StatFile(path)
	if err != nil {
		return 0, fmt.Errorf("stat dbsnp vcf: %w", err)
	}
	p, err := vcf.NewParser(path)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	return s.ImportDBSNP(build, p, fp)
}

// ImportDBSNP replaces the coordinate index for build with the sites read
// from p, using the Appender API. Sites on chromosomes other than 1-22 and X
// are skipped.
func (s *Store) ImportDBSNP(build locus.Build, p vcf.VariantParser, fp FileFingerprint) (int64, error) {
	tag := build.Tag()
	if _, err := s.db.Exec(`DELETE FROM dbsnp WHERE build=?`, tag); err != nil {
		return 0, fmt.Errorf("clear dbsnp: %w", err)
	}

	if err := s.appendSites(tag, p); err != nil {
		return 0, err
	}

	return s.finishImport(KindDBSNP, "dbsnp", tag, fp)
}

func (s *Store) appendSites(tag string, p vcf.VariantParser) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "dbsnp")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for {
		v, err := p.Next()
		if err != nil {
			return fmt.Errorf("read dbsnp: %w", err)
		}
		if v == nil {
			break
		}
		rec := v.Record()
		if rec.Chrom == 0 || len(rec.Alts) == 0 {
			continue
		}
		if err := appender.AppendRow(
			tag, int32(rec.Chrom), rec.Pos, rec.RSID, rec.Ref, strings.Join(rec.Alts, ","),
		); err != nil {
			return fmt.Errorf("append dbsnp site at line %d: %w", p.LineNumber(), err)
		}
	}

	return appender.Flush()
}

func (s *Store) finishImport(kind Kind, table, tag string, fp FileFingerprint) (int64, error) {
	n, err := s.countBuild(table, tag)
	if err != nil {
		return 0, fmt.Errorf("count %s rows: %w", table, err)
	}
	if err := s.recordImport(kind, tag, fp, n); err != nil {
		return 0, err
	}
	return n, nil
}
