// Package refdata holds the reference tables consulted while aligning
// variants: the curated rsID table, a dbSNP coordinate index and eQTL
// associations. Tables live in DuckDB and are read-only after import.
package refdata

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding the reference tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create reference directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS variant_table (
			build VARCHAR,
			chrom INTEGER,
			pos BIGINT,
			rsid VARCHAR,
			ref VARCHAR,
			alt VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS dbsnp (
			build VARCHAR,
			chrom INTEGER,
			pos BIGINT,
			rsid VARCHAR,
			ref VARCHAR,
			alt VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS eqtl (
			build VARCHAR,
			tissue VARCHAR,
			gene VARCHAR,
			variant_id VARCHAR,
			chrom INTEGER,
			pos BIGINT,
			pval DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS imports (
			kind VARCHAR,
			build VARCHAR,
			path VARCHAR,
			size BIGINT,
			modtime VARCHAR,
			rows BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	// Indexes for rsID and exact-position lookups
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_variant_table_rsid ON variant_table (build, rsid)`,
		`CREATE INDEX IF NOT EXISTS idx_dbsnp_rsid ON dbsnp (build, rsid)`,
		`CREATE INDEX IF NOT EXISTS idx_dbsnp_pos ON dbsnp (build, chrom, pos)`,
		`CREATE INDEX IF NOT EXISTS idx_eqtl_gene ON eqtl (build, tissue, gene)`,
	}
	for _, stmt := range indexes {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Count returns the number of rows in one of the reference tables.
func (s *Store) Count(kind Kind) (int64, error) {
	table, err := kind.table()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", table, err)
	}
	return count, nil
}

// sqlString quotes s as a SQL string literal.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
