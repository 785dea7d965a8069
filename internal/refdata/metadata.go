package refdata

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// Kind names a reference table.
type Kind string

// Reference table kinds.
const (
	KindVariants Kind = "variants"
	KindDBSNP    Kind = "dbsnp"
	KindEQTL     Kind = "eqtl"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, err := k.table(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) table() (string, error) {
	switch k {
	case KindVariants:
		return "variant_table", nil
	case KindDBSNP:
		return "dbsnp", nil
	case KindEQTL:
		return "eqtl", nil
	}
	return "", fmt.Errorf("unknown reference kind %q (want variants, dbsnp or eqtl)", string(k))
}

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (fp FileFingerprint) modtime() string {
	return fp.ModTime.UTC().Format(time.RFC3339Nano)
}

// Imported reports whether fp is the file most recently imported for
// (kind, build), unchanged since.
func (s *Store) Imported(kind Kind, build string, fp FileFingerprint) bool {
	var path, modtime string
	var size int64
	err := s.db.QueryRow(`SELECT path, size, modtime FROM imports WHERE kind=? AND build=?`,
		string(kind), build).Scan(&path, &size, &modtime)
	if err != nil {
		return false
	}
	return path == fp.Path && size == fp.Size && modtime == fp.modtime()
}

// ImportInfo describes the last import of one reference table.
type ImportInfo struct {
	Kind  Kind
	Build string
	Path  string
	Rows  int64
}

// Imports lists the recorded imports.
func (s *Store) Imports() ([]ImportInfo, error) {
	rows, err := s.db.Query(`SELECT kind, build, path, rows FROM imports ORDER BY kind, build`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var out []ImportInfo
	for rows.Next() {
		var info ImportInfo
		var kind string
		if err := rows.Scan(&kind, &info.Build, &info.Path, &info.Rows); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		info.Kind = Kind(kind)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) recordImport(kind Kind, build string, fp FileFingerprint, n int64) error {
	if _, err := s.db.Exec(`DELETE FROM imports WHERE kind=? AND build=?`, string(kind), build); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO imports VALUES (?, ?, ?, ?, ?, ?)`,
		string(kind), build, fp.Path, fp.Size, fp.modtime(), n); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

func (s *Store) countBuild(table, build string) (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE build=?", build).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
