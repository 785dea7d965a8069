package matrix

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inodb/locusalign/internal/ld"
)

// Files written by WriteFiles.
const (
	PValuesFile   = "Pvalues.txt"
	LDFile        = "ldmat.txt"
	SNPsFile      = "SNPs.txt"
	PositionsFile = "positions.txt"
)

// WriteFiles writes the matrix and the matching LD submatrix into dir:
// tab-separated p-values (one row per dataset), the LD matrix in column
// order, and one SNP ID and one position per line.
func WriteFiles(dir string, pv *PValueMatrix, ldm *ld.Matrix) error {
	sub, err := ldm.Select(pv.Positions)
	if err != nil {
		return fmt.Errorf("write matrix files: %w", err)
	}

	if err := writeFile(filepath.Join(dir, PValuesFile), func(w *bufio.Writer) error {
		for _, row := range pv.Rows {
			if err := writeRow(w, row); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	n := sub.SymmetricDim()
	if err := writeFile(filepath.Join(dir, LDFile), func(w *bufio.Writer) error {
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				row[j] = sub.At(i, j)
			}
			if err := writeRow(w, row); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, SNPsFile), func(w *bufio.Writer) error {
		for _, id := range pv.SNPs {
			if _, err := w.WriteString(id.Display() + "\n"); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return writeFile(filepath.Join(dir, PositionsFile), func(w *bufio.Writer) error {
		for _, p := range pv.Positions {
			if _, err := w.WriteString(strconv.FormatInt(p, 10) + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeRow(w *bufio.Writer, row []float64) error {
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	_, err := w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// writeFile creates path and hands fn a buffered writer. The file is flushed
// and closed before writeFile returns.
func writeFile(path string, fn func(w *bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return nil
}
