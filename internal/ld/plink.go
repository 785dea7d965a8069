package ld

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/inodb/locusalign/internal/exttool"
	"github.com/inodb/locusalign/internal/locus"
)

// Plink computes LD with the PLINK 1.9 command-line tool. Panel .bim files
// are read once and cached for the life of the process.
type Plink struct {
	binary  string
	workDir string
	logger  *zap.Logger

	mu   sync.Mutex
	bims map[string]map[int64]bool
}

// NewPlink creates a PLINK adapter. Scratch files go under workDir (the
// system temp dir when empty).
func NewPlink(binary, workDir string) *Plink {
	if binary == "" {
		binary = "plink"
	}
	return &Plink{
		binary:  binary,
		workDir: workDir,
		logger:  zap.NewNop(),
		bims:    make(map[string]map[int64]bool),
	}
}

// SetLogger sets the logger.
func (p *Plink) SetLogger(l *zap.Logger) {
	p.logger = l
}

// PanelPositions reads the positions listed in the panel's .bim file.
func (p *Plink) PanelPositions(panel Panel) (map[int64]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pos, ok := p.bims[panel.Prefix]; ok {
		return pos, nil
	}

	f, err := os.Open(panel.Prefix + ".bim")
	if err != nil {
		return nil, fmt.Errorf("open bim: %w", err)
	}
	defer f.Close()

	positions := make(map[int64]bool)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("bim line %d: expected 6 columns, found %d", line, len(fields))
		}
		pos, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bim line %d: invalid position %q", line, fields[3])
		}
		positions[pos] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan bim: %w", err)
	}

	p.bims[panel.Prefix] = positions
	return positions, nil
}

// Correlate runs `plink --r square` over the given positions.
func (p *Plink) Correlate(panel Panel, chrom int, positions []int64) (*Matrix, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("plink: no positions to correlate")
	}

	if p.workDir != "" {
		if err := os.MkdirAll(p.workDir, 0o755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(p.workDir, "ld-")
	if err != nil {
		return nil, fmt.Errorf("create ld work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snpFile := filepath.Join(dir, "snps.txt")
	if err := WriteSelector(snpFile, chrom, positions); err != nil {
		return nil, err
	}

	prefix := filepath.Join(dir, "ld")
	args := []string{
		"--bfile", panel.Prefix,
		"--extract", snpFile,
		"--r", "square",
		"--write-snplist",
		"--allow-no-sex",
		"--out", prefix,
	}
	if panel.KeepFile != "" {
		args = append(args, "--keep", panel.KeepFile)
	}

	p.logger.Debug("running plink", zap.Strings("args", args))
	if _, err := exttool.Run(p.binary, args...); err != nil {
		return nil, err
	}

	order, err := readSNPList(prefix + ".snplist")
	if err != nil {
		return nil, err
	}
	values, err := readSquare(prefix+".ld", len(order))
	if err != nil {
		return nil, err
	}
	return NewMatrix(values, order)
}

// WriteSelector writes one chr{chrom}:{pos} line per position.
func WriteSelector(path string, chrom int, positions []int64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snp selector: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close snp selector: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	name := locus.ChromName(chrom)
	for _, pos := range positions {
		if _, err := fmt.Fprintf(w, "chr%s:%d\n", name, pos); err != nil {
			return fmt.Errorf("write snp selector: %w", err)
		}
	}
	return w.Flush()
}

// readSNPList parses PLINK's .snplist, whose IDs have the form chrN:pos.
func readSNPList(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snplist: %w", err)
	}
	defer f.Close()

	var positions []int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		i := strings.LastIndexByte(id, ':')
		if i < 0 {
			return nil, fmt.Errorf("snplist: unexpected SNP ID %q", id)
		}
		pos, err := strconv.ParseInt(id[i+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("snplist: unexpected SNP ID %q", id)
		}
		positions = append(positions, pos)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan snplist: %w", err)
	}
	return positions, nil
}

// readSquare parses a whitespace-separated n×n matrix. PLINK writes "nan"
// for monomorphic SNPs; those parse to NaN.
func readSquare(path string, n int) (*mat.SymDense, error) {
	if n == 0 {
		return nil, fmt.Errorf("ld matrix is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ld matrix: %w", err)
	}
	defer f.Close()

	data := make([]float64, 0, n*n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	row := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != n {
			return nil, fmt.Errorf("ld matrix row %d: expected %d values, found %d", row+1, n, len(fields))
		}
		for _, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("ld matrix row %d: invalid value %q", row+1, s)
			}
			data = append(data, v)
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ld matrix: %w", err)
	}
	if row != n {
		return nil, fmt.Errorf("ld matrix: expected %d rows, found %d", n, row)
	}
	return mat.NewSymDense(n, data), nil
}
