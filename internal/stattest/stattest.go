// Package stattest runs the colocalization statistic over an aligned
// p-value matrix written to a work directory.
package stattest

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/locusalign/internal/exttool"
)

// ResultFile is the file the statistic writes into the work directory.
const ResultFile = "SSPvalues.txt"

// Tool computes one test p-value per secondary dataset from the files in dir.
type Tool interface {
	Run(dir string) (*Result, error)
}

// Result holds the statistic for each secondary row of the p-value matrix,
// in row order. Rows the statistic could not evaluate are NaN.
type Result struct {
	PValues []float64
}

// Rscript runs an R script as `Rscript <script> <dir>`.
type Rscript struct {
	binary string
	script string
	logger *zap.Logger
}

// NewRscript creates the adapter. binary defaults to "Rscript".
func NewRscript(binary, script string) *Rscript {
	if binary == "" {
		binary = "Rscript"
	}
	return &Rscript{binary: binary, script: script, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (r *Rscript) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run executes the script and reads its result file.
func (r *Rscript) Run(dir string) (*Result, error) {
	if r.script == "" {
		return nil, fmt.Errorf("run statistic: no script configured")
	}
	r.logger.Debug("running statistic", zap.String("script", r.script), zap.String("dir", dir))
	if _, err := exttool.Run(r.binary, r.script, dir); err != nil {
		return nil, err
	}
	return ReadResult(filepath.Join(dir, ResultFile))
}

// ReadResult parses a result file of whitespace-separated p-values. "NA"
// and "NaN" parse to NaN.
func ReadResult(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statistic result: %w", err)
	}
	defer f.Close()

	res := &Result{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		for _, field := range strings.Fields(scanner.Text()) {
			if strings.EqualFold(field, "NA") {
				res.PValues = append(res.PValues, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("statistic result line %d: invalid value %q", line, field)
			}
			res.PValues = append(res.PValues, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan statistic result: %w", err)
	}
	return res, nil
}
