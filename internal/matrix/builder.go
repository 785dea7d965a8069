// Package matrix aligns the primary dataset and every secondary dataset onto
// one ordered SNP set and writes the files consumed by the statistic.
package matrix

import (
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/locusalign/internal/dataset"
	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/variant"
)

// Primary is the reference row: the standardized primary dataset, sorted by
// position.
type Primary struct {
	Label     string
	IDs       []variant.Canonical
	Positions []int64
	PValues   []float64
}

// PrimaryFrom builds the reference row from a subset, standardized dataset.
func PrimaryFrom(label string, ds *dataset.Dataset) (Primary, error) {
	if len(ds.IDs) != len(ds.Rows) {
		return Primary{}, fmt.Errorf("primary dataset has %d ids for %d rows", len(ds.IDs), len(ds.Rows))
	}
	return Primary{
		Label:     label,
		IDs:       ds.IDs,
		Positions: ds.Positions(),
		PValues:   ds.PValues(),
	}, nil
}

// PValueMatrix is the aligned matrix. Rows[0] is the primary dataset; every
// row has one entry per SNP.
type PValueMatrix struct {
	Rows      [][]float64
	Labels    []string
	SNPs      []variant.Canonical
	Positions []int64
}

// NumSNPs returns the number of columns.
func (m *PValueMatrix) NumSNPs() int {
	return len(m.SNPs)
}

// Builder aligns secondary datasets against the primary row.
type Builder struct {
	std     *variant.Standardizer
	workers int
	logger  *zap.Logger
}

// NewBuilder creates a Builder. If workers is 0, runtime.NumCPU() is used.
func NewBuilder(std *variant.Standardizer, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{std: std, workers: workers, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Build produces the matrix: the primary row, then one row per source in
// the given order, restricted to the primary SNPs whose position is in
// ldPositions.
func (b *Builder) Build(loc locus.Locus, primary Primary, sources []Source, ldPositions []int64) (*PValueMatrix, error) {
	n := len(primary.IDs)
	if len(primary.Positions) != n || len(primary.PValues) != n {
		return nil, fmt.Errorf("build matrix: primary has %d ids, %d positions, %d p-values",
			n, len(primary.Positions), len(primary.PValues))
	}

	rows := make([][]float64, 1+len(sources))
	rows[0] = append([]float64(nil), primary.PValues...)

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, src := range sources {
		g.Go(func() error {
			row, err := b.alignSource(loc, primary.IDs, src)
			if err != nil {
				return fmt.Errorf("align %s: %w", src.Label(), err)
			}
			rows[i+1] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(rows))
	labels = append(labels, primary.Label)
	for _, src := range sources {
		labels = append(labels, src.Label())
	}

	inLD := make(map[int64]bool, len(ldPositions))
	for _, p := range ldPositions {
		inLD[p] = true
	}
	var keep []int
	for j, p := range primary.Positions {
		if inLD[p] {
			keep = append(keep, j)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("build matrix: none of the %d primary SNPs are in the LD matrix", n)
	}

	m := &PValueMatrix{
		Rows:      make([][]float64, len(rows)),
		Labels:    labels,
		SNPs:      make([]variant.Canonical, len(keep)),
		Positions: make([]int64, len(keep)),
	}
	for k, j := range keep {
		m.SNPs[k] = primary.IDs[j]
		m.Positions[k] = primary.Positions[j]
	}
	for i, row := range rows {
		m.Rows[i] = make([]float64, len(keep))
		for k, j := range keep {
			m.Rows[i][k] = row[j]
		}
	}

	b.logger.Info("built p-value matrix",
		zap.Int("rows", len(m.Rows)),
		zap.Int("snps", len(keep)),
		zap.Int("dropped_not_in_ld", n-len(keep)))
	return m, nil
}

// alignSource returns the source's p-values in primary order.
func (b *Builder) alignSource(loc locus.Locus, reference []variant.Canonical, src Source) ([]float64, error) {
	tokens, pvalues, err := src.Fetch(loc)
	if err != nil {
		return nil, err
	}
	if len(tokens) != len(pvalues) {
		return nil, fmt.Errorf("%d variant names for %d p-values", len(tokens), len(pvalues))
	}
	if len(tokens) == 0 {
		b.logger.Info("secondary dataset has no rows in region", zap.String("source", src.Label()))
		return nanRow(len(reference)), nil
	}

	ids, err := b.std.Standardize(tokens, loc)
	if failure.IsKind(err, failure.KindNoVariantsProvided) {
		b.logger.Info("secondary dataset has no usable variants", zap.String("source", src.Label()))
		return nanRow(len(reference)), nil
	}
	if err != nil {
		return nil, err
	}
	return variant.LeftJoin(reference, ids, pvalues), nil
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = math.NaN()
	}
	return row
}
