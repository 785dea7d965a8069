// Package pipeline runs one alignment request end to end: parse the region,
// subset and standardize the primary dataset, resolve the lead SNP, acquire
// LD, build the p-value matrix, write it out and run the statistic.
package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/locusalign/internal/dataset"
	"github.com/inodb/locusalign/internal/ld"
	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/matrix"
	"github.com/inodb/locusalign/internal/stattest"
	"github.com/inodb/locusalign/internal/variant"
)

// PrimaryLabel labels row 0 of the matrix.
const PrimaryLabel = "primary"

// Config holds engine settings.
type Config struct {
	// WorkDir is where per-request directories are created.
	WorkDir string
	// Workers bounds concurrent secondary-source alignment.
	Workers int
}

// Request is one alignment job.
type Request struct {
	Region     string
	Build      locus.Build
	Population string
	Primary    *dataset.Dataset
	LeadSNP    string
	Tissues    []string
	Genes      []string
	Uploads    []matrix.TableSource
}

// DatasetResult summarizes one matrix row.
type DatasetResult struct {
	Label   string   `yaml:"label"`
	Matched int      `yaml:"matched_snps"`
	PValue  *float64 `yaml:"p_value,omitempty"`
}

// Result is the outcome of a request.
type Result struct {
	Region      string          `yaml:"region"`
	Build       string          `yaml:"build"`
	Dir         string          `yaml:"work_dir"`
	Lead        string          `yaml:"lead_snp"`
	LeadPos     int64           `yaml:"lead_position"`
	LeadChanged bool            `yaml:"lead_changed"`
	SNPs        int             `yaml:"snps"`
	Datasets    []DatasetResult `yaml:"datasets"`

	Matrix *matrix.PValueMatrix `yaml:"-"`
	// LeadR2 is r² with the lead for every primary SNP in the region, -1
	// where the panel had no data.
	LeadR2 []float64 `yaml:"-"`
}

// Engine wires the components. It holds no per-request state and may serve
// requests concurrently.
type Engine struct {
	cfg      Config
	std      *variant.Standardizer
	eqtl     matrix.EQTLQuery
	acquirer *ld.Acquirer
	builder  *matrix.Builder
	stat     stattest.Tool
	logger   *zap.Logger
}

// NewEngine creates an Engine. eqtl may be nil when no eQTL reference is
// loaded; stat may be nil to skip the statistic.
func NewEngine(cfg Config, std *variant.Standardizer, eqtl matrix.EQTLQuery, acquirer *ld.Acquirer, stat stattest.Tool) *Engine {
	return &Engine{
		cfg:      cfg,
		std:      std,
		eqtl:     eqtl,
		acquirer: acquirer,
		builder:  matrix.NewBuilder(std, cfg.Workers),
		stat:     stat,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger on the engine and the components it owns.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
	e.builder.SetLogger(l)
}

// Run executes req.
func (e *Engine) Run(req Request) (*Result, error) {
	loc, err := locus.Parse(req.Region, req.Build)
	if err != nil {
		return nil, err
	}
	if req.Primary == nil {
		return nil, fmt.Errorf("run alignment: no primary dataset")
	}
	if len(req.Tissues) > 0 && e.eqtl == nil {
		return nil, fmt.Errorf("run alignment: tissues requested but no eQTL reference is loaded")
	}

	sub, _, err := dataset.Subset(req.Primary, loc)
	if err != nil {
		return nil, err
	}
	ids, err := e.std.Standardize(sub.Tokens(), loc)
	if err != nil {
		return nil, err
	}
	if err := sub.SetIDs(ids); err != nil {
		return nil, err
	}

	leadIdx, err := dataset.ResolveLead(req.LeadSNP, sub)
	if err != nil {
		return nil, err
	}
	e.logger.Info("region subset",
		zap.String("region", loc.String()),
		zap.Int("snps", len(sub.Rows)),
		zap.Int64("lead", sub.Rows[leadIdx].Pos))

	acq, err := e.acquirer.Acquire(ld.Request{
		Build:      loc.Build,
		Population: req.Population,
		Chrom:      loc.Chrom,
		Positions:  sub.Positions(),
		LeadPos:    sub.Rows[leadIdx].Pos,
		PValues:    sub.PValues(),
	})
	if err != nil {
		return nil, err
	}

	primary, err := matrix.PrimaryFrom(PrimaryLabel, sub)
	if err != nil {
		return nil, err
	}
	genes := req.Genes
	if len(req.Tissues) > 0 && len(genes) == 0 {
		if gl, ok := e.eqtl.(matrix.GeneLister); ok {
			if genes, err = matrix.RegionGenes(gl, loc, req.Tissues); err != nil {
				return nil, err
			}
			e.logger.Info("using all genes in region", zap.Strings("genes", genes))
		}
	}
	sources := matrix.OrderSources(e.eqtl, req.Tissues, genes, req.Uploads)
	pv, err := e.builder.Build(loc, primary, sources, acq.Matrix.Positions)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(e.cfg.WorkDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	if err := matrix.WriteFiles(dir, pv, acq.Matrix); err != nil {
		return nil, err
	}

	res := &Result{
		Region:      loc.String(),
		Build:       loc.Build.String(),
		Dir:         dir,
		LeadPos:     acq.Lead,
		LeadChanged: acq.LeadChanged,
		SNPs:        pv.NumSNPs(),
		Matrix:      pv,
		LeadR2:      acq.LeadR2,
	}
	for i, r := range sub.Rows {
		if r.Pos == acq.Lead {
			res.Lead = sub.IDs[i].Display()
			break
		}
	}
	for i, row := range pv.Rows {
		res.Datasets = append(res.Datasets, DatasetResult{Label: pv.Labels[i], Matched: countFinite(row)})
	}

	if e.stat != nil && len(pv.Rows) > 1 {
		stat, err := e.stat.Run(dir)
		if err != nil {
			return nil, err
		}
		if len(stat.PValues) != len(pv.Rows)-1 {
			return nil, fmt.Errorf("statistic returned %d p-values for %d secondary datasets",
				len(stat.PValues), len(pv.Rows)-1)
		}
		for i, p := range stat.PValues {
			res.Datasets[i+1].PValue = &p
		}
	}

	e.logger.Info("alignment complete",
		zap.String("dir", dir),
		zap.Int("datasets", len(pv.Rows)),
		zap.Int("snps", pv.NumSNPs()))
	return res, nil
}

func countFinite(row []float64) int {
	n := 0
	for _, v := range row {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}
