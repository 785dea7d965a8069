package ld

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/locus"
)

// DiagonalEpsilon is added to the LD matrix diagonal after acquisition.
const DiagonalEpsilon = 1e-6

// Missing marks a position absent from the correlation tool's result in
// Acquisition.LeadR2; NaN is left for undefined correlations.
const Missing = -1.0

// CorrelationTool computes pairwise correlations over a reference panel.
type CorrelationTool interface {
	// PanelPositions returns the positions genotyped in the panel.
	PanelPositions(p Panel) (map[int64]bool, error)
	// Correlate returns the correlation matrix for the subset of positions
	// the tool could compute, in the tool's own order.
	Correlate(p Panel, chrom int, positions []int64) (*Matrix, error)
}

// PanelResolver maps a request to a reference panel.
type PanelResolver interface {
	Locate(build locus.Build, population string, chrom int) (Panel, error)
}

// Request describes one LD acquisition. PValues, when set, is parallel to
// Positions and drives lead reconciliation. LeadPos 0 selects the
// lowest-p position.
type Request struct {
	Build      locus.Build
	Population string
	Chrom      int
	Positions  []int64
	LeadPos    int64
	PValues    []float64
}

// Acquisition is the reconciled result of an LD request.
type Acquisition struct {
	Matrix *Matrix
	Lead   int64
	// LeadR2 holds r² with the lead for every requested position, in
	// request order; Missing where the tool returned nothing.
	LeadR2 []float64
	// LeadChanged is set when the requested lead was not in the panel.
	LeadChanged bool
}

// Acquirer wraps a CorrelationTool with lead reconciliation.
type Acquirer struct {
	tool   CorrelationTool
	panels PanelResolver
	logger *zap.Logger
}

// NewAcquirer creates an Acquirer.
func NewAcquirer(tool CorrelationTool, panels PanelResolver) *Acquirer {
	return &Acquirer{
		tool:   tool,
		panels: panels,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for reconciliation messages.
func (a *Acquirer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Acquire runs the correlation tool for req and reconciles its output.
func (a *Acquirer) Acquire(req Request) (*Acquisition, error) {
	if len(req.Positions) == 0 {
		return nil, fmt.Errorf("acquire ld: no positions")
	}
	if req.PValues != nil && len(req.PValues) != len(req.Positions) {
		return nil, fmt.Errorf("acquire ld: %d p-values for %d positions", len(req.PValues), len(req.Positions))
	}

	panel, err := a.panels.Locate(req.Build, req.Population, req.Chrom)
	if err != nil {
		return nil, err
	}
	inPanel, err := a.tool.PanelPositions(panel)
	if err != nil {
		return nil, fmt.Errorf("read panel positions: %w", err)
	}

	lead, err := ReconcileLead(req.Positions, req.PValues, req.LeadPos, inPanel)
	if err != nil {
		return nil, err
	}
	changed := req.LeadPos != 0 && lead != req.LeadPos
	if changed {
		a.logger.Warn("lead SNP not in reference panel; using next best",
			zap.Int64("requested", req.LeadPos),
			zap.Int64("lead", lead),
			zap.String("population", req.Population))
	}

	query := make([]int64, 0, len(req.Positions))
	for _, p := range req.Positions {
		if inPanel[p] {
			query = append(query, p)
		}
	}

	m, err := a.tool.Correlate(panel, req.Chrom, query)
	if err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}
	leadRow, ok := m.Index(lead)
	if !ok {
		return nil, failure.Userf(failure.KindNoAlternativeLeadSNP,
			"lead SNP position %d was dropped by the correlation tool", lead)
	}

	r2 := make([]float64, len(req.Positions))
	for i, p := range req.Positions {
		j, ok := m.Index(p)
		if !ok {
			r2[i] = Missing
			continue
		}
		r := m.Values.At(leadRow, j)
		r2[i] = r * r
	}

	m.addDiagonal(DiagonalEpsilon)

	a.logger.Info("acquired ld matrix",
		zap.Int("requested", len(req.Positions)),
		zap.Int("returned", m.Len()),
		zap.Int64("lead", lead))

	return &Acquisition{Matrix: m, Lead: lead, LeadR2: r2, LeadChanged: changed}, nil
}

// ReconcileLead returns a lead position present in the panel. Starting from
// lead (or the lowest-p position when lead is 0), each candidate missing
// from the panel is removed and the remaining position with the lowest
// p-value (first on ties) is tried next.
func ReconcileLead(positions []int64, pvalues []float64, lead int64, inPanel map[int64]bool) (int64, error) {
	removed := make(map[int64]bool)

	next := func() (int64, bool) {
		best, minP, found := int64(0), math.Inf(1), false
		for i, p := range positions {
			if removed[p] || pvalues == nil || math.IsNaN(pvalues[i]) {
				continue
			}
			if !found || pvalues[i] < minP {
				best, minP, found = p, pvalues[i], true
			}
		}
		return best, found
	}

	if lead == 0 {
		var ok bool
		if lead, ok = next(); !ok {
			return 0, failure.Userf(failure.KindNoAlternativeLeadSNP, "no p-values available to select a lead SNP")
		}
	}

	for !inPanel[lead] {
		removed[lead] = true
		var ok bool
		if lead, ok = next(); !ok {
			return 0, failure.Userf(failure.KindNoAlternativeLeadSNP,
				"the lead SNP and all alternative SNPs are absent from the reference panel")
		}
	}
	return lead, nil
}
