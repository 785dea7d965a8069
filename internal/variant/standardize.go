package variant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/locus"
)

var (
	// chrom_pos_ref_alt[,alt2...]_b37|b38; field count is checked separately.
	qualifiedPattern = regexp.MustCompile(`(?i)^(\d+)_(\d+)_[ACGT]+_[ACGT,]+.*_b3[78]$`)
	// chrom_pos[_ref[_alt[,alt2...]]]
	coordPattern = regexp.MustCompile(`(?i)^(\d+)_(\d+)(?:_([ACGT]+))?(?:_([ACGT]+(?:,[ACGT]+)*))?$`)
)

// Standardizer resolves variant names against the reference variant table
// and the coordinate reference.
type Standardizer struct {
	table  VariantTable
	coords CoordinateIndex
	logger *zap.Logger
}

// NewStandardizer creates a Standardizer. Either reference may be nil, in
// which case lookups against it always miss.
func NewStandardizer(table VariantTable, coords CoordinateIndex) *Standardizer {
	return &Standardizer{
		table:  table,
		coords: coords,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for resolution diagnostics.
func (s *Standardizer) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Standardize returns one canonical ID per token, in input order. Tokens that
// cannot be resolved become Unresolved; a token of unknown shape is an error.
func (s *Standardizer) Standardize(tokens []string, loc locus.Locus) ([]Canonical, error) {
	allDots := true
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "." && t != "" {
			allDots = false
			break
		}
	}
	if allDots {
		return nil, failure.Userf(failure.KindNoVariantsProvided, "no variants provided")
	}

	var missing []int
	for i, t := range tokens {
		if isMissing(t) {
			missing = append(missing, i+1)
		}
	}
	if len(missing) > 0 {
		return nil, failure.Userf(failure.KindMissingVariantIDs,
			"missing variant IDs detected in row(s): %s", joinInts(missing))
	}

	out := make([]Canonical, len(tokens))
	resolved := 0
	for i, t := range tokens {
		c, err := s.resolve(t, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = c
		if c.Resolved() {
			resolved++
		}
	}

	if resolved == 0 {
		return nil, failure.Userf(failure.KindNoVariantsProvided,
			"none of the %d variant IDs could be resolved in region %s", len(tokens), loc)
	}
	if resolved < len(tokens) {
		s.logger.Info("unresolved variant IDs",
			zap.Int("resolved", resolved),
			zap.Int("total", len(tokens)))
	}
	return out, nil
}

// resolve applies the priority rules to a single token.
func (s *Standardizer) resolve(raw string, loc locus.Locus) (Canonical, error) {
	t := strings.TrimSpace(raw)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	t = strings.ReplaceAll(t, ":", "_")
	if t == "." || t == "" {
		return Unresolved, nil
	}

	if len(t) > 2 && strings.EqualFold(t[:2], "rs") {
		return s.resolveRSID(strings.ToLower(t), loc), nil
	}

	if len(t) >= 3 && strings.EqualFold(t[:3], "chr") {
		t = t[3:]
	}
	if len(t) > 0 && (t[0] == 'x' || t[0] == 'X') {
		t = "23" + t[1:]
	}

	if qualifiedPattern.MatchString(t) {
		return s.resolveQualified(raw, t, loc)
	}
	if m := coordPattern.FindStringSubmatch(t); m != nil {
		return s.resolveCoordinate(m, loc), nil
	}

	return Unresolved, failure.Userf(failure.KindVariantFormat,
		"unrecognized variant ID format %q; expected an rsID, chrom_pos[_ref_alt] or chrom_pos_ref_alt_build", raw)
}

func (s *Standardizer) resolveRSID(rsid string, loc locus.Locus) Canonical {
	if s.table != nil {
		c, ok, err := s.table.CanonicalForRSID(loc, rsid)
		if err != nil {
			s.logger.Debug("variant table lookup failed", zap.String("rsid", rsid), zap.Error(err))
		} else if ok {
			return c
		}
	}
	if s.coords == nil {
		return Unresolved
	}

	records, err := s.coords.RecordsByRSID(loc, rsid)
	if err != nil {
		s.logger.Debug("coordinate lookup failed", zap.String("rsid", rsid), zap.Error(err))
		return Unresolved
	}
	for _, r := range records {
		if len(r.Alts) == 0 {
			continue
		}
		return Format(r.Chrom, r.Pos, r.Ref, r.Alts[0], loc.Build)
	}
	return Unresolved
}

func (s *Standardizer) resolveQualified(raw, t string, loc locus.Locus) (Canonical, error) {
	fields := strings.Split(t, "_")
	chrom, pos, ok := inLocus(fields[0], fields[1], loc)
	if !ok {
		return Unresolved, nil
	}
	if len(fields) != 5 {
		return Unresolved, failure.Userf(failure.KindVariantFormat,
			"variant ID %q does not have the form chrom_pos_ref_alt_build", raw)
	}
	alt := fields[3]
	if i := strings.IndexByte(alt, ','); i >= 0 {
		alt = alt[:i]
	}
	return Format(chrom, pos, fields[2], alt, loc.Build), nil
}

func (s *Standardizer) resolveCoordinate(m []string, loc locus.Locus) Canonical {
	chrom, pos, ok := inLocus(m[1], m[2], loc)
	if !ok || s.coords == nil {
		return Unresolved
	}
	ref := strings.ToUpper(m[3])
	var alts []string
	if m[4] != "" {
		alts = strings.Split(strings.ToUpper(m[4]), ",")
	}

	records, err := s.coords.RecordsAt(loc.Build, chrom, pos)
	if err != nil {
		s.logger.Debug("coordinate lookup failed",
			zap.Int("chrom", chrom), zap.Int64("pos", pos), zap.Error(err))
		return Unresolved
	}

	var snvs []Record
	for _, r := range records {
		if r.IsSNV() {
			snvs = append(snvs, r)
		}
	}

	if ref == "" {
		var biallelic []Record
		for _, r := range snvs {
			if len(r.Alts) == 1 {
				biallelic = append(biallelic, r)
			}
		}
		if len(biallelic) != 1 {
			return Unresolved
		}
		r := biallelic[0]
		return Format(chrom, pos, r.Ref, r.Alts[0], loc.Build)
	}

	var matches []Record
	for _, r := range snvs {
		if strings.EqualFold(r.Ref, ref) && (len(alts) == 0 || hasAllele(r.Alts, alts[0])) {
			matches = append(matches, r)
		}
	}
	if len(matches) != 1 {
		return Unresolved
	}
	alt := matches[0].Alts[0]
	if len(alts) > 0 {
		alt = alts[0]
	}
	return Format(chrom, pos, ref, alt, loc.Build)
}

// inLocus re-parses chrom:pos through the locus parser and checks it lies
// within loc. Anything unparseable counts as outside.
func inLocus(chromField, posField string, loc locus.Locus) (int, int64, bool) {
	pt, err := locus.Parse(chromField+":"+posField+"-"+posField, loc.Build)
	if err != nil {
		return 0, 0, false
	}
	if !loc.Contains(pt.Chrom, pt.Start) {
		return 0, 0, false
	}
	return pt.Chrom, pt.Start, true
}

func hasAllele(alts []string, a string) bool {
	for _, x := range alts {
		if strings.EqualFold(x, a) {
			return true
		}
	}
	return false
}

// isMissing reports whether a token is an empty cell rendered as NaN/NA.
func isMissing(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "nan", "na", "<nil>":
		return true
	}
	return false
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
