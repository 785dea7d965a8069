// Package locus parses and validates genomic region strings.
package locus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/locusalign/internal/failure"
)

// MaxWidth is the largest region width accepted, in base pairs.
const MaxWidth = 2000000

// Build identifies a genome assembly.
type Build int

const (
	B37 Build = iota + 1 // GRCh37 / hg19
	B38                  // GRCh38 / hg38
)

// ParseBuild accepts hg19/GRCh37/b37 and hg38/GRCh38/b38, case-insensitive.
func ParseBuild(s string) (Build, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hg19", "grch37", "b37":
		return B37, nil
	case "hg38", "grch38", "b38":
		return B38, nil
	}
	return 0, failure.Userf(failure.KindInvalidInput, "unrecognized genome build %q", s)
}

// Tag returns the suffix used in canonical variant IDs.
func (b Build) Tag() string {
	switch b {
	case B37:
		return "b37"
	case B38:
		return "b38"
	}
	return ""
}

// String returns the UCSC name of the build.
func (b Build) String() string {
	switch b {
	case B37:
		return "hg19"
	case B38:
		return "hg38"
	}
	return "unknown"
}

// Locus is a validated chromosome interval in one build. Chrom 23 is X.
type Locus struct {
	Chrom int
	Start int64
	End   int64
	Build Build
}

// String renders the locus in region-text form; Parse of the result yields
// the same Locus.
func (l Locus) String() string {
	return fmt.Sprintf("%d:%d-%d", l.Chrom, l.Start, l.End)
}

// Contains reports whether pos lies within [Start, End].
func (l Locus) Contains(chrom int, pos int64) bool {
	return chrom == l.Chrom && pos >= l.Start && pos <= l.End
}

var regionPattern = regexp.MustCompile(`^\d+:\d+-\d+$`)

// Parse validates region text such as "chr1:205,500,000-206,000,000".
func Parse(text string, build Build) (Locus, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ',':
			return -1
		}
		return r
	}, text)
	if len(s) >= 3 && strings.EqualFold(s[:3], "chr") {
		s = s[3:]
	}
	if len(s) > 0 && (s[0] == 'x' || s[0] == 'X') {
		s = "23" + s[1:]
	}

	if !regionPattern.MatchString(s) {
		return Locus{}, failure.Userf(failure.KindInvalidRegion,
			"invalid region %q: expected format chrom:start-end", text)
	}

	colon := strings.IndexByte(s, ':')
	dash := strings.IndexByte(s, '-')
	chrom, err := strconv.Atoi(s[:colon])
	if err != nil {
		return Locus{}, failure.Userf(failure.KindInvalidRegion, "invalid chromosome in region %q", text)
	}
	start, err := strconv.ParseInt(s[colon+1:dash], 10, 64)
	if err != nil {
		return Locus{}, failure.Userf(failure.KindInvalidRegion, "invalid start in region %q", text)
	}
	end, err := strconv.ParseInt(s[dash+1:], 10, 64)
	if err != nil {
		return Locus{}, failure.Userf(failure.KindInvalidRegion, "invalid end in region %q", text)
	}

	if chrom < 1 || chrom > 23 {
		return Locus{}, failure.Userf(failure.KindInvalidRegion,
			"chromosome %d is out of range; must be 1-22 or X", chrom)
	}
	if start > end {
		return Locus{}, failure.Userf(failure.KindInvalidRegion,
			"start position %d is greater than end position %d", start, end)
	}
	length := ChromLength(build, chrom)
	if length == 0 {
		return Locus{}, failure.Userf(failure.KindInvalidRegion, "unknown genome build for region %q", text)
	}
	if start > length || end > length {
		return Locus{}, failure.Userf(failure.KindInvalidRegion,
			"region %d:%d-%d exceeds the length of chromosome %s (%d bp) in %s",
			chrom, start, end, ChromName(chrom), length, build)
	}
	if end-start > MaxWidth {
		return Locus{}, failure.Userf(failure.KindInvalidRegion,
			"region width %d bp exceeds the maximum of %d bp", end-start, MaxWidth)
	}

	return Locus{Chrom: chrom, Start: start, End: end, Build: build}, nil
}

// NormalizeChrom converts a chromosome label ("chr1", "X", "23") to its
// numeric form. ok is false for labels outside 1..23.
func NormalizeChrom(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.EqualFold(s[:3], "chr") {
		s = s[3:]
	}
	if s == "x" || s == "X" {
		return 23, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 23 {
		return 0, false
	}
	return n, true
}

// ChromName renders a numeric chromosome for display, 23 as "X".
func ChromName(chrom int) string {
	if chrom == 23 {
		return "X"
	}
	return strconv.Itoa(chrom)
}
