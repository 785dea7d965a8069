// Package variant resolves variant names to canonical chrom_pos_ref_alt_build IDs.
package variant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/locusalign/internal/locus"
)

// Canonical is a variant ID of the form chrom_pos_ref_alt_build, with
// chromosome X stored as 23. It is the only join key used across datasets.
type Canonical string

// Unresolved marks a token that could not be resolved.
const Unresolved Canonical = "."

// Format builds a canonical ID. Alleles are upper-cased.
func Format(chrom int, pos int64, ref, alt string, build locus.Build) Canonical {
	return Canonical(fmt.Sprintf("%d_%d_%s_%s_%s",
		chrom, pos, strings.ToUpper(ref), strings.ToUpper(alt), build.Tag()))
}

// Resolved reports whether c names a variant.
func (c Canonical) Resolved() bool {
	return c != Unresolved && c != ""
}

// Parts splits c into its fields.
func (c Canonical) Parts() (chrom int, pos int64, ref, alt, tag string, ok bool) {
	fields := strings.Split(string(c), "_")
	if len(fields) != 5 {
		return 0, 0, "", "", "", false
	}
	chrom, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, "", "", "", false
	}
	pos, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, "", "", "", false
	}
	return chrom, pos, fields[2], fields[3], fields[4], true
}

// Display renders c with chromosome 23 shown as X.
func (c Canonical) Display() string {
	if strings.HasPrefix(string(c), "23_") {
		return "X" + string(c)[2:]
	}
	return string(c)
}

func (c Canonical) String() string { return string(c) }
