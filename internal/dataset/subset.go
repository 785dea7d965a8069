package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/variant"
)

// Subset keeps the rows of ds that lie within loc and have no null field,
// sorted by position. It also returns the keep mask over the rows of ds.
// The input is not modified.
func Subset(ds *Dataset, loc locus.Locus) (*Dataset, []bool, error) {
	keep := make([]bool, len(ds.Rows))
	for i := range keep {
		keep[i] = true
	}

	// Each stage narrows the mask; none re-derives it.
	and(keep, func(r Row) bool { return strings.TrimSpace(r.Chrom) != "." }, ds.Rows)
	and(keep, func(r Row) bool {
		c, ok := locus.NormalizeChrom(r.Chrom)
		return ok && c == loc.Chrom
	}, ds.Rows)
	and(keep, func(r Row) bool { return r.Pos >= loc.Start && r.Pos <= loc.End }, ds.Rows)
	and(keep, func(r Row) bool { return !r.Incomplete }, ds.Rows)

	out := &Dataset{Columns: ds.Columns}
	ids := ds.IDs
	for i, r := range ds.Rows {
		if !keep[i] {
			continue
		}
		r.Chrom = strconv.Itoa(loc.Chrom)
		out.Rows = append(out.Rows, r)
		if ids != nil {
			out.IDs = append(out.IDs, ids[i])
		}
	}

	if len(out.Rows) == 0 {
		return nil, keep, failure.Userf(failure.KindEmptyRegion,
			"no variants found in region %s", loc)
	}

	sortByPosition(out)

	var zero []string
	for _, r := range out.Rows {
		if r.P == 0 {
			zero = append(zero, strconv.FormatInt(r.Pos, 10))
		}
	}
	if len(zero) > 0 {
		return nil, keep, failure.Userf(failure.KindZeroPValue,
			"p-values of exactly 0 at position(s) %s; replace them with a small positive value",
			strings.Join(zero, ", "))
	}

	if dups := duplicatePositions(out.Rows); len(dups) > 0 {
		parts := make([]string, len(dups))
		for i, d := range dups {
			parts[i] = fmt.Sprintf("%d (%d rows)", d.pos, d.count)
		}
		return nil, keep, failure.Userf(failure.KindDuplicatePositions,
			"duplicate positions found: %s", strings.Join(parts, ", "))
	}

	return out, keep, nil
}

func and(keep []bool, pred func(Row) bool, rows []Row) {
	for i, r := range rows {
		keep[i] = keep[i] && pred(r)
	}
}

// sortByPosition stable-sorts rows (and IDs when set) by position.
func sortByPosition(ds *Dataset) {
	order := make([]int, len(ds.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ds.Rows[order[a]].Pos < ds.Rows[order[b]].Pos
	})

	rows := make([]Row, len(ds.Rows))
	for i, j := range order {
		rows[i] = ds.Rows[j]
	}
	ds.Rows = rows

	if ds.IDs != nil {
		ids := make([]variant.Canonical, 0, len(ds.IDs))
		for _, j := range order {
			ids = append(ids, ds.IDs[j])
		}
		ds.IDs = ids
	}
}

type dupCount struct {
	pos   int64
	count int
}

// duplicatePositions expects rows sorted by position.
func duplicatePositions(rows []Row) []dupCount {
	var dups []dupCount
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && rows[j].Pos == rows[i].Pos {
			j++
		}
		if j-i > 1 {
			dups = append(dups, dupCount{pos: rows[i].Pos, count: j - i})
		}
		i = j
	}
	return dups
}
