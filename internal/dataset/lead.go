package dataset

import (
	"math"

	"github.com/inodb/locusalign/internal/failure"
)

// ResolveLead returns the index of the lead SNP row. An empty name selects
// the row with the smallest p-value (first on ties); otherwise the row whose
// SNP name, or canonical ID when set, equals name.
func ResolveLead(name string, ds *Dataset) (int, error) {
	name = truncateName(name)

	if name == "" {
		best := -1
		minP := math.Inf(1)
		for i, r := range ds.Rows {
			if r.P < minP {
				minP = r.P
				best = i
			}
		}
		if best < 0 {
			return 0, failure.Userf(failure.KindLeadSNPNotFound, "no p-values available to select a lead SNP")
		}
		return best, nil
	}

	for i, r := range ds.Rows {
		if truncateName(r.SNP) == name {
			return i, nil
		}
		if ds.IDs != nil && (string(ds.IDs[i]) == name || ds.IDs[i].Display() == name) {
			return i, nil
		}
	}
	return 0, failure.Userf(failure.KindLeadSNPNotFound,
		"lead SNP %q not found in the dataset for the selected region", name)
}
