package locus

// Chromosome lengths (bp) for chr1..chr22 and chrX, indexed by chromosome-1.
var (
	hg19Lengths = [23]int64{
		249250621, 243199373, 198022430, 191154276, 180915260, 171115067,
		159138663, 146364022, 141213431, 135534747, 135006516, 133851895,
		115169878, 107349540, 102531392, 90354753, 81195210, 78077248,
		59128983, 63025520, 48129895, 51304566,
		155270560, // chrX
	}
	hg38Lengths = [23]int64{
		248956422, 242193529, 198295559, 190214555, 181538259, 170805979,
		159345973, 145138636, 138394717, 133797422, 135086622, 133275309,
		114364328, 107043718, 101991189, 90338345, 83257441, 80373285,
		58617616, 64444167, 46709983, 50818468,
		156040895, // chrX
	}
)

// ChromLength returns the length of chromosome chrom (1..23, 23 = X) in the
// given build, or 0 when the chromosome is unknown.
func ChromLength(build Build, chrom int) int64 {
	if chrom < 1 || chrom > 23 {
		return 0
	}
	switch build {
	case B37:
		return hg19Lengths[chrom-1]
	case B38:
		return hg38Lengths[chrom-1]
	}
	return 0
}
