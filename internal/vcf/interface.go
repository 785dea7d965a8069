// Package vcf reads dbSNP-style VCF files into coordinate reference records.
package vcf

// VariantParser reads sites one at a time.
type VariantParser interface {
	// Next reads the next site.
	// Returns nil, nil when there are no more sites.
	Next() (*Variant, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
