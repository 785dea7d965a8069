package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inodb/locusalign/internal/dataset"
	"github.com/inodb/locusalign/internal/failure"
	"github.com/inodb/locusalign/internal/locus"
	"github.com/inodb/locusalign/internal/matrix"
	"github.com/inodb/locusalign/internal/pipeline"
)

type alignOptions struct {
	region     string
	build      string
	population string
	primary    string
	lead       string
	tissues    []string
	genes      []string
	uploads    []string
	noStat     bool
	cols       dataset.ColumnMap
}

func newAlignCmd() *cobra.Command {
	opts := &alignOptions{cols: dataset.DefaultColumns()}

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Build the aligned p-value and LD matrices for a region",
		Long: `Subset the primary summary statistics to a region, standardize variant IDs,
reconcile the lead SNP against the LD reference panel, align eQTL and uploaded
secondary datasets and write Pvalues.txt, ldmat.txt, SNPs.txt and
positions.txt to a fresh work directory. The statistic is then run on that
directory unless --no-stat is given.

Errors are printed as a JSON payload with kind, message and status_code.`,
		Example: `  locusalign align --primary gwas.tsv.gz --region 1:205500000-205700000 \
    --build hg19 --population EUR --tissue Liver --gene GENE1
  locusalign align --primary gwas.tsv --region chrX:1,000,000-1,500,000 \
    --upload coloc=other.tsv --no-stat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.region, "region", "r", "", "region as chrom:start-end (required)")
	f.StringVarP(&opts.build, "build", "b", "hg19", "genome build: hg19 or hg38")
	f.StringVar(&opts.population, "population", "EUR", "LD reference population")
	f.StringVarP(&opts.primary, "primary", "p", "", "primary summary statistics TSV (required)")
	f.StringVar(&opts.lead, "lead", "", "lead SNP name (default: lowest p-value)")
	f.StringSliceVar(&opts.tissues, "tissue", nil, "eQTL tissue (repeatable)")
	f.StringSliceVar(&opts.genes, "gene", nil, "eQTL gene (repeatable)")
	f.StringSliceVar(&opts.uploads, "upload", nil, "secondary dataset as [name=]path (repeatable)")
	f.BoolVar(&opts.noStat, "no-stat", false, "skip the colocalization statistic")
	f.StringVar(&opts.cols.Chrom, "chrom-col", opts.cols.Chrom, "chromosome column name")
	f.StringVar(&opts.cols.Pos, "pos-col", opts.cols.Pos, "position column name")
	f.StringVar(&opts.cols.SNP, "snp-col", opts.cols.SNP, "variant name column")
	f.StringVar(&opts.cols.Ref, "ref-col", opts.cols.Ref, "reference allele column")
	f.StringVar(&opts.cols.Alt, "alt-col", opts.cols.Alt, "alternate allele column")
	f.StringVar(&opts.cols.P, "p-col", opts.cols.P, "p-value column")
	cmd.MarkFlagRequired("region")
	cmd.MarkFlagRequired("primary")

	return cmd
}

func runAlign(opts *alignOptions) error {
	build, err := locus.ParseBuild(opts.build)
	if err != nil {
		return err
	}

	primary, err := dataset.LoadFile(opts.primary, opts.cols)
	if err != nil {
		return err
	}
	uploads, err := loadUploads(opts.uploads, opts.cols)
	if err != nil {
		return err
	}

	ref, err := openReference()
	if err != nil {
		return err
	}
	defer ref.Close()

	engine, err := newEngine(ref, !opts.noStat)
	if err != nil {
		return err
	}

	res, err := engine.Run(pipeline.Request{
		Region:     opts.region,
		Build:      build,
		Population: opts.population,
		Primary:    primary,
		LeadSNP:    opts.lead,
		Tissues:    opts.tissues,
		Genes:      opts.genes,
		Uploads:    uploads,
	})
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// loadUploads reads [name=]path specs; the name defaults to the file name.
func loadUploads(specs []string, cols dataset.ColumnMap) ([]matrix.TableSource, error) {
	out := make([]matrix.TableSource, 0, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			path = spec
			name = filepath.Base(spec)
		}
		if name == "" || path == "" {
			return nil, failure.Userf(failure.KindInvalidInput, "invalid --upload %q; expected [name=]path", spec)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, failure.Userf(failure.KindInvalidInput, "secondary dataset %s: %v", name, err)
		}
		ds, err := dataset.LoadFile(path, cols)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		out = append(out, matrix.TableSource{Name: name, Data: ds})
	}
	return out, nil
}
