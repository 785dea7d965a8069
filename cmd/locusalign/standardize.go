package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/locusalign/internal/locus"
)

func newStandardizeCmd() *cobra.Command {
	var region, build string

	cmd := &cobra.Command{
		Use:   "standardize [variant...]",
		Short: "Resolve variant names to canonical IDs within a region",
		Long: `Resolve rsIDs, chrom_pos[_ref_alt] and chrom_pos_ref_alt_build names against
the reference database. Names are read from the arguments, or one per line
from stdin when none are given. Output is name<TAB>canonical per line; "."
marks names that could not be resolved.`,
		Example: `  locusalign standardize --region 1:205500000-205700000 rs100 1:205600010_C
  cut -f3 gwas.tsv | locusalign standardize -r 1:205500000-205700000 -b hg38`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandardize(region, build, args)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "region as chrom:start-end (required)")
	cmd.Flags().StringVarP(&build, "build", "b", "hg19", "genome build: hg19 or hg38")
	cmd.MarkFlagRequired("region")

	return cmd
}

func runStandardize(region, buildName string, tokens []string) error {
	build, err := locus.ParseBuild(buildName)
	if err != nil {
		return err
	}
	loc, err := locus.Parse(region, build)
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				tokens = append(tokens, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	ref, err := openReference()
	if err != nil {
		return err
	}
	defer ref.Close()

	ids, err := newStandardizer(ref).Standardize(tokens, loc)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	for i, id := range ids {
		fmt.Fprintf(w, "%s\t%s\n", tokens[i], id.Display())
	}
	return w.Flush()
}
