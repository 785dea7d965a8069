package ld

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/locusalign/internal/locus"
)

// Panel points at one PLINK binary fileset of the reference panel. KeepFile,
// when set, restricts the fileset to one population's samples.
type Panel struct {
	Prefix   string
	KeepFile string
}

// PanelLocator resolves (build, population, chromosome) to a Panel under
// Root. Two layouts are recognised:
//
//	{root}/{build}/{pop}/chr{chrom}.bed|bim|fam
//	{root}/{build}/chr{chrom}.bed|bim|fam plus {root}/{build}/{pop}.keep
type PanelLocator struct {
	Root string
}

// Locate finds the panel for a population and chromosome.
func (l PanelLocator) Locate(build locus.Build, population string, chrom int) (Panel, error) {
	pop := strings.ToUpper(strings.TrimSpace(population))
	if pop == "" {
		return Panel{}, fmt.Errorf("locate panel: empty population")
	}
	buildDir := filepath.Join(l.Root, build.String())
	name := "chr" + locus.ChromName(chrom)

	keep := filepath.Join(buildDir, pop+".keep")
	if fileExists(keep) {
		p := Panel{Prefix: filepath.Join(buildDir, name), KeepFile: keep}
		if !fileExists(p.Prefix + ".bim") {
			return Panel{}, fmt.Errorf("locate panel: %s.bim not found", p.Prefix)
		}
		return p, nil
	}

	p := Panel{Prefix: filepath.Join(buildDir, pop, name)}
	if !fileExists(p.Prefix + ".bim") {
		return Panel{}, fmt.Errorf("locate panel: no reference panel for population %s on %s (%s)", pop, name, build)
	}
	return p, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
