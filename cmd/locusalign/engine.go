package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/inodb/locusalign/internal/ld"
	"github.com/inodb/locusalign/internal/pipeline"
	"github.com/inodb/locusalign/internal/refdata"
	"github.com/inodb/locusalign/internal/stattest"
	"github.com/inodb/locusalign/internal/variant"
)

// openReference opens the configured reference database and panel layout.
func openReference() (*refdata.ReferenceData, error) {
	ref, err := refdata.OpenReferenceData(viper.GetString(keyReferenceDB), viper.GetString(keyPanelsDir))
	if err != nil {
		return nil, err
	}
	logger.Debug("opened reference data")
	return ref, nil
}

func newStandardizer(ref *refdata.ReferenceData) *variant.Standardizer {
	std := variant.NewStandardizer(ref.Store, ref.Store)
	std.SetLogger(logger.Named("standardize"))
	return std
}

// newEngine wires the pipeline from configuration. withStat false skips the
// statistic.
func newEngine(ref *refdata.ReferenceData, withStat bool) (*pipeline.Engine, error) {
	workDir := viper.GetString(keyWorkDir)
	if workDir == "" {
		return nil, fmt.Errorf("%s is not set", keyWorkDir)
	}

	plink := ld.NewPlink(viper.GetString(keyPlink), workDir)
	plink.SetLogger(logger.Named("plink"))
	acq := ld.NewAcquirer(plink, ref.Panels)
	acq.SetLogger(logger.Named("ld"))

	var stat stattest.Tool
	if withStat {
		script := viper.GetString(keyStatScript)
		if script == "" {
			return nil, fmt.Errorf("%s is not set; configure it or pass --no-stat", keyStatScript)
		}
		r := stattest.NewRscript(viper.GetString(keyRscript), script)
		r.SetLogger(logger.Named("stat"))
		stat = r
	}

	e := pipeline.NewEngine(pipeline.Config{
		WorkDir: workDir,
		Workers: viper.GetInt(keyWorkers),
	}, newStandardizer(ref), ref.Store, acq, stat)
	e.SetLogger(logger.Named("pipeline"))
	return e, nil
}
