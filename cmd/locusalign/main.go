// Package main provides the locusalign command-line tool.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/locusalign/internal/failure"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config keys.
const (
	keyReferenceDB = "reference.db"
	keyPanelsDir   = "panels.dir"
	keyPlink       = "tools.plink"
	keyRscript     = "tools.rscript"
	keyStatScript  = "tools.stat_script"
	keyWorkers     = "workers"
	keyWorkDir     = "work_dir"
)

const configName = ".locusalign.yaml"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		writeError(err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locusalign",
		Short: "Align GWAS, eQTL and uploaded summary statistics onto one SNP set",
		Long: `locusalign standardizes variant identifiers, subsets summary statistics to a
genomic region, reconciles the lead SNP against an LD reference panel and
writes an aligned p-value matrix for colocalization testing.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/"+configName+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.String("reference-db", "", "reference DuckDB database")
	pf.String("panels", "", "LD reference panel directory")
	pf.String("work-dir", "", "directory for per-request output")
	pf.Int("workers", 0, "parallel workers for secondary datasets (0 = all CPUs)")
	viper.BindPFlag(keyReferenceDB, pf.Lookup("reference-db"))
	viper.BindPFlag(keyPanelsDir, pf.Lookup("panels"))
	viper.BindPFlag(keyWorkDir, pf.Lookup("work-dir"))
	viper.BindPFlag(keyWorkers, pf.Lookup("workers"))

	root.AddCommand(newAlignCmd())
	root.AddCommand(newStandardizeCmd())
	root.AddCommand(newRefCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig reads ~/.locusalign.yaml (or --config) and LOCUSALIGN_* env vars.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".locusalign")

	viper.SetDefault(keyReferenceDB, filepath.Join(dataDir, "reference.duckdb"))
	viper.SetDefault(keyPanelsDir, filepath.Join(dataDir, "panels"))
	viper.SetDefault(keyPlink, "plink")
	viper.SetDefault(keyRscript, "Rscript")
	viper.SetDefault(keyStatScript, "")
	viper.SetDefault(keyWorkers, 0)
	viper.SetDefault(keyWorkDir, filepath.Join(os.TempDir(), "locusalign"))

	viper.SetEnvPrefix("LOCUSALIGN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.SetConfigName(strings.TrimSuffix(configName, ".yaml"))
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// newLogger builds a stderr logger; verbose switches to the development
// encoder at debug level.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l, nil
}

// writeError prints the boundary error payload as JSON on stdout.
func writeError(err error) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(failure.Payload(err)); encErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
