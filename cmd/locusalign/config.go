package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/locusalign/internal/failure"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage locusalign configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".",
		Example: `  locusalign config                                  # show all config
  locusalign config set tools.stat_script ~/coloc/stat.R  # set the statistic script
  locusalign config get panels.dir                        # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

var knownKeys = []string{
	keyReferenceDB, keyPanelsDir, keyPlink, keyRscript, keyStatScript, keyWorkers, keyWorkDir,
}

func checkKey(key string) error {
	for _, k := range knownKeys {
		if k == key {
			return nil
		}
	}
	return failure.Userf(failure.KindInvalidInput, "unknown config key %q (known: %s)", key, strings.Join(knownKeys, ", "))
}

func configPath() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName), nil
}

func runConfigShow() error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if key == keyWorkers {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return failure.Userf(failure.KindInvalidInput, "%s must be a non-negative integer, got %q", key, value)
		}
		viper.Set(key, n)
	} else {
		viper.Set(key, value)
	}

	cfgFile, err := configPath()
	if err != nil {
		return err
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	fmt.Println(viper.Get(key))
	return nil
}
