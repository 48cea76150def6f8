package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigPath is picked up from the working directory when --config
// is not given.
const defaultConfigPath = ".solgraph.yaml"

// Config mirrors the flag surface so repeated invocations against the same
// project don't need the flags respelled.
type Config struct {
	Input  string `yaml:"input"`
	Format string `yaml:"format"`
	Strict bool   `yaml:"strict"`
	Serial bool   `yaml:"serial"`
}

// loadConfig reads the config file. An explicit --config path must exist;
// the default path is optional.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig fills flag values from the config file. Flags set on the
// command line win; config wins over defaults.
func applyConfig(cmd *cobra.Command) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("input") && cfg.Input != "" {
		flagInput = cfg.Input
	}
	if !flags.Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	if !flags.Changed("strict") && cfg.Strict {
		flagStrict = true
	}
	if !flags.Changed("serial") && cfg.Serial {
		flagSerial = true
	}
	return nil
}
