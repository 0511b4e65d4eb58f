// Package config carries the paths and tuning knobs the binaries share.
// Values come from flags (or matching environment variables), optionally
// overlaid on a YAML file named by -config.
package config

import (
	"fmt"
	"os"

	"github.com/namsral/flag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath     string  `yaml:"db_path"`
	IndexPath  string  `yaml:"index_path"`
	TTFraction float64 `yaml:"tt_fraction"`
	LogLevel   string  `yaml:"log_level"`
}

// Load parses args into the config. A -config YAML file, when given, is read
// first; explicit flags win over file values, which win over the defaults.
func (c *Config) Load(args []string) error {
	var configPath string
	fs := flag.NewFlagSet("collapsi", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "optional YAML config file")
	fs.StringVar(&c.DBPath, "db-path", "./data/solved.db", "solved-position store file")
	fs.StringVar(&c.IndexPath, "index-path", "./data/positions.idx", "position index file")
	fs.Float64Var(&c.TTFraction, "tt-fraction", 0.01, "fraction of system memory for the solver memo table")
	fs.StringVar(&c.LogLevel, "log-level", "info", "zerolog level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if configPath == "" {
		return nil
	}
	if err := c.overlayFile(configPath); err != nil {
		return err
	}
	// re-parse so explicit flags beat the file
	return fs.Parse(args)
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
