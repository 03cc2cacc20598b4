package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bftnet/internal/artifact"
)

// DefaultCount is the cluster size. The testbed runs a fixed four-node
// BFT cluster; the count is set at launch time and never changes for the
// life of the cluster.
const DefaultCount = 4

const DefaultDiscovery = "ips_file"

// Config is the YAML harness configuration. Every field has a working
// default so the harness runs without a config file at all.
type Config struct {
	Cluster struct {
		Count     int    `yaml:"count"`
		Variant   string `yaml:"variant"`
		TestDir   string `yaml:"test_dir"`
		BaseDir   string `yaml:"base_dir"`
		Binary    string `yaml:"binary"`
		Discovery string `yaml:"discovery"`
		// GraceSeconds bounds how long teardown waits after TERM
		// before escalating to KILL.
		GraceSeconds int `yaml:"grace_seconds"`
	} `yaml:"cluster"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Cluster.Count = DefaultCount
	cfg.Cluster.Variant = artifact.DefaultVariant
	cfg.Cluster.TestDir = artifact.DefaultTestDir
	cfg.Cluster.BaseDir = artifact.DefaultBaseDir
	cfg.Cluster.Binary = artifact.DefaultBinary
	cfg.Cluster.Discovery = DefaultDiscovery
	cfg.Cluster.GraceSeconds = 5
	cfg.History.Path = defaultHistoryPath()
	return cfg
}

// Load reads YAML configuration from a path. If path is empty, it resolves
// $XDG_CONFIG_HOME/bftnet/config.yaml or ~/.config/bftnet/config.yaml; a
// missing file at the resolved default is not an error and yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if path == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
		path = filepath.Join(base, "bftnet", "config.yaml")
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Cluster.Count <= 0 {
		cfg.Cluster.Count = DefaultCount
	}
	return cfg, nil
}

func defaultHistoryPath() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "bftnet", "history.db")
}
