package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tilesave configuration file
// (~/.config/tilesave/config.yaml or config.toml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// Saving
	Compression *string `yaml:"compression" toml:"compression"`
	Level       *int64  `yaml:"level" toml:"level"`

	// Loading
	MaxElements  *int64 `yaml:"max_elements" toml:"max_elements"`
	MaxStringLen *int64 `yaml:"max_string" toml:"max_string"`

	// Store and server
	StoreDir      string `yaml:"store_dir" toml:"store_dir"`
	ServerAddress string `yaml:"server_address" toml:"server_address"`
	DownloadRate  *int64 `yaml:"download_rate" toml:"download_rate"`
	MaxUpload     *int64 `yaml:"max_upload" toml:"max_upload"`

	// Remote
	RemoteURL string `yaml:"remote_url" toml:"remote_url"`
}

// configPaths lists the default locations in lookup order.
func configPaths() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(dir, "tilesave")
	return []string{filepath.Join(base, "config.yaml"), filepath.Join(base, "config.toml")}
}

// LoadConfig reads the config file at path, or the first default location that
// exists when path is empty. A missing default file yields a zero Config; a
// missing explicit file is an error.
func LoadConfig(path string) (Config, error) {
	candidates := []string{path}
	if path == "" {
		candidates = configPaths()
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) && path == "" {
			continue
		}
		if err != nil {
			return Config{}, err
		}
		return parseConfig(p, data)
	}
	return Config{}, nil
}

func parseConfig(path string, data []byte) (Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config %s: unknown format", path)
	}
	return cfg, nil
}

// applyGlobalConfig applies config file defaults to the root flags when the
// corresponding flag was not explicitly set.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyLimitConfig applies config file defaults to the load limit flags.
func applyLimitConfig(c *cli.Command, cfg Config) {
	if cfg.MaxElements != nil && !c.IsSet("max-elements") {
		maxElements = *cfg.MaxElements
	}
	if cfg.MaxStringLen != nil && !c.IsSet("max-string") {
		maxStringLen = *cfg.MaxStringLen
	}
}

// applySaveConfig applies config file defaults to the output flags.
func applySaveConfig(c *cli.Command, cfg Config, f *saveFlags) {
	if cfg.Compression != nil && !c.IsSet("compression") {
		f.compression = *cfg.Compression
	}
	if cfg.Level != nil && !c.IsSet("level") {
		f.level = *cfg.Level
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, dir, addr *string, rate, maxUpload *int64) {
	if cfg.StoreDir != "" && !c.IsSet("dir") {
		*dir = cfg.StoreDir
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.DownloadRate != nil && !c.IsSet("download-rate") {
		*rate = *cfg.DownloadRate
	}
	if cfg.MaxUpload != nil && !c.IsSet("max-upload") {
		*maxUpload = *cfg.MaxUpload
	}
}
