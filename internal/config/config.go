// Package config loads the broker's settings file: data directory,
// listen addresses, and segment size limits, resolved via a
// CONFIG_DIR/$HOME convention.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the broker's settings file shape, loaded with gopkg.in/yaml.v3.
type Config struct {
	DataDir           string `yaml:"data_dir"`
	ListenAddr        string `yaml:"listen_addr"`
	MetricsListenAddr string `yaml:"metrics_listen_addr"`
	Segment           struct {
		MaxStoreBytes uint64 `yaml:"max_store_bytes"`
		MaxIndexBytes uint64 `yaml:"max_index_bytes"`
	} `yaml:"segment"`
}

const (
	defaultListenAddr = "localhost:8000"
	defaultDataDirName = "data"
)

// Default returns a Config with the broker's built-in defaults: listen on
// localhost:8000, metrics disabled, data under the resolved config
// directory's "data" subdirectory.
func Default() Config {
	var c Config
	c.ListenAddr = defaultListenAddr
	c.DataDir = filepath.Join(configDir(), defaultDataDirName)
	return c
}

// Load reads a YAML settings file from path, starting from Default() so
// any field the file omits keeps its built-in value.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// DefaultPath resolves the broker's config file path: "config.yaml" under
// $CONFIG_DIR if set, otherwise under "$HOME/.gobroker".
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".gobroker"
	}
	return filepath.Join(homeDir, ".gobroker")
}
