// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Generate GenerateConfig `toml:"generate"`
	Selftest SelftestConfig `toml:"selftest"`
}

// GenerateConfig maps header generation settings.
type GenerateConfig struct {
	HeaderFile *string `toml:"headerfile" env:"CHI2PLOOKUP_HEADERFILE"`
	Precision  *int    `toml:"precision" env:"CHI2PLOOKUP_PRECISION"`
	DF         *int    `toml:"df" env:"CHI2PLOOKUP_DF"`
	StartChi   *int    `toml:"start_chi" env:"CHI2PLOOKUP_START_CHI"`
	Verbose    *bool   `toml:"verbose" env:"CHI2PLOOKUP_VERBOSE"`
}

// SelftestConfig maps compiler settings for the header self-test.
type SelftestConfig struct {
	Compiler *string  `toml:"cxx" env:"CHI2PLOOKUP_CXX"`
	Flags    []string `toml:"cxxflags" env:"CHI2PLOOKUP_CXXFLAGS" envSeparator:" "`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load reads the TOML file at path and then applies CHI2PLOOKUP_* environment
// overrides on top of it.
func Load(path string) (FileConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return FileConfig{}, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}
