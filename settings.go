// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings are the optional installer settings from a YAML file. Command line
// flags and environment variables take precedence.
type Settings struct {
	BinDir           string `yaml:"binDir"`
	EngineURL        string `yaml:"engineURL"`
	EngineSHA256     string `yaml:"engineSHA256"`
	ExtrasURL        string `yaml:"extrasURL"`
	ExtrasSHA256     string `yaml:"extrasSHA256"`
	DescriptorPolicy string `yaml:"descriptorPolicy"`
	StorageDriver    string `yaml:"storageDriver"`
	SkipIptables     bool   `yaml:"skipIptables"`
	Enable           bool   `yaml:"enable"`
}

// DefaultSettingsPath returns the path of the settings file in the specified
// home directory.
func DefaultSettingsPath(home string) string {
	return filepath.Join(home, ".config", "turtlenest", "config.yaml")
}

// LoadSettings reads the settings from the YAML file at the specified path. A
// missing file isn't an error and results in empty settings.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read settings %s, reason: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("cannot parse settings %s, reason: %w", path, err)
	}
	if _, err := ParseDescriptorPolicy(s.DescriptorPolicy); err != nil {
		return nil, fmt.Errorf("invalid settings %s, reason: %w", path, err)
	}
	return s, nil
}
