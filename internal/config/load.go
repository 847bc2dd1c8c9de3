// Package config loads docmap configuration files.
//
// The format is chosen by extension: ".yaml"/".yml" (YAML), ".json" (JSON)
// or ".hcl" (HCL). Loading applies defaults and then validates, collecting
// every problem into one ValidationError.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/docmap/api"
	"github.com/goccy/go-json"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*api.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}
	cfg, err := Decode(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}
	if cfg.ChainDir == "" {
		cfg.ChainDir = filepath.Dir(path)
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses data in the format implied by name's extension, without
// applying defaults.
func Decode(name string, data []byte) (*api.Config, error) {
	var cfg api.Config
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case ".hcl":
		if err := hclsimple.Decode(name, data, nil, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", filepath.Ext(name))
	}
	return &cfg, nil
}
