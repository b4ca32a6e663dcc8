package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/correlator-io/patchkit"
)

// fileConfig mirrors patchkit.Config for optional YAML overrides, per the
// DOMAIN STACK decision to keep gopkg.in/yaml.v3 for patchctl's env-first,
// file-optional configuration style.
type fileConfig struct {
	AllowDDL         *bool   `yaml:"allow_ddl"`
	MaxBytes         *int64  `yaml:"max_bytes"`
	MaxActions       *int    `yaml:"max_actions"`
	PerActionTimeout *string `yaml:"per_action_timeout"`
	TotalTimeout     *string `yaml:"total_timeout"`
	VerifyHash       *bool   `yaml:"verify_hash"`
	ChecksInReadTx   *bool   `yaml:"checks_in_read_tx"`
}

// loadConfig builds a patchkit.Config from PATCHKIT_* environment variables,
// then overlays path's YAML contents on top when path is non-empty.
func loadConfig(path string) (patchkit.Config, error) {
	cfg := patchkit.FromEnv()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("patchctl: read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("patchctl: parse config file %s: %w", path, err)
	}

	if fc.AllowDDL != nil {
		cfg.AllowDDL = *fc.AllowDDL
	}

	if fc.MaxBytes != nil {
		cfg.MaxBytes = *fc.MaxBytes
	}

	if fc.MaxActions != nil {
		cfg.MaxActions = *fc.MaxActions
	}

	if fc.PerActionTimeout != nil {
		d, err := time.ParseDuration(*fc.PerActionTimeout)
		if err != nil {
			return cfg, fmt.Errorf("patchctl: parse per_action_timeout: %w", err)
		}

		cfg.PerActionTimeout = d
	}

	if fc.TotalTimeout != nil {
		d, err := time.ParseDuration(*fc.TotalTimeout)
		if err != nil {
			return cfg, fmt.Errorf("patchctl: parse total_timeout: %w", err)
		}

		cfg.TotalTimeout = d
	}

	if fc.VerifyHash != nil {
		cfg.VerifyHash = *fc.VerifyHash
	}

	if fc.ChecksInReadTx != nil {
		cfg.ChecksInReadTx = *fc.ChecksInReadTx
	}

	return cfg, nil
}
