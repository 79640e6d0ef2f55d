// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads a node's YAML configuration, overridable by
// RINGMESH_* environment variables, in a load-then-override shape
// (LoadFromFile fills defaults, then env.go's override pass applies).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level node configuration.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Node        *NodeConfig     `yaml:"node" json:"node"`
	Chord       *ChordConfig    `yaml:"chord" json:"chord"`
	Transport   *TransportConfig `yaml:"transport" json:"transport"`
	Session     *SessionConfig  `yaml:"session" json:"session"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// NodeConfig identifies this node and where its key material lives.
type NodeConfig struct {
	// KeyFile holds a hex-encoded secp256k1 secret key; an ephemeral key is
	// generated if empty, and a fresh key is generated and written there if
	// the file does not exist.
	KeyFile string `yaml:"key_file" json:"key_file"`
}

// ChordConfig tunes ring membership and maintenance.
type ChordConfig struct {
	// SuccessorListSize bounds the successor list (K).
	SuccessorListSize int `yaml:"successor_list_size" json:"successor_list_size"`
	// StabilizeInterval is the stabilization tick period.
	StabilizeInterval time.Duration `yaml:"stabilize_interval" json:"stabilize_interval"`
	// BootstrapPeer is a "did@host:port" pair to join through; empty starts
	// a fresh single-node ring.
	BootstrapPeer string `yaml:"bootstrap_peer" json:"bootstrap_peer"`
}

// TransportConfig configures the websocket transport listener.
type TransportConfig struct {
	ListenAddr   string        `yaml:"listen_addr" json:"listen_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// SessionConfig tunes session/message TTL defaults.
type SessionConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile loads configuration from a YAML or JSON file, filling in
// defaults and applying RINGMESH_* environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing YAML or JSON by the
// path's extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// ApplyDefaults fills in every section's zero values; exported for callers
// building a Config in-process rather than loading one from disk.
func ApplyDefaults(cfg *Config) {
	setDefaults(cfg)
}

// setDefaults fills in every section's zero values.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Node == nil {
		cfg.Node = &NodeConfig{}
	}
	if cfg.Chord == nil {
		cfg.Chord = &ChordConfig{}
	}
	if cfg.Chord.SuccessorListSize == 0 {
		cfg.Chord.SuccessorListSize = 3
	}
	if cfg.Chord.StabilizeInterval == 0 {
		cfg.Chord.StabilizeInterval = 5 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = &TransportConfig{}
	}
	if cfg.Transport.ListenAddr == "" {
		cfg.Transport.ListenAddr = ":7946"
	}
	if cfg.Transport.ReadTimeout == 0 {
		cfg.Transport.ReadTimeout = 60 * time.Second
	}
	if cfg.Transport.WriteTimeout == 0 {
		cfg.Transport.WriteTimeout = 10 * time.Second
	}
	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.DefaultTTL == 0 {
		cfg.Session.DefaultTTL = time.Hour
	}
	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
