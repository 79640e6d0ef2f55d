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

package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// envVarPattern matches ${VAR} or ${VAR:default}
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment variable values
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// SubstituteEnvVarsInConfig recursively substitutes environment variables in config
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Node != nil {
		cfg.Node.KeyFile = SubstituteEnvVars(cfg.Node.KeyFile)
	}
	if cfg.Chord != nil {
		cfg.Chord.BootstrapPeer = SubstituteEnvVars(cfg.Chord.BootstrapPeer)
	}
	if cfg.Transport != nil {
		cfg.Transport.ListenAddr = SubstituteEnvVars(cfg.Transport.ListenAddr)
	}
	if cfg.Logging != nil {
		cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
		cfg.Logging.Format = SubstituteEnvVars(cfg.Logging.Format)
		cfg.Logging.Output = SubstituteEnvVars(cfg.Logging.Output)
	}
	if cfg.Metrics != nil {
		cfg.Metrics.Addr = SubstituteEnvVars(cfg.Metrics.Addr)
		cfg.Metrics.Path = SubstituteEnvVars(cfg.Metrics.Path)
	}
}

// applyEnvOverrides lets RINGMESH_* environment variables win over whatever
// setDefaults and the file already filled in.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RINGMESH_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("RINGMESH_NODE_KEY_FILE"); v != "" {
		cfg.Node.KeyFile = v
	}
	if v := os.Getenv("RINGMESH_CHORD_BOOTSTRAP_PEER"); v != "" {
		cfg.Chord.BootstrapPeer = v
	}
	if v := os.Getenv("RINGMESH_CHORD_SUCCESSOR_LIST_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chord.SuccessorListSize = n
		}
	}
	if v := os.Getenv("RINGMESH_CHORD_STABILIZE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Chord.StabilizeInterval = d
		}
	}
	if v := os.Getenv("RINGMESH_TRANSPORT_LISTEN_ADDR"); v != "" {
		cfg.Transport.ListenAddr = v
	}
	if v := os.Getenv("RINGMESH_SESSION_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.DefaultTTL = d
		}
	}
	if v := os.Getenv("RINGMESH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RINGMESH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RINGMESH_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("RINGMESH_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// GetEnvironment returns the current environment from RINGMESH_ENV or
// defaults to development.
func GetEnvironment() string {
	env := os.Getenv("RINGMESH_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction returns true if running in production environment
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment returns true if running in development or local environment
func IsDevelopment() bool {
	env := GetEnvironment()
	return env == "development" || env == "local"
}
