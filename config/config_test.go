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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "node.yaml")

	content := `environment: production
node:
  key_file: /etc/ringmesh/node.key
chord:
  successor_list_size: 5
  stabilize_interval: 10s
transport:
  listen_addr: "0.0.0.0:7946"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "/etc/ringmesh/node.key", cfg.Node.KeyFile)
	assert.Equal(t, 5, cfg.Chord.SuccessorListSize)
	assert.Equal(t, 10*time.Second, cfg.Chord.StabilizeInterval)
	assert.Equal(t, "0.0.0.0:7946", cfg.Transport.ListenAddr)

	// Untouched sections still pick up defaults.
	assert.Equal(t, time.Hour, cfg.Session.DefaultTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadFromFileJSONFallback(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "node.conf")

	content := `{"environment":"staging","chord":{"successor_list_size":4}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 4, cfg.Chord.SuccessorListSize)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "round-trip.yaml")

	cfg := &Config{Environment: "test"}
	setDefaults(cfg)
	cfg.Node.KeyFile = "node.key"

	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Node.KeyFile, loaded.Node.KeyFile)
	assert.Equal(t, cfg.Chord.SuccessorListSize, loaded.Chord.SuccessorListSize)
}

func TestSaveToFileJSONExtension(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "node.json")

	cfg := &Config{}
	setDefaults(cfg)
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Transport.ListenAddr, loaded.Transport.ListenAddr)
}

func TestSetDefaultsFillsEverySection(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3, cfg.Chord.SuccessorListSize)
	assert.Equal(t, 5*time.Second, cfg.Chord.StabilizeInterval)
	assert.Equal(t, ":7946", cfg.Transport.ListenAddr)
	assert.Equal(t, 60*time.Second, cfg.Transport.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Transport.WriteTimeout)
	assert.Equal(t, time.Hour, cfg.Session.DefaultTTL)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestSetDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Chord: &ChordConfig{SuccessorListSize: 7},
	}
	setDefaults(cfg)
	assert.Equal(t, 7, cfg.Chord.SuccessorListSize)
}
