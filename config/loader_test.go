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
)

func TestLoadFallsBackToDefaultsWhenNoFilePresent(t *testing.T) {
	cfg, err := Load(LoaderOptions{
		ConfigDir:      t.TempDir(),
		Environment:    "development",
		SkipValidation: true,
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Chord.SuccessorListSize != 3 {
		t.Errorf("SuccessorListSize = %d, want 3", cfg.Chord.SuccessorListSize)
	}
}

func TestLoadForEnvironmentVariants(t *testing.T) {
	for _, env := range []string{"development", "staging", "production", "local"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(LoaderOptions{
				ConfigDir:      t.TempDir(),
				Environment:    env,
				SkipValidation: true,
			})
			if err != nil {
				t.Fatalf("failed to load %s config: %v", env, err)
			}
			if cfg.Environment != env {
				t.Errorf("Environment = %q, want %q", cfg.Environment, env)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("RINGMESH_LOG_LEVEL", "debug")
	os.Setenv("RINGMESH_TRANSPORT_LISTEN_ADDR", ":9999")
	defer os.Unsetenv("RINGMESH_LOG_LEVEL")
	defer os.Unsetenv("RINGMESH_TRANSPORT_LISTEN_ADDR")

	cfg, err := Load(LoaderOptions{
		ConfigDir:      t.TempDir(),
		Environment:    "development",
		SkipValidation: true,
	})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Transport.ListenAddr != ":9999" {
		t.Errorf("Transport.ListenAddr = %q, want %q", cfg.Transport.ListenAddr, ":9999")
	}
}

func TestLoadPicksUpEnvironmentSpecificFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.yaml")

	testConfig := `
environment: test
logging:
  level: warn
  format: json
`
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(LoaderOptions{
		ConfigDir:      tmpDir,
		Environment:    "test",
		SkipValidation: true,
	})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestDefaultLoaderOptions(t *testing.T) {
	opts := DefaultLoaderOptions()

	if opts.ConfigDir != "config" {
		t.Errorf("ConfigDir = %q, want %q", opts.ConfigDir, "config")
	}
	if opts.SkipEnvSubstitution {
		t.Error("SkipEnvSubstitution should be false by default")
	}
	if opts.SkipValidation {
		t.Error("SkipValidation should be false by default")
	}
}

func TestMustLoadPanicsOnInvalidConfig(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustLoad to panic on an invalid chord config")
		}
	}()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "development.yaml")
	bad := "chord:\n  stabilize_interval: -5s\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	MustLoad(LoaderOptions{ConfigDir: tmpDir, Environment: "development"})
}
