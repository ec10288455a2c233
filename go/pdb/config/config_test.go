/*
Copyright 2022 The Polypheny Project

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	cfg := RouterFromViper(v)
	require.Equal(t, DefaultRouter(), cfg)
}

func TestFlagOverride(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, v)
	require.NoError(t, fs.Parse([]string{
		"--router-scan-cache-capacity=10",
		"--router-strategies=single",
		"--router-freshness-enabled=false",
	}))

	cfg := RouterFromViper(v)
	require.Equal(t, int64(10), cfg.ScanCacheCapacity)
	require.Equal(t, []string{"single"}, cfg.Strategies)
	require.False(t, cfg.FreshnessEnabled)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router:\n  scan-cache-capacity: 42\n"), 0o644))

	v, err := New(path)
	require.NoError(t, err)

	cfg := RouterFromViper(v)
	require.Equal(t, int64(42), cfg.ScanCacheCapacity)
	// Unset keys keep their defaults.
	require.Equal(t, DefaultRouter().Strategies, cfg.Strategies)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
