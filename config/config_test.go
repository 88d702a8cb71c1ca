package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 0, cfg.ArenaCapacityHint)
	require.False(t, cfg.QuietUnknownSections)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	src := struct {
		LogLevel             string `yaml:"log_level"`
		ArenaCapacityHint    int    `yaml:"arena_capacity_hint"`
		QuietUnknownSections bool   `yaml:"quiet_unknown_sections"`
	}{
		LogLevel:             "debug",
		ArenaCapacityHint:    4096,
		QuietUnknownSections: true,
	}
	b, err := yaml.Marshal(src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wazerocoredump.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 4096, cfg.ArenaCapacityHint)
	require.True(t, cfg.QuietUnknownSections)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
