// Package config loads the CLI's runtime configuration: log level, arena sizing hints, and whether to log skipped
// sections. Grounded on the viper-based loader the corpus uses for server configuration.
package config

import (
	"github.com/spf13/viper"
)

// Config controls dump/decode behavior that doesn't belong on the command line itself.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// ArenaCapacityHint sizes the decode Arena's initial slab capacity; see decode.WithArenaCapacityHint.
	ArenaCapacityHint int `mapstructure:"arena_capacity_hint"`

	// QuietUnknownSections suppresses the info-level log line DecodeModule emits for each skipped section.
	QuietUnknownSections bool `mapstructure:"quiet_unknown_sections"`
}

// Load reads configuration from configPath if non-empty, falling back to defaults otherwise. Missing optional
// fields in the file are filled from the defaults set below.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("arena_capacity_hint", 0)
	v.SetDefault("quiet_unknown_sections", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
