package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Current returns the typed configuration held by the global viper instance,
// as populated by Init and any flag overrides. The result is validated.
func Current() (*Config, error) {
	return unmarshalConfig(viper.GetViper())
}

// LoadFromPath reads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(ExpandPath(path))
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from %s; %w", path, err)
	}

	return unmarshalConfig(v)
}

// unmarshalConfig converts viper config to typed Config struct.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}
	if cfg.Disassemble.UniqueIDElements == nil {
		cfg.Disassemble.UniqueIDElements = []string{}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
