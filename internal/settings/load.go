package settings

import (
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"
)

// Load parses YAML bytes into Settings and validates them.
func Load(data []byte) (*Settings, error) {
	var cfg Settings
	if err := yaml.Load(data, &cfg, yaml.WithKnownFields()); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Duration parses a settings duration string, falling back to def when
// the value is empty or malformed.
func Duration(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
