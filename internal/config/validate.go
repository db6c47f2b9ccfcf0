package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdml/internal/source"
)

var validOutputs = []string{"auto", "text", "yaml", "json"}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if !isValidOutput(c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.OutputFormat, strings.Join(validOutputs, ", "))
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("sources[%d]: source %s configured more than once", i, s.Name)
		}
		seen[key] = true

		if s.Type == "" {
			return fmt.Errorf("source %s: type is required", s.Name)
		}
		if !source.IsRegistered(s.Type) {
			return fmt.Errorf("source %s: %w", s.Name, &source.UnknownTypeError{Type: s.Type, Available: source.ListTypes()})
		}
	}

	if c.DefaultSource != "" && !seen[strings.ToLower(c.DefaultSource)] {
		return fmt.Errorf("default_source %s is not a configured source", c.DefaultSource)
	}
	for name := range c.Versions {
		if !seen[strings.ToLower(name)] {
			return fmt.Errorf("versions: %s is not a configured source", name)
		}
	}
	return nil
}

func isValidOutput(mode string) bool {
	for _, m := range validOutputs {
		if strings.EqualFold(mode, m) {
			return true
		}
	}
	return false
}
