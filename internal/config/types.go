// Package config loads leapdml configuration from defaults, the project
// config file, LEAPDML_ environment variables and CLI flags.
package config

import (
	"github.com/leapstack-labs/leapdml/internal/catalog"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Config holds all leapdml configuration.
type Config struct {
	StatePath     string                         `koanf:"state_path"`
	User          string                         `koanf:"user"`
	DefaultSource string                         `koanf:"default_source"`
	Verbose       bool                           `koanf:"verbose"`
	OutputFormat  string                         `koanf:"output"`
	Options       core.Options                   `koanf:"options"`
	Access        catalog.AccessConfig           `koanf:"access"`
	Sources       []source.Config                `koanf:"sources"`
	Versions      map[string]core.VersionContext `koanf:"versions"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leapdml/state.db"
	DefaultUser      = "anonymous"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=yaml
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leapdml.yaml"
	ConfigFileNameAlt = "leapdml.yml"
)

// Session builds a planning session from the configured user, options,
// default source and version intents.
func (c *Config) Session() *core.Session {
	sess := core.NewSession(c.User, c.Options)
	sess.DefaultSource = c.DefaultSource
	for name, vc := range c.Versions {
		sess.SetVersion(name, vc)
	}
	return sess
}

// Source returns the configuration of the named source.
func (c *Config) Source(name string) (source.Config, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return source.Config{}, false
}
