package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates an unopened source.
type Factory func(deps Deps) Source

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a source factory to the registry.
// Called by source implementations in their init() functions.
func Register(typ string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typ] = factory
}

// Get retrieves a source factory by type.
func Get(typ string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[typ]
	return f, ok
}

// New creates an unopened source instance based on config type.
func New(cfg Config, deps Deps) (Source, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("source type not specified")
	}

	factory, ok := Get(strings.ToLower(cfg.Type))
	if !ok {
		return nil, &UnknownTypeError{
			Type:      cfg.Type,
			Available: ListTypes(),
		}
	}
	return factory(deps), nil
}

// Open creates and opens a source.
func Open(ctx context.Context, cfg Config, deps Deps) (Source, error) {
	src, err := New(cfg, deps)
	if err != nil {
		return nil, err
	}
	if err := src.Open(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", cfg.Name, err)
	}
	return src, nil
}

// ListTypes returns all registered source types (sorted).
func ListTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a source type is registered.
func IsRegistered(typ string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[typ]
	return ok
}

// UnknownTypeError is returned when an unknown source type is requested.
type UnknownTypeError struct {
	Type      string
	Available []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown source type %q\nAvailable source types: %v\nHint: Check sources[].type in leapdml.yaml", e.Type, e.Available)
}
