// Package memory provides a source whose tables are declared in
// configuration. It is useful for demos and tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

// TypeName is the registered source type.
const TypeName = "memory"

func init() {
	source.Register(TypeName, func(deps source.Deps) source.Source { return New(deps.Logger) })
}

// Source serves configured tables. It is read-only after Open.
type Source struct {
	name   string
	logger *slog.Logger
	tables map[string]core.TableDef
}

// New creates a new memory source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{logger: logger}
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// Type returns the registered source type.
func (s *Source) Type() string { return TypeName }

// SupportsVersioning reports false.
func (s *Source) SupportsVersioning() bool { return false }

// Open loads the declared tables.
func (s *Source) Open(_ context.Context, cfg source.Config) error {
	tables := make(map[string]core.TableDef, len(cfg.Tables))
	for _, t := range cfg.Tables {
		def, err := t.Def(cfg.Name)
		if err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		if def.Format == "" {
			def.Format = cfg.TableFormat()
		}
		key := strings.ToLower(def.Path.String())
		if _, dup := tables[key]; dup {
			return fmt.Errorf("table %s declared more than once", def.Path)
		}
		tables[key] = def
	}

	s.name = cfg.Name
	s.tables = tables
	s.logger.Debug("opened memory source", "source", cfg.Name, "tables", len(tables))
	return nil
}

// Lookup returns the declared table at path.
func (s *Source) Lookup(_ context.Context, path core.TablePath) (*core.ResolvedTarget, error) {
	def, ok := s.tables[strings.ToLower(path.String())]
	if !ok {
		return nil, nil
	}
	return source.ToTarget(s.name, &def), nil
}

// Ping always succeeds.
func (s *Source) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Source) Close() error { return nil }

var _ source.Source = (*Source)(nil)
