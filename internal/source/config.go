package source

import (
	"strings"

	"github.com/leapstack-labs/leapdml/pkg/core"
)

// Config holds the configuration of one source.
type Config struct {
	Name string `koanf:"name"`
	Type string `koanf:"type"` // memory, postgres, duckdb, lakehouse

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"` // database name, or file path for duckdb
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`

	// Format is the storage format reported for tables of SQL sources.
	Format string `koanf:"format"`

	// DefaultBranch is the branch a versioned source resolves to when the
	// session names no version.
	DefaultBranch string `koanf:"default_branch"`

	// Partitions maps a relative table path to its partition columns, for
	// SQL sources whose catalogs do not expose partitioning.
	Partitions map[string][]string `koanf:"partitions"`

	// Tables declares the tables of a memory source.
	Tables []TableConfig `koanf:"tables"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds source-specific configuration (e.g. DuckDB settings)
	Params map[string]any `koanf:"params"`
}

// TableConfig declares one table of a memory source.
type TableConfig struct {
	Name    string         `koanf:"name" yaml:"name"`
	Kind    string         `koanf:"kind" yaml:"kind"`
	Format  string         `koanf:"format" yaml:"format"`
	Columns []ColumnConfig `koanf:"columns" yaml:"columns"`
}

// ColumnConfig declares one column of a configured table.
type ColumnConfig struct {
	Name      string `koanf:"name" yaml:"name"`
	Type      string `koanf:"type" yaml:"type"`
	Partition bool   `koanf:"partition" yaml:"partition"`
}

// Def converts a table declaration into a table definition under source.
func (t TableConfig) Def(source string) (core.TableDef, error) {
	rel, err := core.ParsePath(t.Name)
	if err != nil {
		return core.TableDef{}, err
	}

	def := core.TableDef{
		Path:   append(core.NewTablePath(source), rel...),
		Kind:   core.TableKind(strings.ToLower(t.Kind)),
		Format: core.TableFormat(strings.ToLower(t.Format)),
	}
	if def.Kind == "" {
		def.Kind = core.TableKindTable
	}
	for _, c := range t.Columns {
		def.Columns = append(def.Columns, core.Column{Name: c.Name, Type: c.Type, Partition: c.Partition})
	}
	return def, nil
}

// TableFormat returns the configured format of SQL source tables.
func (c Config) TableFormat() core.TableFormat {
	if c.Format == "" {
		return core.FormatNative
	}
	return core.TableFormat(strings.ToLower(c.Format))
}

// PartitionsFor returns the configured partition columns of a table,
// matching the relative path case-insensitively.
func (c Config) PartitionsFor(rel core.TablePath) []string {
	key := rel.String()
	for name, cols := range c.Partitions {
		if strings.EqualFold(name, key) {
			return cols
		}
	}
	return nil
}
