package router

import (
	"strings"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

var bulkLoadFormats = map[string]bool{
	"csv":     true,
	"json":    true,
	"parquet": true,
}

// ValidateTableFormatOptions checks that a classic target can be written.
func ValidateTableFormatOptions(cmd *core.MutationCommand, target *core.ResolvedTarget) error {
	switch target.Format {
	case core.FormatIceberg, core.FormatNative:
	default:
		return planerr.Unsupported("Table [%s] is stored as %s and does not support %s.", target.Path, target.Format, cmd.Kind)
	}
	return validateFileFormat(cmd)
}

// ValidateVersionedTableFormatOptions checks a versioned target. Versioned
// tables must be Iceberg tables, and only branch heads accept writes.
func ValidateVersionedTableFormatOptions(cmd *core.MutationCommand, target *core.ResolvedTarget, version *core.ResolvedVersionContext) error {
	if target.Format != core.FormatIceberg {
		return planerr.Unsupported("Versioned table [%s] must be an Iceberg table, found %s.", target.Path, target.Format)
	}
	if !version.IsBranch() {
		return planerr.Unsupported("%s requires a branch; %s is read-only.", cmd.Kind, version)
	}
	return validateFileFormat(cmd)
}

// ValidateSchema checks an explicit field list against the target schema.
// An empty list targets every column and always passes.
func ValidateSchema(fieldNames []string, target *core.ResolvedTarget) error {
	seen := make(map[string]bool, len(fieldNames))
	for _, name := range fieldNames {
		key := strings.ToLower(name)
		if seen[key] {
			return planerr.SchemaIncompatible("Field [%s] is listed more than once.", name)
		}
		seen[key] = true

		if _, ok := target.Column(name); !ok {
			return planerr.SchemaIncompatible("Table [%s] has no column [%s].", target.Path, name)
		}
	}
	return nil
}

func validateFileFormat(cmd *core.MutationCommand) error {
	if cmd.Kind != core.OperatorBulkLoad || cmd.BulkLoad == nil {
		return nil
	}
	format := strings.ToLower(cmd.BulkLoad.FileFormat)
	if format == "" {
		return nil
	}
	if !bulkLoadFormats[format] {
		return planerr.Unsupported("File format '%s' is not supported by COPY INTO.", cmd.BulkLoad.FileFormat)
	}
	return nil
}
