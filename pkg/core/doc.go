// Package core defines the shared language of the leapdml system.
//
// This package contains:
//   - Statement types (MutationCommand, OperatorKind, TablePath)
//   - Catalog answers (ResolvedTarget, Column, TableKind, TableFormat)
//   - Version references (VersionContext, ResolvedVersionContext)
//   - Session state (Session, Options)
//   - Service interfaces (Catalog, PlanBuilder)
//   - Versioned metadata records (Reference, DatasetSplit)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
