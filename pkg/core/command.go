package core

// OperatorKind identifies a recognized DML operator.
type OperatorKind int

// The closed set of mutation operators. OperatorUnknown is never valid.
const (
	OperatorUnknown OperatorKind = iota
	OperatorInsert
	OperatorBulkLoad
)

func (k OperatorKind) String() string {
	switch k {
	case OperatorInsert:
		return "INSERT"
	case OperatorBulkLoad:
		return "COPY INTO"
	default:
		return "UNKNOWN"
	}
}

// BulkLoadSpec describes the external files read by a bulk load.
type BulkLoadSpec struct {
	Location   string
	FileFormat string
}

// MutationCommand is a parsed, validated data-mutation statement.
// It is not modified after construction.
type MutationCommand struct {
	Kind         OperatorKind
	Target       TablePath
	SingleWriter bool
	// FieldNames lists the explicit target columns; empty means all columns.
	FieldNames []string
	// Source is the rendered row source of an insert (VALUES or SELECT).
	Source string
	// BulkLoad is set for OperatorBulkLoad only.
	BulkLoad *BulkLoadSpec
}

// PartitionColumns returns the partition columns the command would write
// to, computed against the resolved table schema.
func (c *MutationCommand) PartitionColumns(t *ResolvedTarget) []string {
	if t == nil {
		return nil
	}
	return t.PartitionColumns()
}

// WithTarget returns a copy of the command pointed at another path.
func (c *MutationCommand) WithTarget(p TablePath) *MutationCommand {
	cp := *c
	cp.Target = p
	return &cp
}
