package core

import "time"

// Reference is a named branch or tag head in a versioned source.
// A nil Version means the reference was never persisted.
type Reference struct {
	Source     string
	Name       string
	Type       VersionType
	CommitHash string
	Version    *int64
	UpdatedAt  time.Time
}

// DatasetSplit describes one split of a dataset's data files.
// A nil Version means the split was never persisted.
type DatasetSplit struct {
	Dataset   string
	SplitKey  string
	RowCount  int64
	SizeBytes int64
	Version   *int64
	UpdatedAt time.Time
}

// CommitInfo is one commit in a versioned source's history.
type CommitInfo struct {
	Source    string
	Hash      string
	Parent    string
	Message   string
	CreatedAt time.Time
}

// TableDef describes a table written by a commit.
type TableDef struct {
	Path    TablePath
	Kind    TableKind
	Format  TableFormat
	Columns []Column
	Dropped bool
}
