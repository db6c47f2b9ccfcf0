package core

import (
	"fmt"
	"strings"
)

// VersionType is the kind of reference a version context names.
type VersionType string

// Version type constants.
const (
	VersionNotSpecified VersionType = "not_specified"
	VersionBranch       VersionType = "branch"
	VersionTag          VersionType = "tag"
	VersionCommit       VersionType = "commit"
)

// VersionContext is a caller's unresolved intent naming a branch, tag or
// commit. Nothing guarantees the reference exists.
type VersionContext struct {
	Type  VersionType
	Value string
}

// NotSpecified is the implicit "current" reference.
func NotSpecified() VersionContext {
	return VersionContext{Type: VersionNotSpecified}
}

// Branch names a branch.
func Branch(name string) VersionContext {
	return VersionContext{Type: VersionBranch, Value: name}
}

// Tag names a tag.
func Tag(name string) VersionContext {
	return VersionContext{Type: VersionTag, Value: name}
}

// Commit names an explicit commit.
func Commit(hash string) VersionContext {
	return VersionContext{Type: VersionCommit, Value: hash}
}

// IsSpecified reports whether the caller named a reference.
func (v VersionContext) IsSpecified() bool {
	return v.Type != "" && v.Type != VersionNotSpecified
}

func (v VersionContext) String() string {
	if !v.IsSpecified() {
		return "<current>"
	}
	return string(v.Type) + " " + v.Value
}

// ParseVersionContext parses "branch:main", "tag:v1" or "commit:abc".
// A bare name means a branch; an empty string means not specified.
func ParseVersionContext(s string) (VersionContext, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotSpecified(), nil
	}

	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return Branch(s), nil
	}
	if value == "" {
		return VersionContext{}, fmt.Errorf("invalid version reference %q: missing name", s)
	}

	switch VersionType(strings.ToLower(kind)) {
	case VersionBranch:
		return Branch(value), nil
	case VersionTag:
		return Tag(value), nil
	case VersionCommit:
		return Commit(value), nil
	default:
		return VersionContext{}, fmt.Errorf("invalid version reference %q: unknown type %q", s, kind)
	}
}

// ResolvedVersionContext is a concrete, immutable point-in-time reference.
// It is valid only for the plan-build call that produced it.
type ResolvedVersionContext struct {
	Type       VersionType `json:"type" yaml:"type"`
	RefName    string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	CommitHash string      `json:"commit" yaml:"commit"`
}

// IsBranch reports whether the reference resolved through a branch head.
func (r *ResolvedVersionContext) IsBranch() bool {
	return r != nil && r.Type == VersionBranch
}

func (r *ResolvedVersionContext) String() string {
	if r == nil {
		return "<none>"
	}
	if r.Type == VersionCommit {
		return "commit " + r.CommitHash
	}
	return fmt.Sprintf("%s %s@%s", r.Type, r.RefName, r.CommitHash)
}
