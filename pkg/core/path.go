package core

import (
	"fmt"
	"strings"
)

// TablePath is a hierarchical table name. The first element names the
// source that owns the table (e.g. "lake.sales" is owned by "lake").
type TablePath []string

// NewTablePath builds a path from its segments.
func NewTablePath(parts ...string) TablePath {
	return TablePath(parts)
}

// ParsePath splits dotted text into a TablePath.
// Double-quoted segments may contain dots: lake."my.table".
func ParsePath(s string) (TablePath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty table path")
	}

	var (
		parts   []string
		current strings.Builder
		quoted  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			quoted = !quoted
		case c == '.' && !quoted:
			if current.Len() == 0 {
				return nil, fmt.Errorf("invalid table path %q: empty segment", s)
			}
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if quoted {
		return nil, fmt.Errorf("invalid table path %q: unterminated quote", s)
	}
	if current.Len() == 0 {
		return nil, fmt.Errorf("invalid table path %q: empty segment", s)
	}
	parts = append(parts, current.String())

	return TablePath(parts), nil
}

// Root returns the owning source name, or "" for an empty path.
func (p TablePath) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Leaf returns the last segment (the table name).
func (p TablePath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Relative returns the path below the source root.
func (p TablePath) Relative() TablePath {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
// Comparison is case-insensitive.
func (p TablePath) HasPrefix(prefix TablePath) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if !strings.EqualFold(p[i], prefix[i]) {
			return false
		}
	}
	return true
}

// Qualify prefixes a single-segment path with the given source.
// Paths that already name a source are returned unchanged.
func (p TablePath) Qualify(source string) TablePath {
	if len(p) != 1 || source == "" {
		return p
	}
	return TablePath{source, p[0]}
}

// String joins the segments with dots, quoting segments that contain one.
func (p TablePath) String() string {
	parts := make([]string, len(p))
	for i, part := range p {
		if strings.Contains(part, ".") {
			parts[i] = `"` + part + `"`
		} else {
			parts[i] = part
		}
	}
	return strings.Join(parts, ".")
}
