package core

import "fmt"

// Named boolean options consulted during planning.
const (
	OptionBulkLoadEnabled   = "dml.bulk_load.enabled"
	OptionDisplayResultOnly = "dml.display_result_only"
)

// Options holds the planning feature flags.
type Options struct {
	BulkLoadEnabled   bool `koanf:"bulk_load_enabled"`
	DisplayResultOnly bool `koanf:"display_result_only"`
}

// Option returns a named option's value.
func (o Options) Option(name string) (bool, error) {
	switch name {
	case OptionBulkLoadEnabled:
		return o.BulkLoadEnabled, nil
	case OptionDisplayResultOnly:
		return o.DisplayResultOnly, nil
	default:
		return false, fmt.Errorf("unknown option %q", name)
	}
}

// Session carries the caller's identity, options and version intents.
// It is passed explicitly to every validator and router call.
type Session struct {
	User          string
	DefaultSource string
	Options       Options
	versions      map[string]VersionContext
}

// NewSession creates a session for user.
func NewSession(user string, opts Options) *Session {
	return &Session{
		User:     user,
		Options:  opts,
		versions: make(map[string]VersionContext),
	}
}

// SetVersion records the caller's version intent for a source.
func (s *Session) SetVersion(source string, vc VersionContext) {
	if s.versions == nil {
		s.versions = make(map[string]VersionContext)
	}
	s.versions[source] = vc
}

// VersionFor returns the version intent for a source, or NotSpecified.
func (s *Session) VersionFor(source string) VersionContext {
	if s == nil {
		return NotSpecified()
	}
	if vc, ok := s.versions[source]; ok {
		return vc
	}
	return NotSpecified()
}
