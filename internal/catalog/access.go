package catalog

import (
	"strings"

	"github.com/leapstack-labs/leapdml/pkg/core"
)

// AnyPrincipal matches every user in a grant.
const AnyPrincipal = "*"

// Grant allows a principal privileges on every table under a path prefix.
type Grant struct {
	Principal  string   `koanf:"principal"`
	Path       string   `koanf:"path"`
	Privileges []string `koanf:"privileges"`
}

// AccessConfig configures privilege checks.
type AccessConfig struct {
	// Enforce turns privilege checks on; when off every user holds every
	// privilege.
	Enforce bool    `koanf:"enforce"`
	Grants  []Grant `koanf:"grants"`
}

// allows reports whether g gives user privilege on path.
func (g Grant) allows(user string, path core.TablePath, privilege core.Privilege) bool {
	if g.Principal != AnyPrincipal && g.Principal != user {
		return false
	}
	if !hasPrivilege(g.Privileges, privilege) {
		return false
	}
	if g.Path == "" || g.Path == "*" {
		return true
	}
	prefix, err := core.ParsePath(g.Path)
	if err != nil {
		return false
	}
	return path.HasPrefix(prefix)
}

func hasPrivilege(list []string, p core.Privilege) bool {
	for _, granted := range list {
		if strings.EqualFold(granted, string(p)) || granted == "all" {
			return true
		}
	}
	return false
}
