package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/leapstack-labs/leapdml/"

// importsOf returns the imports of the non-test files in dir.
func importsOf(t *testing.T, dir string) map[string][]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		require.NoError(t, err, name)
		for _, imp := range f.Imports {
			out[name] = append(out[name], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

func isStdlib(path string) bool {
	return !strings.Contains(strings.Split(path, "/")[0], ".")
}

// The planning pipeline's shared types and its error and version layers
// stay free of third-party and storage imports so every package can use them.
func TestLayering(t *testing.T) {
	tests := []struct {
		dir     string
		allowed []string
	}{
		{dir: ".", allowed: nil},
		{dir: "../../internal/planerr", allowed: nil},
		{dir: "../../internal/versioning", allowed: []string{modulePath + "pkg/core"}},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			for file, imports := range importsOf(t, tt.dir) {
				for _, imp := range imports {
					if isStdlib(imp) {
						continue
					}
					assert.Contains(t, tt.allowed, imp, "%s/%s imports forbidden package", tt.dir, file)
				}
			}
		})
	}
}
