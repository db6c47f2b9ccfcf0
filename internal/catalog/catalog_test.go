package catalog

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/source"
	_ "github.com/leapstack-labs/leapdml/internal/source/lakehouse"
	_ "github.com/leapstack-labs/leapdml/internal/source/memory"
	"github.com/leapstack-labs/leapdml/internal/state"
	"github.com/leapstack-labs/leapdml/internal/testutil"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lakeSales      = core.NewTablePath("lake", "sales")
	rdbmsCustomers = core.NewTablePath("rdbms", "customers")
)

func setup(t *testing.T, access AccessConfig) (*state.SQLiteStore, *Catalog) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })

	cfgs := []source.Config{
		{Name: "lake", Type: "lakehouse"},
		{
			Name: "rdbms",
			Type: "memory",
			Tables: []source.TableConfig{
				{Name: "customers", Columns: []source.ColumnConfig{{Name: "id", Type: "bigint"}}},
			},
		},
	}
	cat, err := Open(context.Background(), cfgs, source.Deps{Logger: logger, Store: store}, access, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	_, err = store.CommitTable(context.Background(), "lake", "main", core.TableDef{
		Path:    lakeSales,
		Format:  core.FormatIceberg,
		Columns: []core.Column{{Name: "id", Type: "bigint"}},
	}, "add sales")
	require.NoError(t, err)
	return store, cat
}

func TestCatalog_Routing(t *testing.T) {
	_, cat := setup(t, AccessConfig{})
	ctx := context.Background()

	assert.True(t, cat.SupportsVersioning(lakeSales))
	assert.False(t, cat.SupportsVersioning(rdbmsCustomers))
	assert.False(t, cat.SupportsVersioning(core.NewTablePath("ghost", "t")))

	sales, err := cat.ResolveTarget(ctx, lakeSales)
	require.NoError(t, err)
	require.NotNil(t, sales)
	assert.Equal(t, core.FormatIceberg, sales.Format)

	customers, err := cat.ResolveTarget(ctx, core.NewTablePath("RDBMS", "customers"))
	require.NoError(t, err)
	require.NotNil(t, customers)

	unknown, err := cat.ResolveTarget(ctx, core.NewTablePath("ghost", "t"))
	require.NoError(t, err)
	assert.Nil(t, unknown)

	names := []string{}
	for _, src := range cat.Sources() {
		names = append(names, src.Name())
	}
	assert.Equal(t, []string{"lake", "rdbms"}, names)
}

func TestCatalog_Versions(t *testing.T) {
	_, cat := setup(t, AccessConfig{})
	ctx := context.Background()

	head, err := cat.ResolveVersion(ctx, "lake", core.NotSpecified())
	require.NoError(t, err)
	assert.Equal(t, "main", head.RefName)

	target, err := cat.TargetAt(ctx, lakeSales, head)
	require.NoError(t, err)
	require.NotNil(t, target)

	_, err = cat.ResolveVersion(ctx, "rdbms", core.NotSpecified())
	assert.True(t, planerr.Is(err, planerr.CategoryInternal))

	_, err = cat.ResolveVersion(ctx, "ghost", core.NotSpecified())
	assert.True(t, planerr.Is(err, planerr.CategoryNotFound))

	_, err = cat.ResolveVersion(ctx, "lake", core.Branch("ghost"))
	assert.True(t, planerr.Is(err, planerr.CategoryVersionResolution))

	_, err = cat.TargetAt(ctx, rdbmsCustomers, head)
	assert.Error(t, err)
}

func TestCatalog_AnswersAreNotCached(t *testing.T) {
	store, cat := setup(t, AccessConfig{})
	ctx := context.Background()

	before, err := cat.ResolveVersion(ctx, "lake", core.NotSpecified())
	require.NoError(t, err)

	_, err = store.CommitTable(ctx, "lake", "main", core.TableDef{Path: core.NewTablePath("lake", "returns")}, "add returns")
	require.NoError(t, err)

	after, err := cat.ResolveVersion(ctx, "lake", core.NotSpecified())
	require.NoError(t, err)
	assert.NotEqual(t, before.CommitHash, after.CommitHash)
}

func TestCatalog_ValidatePrivilege(t *testing.T) {
	access := AccessConfig{
		Enforce: true,
		Grants: []Grant{
			{Principal: "alice", Path: "lake", Privileges: []string{"insert", "select"}},
			{Principal: AnyPrincipal, Path: "rdbms.customers", Privileges: []string{"select"}},
			{Principal: "etl", Path: "*", Privileges: []string{"all"}},
		},
	}
	_, cat := setup(t, access)
	ctx := context.Background()

	tests := []struct {
		name      string
		user      string
		path      core.TablePath
		privilege core.Privilege
		allowed   bool
	}{
		{name: "prefix grant", user: "alice", path: lakeSales, privilege: core.PrivilegeInsert, allowed: true},
		{name: "other source", user: "alice", path: rdbmsCustomers, privilege: core.PrivilegeInsert},
		{name: "wildcard principal", user: "bob", path: rdbmsCustomers, privilege: core.PrivilegeSelect, allowed: true},
		{name: "wildcard lacks insert", user: "bob", path: rdbmsCustomers, privilege: core.PrivilegeInsert},
		{name: "all privileges", user: "etl", path: rdbmsCustomers, privilege: core.PrivilegeInsert, allowed: true},
		{name: "no grant", user: "mallory", path: lakeSales, privilege: core.PrivilegeSelect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cat.ValidatePrivilege(ctx, tt.user, tt.path, tt.privilege)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, planerr.Is(err, planerr.CategoryPermissionDenied))
		})
	}
}

func TestCatalog_ValidatePrivilegeNotEnforced(t *testing.T) {
	_, cat := setup(t, AccessConfig{})
	assert.NoError(t, cat.ValidatePrivilege(context.Background(), "anyone", lakeSales, core.PrivilegeInsert))
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, []source.Config{{Name: "x", Type: "nope"}}, source.Deps{}, AccessConfig{}, nil)
	assert.Error(t, err)

	dup := []source.Config{{Name: "mem", Type: "memory"}, {Name: "MEM", Type: "memory"}}
	_, err = Open(ctx, dup, source.Deps{}, AccessConfig{}, nil)
	assert.ErrorContains(t, err, "more than once")

	_, err = Open(ctx, []source.Config{{Name: "lake", Type: "lakehouse"}}, source.Deps{}, AccessConfig{}, nil)
	assert.ErrorContains(t, err, "requires a metadata store")
}
