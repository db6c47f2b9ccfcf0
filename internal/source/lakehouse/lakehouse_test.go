package lakehouse

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/internal/state"
	"github.com/leapstack-labs/leapdml/internal/testutil"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var salesPath = core.NewTablePath("lake", "sales")

func setup(t *testing.T) (*state.SQLiteStore, *Source) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })

	src, err := source.Open(context.Background(), source.Config{Name: "lake", Type: TypeName}, source.Deps{Logger: logger, Store: store})
	require.NoError(t, err)
	return store, src.(*Source)
}

func TestSource_ResolveVersion(t *testing.T) {
	store, src := setup(t)
	ctx := context.Background()

	c1, err := store.CommitTable(ctx, "lake", "main", core.TableDef{
		Path:    salesPath,
		Format:  core.FormatIceberg,
		Columns: []core.Column{{Name: "id", Type: "bigint"}},
	}, "add sales")
	require.NoError(t, err)
	_, err = store.CreateTag(ctx, "lake", "v1", c1.Hash)
	require.NoError(t, err)

	head, err := src.ResolveVersion(ctx, core.NotSpecified())
	require.NoError(t, err)
	assert.Equal(t, &core.ResolvedVersionContext{Type: core.VersionBranch, RefName: "main", CommitHash: c1.Hash}, head)

	tag, err := src.ResolveVersion(ctx, core.Tag("v1"))
	require.NoError(t, err)
	assert.Equal(t, core.VersionTag, tag.Type)
	assert.False(t, tag.IsBranch())

	commit, err := src.ResolveVersion(ctx, core.Commit(c1.Hash))
	require.NoError(t, err)
	assert.Equal(t, c1.Hash, commit.CommitHash)

	errCases := []core.VersionContext{
		core.Branch("ghost"),
		core.Branch("v1"),
		core.Tag("main"),
		core.Commit("nope"),
		{Type: "weird", Value: "x"},
	}
	for _, vc := range errCases {
		_, err := src.ResolveVersion(ctx, vc)
		require.Error(t, err, vc.String())
		assert.True(t, planerr.Is(err, planerr.CategoryVersionResolution), vc.String())
	}
}

func TestSource_ResolveVersionStoreFailure(t *testing.T) {
	store, src := setup(t)
	require.NoError(t, store.Close())

	for _, vc := range []core.VersionContext{core.Branch("main"), core.Commit("c001")} {
		_, err := src.ResolveVersion(context.Background(), vc)
		require.Error(t, err, vc.String())
		assert.False(t, planerr.Is(err, planerr.CategoryVersionResolution), vc.String())
		assert.Equal(t, planerr.CategoryPlanning, planerr.CategoryOf(err), vc.String())
	}
}

func TestSource_LookupFollowsBranches(t *testing.T) {
	store, src := setup(t)
	ctx := context.Background()

	main, err := store.GetRef(ctx, "lake", "main")
	require.NoError(t, err)
	_, err = store.CreateBranch(ctx, "lake", "dev", main.CommitHash)
	require.NoError(t, err)

	_, err = store.CommitTable(ctx, "lake", "dev", core.TableDef{Path: salesPath, Format: core.FormatIceberg}, "add sales on dev")
	require.NoError(t, err)

	onMain, err := src.Lookup(ctx, salesPath)
	require.NoError(t, err)
	assert.Nil(t, onMain)

	dev, err := src.ResolveVersion(ctx, core.Branch("dev"))
	require.NoError(t, err)
	onDev, err := src.LookupAt(ctx, salesPath, dev)
	require.NoError(t, err)
	require.NotNil(t, onDev)
	assert.Equal(t, "lake", onDev.Source)
	assert.True(t, onDev.Mutable())

	_, err = src.LookupAt(ctx, salesPath, nil)
	assert.Error(t, err)
}

func TestSource_OpenAndDefaults(t *testing.T) {
	_, src := setup(t)
	assert.Equal(t, "lake", src.Name())
	assert.Equal(t, DefaultBranch, src.DefaultBranch())
	assert.True(t, src.SupportsVersioning())
	assert.NoError(t, src.Ping(context.Background()))
	assert.NoError(t, src.Close())

	err := New(nil, nil).Open(context.Background(), source.Config{Name: "lake"})
	assert.ErrorContains(t, err, "requires a metadata store")
	assert.Error(t, New(nil, nil).Ping(context.Background()))
}

func TestSource_CustomDefaultBranch(t *testing.T) {
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer func() { _ = store.Close() }()

	src := New(store, nil)
	require.NoError(t, src.Open(context.Background(), source.Config{Name: "lake", DefaultBranch: "trunk"}))

	head, err := src.ResolveVersion(context.Background(), core.NotSpecified())
	require.NoError(t, err)
	assert.Equal(t, "trunk", head.RefName)
}
