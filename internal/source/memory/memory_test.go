package memory

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/internal/testutil"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Lookup(t *testing.T) {
	src := New(testutil.NewTestLogger(t))
	require.NoError(t, src.Open(context.Background(), source.Config{
		Name:   "mem",
		Format: "iceberg",
		Tables: []source.TableConfig{
			{Name: "orders", Columns: []source.ColumnConfig{{Name: "id", Type: "bigint"}, {Name: "day", Type: "date", Partition: true}}},
			{Name: "recent_orders", Kind: "view", Format: "native"},
		},
	}))

	orders, err := src.Lookup(context.Background(), core.NewTablePath("MEM", "Orders"))
	require.NoError(t, err)
	require.NotNil(t, orders)
	assert.Equal(t, "mem", orders.Source)
	assert.Equal(t, core.FormatIceberg, orders.Format)
	assert.True(t, orders.Mutable())
	assert.Equal(t, []string{"day"}, orders.PartitionColumns())

	view, err := src.Lookup(context.Background(), core.NewTablePath("mem", "recent_orders"))
	require.NoError(t, err)
	assert.Equal(t, core.TableKindView, view.Kind)
	assert.Equal(t, core.FormatNative, view.Format)

	missing, err := src.Lookup(context.Background(), core.NewTablePath("mem", "ghost"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, TypeName, src.Type())
	assert.False(t, src.SupportsVersioning())
	assert.NoError(t, src.Ping(context.Background()))
	assert.NoError(t, src.Close())
}

func TestSource_LookupReturnsCopies(t *testing.T) {
	src := New(nil)
	require.NoError(t, src.Open(context.Background(), source.Config{
		Name:   "mem",
		Tables: []source.TableConfig{{Name: "orders", Columns: []source.ColumnConfig{{Name: "id"}}}},
	}))

	first, err := src.Lookup(context.Background(), core.NewTablePath("mem", "orders"))
	require.NoError(t, err)
	first.Columns[0].Name = "changed"

	second, err := src.Lookup(context.Background(), core.NewTablePath("mem", "orders"))
	require.NoError(t, err)
	assert.Equal(t, "id", second.Columns[0].Name)
}

func TestSource_OpenErrors(t *testing.T) {
	tests := []struct {
		name   string
		tables []source.TableConfig
	}{
		{name: "duplicate", tables: []source.TableConfig{{Name: "a"}, {Name: "A"}}},
		{name: "bad path", tables: []source.TableConfig{{Name: "a..b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(nil).Open(context.Background(), source.Config{Name: "mem", Tables: tt.tables})
			assert.Error(t, err)
		})
	}
}

func TestRegistered(t *testing.T) {
	assert.True(t, source.IsRegistered(TypeName))
}
