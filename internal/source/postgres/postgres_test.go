package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdml/internal/source"
	"github.com/leapstack-labs/leapdml/internal/testutil"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  source.Config
		want string
	}{
		{
			name: "defaults",
			cfg:  source.Config{Database: "shop"},
			want: "host=localhost port=5432 dbname=shop sslmode=disable",
		},
		{
			name: "credentials and sslmode",
			cfg: source.Config{
				Host:     "db.internal",
				Port:     6543,
				Database: "shop",
				User:     "planner",
				Password: "secret",
				Options:  map[string]string{"sslmode": "require"},
			},
			want: "host=db.internal port=6543 dbname=shop sslmode=require user=planner password=secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}

func TestSource_LookupUsesDollarPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	src := New(testutil.NewTestLogger(t))
	src.DB = db
	src.Cfg = source.Config{Name: "rdbms", Partitions: map[string][]string{"customers": {"region"}}}

	mock.ExpectQuery(`table_schema = \$1 AND table_name = \$2`).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"table_type"}).AddRow("BASE TABLE"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("id", "bigint").
			AddRow("region", "text"))

	target, err := src.Lookup(context.Background(), core.NewTablePath("rdbms", "customers"))
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, []string{"region"}, target.PartitionColumns())
	assert.Equal(t, core.FormatNative, target.Format)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew(t *testing.T) {
	src := New(nil)
	assert.Equal(t, TypeName, src.Type())
	assert.Equal(t, "public", src.DefaultSchema)
	assert.False(t, src.SupportsVersioning())
	assert.True(t, source.IsRegistered(TypeName))
}
