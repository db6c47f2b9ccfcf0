package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TablePath
		wantErr bool
	}{
		{name: "two parts", input: "lake.sales", want: TablePath{"lake", "sales"}},
		{name: "nested", input: "lake.raw.events", want: TablePath{"lake", "raw", "events"}},
		{name: "single", input: "sales", want: TablePath{"sales"}},
		{name: "quoted dot", input: `lake."my.table"`, want: TablePath{"lake", "my.table"}},
		{name: "trims space", input: "  lake.sales ", want: TablePath{"lake", "sales"}},
		{name: "empty", input: "", wantErr: true},
		{name: "empty segment", input: "lake..sales", wantErr: true},
		{name: "trailing dot", input: "lake.", wantErr: true},
		{name: "unterminated quote", input: `lake."sales`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTablePath_Accessors(t *testing.T) {
	p := NewTablePath("lake", "raw", "events")

	assert.Equal(t, "lake", p.Root())
	assert.Equal(t, "events", p.Leaf())
	assert.Equal(t, TablePath{"raw", "events"}, p.Relative())
	assert.Equal(t, "lake.raw.events", p.String())

	var empty TablePath
	assert.Equal(t, "", empty.Root())
	assert.Equal(t, "", empty.Leaf())
	assert.Nil(t, empty.Relative())
}

func TestTablePath_StringQuotesDots(t *testing.T) {
	p := NewTablePath("lake", "my.table")
	assert.Equal(t, `lake."my.table"`, p.String())

	back, err := ParsePath(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestTablePath_HasPrefix(t *testing.T) {
	p := NewTablePath("lake", "sales")

	assert.True(t, p.HasPrefix(NewTablePath("lake")))
	assert.True(t, p.HasPrefix(NewTablePath("LAKE", "Sales")))
	assert.True(t, p.HasPrefix(nil))
	assert.False(t, p.HasPrefix(NewTablePath("rdbms")))
	assert.False(t, p.HasPrefix(NewTablePath("lake", "sales", "x")))
}

func TestTablePath_Qualify(t *testing.T) {
	assert.Equal(t, TablePath{"lake", "sales"}, NewTablePath("sales").Qualify("lake"))
	assert.Equal(t, TablePath{"rdbms", "sales"}, NewTablePath("rdbms", "sales").Qualify("lake"))
	assert.Equal(t, TablePath{"sales"}, NewTablePath("sales").Qualify(""))
}
