package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionContext(t *testing.T) {
	tests := []struct {
		input   string
		want    VersionContext
		wantErr bool
	}{
		{input: "", want: NotSpecified()},
		{input: "main", want: Branch("main")},
		{input: "branch:dev", want: Branch("dev")},
		{input: "TAG:v1", want: Tag("v1")},
		{input: "commit:c123", want: Commit("c123")},
		{input: "branch:", wantErr: true},
		{input: "snapshot:1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersionContext(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionContext_IsSpecified(t *testing.T) {
	assert.False(t, NotSpecified().IsSpecified())
	assert.False(t, VersionContext{}.IsSpecified())
	assert.True(t, Branch("main").IsSpecified())
	assert.Equal(t, "<current>", NotSpecified().String())
	assert.Equal(t, "branch main", Branch("main").String())
}

func TestResolvedVersionContext_String(t *testing.T) {
	var none *ResolvedVersionContext
	assert.Equal(t, "<none>", none.String())
	assert.False(t, none.IsBranch())

	b := &ResolvedVersionContext{Type: VersionBranch, RefName: "main", CommitHash: "c123"}
	assert.True(t, b.IsBranch())
	assert.Equal(t, "branch main@c123", b.String())

	c := &ResolvedVersionContext{Type: VersionCommit, CommitHash: "c123"}
	assert.Equal(t, "commit c123", c.String())
}

func TestSession_VersionFor(t *testing.T) {
	sess := NewSession("alice", Options{})
	assert.Equal(t, NotSpecified(), sess.VersionFor("lake"))

	sess.SetVersion("lake", Branch("dev"))
	assert.Equal(t, Branch("dev"), sess.VersionFor("lake"))
	assert.Equal(t, NotSpecified(), sess.VersionFor("rdbms"))

	var zero Session
	zero.SetVersion("lake", Tag("v1"))
	assert.Equal(t, Tag("v1"), zero.VersionFor("lake"))
}

func TestOptions_Option(t *testing.T) {
	opts := Options{BulkLoadEnabled: true}

	v, err := opts.Option(OptionBulkLoadEnabled)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = opts.Option(OptionDisplayResultOnly)
	require.NoError(t, err)
	assert.False(t, v)

	_, err = opts.Option("dml.unknown")
	assert.Error(t, err)
}

func TestResolvedTarget_Helpers(t *testing.T) {
	target := &ResolvedTarget{
		Kind: TableKindTable,
		Columns: []Column{
			{Name: "id", Type: "bigint"},
			{Name: "region", Type: "varchar", Partition: true},
			{Name: "day", Type: "date", Partition: true},
		},
	}

	assert.True(t, target.Mutable())
	assert.Equal(t, []string{"region", "day"}, target.PartitionColumns())

	col, ok := target.Column("REGION")
	assert.True(t, ok)
	assert.Equal(t, "region", col.Name)

	_, ok = target.Column("missing")
	assert.False(t, ok)

	view := &ResolvedTarget{Kind: TableKindView}
	assert.False(t, view.Mutable())

	var nilTarget *ResolvedTarget
	assert.False(t, nilTarget.Mutable())
	assert.Nil(t, nilTarget.PartitionColumns())

	cmd := &MutationCommand{Kind: OperatorInsert}
	assert.Equal(t, []string{"region", "day"}, cmd.PartitionColumns(target))
	assert.Nil(t, cmd.PartitionColumns(nil))
}
