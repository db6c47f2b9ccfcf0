package output

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"TEXT", ModeText},
		{" yaml ", ModeYAML},
		{"json", ModeJSON},
		{"markdown", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ModeText, NewRendererWithTTY(&buf, &buf, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeYAML, NewRendererWithTTY(&buf, &buf, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&buf, &buf, true, ModeJSON).EffectiveMode())
	assert.Equal(t, ModeYAML, NewRenderer(&buf, &buf, ModeAuto).EffectiveMode(), "buffers are not terminals")
}

func TestRenderer_Table(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeText)

	r.Table([]string{"NAME", "TYPE"}, [][]string{{"lake", "lakehouse"}, {"rdbms", "postgres"}})
	got := out.String()
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "lakehouse")
	assert.Contains(t, got, "┌")
	assert.False(t, ansiPattern.MatchString(got))

	out.Reset()
	r.Table([]string{"NAME"}, nil)
	assert.Contains(t, out.String(), "(none)")
}

func TestRenderer_Data(t *testing.T) {
	type row struct {
		Name string `json:"name" yaml:"name"`
	}

	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeJSON)
	require.NoError(t, r.Data(row{Name: "lake"}))
	assert.JSONEq(t, `{"name":"lake"}`, out.String())

	out.Reset()
	r = NewRendererWithTTY(&out, &out, false, ModeYAML)
	require.NoError(t, r.Data(row{Name: "lake"}))
	assert.YAMLEq(t, "name: lake\n", out.String())
}

func TestRenderer_MessagesSplitStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeText)

	r.Success("done")
	r.Warning("careful")
	r.Error("failed")

	assert.Contains(t, out.String(), "✓ done")
	assert.Contains(t, errOut.String(), "! careful")
	assert.Contains(t, errOut.String(), "✗ failed")
}
