package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/tagoverlay/pkg/config"
	"github.com/walteh/tagoverlay/pkg/labels"
	"github.com/walteh/tagoverlay/pkg/style"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		config      string
		expectError bool
		validate    func(t *testing.T, cfg *config.Settings)
	}{
		{
			name: "valid_hcl",
			path: "tagoverlay.hcl",
			config: `
mark_abstractions = false

label "TODO" {
  style = "todo"
  apply = "content"
  ignore_case = true
  allow_punctuation = true
}

label "!" {
  style = "exclamation"
  apply = "tag"
}
`,
			validate: func(t *testing.T, cfg *config.Settings) {
				assert.True(t, cfg.MarkDeclarations)
				assert.True(t, cfg.MarkDirectives)
				assert.False(t, cfg.MarkAbstractions)
				assert.True(t, cfg.MarkComments)
				require.Len(t, cfg.Labels, 2)
				assert.Equal(t, labels.Rule{
					Label:                     "TODO",
					IgnoreCase:                true,
					Style:                     style.ToDo,
					Application:               labels.ContentOnly,
					AllowPunctuationDelimiter: true,
				}, cfg.Labels[0])
				assert.Equal(t, "!", cfg.Labels[1].Label)
				assert.Equal(t, labels.TagOnly, cfg.Labels[1].Application)
			},
		},
		{
			name: "valid_yaml",
			path: "tagoverlay.yaml",
			config: `
mark_comments: false
labels:
  - text: NOTE
    style: note
  - text: HACK
    style: hack
    apply: whole
`,
			validate: func(t *testing.T, cfg *config.Settings) {
				assert.False(t, cfg.MarkComments)
				require.Len(t, cfg.Labels, 2)
				assert.Equal(t, style.Note, cfg.Labels[0].Style)
				assert.Equal(t, labels.WholeSpan, cfg.Labels[0].Application)
				assert.Equal(t, style.Hack, cfg.Labels[1].Style)
			},
		},
		{
			name: "no_labels_keeps_defaults",
			path: "tagoverlay.hcl",
			config: `
mark_directives = false
`,
			validate: func(t *testing.T, cfg *config.Settings) {
				assert.False(t, cfg.MarkDirectives)
				assert.Equal(t, config.Default().Labels, cfg.Labels)
			},
		},
		{
			name: "unknown_yaml_field",
			path: "tagoverlay.yml",
			config: `
mark_everything: true
`,
			expectError: true,
		},
		{
			name: "invalid_labels_all_reported",
			path: "tagoverlay.hcl",
			config: `
label "TODO" {
  style = "sparkles"
}

label "NOTE" {
  style = "note"
  apply = "sideways"
}
`,
			expectError: true,
			validate: func(t *testing.T, cfg *config.Settings) {
				assert.Nil(t, cfg)
			},
		},
		{
			name:        "broken_hcl",
			path:        "tagoverlay.hcl",
			config:      `label "TODO" {`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.path, []byte(tt.config), 0o644))

			cfg, err := config.Load(context.Background(), fs, tt.path)
			if tt.expectError {
				require.Error(t, err)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadConfigReportsEveryInvalidLabel(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "c.hcl", []byte(`
label "A" {
  style = "nope"
}
label "B" {
  style = "nope"
}
`), 0o644))

	_, err := config.Load(context.Background(), fs, "c.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `label 0 ("A")`)
	assert.Contains(t, err.Error(), `label 1 ("B")`)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(context.Background(), afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(context.Background(), afero.NewMemMapFs(), "missing.hcl")
	require.Error(t, err)
}

func TestWithProperties(t *testing.T) {
	base := config.Default()
	got := base.WithProperties(context.Background(), map[string]string{
		"tagoverlay_mark_comments":     "false",
		"tagoverlay_mark_abstractions": "not-a-bool",
	})

	assert.False(t, got.MarkComments)
	assert.True(t, got.MarkAbstractions, "invalid values are ignored")
	assert.True(t, base.MarkComments, "input is not modified")
}

func TestForFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".editorconfig"), []byte(`root = true

[*.cs]
tagoverlay_mark_directives = false
`), 0o644))

	got := config.Default().ForFile(context.Background(), filepath.Join(dir, "Program.cs"))
	assert.False(t, got.MarkDirectives)
	assert.True(t, got.MarkComments)

	other := config.Default().ForFile(context.Background(), filepath.Join(dir, "notes.md"))
	assert.True(t, other.MarkDirectives)
}
