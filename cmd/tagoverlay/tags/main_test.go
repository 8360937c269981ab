package tags_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tagoverlay/cmd/tagoverlay/tags"
)

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := tags.NewTagsCommand(func() string { return config })
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestTagsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Shape.cs")
	src := "class Shape\n{\n    // HACK: fixed size\n    public abstract void Draw();\n}\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	out, err := run(t, "", path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`1:7-1:12 class name "Shape"`,
		`3:8-3:24 overlay: comment hack "HACK: fixed size"`,
		`4:12-4:20 overlay: abstraction keyword "abstract"`,
	}, strings.Split(strings.TrimSpace(out), "\n"))

	t.Run("config disables abstractions", func(t *testing.T) {
		cfg := filepath.Join(dir, "overlay.yaml")
		require.NoError(t, os.WriteFile(cfg, []byte("mark_abstractions: false\n"), 0o644))
		out, err := run(t, cfg, path)
		require.NoError(t, err)
		assert.NotContains(t, out, "abstract")
	})

	t.Run("range outside the file", func(t *testing.T) {
		_, err := run(t, "", path, "--start", "5", "--end", "1000")
		assert.Error(t, err)
	})

	t.Run("unsupported file", func(t *testing.T) {
		txt := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
		_, err := run(t, "", txt)
		assert.Error(t, err)
	})
}
