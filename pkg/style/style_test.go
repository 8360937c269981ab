package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/tagoverlay/pkg/style"
)

func TestParseID(t *testing.T) {
	id, err := style.ParseID("TODO")
	require.NoError(t, err)
	assert.Equal(t, style.ToDo, id)
	assert.Equal(t, "todo", id.String())

	_, err = style.ParseID("sparkles")
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := style.NewRegistry()

	todo, ok := r.Comment(style.ToDo)
	require.True(t, ok)
	assert.Equal(t, "overlay: comment todo", todo.Classification)

	h2, ok := r.Heading(2)
	require.True(t, ok)
	assert.Equal(t, "overlay: markdown heading 2", h2.Classification)

	_, ok = r.Heading(7)
	assert.False(t, ok)

	assert.Equal(t, "class name", r.PassThrough("class name").String())
	assert.NotEqual(t, todo, r.Abstraction())
}
