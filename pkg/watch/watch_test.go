package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tagoverlay/pkg/watch"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background()))
	defer cancel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.cs")
	other := filepath.Join(dir, "b.cs")
	require.NoError(t, os.WriteFile(path, []byte("class A {}"), 0o644))

	w, err := watch.New(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	changes, err := w.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(other, []byte("class B {}"), 0o644))
	select {
	case <-changes:
		t.Fatal("a sibling file should not signal")
	case <-time.After(200 * time.Millisecond):
	}

	for _, text := range []string{"class A { }", "class A {  }", "class A {   }"} {
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changes:
		t.Fatal("burst of writes should signal once")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-changes
		return !ok
	}, time.Second, 10*time.Millisecond)
}
